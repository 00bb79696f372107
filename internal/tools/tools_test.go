package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/config"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
	"github.com/alexonufrak/dashboardv5-sub004/internal/resolver"
	"github.com/alexonufrak/dashboardv5-sub004/internal/throttle"
)

// newToolService backs a resolver with a one-record fake store: the cohort
// recCo1 exists, everything else is a 404.
func newToolService(t *testing.T) *resolver.Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/Cohorts/recCo1") {
			fmt.Fprint(w, `{"id":"recCo1","fields":{"Short Name":"Fall 2026","Status":"Active"}}`)
			return
		}
		if r.Method == http.MethodGet && !strings.Contains(strings.TrimPrefix(r.URL.Path, "/base/"), "/") {
			fmt.Fprint(w, `{"records":[]}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"type":"NOT_FOUND","message":"Record not found"}}`)
	}))
	t.Cleanup(srv.Close)

	air := airtable.NewClient(srv.URL, "test-key", "base")
	orch := fetch.New(cache.NewManager(), throttle.New(1000), 5)
	return resolver.New(air, orch, config.Tables{
		Contacts: "Contacts", Education: "Education", Institutions: "Institutions",
		Initiatives: "Initiatives", Cohorts: "Cohorts", Participation: "Participation",
		Teams: "Teams", Members: "Members", Partnerships: "Partnerships",
		Submissions: "Submissions", Milestones: "Milestones",
	})
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestEntityGetHandler(t *testing.T) {
	handler := EntityGetHandler(newToolService(t))
	ctx := context.Background()

	res, err := handler(ctx, callReq(map[string]any{"type": "cohort", "id": "recCo1"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, `"Fall 2026"`)
	assert.Contains(t, text, `"recCo1"`)
}

func TestEntityGetHandlerMissingRecord(t *testing.T) {
	handler := EntityGetHandler(newToolService(t))

	res, err := handler(context.Background(), callReq(map[string]any{"type": "cohort", "id": "recGhost"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "null", resultText(t, res))
}

func TestEntityGetHandlerValidation(t *testing.T) {
	handler := EntityGetHandler(newToolService(t))
	ctx := context.Background()

	res, err := handler(ctx, callReq(map[string]any{"id": "recCo1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "type is required")

	res, err = handler(ctx, callReq(map[string]any{"type": "widget", "id": "recCo1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "unknown types are rejected before any fetch")
}

func TestEntityListHandlerRejectsUnpairedType(t *testing.T) {
	handler := EntityListHandler(newToolService(t))

	res, err := handler(context.Background(), callReq(map[string]any{"type": "profile", "related_id": "recCt1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCacheInvalidateHandler(t *testing.T) {
	svc := newToolService(t)
	ctx := context.Background()

	_, err := svc.CohortByID(ctx, "recCo1", nil)
	require.NoError(t, err)

	handler := CacheInvalidateHandler(svc)
	res, err := handler(ctx, callReq(map[string]any{"type": "cohort", "id": "recCo1"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "removed 1 cache entries", resultText(t, res))

	// Idempotent second call.
	res, err = handler(ctx, callReq(map[string]any{"type": "cohort", "id": "recCo1"}))
	require.NoError(t, err)
	assert.Equal(t, "removed 0 cache entries", resultText(t, res))
}

func TestCacheStatsHandler(t *testing.T) {
	svc := newToolService(t)
	_, err := svc.CohortByID(context.Background(), "recCo1", nil)
	require.NoError(t, err)

	handler := CacheStatsHandler(svc)
	res, err := handler(context.Background(), callReq(nil))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, `"by_type"`)
	assert.Contains(t, text, `"cohort"`)
}

func TestCallOptions(t *testing.T) {
	assert.Nil(t, callOptions(callReq(nil)))
	assert.Nil(t, callOptions(callReq(map[string]any{"ttl_seconds": "abc"})))
	assert.Nil(t, callOptions(callReq(map[string]any{"ttl_seconds": "-5"})))

	opts := callOptions(callReq(map[string]any{"ttl_seconds": "90"}))
	require.NotNil(t, opts)
	assert.Equal(t, 90*time.Second, opts.TTL)
}
