// Package airtable is a minimal client for the remote record store's REST
// API: find-by-id, formula-filtered select, create and update. The store's
// schema is treated as opaque; records are id + loosely-typed fields.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// RequestTimeout is the transport-level deadline for a single call. Timeouts
// surface as net.Error values and classify as Timeout upstream.
const RequestTimeout = 20 * time.Second

// Record is a raw row from the store.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime time.Time      `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

// SortField orders a select.
type SortField struct {
	Field     string
	Direction string // "asc" | "desc"
}

// SelectOptions narrows a table select.
type SelectOptions struct {
	FilterByFormula string
	Fields          []string
	Sort            []SortField
	MaxRecords      int
	View            string
}

// APIError is a non-2xx response from the store.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: status %d", e.StatusCode)
}

// HTTPStatusCode satisfies the classifier's StatusCoder interface.
func (e *APIError) HTTPStatusCode() int { return e.StatusCode }

// Client talks to one base of the record store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	baseID     string
}

// NewClient builds a Client. baseURL defaults to the public API endpoint when
// empty.
func NewClient(baseURL, apiKey, baseID string) *Client {
	if baseURL == "" {
		baseURL = "https://api.airtable.com/v0"
	}
	return &Client{
		httpClient: &http.Client{Timeout: RequestTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		baseID:     baseID,
	}
}

// Find fetches a single record by id. A missing record surfaces as an
// *APIError with status 404.
func (c *Client) Find(ctx context.Context, table, recordID string) (*Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodGet, c.recordURL(table, recordID), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

type selectPage struct {
	Records []*Record `json:"records"`
	Offset  string    `json:"offset"`
}

// Select runs a formula-filtered select, following pagination offsets until
// the store stops returning one or MaxRecords is reached.
func (c *Client) Select(ctx context.Context, table string, opts SelectOptions) ([]*Record, error) {
	q := url.Values{}
	if opts.FilterByFormula != "" {
		q.Set("filterByFormula", opts.FilterByFormula)
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}
	if opts.View != "" {
		q.Set("view", opts.View)
	}
	for _, f := range opts.Fields {
		q.Add("fields[]", f)
	}
	for i, s := range opts.Sort {
		q.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		if s.Direction != "" {
			q.Set(fmt.Sprintf("sort[%d][direction]", i), s.Direction)
		}
	}

	var all []*Record
	offset := ""
	for {
		if offset != "" {
			q.Set("offset", offset)
		}
		u := c.tableURL(table) + "?" + q.Encode()
		var page selectPage
		if err := c.do(ctx, http.MethodGet, u, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			break
		}
		if opts.MaxRecords > 0 && len(all) >= opts.MaxRecords {
			all = all[:opts.MaxRecords]
			break
		}
		offset = page.Offset
	}
	return all, nil
}

// Create inserts a record.
func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (*Record, error) {
	body := map[string]any{"fields": fields, "typecast": true}
	var rec Record
	if err := c.do(ctx, http.MethodPost, c.tableURL(table), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update patches the given fields of a record, leaving others untouched.
func (c *Client) Update(ctx context.Context, table, recordID string, fields map[string]any) (*Record, error) {
	body := map[string]any{"fields": fields, "typecast": true}
	var rec Record
	if err := c.do(ctx, http.MethodPatch, c.recordURL(table, recordID), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
}

func (c *Client) recordURL(table, recordID string) string {
	return c.tableURL(table) + "/" + url.PathEscape(recordID)
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	// A decode failure here classifies as MalformedResponse upstream.
	return json.Unmarshal(raw, out)
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// decodeAPIError handles both error body shapes the store emits:
// {"error":{"type":...,"message":...}} and {"error":"NOT_FOUND"}.
func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{StatusCode: status}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && len(eb.Error) > 0 {
		var detail struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if json.Unmarshal(eb.Error, &detail) == nil {
			apiErr.Type = detail.Type
			apiErr.Message = detail.Message
		} else {
			var s string
			if json.Unmarshal(eb.Error, &s) == nil {
				apiErr.Type = s
			}
		}
	}
	return apiErr
}
