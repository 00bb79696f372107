package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/alexonufrak/dashboardv5-sub004/internal/resolver"
)

// CacheInvalidateHandler returns the handler for the "cache-invalidate"
// tool: clear cached views for a type, optionally scoped to one identifier.
func CacheInvalidateHandler(svc *resolver.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		typ, err := req.RequireString("type")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resolver.Type(typ).Valid() {
			return mcp.NewToolResultError("unknown entity type: " + typ), nil
		}
		var removed int
		if id := req.GetString("id", ""); id != "" {
			removed = svc.Invalidate(resolver.Type(typ), id)
		} else {
			removed = svc.Invalidate(resolver.Type(typ))
		}
		return mcp.NewToolResultText(fmt.Sprintf("removed %d cache entries", removed)), nil
	}
}

// CacheStatsHandler returns the handler for the "cache-stats" tool.
func CacheStatsHandler(svc *resolver.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(svc.CacheStats())
	}
}
