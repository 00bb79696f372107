package tools

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/alexonufrak/dashboardv5-sub004/internal/resolver"
)

// EntityGetHandler returns the MCP tool handler for the "entity-get" tool.
func EntityGetHandler(svc *resolver.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		typ, err := req.RequireString("type")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resolver.Type(typ).Valid() {
			return mcp.NewToolResultError("unknown entity type: " + typ), nil
		}

		view, err := svc.GetEntityByID(ctx, resolver.Type(typ), id, callOptions(req))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if view == nil {
			return mcp.NewToolResultText("null"), nil
		}
		return jsonResult(view)
	}
}

// callOptions reads the optional ttl_seconds argument into per-call Options.
func callOptions(req mcp.CallToolRequest) *resolver.Options {
	raw := req.GetString("ttl_seconds", "")
	if raw == "" {
		return nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return nil
	}
	return &resolver.Options{TTL: time.Duration(secs) * time.Second}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
