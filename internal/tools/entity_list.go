package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/alexonufrak/dashboardv5-sub004/internal/resolver"
)

// EntityListHandler returns the MCP tool handler for the "entity-list" tool,
// which resolves all views of a type related to a given record.
func EntityListHandler(svc *resolver.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		typ, err := req.RequireString("type")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		relatedID, err := req.RequireString("related_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		views, err := svc.GetEntitiesByRelation(ctx, resolver.Type(typ), relatedID, callOptions(req))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(views)
	}
}
