package tools

import (
	"context"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// BudgetStatusTool handles the budget_status MCP tool.
type BudgetStatusTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewBudgetStatusTool creates a BudgetStatusTool.
func NewBudgetStatusTool(e *engine.Engine, renderer templates.Renderer) *BudgetStatusTool {
	return &BudgetStatusTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for budget_status.
func (t *BudgetStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("budget_status",
		mcp.WithDescription(
			"Show how much of the context budget is used, per tier, with the active skills "+
				"and loaded files. Read-only.",
		),
		detailLevelOption(),
	)
}

// Handle processes the budget_status tool call.
func (t *BudgetStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	detail := templates.ParseDetailLevel(req.GetString("detail_level", ""))
	return renderResult(t.renderer, templates.BudgetStatus, templates.BudgetStatusData{
		Status: t.engine.BudgetStatus(),
		Detail: detail,
	}, detail)
}
