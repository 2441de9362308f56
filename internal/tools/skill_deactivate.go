package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// DeactivateTool handles the skill_deactivate MCP tool.
type DeactivateTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewDeactivateTool creates a DeactivateTool.
func NewDeactivateTool(e *engine.Engine, renderer templates.Renderer) *DeactivateTool {
	return &DeactivateTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for skill_deactivate.
func (t *DeactivateTool) Definition() mcp.Tool {
	return mcp.NewTool("skill_deactivate",
		mcp.WithDescription(
			"Release a skill's instructions from the context budget. The skill stays "+
				"discoverable. Deactivating an inactive skill is a no-op.",
		),
		mcp.WithString("skill",
			mcp.Required(),
			mcp.Description("Skill name"),
		),
	)
}

// Handle processes the skill_deactivate tool call.
func (t *DeactivateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	skill := strings.TrimSpace(req.GetString("skill", ""))
	if skill == "" {
		return mcp.NewToolResultError("'skill' is required"), nil
	}

	res, err := t.engine.DeactivateSkill(ctx, skill)
	if err != nil {
		return errorResult(t.renderer, err), nil
	}
	return renderResult(t.renderer, templates.Deactivation, templates.DeactivationData{
		Result:  res,
		Ceiling: t.engine.BudgetStatus().Ceiling,
	}, templates.DetailStandard)
}
