package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// ActivateTool handles the skill_activate MCP tool.
type ActivateTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewActivateTool creates an ActivateTool.
func NewActivateTool(e *engine.Engine, renderer templates.Renderer) *ActivateTool {
	return &ActivateTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for skill_activate.
func (t *ActivateTool) Definition() mcp.Tool {
	return mcp.NewTool("skill_activate",
		mcp.WithDescription(
			"Load a skill's full instructions into the context budget and return them. "+
				"If the budget is full, the oldest execution files and then the least recently "+
				"used skills are evicted to make room.",
		),
		mcp.WithString("skill",
			mcp.Required(),
			mcp.Description("Skill name, e.g. 'ears-specification'"),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary omits the instructions; standard (default) and full include them"),
			mcp.Enum(templates.DetailLevelValues()...),
		),
	)
}

// Handle processes the skill_activate tool call.
func (t *ActivateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	skill := strings.TrimSpace(req.GetString("skill", ""))
	if skill == "" {
		return mcp.NewToolResultError("'skill' is required"), nil
	}
	detail := templates.ParseDetailLevel(req.GetString("detail_level", ""))

	res, err := t.engine.ActivateSkill(ctx, skill)
	if err != nil {
		return errorResult(t.renderer, err), nil
	}

	data := templates.ActivationData{Result: res, Ceiling: t.engine.BudgetStatus().Ceiling}
	if detail != templates.DetailSummary {
		if data.Content, err = t.engine.SkillContent(res.ID); err != nil {
			return errorResult(t.renderer, err), nil
		}
	}
	return renderResult(t.renderer, templates.Activation, data, detail)
}
