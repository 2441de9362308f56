package tools

import (
	"context"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// SkillListTool handles the skill_list MCP tool.
type SkillListTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewSkillListTool creates a SkillListTool.
func NewSkillListTool(e *engine.Engine, renderer templates.Renderer) *SkillListTool {
	return &SkillListTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for skill_list.
func (t *SkillListTool) Definition() mcp.Tool {
	return mcp.NewTool("skill_list",
		mcp.WithDescription(
			"List every skill in the catalog with its phase, kind and whether it is active. "+
				"Only discovery metadata is returned; use skill_activate to load a skill's instructions.",
		),
		detailLevelOption(),
	)
}

// Handle processes the skill_list tool call.
func (t *SkillListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	detail := templates.ParseDetailLevel(req.GetString("detail_level", ""))
	return renderResult(t.renderer, templates.SkillIndex, templates.SkillIndexData{
		Skills: t.engine.Skills(),
		Detail: detail,
	}, detail)
}
