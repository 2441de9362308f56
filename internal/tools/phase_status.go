package tools

import (
	"context"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseStatusTool handles the phase_status MCP tool.
type PhaseStatusTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewPhaseStatusTool creates a PhaseStatusTool.
func NewPhaseStatusTool(e *engine.Engine, renderer templates.Renderer) *PhaseStatusTool {
	return &PhaseStatusTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for phase_status.
func (t *PhaseStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_status",
		mcp.WithDescription("Show the workflow phases, which are completed, and what comes next. Read-only."),
	)
}

// Handle processes the phase_status tool call.
func (t *PhaseStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return renderResult(t.renderer, templates.PhaseStatus, templates.PhaseStatusData{
		Status: t.engine.PhaseStatus(),
	}, templates.DetailStandard)
}
