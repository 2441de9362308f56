package tools

import (
	"context"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseResetTool handles the phase_reset MCP tool.
type PhaseResetTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewPhaseResetTool creates a PhaseResetTool.
func NewPhaseResetTool(e *engine.Engine, renderer templates.Renderer) *PhaseResetTool {
	return &PhaseResetTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for phase_reset.
func (t *PhaseResetTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_reset",
		mcp.WithDescription(
			"Start the workflow over: clears completed phases and the routing session. "+
				"Loaded skills and files are left alone.",
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true; resetting discards workflow progress"),
		),
	)
}

// Handle processes the phase_reset tool call.
func (t *PhaseResetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !boolArg(req, "confirm", false) {
		return mcp.NewToolResultError("'confirm' must be true to reset the workflow"), nil
	}

	st, err := t.engine.ResetWorkflow(ctx)
	if err != nil {
		return errorResult(t.renderer, err), nil
	}
	text, err := render(t.renderer, templates.PhaseStatus, templates.PhaseStatusData{Status: st}, templates.DetailStandard)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText("🔄 Workflow reset.\n\n" + text), nil
}
