package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseCompleteTool handles the phase_complete MCP tool.
type PhaseCompleteTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewPhaseCompleteTool creates a PhaseCompleteTool.
func NewPhaseCompleteTool(e *engine.Engine, renderer templates.Renderer) *PhaseCompleteTool {
	return &PhaseCompleteTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for phase_complete.
func (t *PhaseCompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_complete",
		mcp.WithDescription(
			"Mark a workflow phase as completed, unlocking the next one. "+
				"Completing a phase twice is harmless.",
		),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("Phase to mark completed"),
		),
	)
}

// Handle processes the phase_complete tool call.
func (t *PhaseCompleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase := strings.TrimSpace(req.GetString("phase", ""))
	if phase == "" {
		return mcp.NewToolResultError("'phase' is required"), nil
	}

	res, err := t.engine.CompletePhase(ctx, phase)
	if err != nil {
		return errorResult(t.renderer, err), nil
	}

	var head string
	switch {
	case res.Changed:
		head = fmt.Sprintf("✅ Phase **%s** completed.", res.Phase)
	case t.isUtility(res):
		head = fmt.Sprintf("ℹ️ **%s** is a utility phase; completion is not tracked.", res.Phase)
	default:
		head = fmt.Sprintf("ℹ️ Phase **%s** was already completed.", res.Phase)
	}
	if next := res.Status.NextPhase; next != "" {
		head += fmt.Sprintf(" Next: `%s`.", next)
	}

	body, err := render(t.renderer, templates.PhaseStatus, templates.PhaseStatusData{Status: res.Status}, templates.DetailStandard)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(head + "\n\n" + body), nil
}

func (t *PhaseCompleteTool) isUtility(res *engine.CompleteResult) bool {
	for _, p := range res.Status.UtilityPhases {
		if string(p) == res.Phase {
			return true
		}
	}
	return false
}
