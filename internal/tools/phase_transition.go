package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/errs"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseTransitionTool handles the phase_transition MCP tool.
type PhaseTransitionTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewPhaseTransitionTool creates a PhaseTransitionTool.
func NewPhaseTransitionTool(e *engine.Engine, renderer templates.Renderer) *PhaseTransitionTool {
	return &PhaseTransitionTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for phase_transition.
func (t *PhaseTransitionTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_transition",
		mcp.WithDescription(
			"Enter a workflow phase. Sequential phases require every earlier phase to be "+
				"completed; utility phases (troubleshooting, git-workflow, codebase-analysis) "+
				"can be entered at any time. On success the phase's skills are activated.",
		),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("Phase to enter, e.g. 'planning'"),
		),
		mcp.WithBoolean("unload_previous",
			mcp.Description("Deactivate the previous phase's skills (default: true)"),
		),
		mcp.WithBoolean("preload_supporting",
			mcp.Description("Also activate the new phase's supporting skills (default: true)"),
		),
		mcp.WithBoolean("maintain_core",
			mcp.Description("Keep core skills active when unloading the previous phase (default: true)"),
		),
	)
}

// Handle processes the phase_transition tool call.
func (t *PhaseTransitionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase := strings.TrimSpace(req.GetString("phase", ""))
	if phase == "" {
		return mcp.NewToolResultError("'phase' is required"), nil
	}

	defaults := engine.DefaultTransitionOptions()
	opts := engine.TransitionOptions{
		UnloadPrevious:    boolArg(req, "unload_previous", defaults.UnloadPrevious),
		PreloadSupporting: boolArg(req, "preload_supporting", defaults.PreloadSupporting),
		MaintainCore:      boolArg(req, "maintain_core", defaults.MaintainCore),
	}

	res, err := t.engine.TransitionPhase(ctx, phase, opts)
	if err != nil {
		if res == nil || !errs.Has(err, errs.CodeSequenceViolation) {
			return errorResult(t.renderer, err), nil
		}
		text, renderErr := render(t.renderer, templates.Transition, templates.TransitionData{Result: res}, templates.DetailStandard)
		if renderErr != nil {
			return nil, renderErr
		}
		return mcp.NewToolResultError(text), nil
	}
	return renderResult(t.renderer, templates.Transition, templates.TransitionData{Result: res}, templates.DetailStandard)
}
