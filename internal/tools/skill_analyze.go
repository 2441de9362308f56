package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/router"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// AnalyzeTool handles the skill_analyze MCP tool.
type AnalyzeTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewAnalyzeTool creates an AnalyzeTool.
func NewAnalyzeTool(e *engine.Engine, renderer templates.Renderer) *AnalyzeTool {
	return &AnalyzeTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for skill_analyze.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("skill_analyze",
		mcp.WithDescription(
			"Rank the skills that fit a request. Call this with the user's request before "+
				"starting any non-trivial task. Returns up to three recommendations with "+
				"confidence, tier and the reasoning behind each score.",
		),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("The user's request, verbatim"),
		),
		mcp.WithString("current_phase",
			mcp.Description("Workflow phase the session is in, if it changed since the last call"),
		),
		mcp.WithString("activities",
			mcp.Description("Recent activities, comma or newline separated (e.g. 'created requirements')"),
		),
		mcp.WithString("active_files",
			mcp.Description("Files currently being worked on, comma separated"),
		),
		mcp.WithBoolean("activate_top",
			mcp.Description("Also activate the top recommendation (default: false)"),
		),
		detailLevelOption(),
	)
}

// Handle processes the skill_analyze tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := req.GetString("input", "")
	if strings.TrimSpace(input) == "" {
		return mcp.NewToolResultError("'input' is required"), nil
	}
	detail := templates.ParseDetailLevel(req.GetString("detail_level", ""))

	var update *router.SessionUpdate
	phase := strings.TrimSpace(req.GetString("current_phase", ""))
	activities := listArg(req, "activities")
	files := listArg(req, "active_files")
	if phase != "" || len(activities) > 0 || files != nil {
		update = &router.SessionUpdate{CurrentPhase: phase, Activities: activities, ActiveFiles: files}
	}

	res, err := t.engine.Analyze(ctx, input, update)
	if err != nil {
		return errorResult(t.renderer, err), nil
	}

	text, err := render(t.renderer, templates.Recommendations, templates.RecommendationsData{Result: res, Detail: detail}, detail)
	if err != nil {
		return nil, err
	}

	top, ok := res.Top()
	if !ok || !boolArg(req, "activate_top", false) {
		return mcp.NewToolResultText(text), nil
	}

	act, err := t.engine.ActivateSkill(ctx, top.Skill)
	if err != nil {
		data := templates.NewErrorData(err)
		return mcp.NewToolResultText(text + "\n\n⚠️ Could not activate " + top.Skill + ": " + data.Message), nil
	}
	actText, err := t.renderer.Render(templates.Activation, templates.ActivationData{
		Result:  act,
		Ceiling: t.engine.BudgetStatus().Ceiling,
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text + "\n\n" + actText), nil
}
