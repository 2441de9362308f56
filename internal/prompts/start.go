// Package prompts implements MCP prompt handlers for the skill workflow.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/skillgate/internal/pipeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the skillgate-start MCP prompt.
// It guides the AI through routing a task and entering the first phase.
type StartPrompt struct {
	flow     pipeline.Flow
	sequence []pipeline.Phase
}

// NewStartPrompt creates a StartPrompt for the server's configured
// phase sequence.
func NewStartPrompt(flow pipeline.Flow, sequence []pipeline.Phase) *StartPrompt {
	return &StartPrompt{flow: flow, sequence: append([]pipeline.Phase(nil), sequence...)}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("skillgate-start",
		mcp.WithPromptDescription(
			"Start a task with skill routing. "+
				"Analyzes what you want to do, loads the right skills "+
				"and enters the first workflow phase.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you want to work on, in your own words"),
		),
	)
}

// Handle processes the skillgate-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := ""
	if args := req.Params.Arguments; args != nil {
		task = strings.TrimSpace(args["task"])
	}

	first := ""
	if len(p.sequence) > 0 {
		first = string(p.sequence[0])
	}
	flow := string(p.flow)
	if flow == "" {
		flow = "custom"
	}

	var steps strings.Builder
	if task == "" {
		steps.WriteString("1. Ask me what I want to work on\n")
		steps.WriteString("2. Run `skill_analyze` with my answer as `input`\n")
	} else {
		fmt.Fprintf(&steps, "1. Run `skill_analyze` with input=%q\n", task)
		steps.WriteString("2. Summarize the top recommendation and why it matched\n")
	}
	fmt.Fprintf(&steps, "3. Run `phase_transition` with phase='%s' to enter the first phase\n", first)
	steps.WriteString("4. Follow the activated skill's instructions, and run `phase_complete` when the phase is done\n")
	steps.WriteString("5. Keep an eye on `budget_status`; unload execution files you no longer need")

	description := "Start skill-routed task"
	if task != "" {
		description = fmt.Sprintf("Start skill-routed task: %s", task)
	}

	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to start a task using the **%s** workflow (%s).\n\n"+
						"Please:\n%s\n\n"+
						"Phases must be entered in order. Utility skills such as troubleshooting "+
						"can be activated at any time with `skill_activate`.",
					flow, strings.Join(pipeline.PhaseStrings(p.sequence), " → "), steps.String(),
				)),
			},
		},
	}, nil
}
