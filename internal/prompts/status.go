package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the skillgate-status MCP prompt.
// It instructs the AI to read and present the workflow and budget state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("skillgate-status",
		mcp.WithPromptDescription(
			"Check where you are in the workflow. "+
				"Shows phase progress, loaded skills, context budget usage, "+
				"and what to do next.",
		),
	)
}

// Handle processes the skillgate-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Skill Workflow Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `phase_status` and `budget_status` to check my workflow.\n\n" +
						"Then:\n" +
						"1. Show me the phase progress in a clear, visual format\n" +
						"2. List the skills and execution files currently loaded\n" +
						"3. Warn me if the context budget is in the warning or critical state\n" +
						"4. Tell me exactly which phase comes next",
				),
			},
		},
	}, nil
}
