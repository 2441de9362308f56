package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/HendryAvila/skillgate/internal/pipeline"
	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Messages[0].Content)
	}
	return tc.Text
}

// --- StartPrompt ---

func TestStartPrompt_Definition(t *testing.T) {
	def := NewStartPrompt(pipeline.FlowStandard, nil).Definition()
	if def.Name != "skillgate-start" {
		t.Errorf("name = %q, want skillgate-start", def.Name)
	}
	if len(def.Arguments) != 1 || def.Arguments[0].Name != "task" {
		t.Errorf("arguments = %+v, want [task]", def.Arguments)
	}
}

func TestStartPrompt_WithTask(t *testing.T) {
	seq, _ := pipeline.PhaseFlow(pipeline.FlowQuick)
	p := NewStartPrompt(pipeline.FlowQuick, seq)

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"task": "add rate limiting"}
	res, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	text := promptText(t, res)
	for _, want := range []string{
		"**quick** workflow (planning → work → review)",
		`input="add rate limiting"`,
		"phase='planning'",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(res.Description, "add rate limiting") {
		t.Errorf("description = %q", res.Description)
	}
}

func TestStartPrompt_WithoutTaskAsksFirst(t *testing.T) {
	seq, _ := pipeline.PhaseFlow(pipeline.FlowStandard)
	res, err := NewStartPrompt(pipeline.FlowStandard, seq).Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "Ask me what I want to work on") {
		t.Errorf("prompt should ask for the task:\n%s", text)
	}
	if !strings.Contains(text, "phase='spec-forge'") {
		t.Errorf("prompt should enter spec-forge first:\n%s", text)
	}
}

func TestStartPrompt_CustomSequence(t *testing.T) {
	p := NewStartPrompt("", []pipeline.Phase{pipeline.PhaseWork, pipeline.PhaseReview})
	res, _ := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if !strings.Contains(promptText(t, res), "**custom** workflow (work → review)") {
		t.Errorf("custom flow not described: %s", promptText(t, res))
	}
}

// --- StatusPrompt ---

func TestStatusPrompt(t *testing.T) {
	p := NewStatusPrompt()
	if p.Definition().Name != "skillgate-status" {
		t.Errorf("name = %q", p.Definition().Name)
	}
	res, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "`phase_status`") || !strings.Contains(text, "`budget_status`") {
		t.Errorf("status prompt should call both status tools:\n%s", text)
	}
}
