package journaltools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/skillgate/internal/journal"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// RecentTool handles the journal_recent MCP tool.
type RecentTool struct {
	store *journal.Store
}

// NewRecentTool creates a RecentTool.
func NewRecentTool(store *journal.Store) *RecentTool {
	return &RecentTool{store: store}
}

// Definition returns the MCP tool definition for journal_recent.
func (t *RecentTool) Definition() mcp.Tool {
	return mcp.NewTool("journal_recent",
		mcp.WithDescription(
			"List the most recent journal events: analyses, phase transitions, skill activations, "+
				"evictions and execution file loads, newest first.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Max events (default: 20, max: 100)"),
		),
	)
}

// Handle processes the journal_recent tool call.
func (t *RecentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := clampLimit(intArg(req, "limit", 20), 100)

	events, err := t.store.Recent(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read journal: %v", err)), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText("The journal is empty."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Recent Events (%d)\n\n", len(events))
	for _, ev := range events {
		writeEvent(&b, ev)
	}
	if stats, err := t.store.Stats(ctx); err == nil {
		b.WriteString(templates.NavigationHint(len(events), stats.TotalEvents,
			"Raise `limit` or use `journal_search` to narrow down."))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func writeEvent(b *strings.Builder, ev journal.Event) {
	subject := ""
	if ev.Subject != "" {
		subject = " " + ev.Subject
	}
	fmt.Fprintf(b, "- #%d `%s`%s: %s (%s)\n",
		ev.ID, ev.Kind, subject, journal.Truncate(ev.Summary, snippetLength), ev.CreatedAt)
}
