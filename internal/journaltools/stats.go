package journaltools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/skillgate/internal/journal"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatsTool handles the journal_stats MCP tool.
type StatsTool struct {
	store *journal.Store
}

// NewStatsTool creates a StatsTool with the given journal store.
func NewStatsTool(store *journal.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for journal_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("journal_stats",
		mcp.WithDescription(
			"Show journal statistics: sessions, events per kind and the most activated skills.",
		),
	)
}

// Handle processes the journal_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Journal Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Sessions**: %d\n", stats.TotalSessions))
	sb.WriteString(fmt.Sprintf("- **Events**: %d\n", stats.TotalEvents))

	if len(stats.ByKind) > 0 {
		sb.WriteString("\n### Events by kind\n\n")
		for _, k := range journal.SortedKinds(stats.ByKind) {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", k, stats.ByKind[k]))
		}
	}

	if len(stats.TopSkills) > 0 {
		sb.WriteString("\n### Most activated skills\n\n")
		for i, sc := range stats.TopSkills {
			sb.WriteString(fmt.Sprintf("%d. %s (%d)\n", i+1, sc.Subject, sc.Count))
		}
	} else {
		sb.WriteString("- **Activations**: none\n")
	}

	if sessions, err := t.store.Sessions(ctx, 1); err == nil && len(sessions) > 0 {
		last := sessions[0]
		state := "open"
		if last.EndedAt != nil {
			state = "ended " + *last.EndedAt
		}
		sb.WriteString(fmt.Sprintf("\n**Latest session:** %s (%s workflow, %d events, started %s, %s)\n",
			shortID(last.ID), last.Workflow, last.EventCount, last.StartedAt, state))
	}

	return mcp.NewToolResultText(sb.String()), nil
}
