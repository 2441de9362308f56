package journaltools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/skillgate/internal/journal"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles the journal_search MCP tool.
type SearchTool struct {
	store *journal.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *journal.Store) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the MCP tool definition for journal_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("journal_search",
		mcp.WithDescription(
			"Full-text search over the session journal. Matches skill names, phases, file paths, "+
				"event summaries and the original requests that were analyzed.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keywords to search for, e.g. 'spec-forge' or 'production error'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 50)"),
		),
	)
}

// Handle processes the journal_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	limit := clampLimit(intArg(req, "limit", 10), 50)

	results, err := t.store.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No journal events found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] #%d (%s) %s\n    %s\n",
			i+1, r.ID, r.Kind, r.Subject, journal.Truncate(r.Summary, snippetLength))
		if r.Input != "" {
			fmt.Fprintf(&b, "    request: %q\n", journal.Truncate(r.Input, snippetLength))
		}
		fmt.Fprintf(&b, "    %s | session %s\n\n", r.CreatedAt, shortID(r.SessionID))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
