// Package tools implements the MCP tool handlers for skill routing, phase
// sequencing and the context budget.
//
// Each tool is a struct with its dependencies injected through the
// constructor. Definition returns the mcp.Tool schema and Handle processes
// the call. Caller mistakes are returned as MCP error results; a Go error
// is only returned when rendering itself fails.
package tools

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/HendryAvila/skillgate/internal/tokens"
	"github.com/mark3labs/mcp-go/mcp"
)

// detailLevelOption is shared by every read-heavy tool.
func detailLevelOption() mcp.ToolOption {
	return mcp.WithString("detail_level",
		mcp.Description("Verbosity: summary (tables only), standard (default) or full"),
		mcp.Enum(templates.DetailLevelValues()...),
	)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// listArg accepts either a JSON array of strings or a comma/newline
// separated string. It returns nil when the argument is absent.
func listArg(req mcp.CallToolRequest, key string) []string {
	var raw []string
	switch v := req.GetArguments()[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	case string:
		raw = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '\n' })
	default:
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// errorResult renders err as an MCP tool error.
func errorResult(r templates.Renderer, err error) *mcp.CallToolResult {
	text, renderErr := r.Render(templates.Error, templates.NewErrorData(err))
	if renderErr != nil {
		text = err.Error()
	}
	return mcp.NewToolResultError(text)
}

// render executes a template and appends the detail and token footers.
func render(r templates.Renderer, name string, data any, detail string) (string, error) {
	text, err := r.Render(name, data)
	if err != nil {
		return "", fmt.Errorf("rendering response: %w", err)
	}
	if detail == templates.DetailSummary {
		text += templates.SummaryFooter
	}
	return text + templates.TokenFooter(tokens.Estimate(text)), nil
}

// renderResult is render wrapped in a successful tool result.
func renderResult(r templates.Renderer, name string, data any, detail string) (*mcp.CallToolResult, error) {
	text, err := render(r, name, data, detail)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text), nil
}
