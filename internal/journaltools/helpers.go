// Package journaltools provides MCP tool handlers over the session journal.
//
// Each handler follows the same shape as internal/tools: a struct holding the
// journal.Store, Definition() for the schema and Handle() for the call.
// These tools only read; the engine writes events as it works.
package journaltools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// snippetLength bounds how much of an event summary is shown per entry.
const snippetLength = 200

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// clampLimit keeps a caller-supplied limit inside [1, max].
func clampLimit(n, max int) int {
	switch {
	case n < 1:
		return 1
	case n > max:
		return max
	}
	return n
}
