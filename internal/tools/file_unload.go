package tools

import (
	"context"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// FileUnloadTool handles the file_unload MCP tool.
type FileUnloadTool struct {
	engine   *engine.Engine
	renderer templates.Renderer
}

// NewFileUnloadTool creates a FileUnloadTool.
func NewFileUnloadTool(e *engine.Engine, renderer templates.Renderer) *FileUnloadTool {
	return &FileUnloadTool{engine: e, renderer: renderer}
}

// Definition returns the MCP tool definition for file_unload.
func (t *FileUnloadTool) Definition() mcp.Tool {
	return mcp.NewTool("file_unload",
		mcp.WithDescription(
			"Release execution files from the context budget. Paths that are not loaded "+
				"are reported but are not an error.",
		),
		mcp.WithString("paths",
			mcp.Required(),
			mcp.Description("Paths to unload, comma separated"),
		),
	)
}

// Handle processes the file_unload tool call.
func (t *FileUnloadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := listArg(req, "paths")
	if len(paths) == 0 {
		return mcp.NewToolResultError("'paths' is required"), nil
	}

	res, err := t.engine.UnloadExecutionFiles(ctx, paths)
	if err != nil {
		return errorResult(t.renderer, err), nil
	}
	return renderResult(t.renderer, templates.FileUnload, templates.FileUnloadData{
		Result:  res,
		Ceiling: t.engine.BudgetStatus().Ceiling,
	}, templates.DetailStandard)
}
