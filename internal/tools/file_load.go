package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// FileReader returns the content of an execution file. The file provider
// implements it and serves repeated reads from its cache.
type FileReader interface {
	Read(path string) (string, error)
}

// FileLoadTool handles the file_load MCP tool.
type FileLoadTool struct {
	engine   *engine.Engine
	files    FileReader
	renderer templates.Renderer
}

// NewFileLoadTool creates a FileLoadTool.
func NewFileLoadTool(e *engine.Engine, files FileReader, renderer templates.Renderer) *FileLoadTool {
	return &FileLoadTool{engine: e, files: files, renderer: renderer}
}

// Definition returns the MCP tool definition for file_load.
func (t *FileLoadTool) Definition() mcp.Tool {
	return mcp.NewTool("file_load",
		mcp.WithDescription(
			"Load a supporting file into the execution tier of the context budget on behalf "+
				"of a skill and return its content. Paths are relative to the server's file root.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path relative to the file root"),
		),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Skill the file is loaded for"),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary omits the file content; standard (default) and full include it"),
			mcp.Enum(templates.DetailLevelValues()...),
		),
	)
}

// Handle processes the file_load tool call.
func (t *FileLoadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("path", ""))
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}
	owner := strings.TrimSpace(req.GetString("owner", ""))
	if owner == "" {
		return mcp.NewToolResultError("'owner' is required"), nil
	}
	detail := templates.ParseDetailLevel(req.GetString("detail_level", ""))

	res, err := t.engine.LoadExecutionFile(ctx, path, owner)
	if err != nil {
		return errorResult(t.renderer, err), nil
	}

	data := templates.FileLoadData{Result: res, Ceiling: t.engine.BudgetStatus().Ceiling}
	if detail != templates.DetailSummary && t.files != nil {
		if data.Content, err = t.files.Read(res.Path); err != nil {
			return errorResult(t.renderer, err), nil
		}
	}
	return renderResult(t.renderer, templates.FileLoad, data, detail)
}
