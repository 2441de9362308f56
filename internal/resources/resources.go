// Package resources implements MCP resource handlers for workflow state.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (skillgate://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/skillgate/internal/budget"
	"github.com/HendryAvila/skillgate/internal/pipeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// Resource URIs.
const (
	BudgetURI = "skillgate://budget/status"
	PhaseURI  = "skillgate://phase/status"
)

// StatusSource is the read side of the engine the resources expose.
type StatusSource interface {
	BudgetStatus() budget.Status
	PhaseStatus() pipeline.Status
}

// Handler manages skillgate resource endpoints.
type Handler struct {
	source StatusSource
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(source StatusSource) *Handler {
	return &Handler{source: source}
}

// BudgetResource returns the MCP resource definition for budget status.
func (h *Handler) BudgetResource() mcp.Resource {
	return mcp.NewResource(
		BudgetURI,
		"Context Budget Status",
		mcp.WithResourceDescription("Token usage per tier, ceiling, state, loaded skills and execution files"),
		mcp.WithMIMEType("application/json"),
	)
}

// PhaseResource returns the MCP resource definition for workflow phase status.
func (h *Handler) PhaseResource() mcp.Resource {
	return mcp.NewResource(
		PhaseURI,
		"Workflow Phase Status",
		mcp.WithResourceDescription("Phase sequence, current phase, completed phases and next phase"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBudget returns the current budget status as JSON.
func (h *Handler) HandleBudget(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.source.BudgetStatus())
}

// HandlePhase returns the current phase status as JSON.
func (h *Handler) HandlePhase(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.source.PhaseStatus())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
