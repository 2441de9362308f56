// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/HendryAvila/skillgate/internal/config"
	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/journal"
	"github.com/HendryAvila/skillgate/internal/journaltools"
	"github.com/HendryAvila/skillgate/internal/prompts"
	"github.com/HendryAvila/skillgate/internal/resources"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/HendryAvila/skillgate/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function ends the journal session and closes its
// database. It is always non-nil and safe to call even if the journal is
// disabled or failed to open.
func New(cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// --- Journal ---
	//
	// The journal is an independent subsystem: if it fails to open, the
	// routing tools keep working. We log a warning and skip the journal
	// tools.

	cleanup := noop
	var store *journal.Store
	if cfg.Journal.Enabled {
		var err error
		store, cleanup, err = openJournal(cfg, logger)
		if err != nil {
			logger.Warn("journal disabled", "err", err)
			store, cleanup = nil, noop
		}
	}

	var rec engine.Recorder
	if store != nil {
		rec = store
	}

	comps, err := Build(cfg, rec, logger)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"skillgate",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerSkillTools(s, comps, renderer)
	if store != nil {
		registerJournalTools(s, store)
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt(comps.Flow, comps.Sequence)
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(comps.Engine)
	s.AddResource(resourceHandler.BudgetResource(), resourceHandler.HandleBudget)
	s.AddResource(resourceHandler.PhaseResource(), resourceHandler.HandlePhase)

	logger.Info("server ready",
		"version", Version,
		"skills", comps.Catalog.Len(),
		"workflow", comps.Flow,
		"journal", store != nil,
	)
	return s, cleanup, nil
}

// openJournal opens the store and starts a session for this process.
func openJournal(cfg *config.Config, logger *slog.Logger) (*journal.Store, func(), error) {
	store, err := journal.New(journal.Config{Path: cfg.Journal.Path})
	if err != nil {
		return nil, noop, err
	}
	sessionID, err := store.StartSession(context.Background(), cfg.Workflow)
	if err != nil {
		_ = store.Close()
		return nil, noop, err
	}
	logger.Debug("journal session started", "session", sessionID, "path", store.Path())

	cleanup := func() {
		if err := store.EndSession(context.Background(), sessionID); err != nil {
			logger.Warn("journal session end", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("journal store close", "err", err)
		}
	}
	return store, cleanup, nil
}

// noop is a no-op cleanup function used as the default when the journal
// is disabled or hasn't been initialized.
func noop() {}

// registerSkillTools registers the routing, budget and phase tools.
func registerSkillTools(s *server.MCPServer, c *Components, renderer templates.Renderer) {
	e := c.Engine

	// --- Routing & catalog ---
	analyzeTool := tools.NewAnalyzeTool(e, renderer)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	listTool := tools.NewSkillListTool(e, renderer)
	s.AddTool(listTool.Definition(), listTool.Handle)

	// --- Activation tier ---
	activateTool := tools.NewActivateTool(e, renderer)
	s.AddTool(activateTool.Definition(), activateTool.Handle)

	deactivateTool := tools.NewDeactivateTool(e, renderer)
	s.AddTool(deactivateTool.Definition(), deactivateTool.Handle)

	// --- Execution tier ---
	fileLoadTool := tools.NewFileLoadTool(e, c.Files, renderer)
	s.AddTool(fileLoadTool.Definition(), fileLoadTool.Handle)

	fileUnloadTool := tools.NewFileUnloadTool(e, renderer)
	s.AddTool(fileUnloadTool.Definition(), fileUnloadTool.Handle)

	budgetTool := tools.NewBudgetStatusTool(e, renderer)
	s.AddTool(budgetTool.Definition(), budgetTool.Handle)

	// --- Phases ---
	transitionTool := tools.NewPhaseTransitionTool(e, renderer)
	s.AddTool(transitionTool.Definition(), transitionTool.Handle)

	completeTool := tools.NewPhaseCompleteTool(e, renderer)
	s.AddTool(completeTool.Definition(), completeTool.Handle)

	statusTool := tools.NewPhaseStatusTool(e, renderer)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	resetTool := tools.NewPhaseResetTool(e, renderer)
	s.AddTool(resetTool.Definition(), resetTool.Handle)
}

// registerJournalTools registers the read-only journal tools.
func registerJournalTools(s *server.MCPServer, store *journal.Store) {
	recentTool := journaltools.NewRecentTool(store)
	s.AddTool(recentTool.Definition(), recentTool.Handle)

	searchTool := journaltools.NewSearchTool(store)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	statsTool := journaltools.NewStatsTool(store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use skillgate effectively.
func serverInstructions() string {
	return `You have access to skillgate, a skill router and context budget manager.

## WHEN TO USE skillgate

Call skill_analyze at the start of every new request that involves building,
planning, reviewing, committing or debugging code. It ranks the available
skills by confidence and tells you which one fits.

- A recommendation with priority "high" (urgent errors) comes first: activate
  it before anything else.
- Confidence of 85% or more means the skill clearly applies.
- Below 70%, confirm with the user before activating.

## Phases

Workflow skills run in a fixed order (see phase_status). Enter a phase with
phase_transition; it loads that phase's skill and its supporting skills and
unloads the previous phase's skills. Mark a phase done with phase_complete.
You cannot skip ahead: a sequence violation tells you which phase to run next.

Utility skills (for example troubleshooting or git-workflow) are outside the
sequence. Activate them at any time with skill_activate.

## Context budget

Every loaded skill and file costs tokens against a fixed ceiling. There are
three tiers:
1. Discovery: names and descriptions of all skills (always loaded)
2. Activation: full instructions of active skills
3. Execution: files loaded with file_load

When the budget fills, execution files are evicted oldest first, then
active skills, least recently activated first. Discovery entries are never
evicted. A phase transition skips a supporting skill rather than evict the
phase's own skill. Check budget_status when the state is "warning", and
unload files you no longer need with file_unload.

## Journal

When available, journal_recent, journal_search and journal_stats show what
was analyzed, activated and evicted in this and earlier sessions.`
}
