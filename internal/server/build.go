package server

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/HendryAvila/skillgate/internal/budget"
	"github.com/HendryAvila/skillgate/internal/config"
	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/errs"
	"github.com/HendryAvila/skillgate/internal/files"
	"github.com/HendryAvila/skillgate/internal/pipeline"
	"github.com/HendryAvila/skillgate/internal/router"
	"github.com/HendryAvila/skillgate/internal/skills"
	"github.com/HendryAvila/skillgate/internal/tokens"
	"github.com/HendryAvila/skillgate/internal/triggers"
)

// Components are the domain objects behind one skillgate session. The MCP
// server and the one-shot CLI commands share them.
type Components struct {
	Engine    *engine.Engine
	Catalog   *skills.Catalog
	Files     *files.Provider
	Flow      pipeline.Flow
	Sequence  []pipeline.Phase
	Counter   tokens.Counter
	Triggers  *triggers.Table
	Sequencer *pipeline.Sequencer
}

// Build resolves every domain dependency from cfg. rec may be nil.
func Build(cfg *config.Config, rec engine.Recorder, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	catalog, err := loadCatalog(cfg.SkillsDir)
	if err != nil {
		return nil, err
	}

	table, err := loadTriggers(cfg.TriggersFile)
	if err != nil {
		return nil, err
	}
	if err := checkTriggerSkills(table, catalog); err != nil {
		return nil, fmt.Errorf("trigger table %s: %w", triggerSource(cfg.TriggersFile), err)
	}

	r, err := router.New(router.Options{
		Table:         table,
		Strategy:      triggers.Strategy(cfg.Strategy),
		TopK:          cfg.TopK,
		MaxActivities: cfg.MaxActivities,
	})
	if err != nil {
		return nil, err
	}

	flow := pipeline.Flow(cfg.Workflow)
	var utility []pipeline.Phase
	for _, name := range catalog.UtilityNames() {
		utility = append(utility, pipeline.Phase(name))
	}
	seq, err := pipeline.New(flow, utility...)
	if err != nil {
		return nil, fmt.Errorf("creating phase sequencer: %w", err)
	}

	counter, err := tokens.New(tokens.Kind(cfg.TokenCounter))
	if err != nil {
		return nil, fmt.Errorf("creating token counter: %w", err)
	}
	if tk, ok := counter.(*tokens.Tiktoken); ok {
		if err := tk.Err(); err != nil {
			logger.Warn("tiktoken encoding unavailable, counting with the heuristic", "error", err)
		}
	}

	provider, err := files.NewProvider(cfg.FileRoot, cfg.FileCacheSize)
	if err != nil {
		return nil, err
	}

	tracker, err := budget.NewTracker(budget.Options{
		Config:  cfg.Budget,
		Counter: counter,
		Content: catalog,
		Files:   provider,
	})
	if err != nil {
		return nil, err
	}

	e, err := engine.New(engine.Options{
		Router:    r,
		Sequencer: seq,
		Tracker:   tracker,
		Catalog:   catalog,
		Files:     provider,
		Recorder:  rec,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	logger.Debug("components ready",
		"skills", catalog.Len(),
		"triggers", table.Len(),
		"workflow", flow,
		"strategy", r.Strategy(),
		"token_counter", counter.Name(),
		"file_root", provider.Root(),
	)

	return &Components{
		Engine:    e,
		Catalog:   catalog,
		Files:     provider,
		Flow:      flow,
		Sequence:  seq.Sequence(),
		Counter:   counter,
		Triggers:  table,
		Sequencer: seq,
	}, nil
}

// loadCatalog returns the built-in skills, overlaid with dir when set.
func loadCatalog(dir string) (*skills.Catalog, error) {
	catalog, err := skills.Builtin()
	if err != nil {
		return nil, fmt.Errorf("loading built-in skills: %w", err)
	}
	if dir == "" {
		return catalog, nil
	}
	extra, err := skills.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading skills from %s: %w", dir, err)
	}
	return skills.Overlay(catalog, extra)
}

func loadTriggers(path string) (*triggers.Table, error) {
	if path == "" {
		return triggers.DefaultTable()
	}
	return triggers.LoadTable(path)
}

// checkTriggerSkills rejects a table that recommends skills the catalog
// cannot activate.
func checkTriggerSkills(table *triggers.Table, catalog *skills.Catalog) error {
	for _, name := range table.Skills() {
		if _, ok := catalog.Get(name); ok {
			continue
		}
		first := table.ForSkill(name)[0]
		return errs.Validation(
			fmt.Sprintf("trigger %q names unknown skill %q", first.Phrase, name),
			map[string]any{"skill": name, "phrase": first.Phrase},
		)
	}
	return nil
}

func triggerSource(path string) string {
	if path == "" {
		return "(built-in)"
	}
	return path
}
