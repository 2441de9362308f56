// Package engine is the caller-facing API of skillgate.
//
// An Engine composes the router, the phase sequencer, the budget tracker and
// the skill catalog for one interactive session. All collaborators are
// injected at construction; there is no package-level state. Every public
// operation returns taxonomy errors only (see package errs): panics raised by
// collaborators are recovered and reported as internal errors.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/HendryAvila/skillgate/internal/budget"
	"github.com/HendryAvila/skillgate/internal/errs"
	"github.com/HendryAvila/skillgate/internal/journal"
	"github.com/HendryAvila/skillgate/internal/pipeline"
	"github.com/HendryAvila/skillgate/internal/router"
	"github.com/HendryAvila/skillgate/internal/skills"
)

// Recorder receives an event for every operation. It is optional.
type Recorder interface {
	Record(ctx context.Context, ev journal.Event) error
}

// Forgetter drops cached file content. The file provider implements it.
type Forgetter interface {
	Forget(path string)
}

// Options wire an Engine. Router, Sequencer, Tracker and Catalog are
// required; Files, Recorder and Logger are optional.
type Options struct {
	Router    *router.Router
	Sequencer *pipeline.Sequencer
	Tracker   *budget.Tracker
	Catalog   *skills.Catalog
	Files     Forgetter
	Recorder  Recorder
	Logger    *slog.Logger
}

// Engine serializes access to the session state. MCP requests may arrive
// concurrently, so every operation takes the lock.
type Engine struct {
	mu sync.Mutex

	router   *router.Router
	seq      *pipeline.Sequencer
	tracker  *budget.Tracker
	catalog  *skills.Catalog
	files    Forgetter
	recorder Recorder
	logger   *slog.Logger
}

// New validates the options and loads every catalog skill into the
// discovery tier.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Router == nil:
		return nil, errs.Validationf("engine: router is required")
	case opts.Sequencer == nil:
		return nil, errs.Validationf("engine: sequencer is required")
	case opts.Tracker == nil:
		return nil, errs.Validationf("engine: budget tracker is required")
	case opts.Catalog == nil:
		return nil, errs.Validationf("engine: skill catalog is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine{
		router:   opts.Router,
		seq:      opts.Sequencer,
		tracker:  opts.Tracker,
		catalog:  opts.Catalog,
		files:    opts.Files,
		recorder: opts.Recorder,
		logger:   logger,
	}

	for _, name := range e.catalog.Names() {
		if _, err := e.tracker.LoadDiscovery(name); err != nil {
			return nil, fmt.Errorf("engine: discovering %s: %w", name, err)
		}
	}
	logger.Debug("engine ready", "skills", e.catalog.Len(), "budget_tokens", e.tracker.Total())
	return e, nil
}

// --- Routing ---

// Analyze ranks skills for input. The optional update is applied to the
// session before scoring.
func (e *Engine) Analyze(ctx context.Context, input string, update *router.SessionUpdate) (res *AnalysisResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("analyze", &err)

	if strings.TrimSpace(input) == "" {
		return nil, errs.Validation("input is required", map[string]any{"field": "input"})
	}

	a := e.router.Analyze(input, update)
	res = &AnalysisResult{Meta: a.Meta, Recommendations: make([]Recommendation, 0, len(a.Recommendations))}
	for _, m := range a.Recommendations {
		md, mdErr := e.catalog.Metadata(m.Skill)
		if mdErr != nil {
			md = skills.Metadata{Name: m.Skill}
		}
		res.Recommendations = append(res.Recommendations, Recommendation{
			MatchResult: m,
			Metadata:    md,
			Active:      e.tracker.IsActive(m.Skill),
		})
	}

	summary := "no matching skill"
	details := map[string]any{"raw_matches": a.Meta.RawMatches, "strategy": string(a.Meta.Strategy)}
	if top, ok := res.Top(); ok {
		summary = fmt.Sprintf("top: %s (%d, %s)", top.Skill, top.Confidence, top.Tier)
		details["skills"] = recommendationNames(res.Recommendations)
	}
	e.record(ctx, journal.Event{Kind: journal.KindAnalysis, Summary: summary, Input: input, Details: details})
	e.logger.Debug("analyzed request", "recommendations", len(res.Recommendations), "summary", summary)
	return res, nil
}

// UpdateSession applies an explicit session change.
func (e *Engine) UpdateSession(u router.SessionUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.UpdateSession(u)
}

// Session returns a copy of the routing session.
func (e *Engine) Session() router.SessionContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Session()
}

// --- Phases ---

// TransitionPhase enters phase. On a sequence violation the populated result
// is returned together with the sequence_violation error.
func (e *Engine) TransitionPhase(ctx context.Context, phase string, opts TransitionOptions) (res *TransitionResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("transition", &err)

	phase = strings.TrimSpace(phase)
	if phase == "" {
		return nil, errs.Validation("phase is required", map[string]any{"field": "phase"})
	}

	prev := string(e.seq.Current())
	check, err := e.seq.Transition(pipeline.Phase(phase))
	res = &TransitionResult{
		Phase:         phase,
		PreviousPhase: prev,
		Valid:         check.Valid,
		Utility:       check.Utility,
		MissingPhases: pipeline.PhaseStrings(check.MissingPhases),
		SuggestedNext: string(check.SuggestedNext),
		Reason:        check.Reason,
	}
	if err != nil {
		res.Budget = e.tracker.Status()
		e.record(ctx, journal.Event{
			Kind:    journal.KindTransition,
			Subject: phase,
			Summary: fmt.Sprintf("blocked %s: %s", phase, check.Reason),
			Details: map[string]any{"valid": false, "missing_phases": res.MissingPhases},
		})
		return res, err
	}

	next := e.phaseSkills(phase, opts.PreloadSupporting)

	if opts.UnloadPrevious && prev != "" && prev != phase {
		for _, name := range e.phaseSkills(prev, true) {
			if !e.tracker.IsActive(name) || containsString(next, name) {
				continue
			}
			if opts.MaintainCore && e.catalog.IsCore(name) {
				res.Kept = append(res.Kept, name)
				continue
			}
			d := e.tracker.Deactivate(name)
			res.Deactivated = append(res.Deactivated, d)
			e.record(ctx, journal.Event{
				Kind:    journal.KindDeactivation,
				Subject: name,
				Summary: fmt.Sprintf("deactivated %s leaving %s", name, prev),
				Details: map[string]any{"tokens_freed": d.TokensFreed},
			})
		}
	}

	primary := e.phaseSkills(phase, false)
	for _, name := range next {
		if !containsString(primary, name) {
			if victim, ok := e.evictsAny(name, next); ok {
				res.Warnings = append(res.Warnings, fmt.Sprintf("skipped supporting skill %s: loading it would evict %s", name, victim))
				continue
			}
		}
		a, actErr := e.tracker.Activate(name)
		if actErr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("could not activate %s: %s", name, errorMessage(actErr)))
			continue
		}
		res.Activated = append(res.Activated, *a)
		if !a.AlreadyActive {
			e.record(ctx, journal.Event{
				Kind:    journal.KindActivation,
				Subject: name,
				Summary: fmt.Sprintf("activated %s for %s", name, phase),
				Details: map[string]any{"token_cost": a.TokenCost},
			})
		}
		e.afterEvictions(ctx, a.Evicted, name)
	}

	e.router.UpdateSession(router.SessionUpdate{
		CurrentPhase: phase,
		Activities:   []string{fmt.Sprintf("entered %s phase", phase)},
		Progress:     map[string]string{phase: string(pipeline.StatusInProgress)},
	})
	res.Budget = e.tracker.Status()

	e.record(ctx, journal.Event{
		Kind:    journal.KindTransition,
		Subject: phase,
		Summary: fmt.Sprintf("entered %s", phase),
		Details: map[string]any{"valid": true, "previous_phase": prev, "activated": len(res.Activated), "deactivated": len(res.Deactivated)},
	})
	e.logger.Info("phase transition", "from", prev, "to", phase, "evicted", len(res.Evicted()), "total_tokens", res.Budget.TotalTokens)
	return res, nil
}

// CompletePhase marks phase completed. Completing it again is a no-op.
func (e *Engine) CompletePhase(ctx context.Context, phase string) (res *CompleteResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("complete phase", &err)

	phase = strings.TrimSpace(phase)
	if phase == "" {
		return nil, errs.Validation("phase is required", map[string]any{"field": "phase"})
	}

	changed, err := e.seq.CompletePhase(pipeline.Phase(phase))
	if err != nil {
		return nil, err
	}
	if changed {
		e.router.UpdateSession(router.SessionUpdate{
			Activities: []string{fmt.Sprintf("completed %s phase", phase)},
			Progress:   map[string]string{phase: string(pipeline.StatusCompleted)},
		})
		e.record(ctx, journal.Event{Kind: journal.KindPhaseComplete, Subject: phase, Summary: "completed " + phase})
	}
	return &CompleteResult{Phase: phase, Changed: changed, Status: e.seq.Status()}, nil
}

// ResetWorkflow clears the phase state and the routing session. Loaded
// skills and files stay loaded.
func (e *Engine) ResetWorkflow(ctx context.Context) (st pipeline.Status, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("reset workflow", &err)

	e.seq.Reset()
	e.router.ResetSession()
	e.syncActiveFiles()
	e.record(ctx, journal.Event{Kind: journal.KindPhaseReset, Summary: "workflow reset"})
	return e.seq.Status(), nil
}

// PhaseStatus returns the sequencer snapshot.
func (e *Engine) PhaseStatus() pipeline.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq.Status()
}

// --- Budget ---

// ActivateSkill loads a skill's full content.
func (e *Engine) ActivateSkill(ctx context.Context, id string) (res *budget.ActivationResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("activate", &err)

	id = skills.NormalizeName(id)
	if id == "" {
		return nil, errs.Validation("skill is required", map[string]any{"field": "skill"})
	}
	if _, ok := e.catalog.Get(id); !ok {
		return nil, errs.NotFound("skill", id)
	}

	res, err = e.tracker.Activate(id)
	if err != nil {
		return nil, err
	}
	if !res.AlreadyActive {
		e.router.RecordActivity("activated " + id)
		e.record(ctx, journal.Event{
			Kind:    journal.KindActivation,
			Subject: id,
			Summary: "activated " + id,
			Details: map[string]any{"token_cost": res.TokenCost},
		})
	}
	e.afterEvictions(ctx, res.Evicted, id)
	return res, nil
}

// DeactivateSkill frees a skill's activation cost. Deactivating an inactive
// skill succeeds with AlreadyInactive.
func (e *Engine) DeactivateSkill(ctx context.Context, id string) (res *budget.DeactivationResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("deactivate", &err)

	id = skills.NormalizeName(id)
	if id == "" {
		return nil, errs.Validation("skill is required", map[string]any{"field": "skill"})
	}

	d := e.tracker.Deactivate(id)
	if !d.AlreadyInactive {
		e.record(ctx, journal.Event{
			Kind:    journal.KindDeactivation,
			Subject: id,
			Summary: "deactivated " + id,
			Details: map[string]any{"tokens_freed": d.TokensFreed},
		})
	}
	return &d, nil
}

// LoadExecutionFile loads a supporting file on behalf of owner.
func (e *Engine) LoadExecutionFile(ctx context.Context, path, owner string) (res *budget.FileLoadResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("load file", &err)

	res, err = e.tracker.LoadExecutionFile(path, skills.NormalizeName(owner))
	if err != nil {
		return nil, err
	}
	if !res.AlreadyLoaded {
		e.record(ctx, journal.Event{
			Kind:    journal.KindFileLoad,
			Subject: res.Path,
			Summary: fmt.Sprintf("loaded %s for %s", res.Path, res.Owner),
			Details: map[string]any{"token_cost": res.TokenCost},
		})
	}
	e.afterEvictions(ctx, res.Evicted, res.Path)
	e.syncActiveFiles()
	return res, nil
}

// UnloadExecutionFiles frees the given files and drops them from the cache.
func (e *Engine) UnloadExecutionFiles(ctx context.Context, paths []string) (res *budget.UnloadResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard("unload files", &err)

	if len(paths) == 0 {
		return nil, errs.Validation("at least one path is required", map[string]any{"field": "paths"})
	}

	u := e.tracker.UnloadExecutionFiles(paths)
	for _, p := range u.Unloaded {
		if e.files != nil {
			e.files.Forget(p)
		}
	}
	if len(u.Unloaded) > 0 {
		e.record(ctx, journal.Event{
			Kind:    journal.KindFileUnload,
			Subject: strings.Join(u.Unloaded, ", "),
			Summary: fmt.Sprintf("unloaded %d file(s)", len(u.Unloaded)),
			Details: map[string]any{"tokens_freed": u.TokensFreed},
		})
	}
	e.syncActiveFiles()
	return &u, nil
}

// BudgetStatus returns the tracker snapshot.
func (e *Engine) BudgetStatus() budget.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Status()
}

// --- Catalog ---

// Skills returns the catalog with activation state.
func (e *Engine) Skills() []SkillEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.catalog.List()
	out := make([]SkillEntry, len(list))
	for i, s := range list {
		out[i] = SkillEntry{
			Name:        s.Name,
			Description: s.Description,
			Version:     s.Version,
			Phase:       s.Phase,
			Utility:     s.Utility,
			Core:        s.Core,
			Supporting:  s.Supporting,
			Active:      e.tracker.IsActive(s.Name),
		}
	}
	return out
}

// SkillContent returns a skill's instructions without front matter.
func (e *Engine) SkillContent(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Content(skills.NormalizeName(name))
}

// --- internals ---

// phaseSkills returns the skills bound to phase, optionally followed by
// their supporting skills, without duplicates. A utility phase maps to the
// utility skill of the same name.
func (e *Engine) phaseSkills(phase string, withSupporting bool) []string {
	var primary []skills.Skill
	if s, ok := e.catalog.Get(phase); ok && s.Utility {
		primary = []skills.Skill{s}
	} else {
		primary = e.catalog.ForPhase(phase)
	}

	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, s := range primary {
		add(s.Name)
	}
	if withSupporting {
		for _, s := range primary {
			for _, sup := range s.Supporting {
				add(sup)
			}
		}
	}
	return out
}

// evictsAny reports the first active member of keep that activating name
// would evict.
func (e *Engine) evictsAny(name string, keep []string) (string, bool) {
	planned, err := e.tracker.PlanActivation(name)
	if err != nil {
		return "", false
	}
	for _, ev := range planned {
		if ev.Tier == budget.TierActivation && containsString(keep, ev.ID) {
			return ev.ID, true
		}
	}
	return "", false
}

func (e *Engine) afterEvictions(ctx context.Context, evicted []budget.Eviction, cause string) {
	if len(evicted) == 0 {
		return
	}
	for _, ev := range evicted {
		if ev.Tier == budget.TierExecution && e.files != nil {
			e.files.Forget(ev.ID)
		}
		e.record(ctx, journal.Event{
			Kind:    journal.KindEviction,
			Subject: ev.ID,
			Summary: fmt.Sprintf("evicted %s %s to make room for %s", ev.Tier, ev.ID, cause),
			Details: map[string]any{"tokens_freed": ev.TokensFreed, "tier": string(ev.Tier)},
		})
		e.logger.Info("budget eviction", "id", ev.ID, "tier", ev.Tier, "tokens_freed", ev.TokensFreed, "cause", cause)
	}
	e.syncActiveFiles()
}

func (e *Engine) syncActiveFiles() {
	st := e.tracker.Status()
	paths := make([]string, 0, len(st.ExecutionFiles))
	for _, f := range st.ExecutionFiles {
		paths = append(paths, f.ID)
	}
	e.router.UpdateSession(router.SessionUpdate{ActiveFiles: paths})
}

func (e *Engine) record(ctx context.Context, ev journal.Event) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, ev); err != nil {
		e.logger.Warn("journal record failed", "kind", ev.Kind, "error", err)
	}
}

// guard converts a panic into an internal error.
func (e *Engine) guard(op string, errp *error) {
	if r := recover(); r != nil {
		e.logger.Error("recovered panic", "op", op, "panic", r)
		*errp = &errs.Error{Code: errs.CodeInternal, Message: fmt.Sprintf("%s failed unexpectedly: %v", op, r)}
	}
}

func errorMessage(err error) string {
	var te *errs.Error
	if errors.As(err, &te) {
		return te.Message
	}
	return err.Error()
}

func recommendationNames(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Skill
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
