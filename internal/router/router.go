// Package router turns a free-form request into ranked skill
// recommendations.
//
// The pipeline for one analysis is:
//
//	input → triggers.FindMatches → Adjust (session bonuses) → Resolve (top-k)
//
// A Router owns the SessionContext for one interactive session. It is not
// safe for concurrent use; the engine serializes access.
package router

import (
	"fmt"
	"time"

	"github.com/HendryAvila/skillgate/internal/triggers"
)

// Options configure a Router.
type Options struct {
	Table         *triggers.Table
	Strategy      triggers.Strategy
	Rules         *Rules // nil → DefaultRules()
	TopK          int    // <= 0 → DefaultTopK
	MaxActivities int    // <= 0 → DefaultMaxActivities
}

// AnalysisMeta describes how an analysis was produced.
type AnalysisMeta struct {
	Input        string            `json:"input"`
	Normalized   string            `json:"normalized"`
	RawMatches   int               `json:"raw_matches"`
	Strategy     triggers.Strategy `json:"strategy"`
	CurrentPhase string            `json:"current_phase,omitempty"`
	AnalyzedAt   string            `json:"analyzed_at"`
}

// Analysis is the result of Router.Analyze.
type Analysis struct {
	Recommendations []triggers.MatchResult `json:"recommendations"`
	Meta            AnalysisMeta           `json:"meta"`
}

// Top returns the best recommendation, if any.
func (a Analysis) Top() (triggers.MatchResult, bool) {
	if len(a.Recommendations) == 0 {
		return triggers.MatchResult{}, false
	}
	return a.Recommendations[0], true
}

// Router scores requests against a trigger table within a session.
type Router struct {
	table         *triggers.Table
	strategy      triggers.Strategy
	rules         Rules
	topK          int
	maxActivities int
	session       SessionContext
}

// New creates a Router. A nil table or unknown strategy is an error.
func New(opts Options) (*Router, error) {
	if opts.Table == nil {
		return nil, fmt.Errorf("router: trigger table is required")
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = triggers.StrategyTiered
	}
	if err := triggers.ValidateStrategy(strategy); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	rules := DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	maxActivities := opts.MaxActivities
	if maxActivities <= 0 {
		maxActivities = DefaultMaxActivities
	}

	return &Router{
		table:         opts.Table,
		strategy:      strategy,
		rules:         rules,
		topK:          topK,
		maxActivities: maxActivities,
		session:       SessionContext{WorkflowProgress: map[string]string{}},
	}, nil
}

// Strategy returns the scoring strategy in use.
func (r *Router) Strategy() triggers.Strategy { return r.strategy }

// Analyze applies the optional session update, then ranks skills for input.
func (r *Router) Analyze(input string, update *SessionUpdate) Analysis {
	if update != nil {
		r.UpdateSession(*update)
	}

	raw := r.table.FindMatches(input, r.strategy)
	adjusted := Adjust(raw, input, r.session, r.rules)
	recs := Resolve(adjusted, r.topK)

	return Analysis{
		Recommendations: recs,
		Meta: AnalysisMeta{
			Input:        input,
			Normalized:   triggers.Normalize(input),
			RawMatches:   len(raw),
			Strategy:     r.strategy,
			CurrentPhase: r.session.CurrentPhase,
			AnalyzedAt:   timeNow().UTC().Format(time.RFC3339),
		},
	}
}

// UpdateSession applies an explicit session change.
func (r *Router) UpdateSession(u SessionUpdate) {
	r.session.apply(u, r.maxActivities)
}

// RecordActivity appends a single activity to the session.
func (r *Router) RecordActivity(activity string) {
	r.UpdateSession(SessionUpdate{Activities: []string{activity}})
}

// Session returns a copy of the current session.
func (r *Router) Session() SessionContext {
	return r.session.clone()
}

// ResetSession clears all session state.
func (r *Router) ResetSession() {
	r.session = SessionContext{WorkflowProgress: map[string]string{}}
}
