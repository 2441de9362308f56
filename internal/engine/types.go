package engine

import (
	"github.com/HendryAvila/skillgate/internal/budget"
	"github.com/HendryAvila/skillgate/internal/pipeline"
	"github.com/HendryAvila/skillgate/internal/router"
	"github.com/HendryAvila/skillgate/internal/skills"
	"github.com/HendryAvila/skillgate/internal/triggers"
)

// Recommendation is a ranked skill with its catalog metadata.
type Recommendation struct {
	triggers.MatchResult
	Metadata skills.Metadata `json:"metadata"`
	Active   bool            `json:"active"`
}

// AnalysisResult is returned by Analyze.
type AnalysisResult struct {
	Recommendations []Recommendation    `json:"recommendations"`
	Meta            router.AnalysisMeta `json:"meta"`
}

// Top returns the best recommendation, if any.
func (a *AnalysisResult) Top() (Recommendation, bool) {
	if a == nil || len(a.Recommendations) == 0 {
		return Recommendation{}, false
	}
	return a.Recommendations[0], true
}

// TransitionOptions control what happens to loaded skills on a phase change.
type TransitionOptions struct {
	// UnloadPrevious deactivates the skills of the phase being left.
	UnloadPrevious bool `json:"unload_previous"`
	// PreloadSupporting activates the supporting skills of the new phase.
	PreloadSupporting bool `json:"preload_supporting"`
	// MaintainCore keeps core skills active when the previous phase unloads.
	MaintainCore bool `json:"maintain_core"`
}

// DefaultTransitionOptions unloads the previous phase, preloads supporting
// skills and keeps core skills.
func DefaultTransitionOptions() TransitionOptions {
	return TransitionOptions{UnloadPrevious: true, PreloadSupporting: true, MaintainCore: true}
}

// TransitionResult is returned by TransitionPhase. On a sequence violation
// it is populated with the check alongside the error.
type TransitionResult struct {
	Phase         string                      `json:"phase"`
	PreviousPhase string                      `json:"previous_phase,omitempty"`
	Valid         bool                        `json:"valid"`
	Utility       bool                        `json:"utility,omitempty"`
	MissingPhases []string                    `json:"missing_phases,omitempty"`
	SuggestedNext string                      `json:"suggested_next,omitempty"`
	Reason        string                      `json:"reason"`
	Activated     []budget.ActivationResult   `json:"activated,omitempty"`
	Deactivated   []budget.DeactivationResult `json:"deactivated,omitempty"`
	Kept          []string                    `json:"kept,omitempty"`
	Warnings      []string                    `json:"warnings,omitempty"`
	Budget        budget.Status               `json:"budget"`
}

// Evicted collects every eviction caused by the transition's activations.
func (r *TransitionResult) Evicted() []budget.Eviction {
	var out []budget.Eviction
	for _, a := range r.Activated {
		out = append(out, a.Evicted...)
	}
	return out
}

// CompleteResult is returned by CompletePhase.
type CompleteResult struct {
	Phase   string          `json:"phase"`
	Changed bool            `json:"changed"`
	Status  pipeline.Status `json:"status"`
}

// SkillEntry is one row of the skill index.
type SkillEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version,omitempty"`
	Phase       string   `json:"phase,omitempty"`
	Utility     bool     `json:"utility,omitempty"`
	Core        bool     `json:"core,omitempty"`
	Supporting  []string `json:"supporting,omitempty"`
	Active      bool     `json:"active"`
}
