// Package pipeline gates the workflow phases a session moves through.
//
// A flow is a fixed ordered sequence of phases. A phase can be entered only
// once every phase before it has been completed. Utility phases live outside
// the sequence: they can be entered at any time and are never tracked as
// completed.
package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// --- Phase enum ---

// Phase names a stage of the workflow.
type Phase string

const (
	PhaseSpecForge Phase = "spec-forge" // shape the feature and its scope
	PhasePlanning  Phase = "planning"   // break the work into tasks
	PhaseWork      Phase = "work"       // implement
	PhaseReview    Phase = "review"     // verify and review
)

// --- Flow enum ---

// Flow selects one of the registered phase sequences.
type Flow string

const (
	FlowStandard Flow = "standard"
	FlowQuick    Flow = "quick"
	FlowHotfix   Flow = "hotfix"
)

// FlowRegistry defines the phase sequence for each flow. Every flow ends
// with review; shorter flows drop the up-front phases a small change does
// not need.
var FlowRegistry = map[Flow][]Phase{
	FlowStandard: {PhaseSpecForge, PhasePlanning, PhaseWork, PhaseReview},
	FlowQuick:    {PhasePlanning, PhaseWork, PhaseReview},
	FlowHotfix:   {PhaseWork, PhaseReview},
}

// ValidateFlow returns an error if the flow is not registered.
func ValidateFlow(f Flow) error {
	if _, ok := FlowRegistry[f]; !ok {
		return fmt.Errorf("invalid flow %q: must be one of: %s", f, strings.Join(flowNames(), ", "))
	}
	return nil
}

// PhaseFlow returns a copy of the phase sequence for the flow.
func PhaseFlow(f Flow) ([]Phase, error) {
	if err := ValidateFlow(f); err != nil {
		return nil, err
	}
	flow := FlowRegistry[f]
	result := make([]Phase, len(flow))
	copy(result, flow)
	return result, nil
}

func flowNames() []string {
	names := make([]string, 0, len(FlowRegistry))
	for f := range FlowRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// --- Phase status ---

// PhaseStatus tracks one phase's progress.
type PhaseStatus string

const (
	StatusPending    PhaseStatus = "pending"
	StatusInProgress PhaseStatus = "in_progress"
	StatusCompleted  PhaseStatus = "completed"
)

// PhaseEntry is the progress record for a single phase in the sequence.
type PhaseEntry struct {
	Name        Phase       `json:"name"`
	Status      PhaseStatus `json:"status"`
	StartedAt   string      `json:"started_at,omitempty"`
	CompletedAt string      `json:"completed_at,omitempty"`
}

// TransitionCheck is the outcome of validating a requested phase.
type TransitionCheck struct {
	Requested     Phase   `json:"requested_phase"`
	Valid         bool    `json:"valid"`
	Utility       bool    `json:"utility,omitempty"`
	MissingPhases []Phase `json:"missing_phases,omitempty"`
	SuggestedNext Phase   `json:"suggested_next,omitempty"`
	Reason        string  `json:"reason"`
}

// Status is a read-only snapshot of the sequencer.
type Status struct {
	Flow             Flow         `json:"flow,omitempty"`
	Sequence         []Phase      `json:"sequence"`
	CurrentPhase     Phase        `json:"current_phase,omitempty"`
	CompletedPhases  []Phase      `json:"completed_phases"`
	Phases           []PhaseEntry `json:"phases"`
	UtilityPhases    []Phase      `json:"utility_phases,omitempty"`
	NextPhase        Phase        `json:"next_phase,omitempty"`
	WorkflowComplete bool         `json:"workflow_complete"`
}

// PhaseStrings converts phases to plain strings.
func PhaseStrings(phases []Phase) []string {
	out := make([]string, len(phases))
	for i, p := range phases {
		out[i] = string(p)
	}
	return out
}
