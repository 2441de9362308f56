package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/HendryAvila/skillgate/internal/errs"
)

// Sequencer is the phase state machine for one session.
// It is not safe for concurrent use.
type Sequencer struct {
	flow     Flow
	sequence []Phase
	index    map[Phase]int
	utility  map[Phase]bool

	current   Phase
	completed map[Phase]bool
	entries   []PhaseEntry
}

// New creates a sequencer for a registered flow. Utility phases are phase
// ids outside the sequence that may be entered at any time.
func New(flow Flow, utility ...Phase) (*Sequencer, error) {
	seq, err := PhaseFlow(flow)
	if err != nil {
		return nil, errs.Validation(err.Error(), map[string]any{"flow": string(flow)})
	}
	s, err := NewWithSequence(seq, utility...)
	if err != nil {
		return nil, err
	}
	s.flow = flow
	return s, nil
}

// NewWithSequence creates a sequencer for an arbitrary ordered sequence.
func NewWithSequence(sequence []Phase, utility ...Phase) (*Sequencer, error) {
	if len(sequence) == 0 {
		return nil, errs.Validationf("phase sequence is empty")
	}

	index := make(map[Phase]int, len(sequence))
	for i, p := range sequence {
		if p == "" {
			return nil, errs.Validationf("phase #%d has an empty name", i)
		}
		if _, dup := index[p]; dup {
			return nil, errs.Validationf("phase %q appears twice in the sequence", p)
		}
		index[p] = i
	}

	util := make(map[Phase]bool, len(utility))
	for _, p := range utility {
		if _, inSeq := index[p]; inSeq {
			return nil, errs.Validationf("utility phase %q is part of the sequence", p)
		}
		if p != "" {
			util[p] = true
		}
	}

	s := &Sequencer{
		sequence: append([]Phase(nil), sequence...),
		index:    index,
		utility:  util,
	}
	s.Reset()
	return s, nil
}

// Flow returns the flow name, empty for custom sequences.
func (s *Sequencer) Flow() Flow { return s.flow }

// Sequence returns a copy of the ordered phases.
func (s *Sequencer) Sequence() []Phase { return append([]Phase(nil), s.sequence...) }

// Current returns the current phase, empty before the first transition.
func (s *Sequencer) Current() Phase { return s.current }

// Known reports whether p is in the sequence or a utility phase.
func (s *Sequencer) Known(p Phase) bool {
	_, inSeq := s.index[p]
	return inSeq || s.utility[p]
}

// ValidateTransition checks whether p may be entered now. A phase is valid
// when it is first in the sequence or every earlier phase is completed.
// Utility phases are always valid.
func (s *Sequencer) ValidateTransition(p Phase) TransitionCheck {
	check := TransitionCheck{Requested: p}

	if s.utility[p] {
		check.Valid = true
		check.Utility = true
		check.Reason = fmt.Sprintf("%s is a utility phase and can be entered at any time", p)
		return check
	}

	idx, ok := s.index[p]
	if !ok {
		check.Reason = fmt.Sprintf("unknown phase %q", p)
		return check
	}

	for _, prev := range s.sequence[:idx] {
		if !s.completed[prev] {
			check.MissingPhases = append(check.MissingPhases, prev)
		}
	}

	if len(check.MissingPhases) > 0 {
		check.SuggestedNext = check.MissingPhases[0]
		check.Reason = fmt.Sprintf("%s requires %d earlier phase(s) to be completed first", p, len(check.MissingPhases))
		return check
	}

	check.Valid = true
	if idx == 0 {
		check.Reason = fmt.Sprintf("%s is the first phase", p)
	} else {
		check.Reason = fmt.Sprintf("all phases before %s are completed", p)
	}
	return check
}

// Transition enters p. Unknown phases fail with not_found; gated phases fail
// with a sequence_violation carrying the missing phases. The check is
// returned in both cases.
func (s *Sequencer) Transition(p Phase) (TransitionCheck, error) {
	if !s.Known(p) {
		return TransitionCheck{Requested: p, Reason: fmt.Sprintf("unknown phase %q", p)}, errs.NotFound("phase", string(p))
	}

	check := s.ValidateTransition(p)
	if !check.Valid {
		return check, errs.SequenceViolation(string(p), PhaseStrings(check.MissingPhases))
	}

	s.current = p
	if check.Utility {
		return check, nil
	}

	entry := &s.entries[s.index[p]]
	if entry.Status == StatusPending {
		entry.Status = StatusInProgress
		entry.StartedAt = now()
	}
	return check, nil
}

// CompletePhase marks p completed. Completing an already-completed phase is
// a no-op; completing a utility phase is a no-op because utility phases are
// not tracked. It reports whether the call changed anything.
func (s *Sequencer) CompletePhase(p Phase) (bool, error) {
	if s.utility[p] {
		return false, nil
	}
	idx, ok := s.index[p]
	if !ok {
		return false, errs.NotFound("phase", string(p))
	}
	if s.completed[p] {
		return false, nil
	}

	ts := now()
	s.completed[p] = true
	entry := &s.entries[idx]
	if entry.StartedAt == "" {
		entry.StartedAt = ts
	}
	entry.Status = StatusCompleted
	entry.CompletedAt = ts
	return true, nil
}

// Reset returns the sequencer to its initial state.
func (s *Sequencer) Reset() {
	s.current = ""
	s.completed = make(map[Phase]bool, len(s.sequence))
	s.entries = make([]PhaseEntry, len(s.sequence))
	for i, p := range s.sequence {
		s.entries[i] = PhaseEntry{Name: p, Status: StatusPending}
	}
}

// CompletedPhases returns the completed phases in sequence order.
func (s *Sequencer) CompletedPhases() []Phase {
	var out []Phase
	for _, p := range s.sequence {
		if s.completed[p] {
			out = append(out, p)
		}
	}
	return out
}

// NextPhase returns the first phase not yet completed, empty when the
// workflow is complete.
func (s *Sequencer) NextPhase() Phase {
	for _, p := range s.sequence {
		if !s.completed[p] {
			return p
		}
	}
	return ""
}

// WorkflowComplete reports whether every phase in the sequence is completed.
func (s *Sequencer) WorkflowComplete() bool {
	return len(s.completed) == len(s.sequence)
}

// Status returns a snapshot; it never mutates the sequencer.
func (s *Sequencer) Status() Status {
	completed := s.CompletedPhases()
	if completed == nil {
		completed = []Phase{}
	}
	var utility []Phase
	for p := range s.utility {
		utility = append(utility, p)
	}
	sort.Slice(utility, func(i, j int) bool { return utility[i] < utility[j] })

	return Status{
		Flow:             s.flow,
		Sequence:         s.Sequence(),
		CurrentPhase:     s.current,
		CompletedPhases:  completed,
		Phases:           append([]PhaseEntry(nil), s.entries...),
		UtilityPhases:    utility,
		NextPhase:        s.NextPhase(),
		WorkflowComplete: s.WorkflowComplete(),
	}
}

func now() string {
	return timeNow().UTC().Format(time.RFC3339)
}
