// Package triggers holds the static trigger table and the phrase matching
// that turns a user request into raw skill matches.
//
// A trigger maps a phrase to a skill with a base confidence inside the band
// of its tier. The table is immutable once loaded: the built-in table is
// embedded in the binary, and an external YAML file can replace it.
package triggers

import "fmt"

// --- Tier enum ---

// Tier is a confidence band used to rank phrase matches.
type Tier string

const (
	TierExact      Tier = "exact"
	TierPrimary    Tier = "primary"
	TierSemantic   Tier = "semantic"
	TierContextual Tier = "contextual"
)

// TierOrder lists tiers in scan priority order.
var TierOrder = []Tier{TierExact, TierPrimary, TierSemantic, TierContextual}

// Band is the inclusive confidence range a tier allows.
type Band struct {
	Min int
	Max int
}

// Contains reports whether c falls inside the band.
func (b Band) Contains(c int) bool { return c >= b.Min && c <= b.Max }

var tierBands = map[Tier]Band{
	TierExact:      {Min: 95, Max: 100},
	TierPrimary:    {Min: 85, Max: 94},
	TierSemantic:   {Min: 70, Max: 84},
	TierContextual: {Min: 50, Max: 69},
}

var tierRanks = map[Tier]int{
	TierExact:      4,
	TierPrimary:    3,
	TierSemantic:   2,
	TierContextual: 1,
}

// Band returns the confidence band for the tier (zero Band if unknown).
func (t Tier) Band() Band { return tierBands[t] }

// Rank orders tiers: Exact > Primary > Semantic > Contextual. Unknown tiers rank 0.
func (t Tier) Rank() int { return tierRanks[t] }

// ValidateTier returns an error if the tier is not recognized.
func ValidateTier(t Tier) error {
	if _, ok := tierRanks[t]; !ok {
		return fmt.Errorf("invalid tier %q: must be one of: exact, primary, semantic, contextual", t)
	}
	return nil
}

// --- Scoring strategy ---

// Strategy selects how a match's confidence is computed.
type Strategy string

const (
	// StrategyTiered uses the trigger's tuned base confidence.
	StrategyTiered Strategy = "tiered"
	// StrategyRatio uses the length-ratio scorer (Score) scaled to 0..100.
	StrategyRatio Strategy = "ratio"
)

// ValidateStrategy returns an error if the strategy is not recognized.
func ValidateStrategy(s Strategy) error {
	switch s {
	case StrategyTiered, StrategyRatio:
		return nil
	}
	return fmt.Errorf("invalid scoring strategy %q: must be tiered or ratio", s)
}

// --- Core data structures ---

// Trigger maps a phrase to a skill.
type Trigger struct {
	Phrase     string `yaml:"phrase" json:"phrase"`
	Skill      string `yaml:"skill" json:"skill"`
	Confidence int    `yaml:"confidence" json:"confidence"`
	Tier       Tier   `yaml:"tier" json:"tier"`

	normalized string
}

// Normalized returns the phrase in matching form.
func (t Trigger) Normalized() string {
	if t.normalized == "" {
		return Normalize(t.Phrase)
	}
	return t.normalized
}

// Priority marks matches that should sort ahead of everything else.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// MatchResult is one skill recommendation produced by an analysis call.
type MatchResult struct {
	Skill       string   `json:"skill"`
	Confidence  int      `json:"confidence"`
	Trigger     string   `json:"trigger"`
	Tier        Tier     `json:"tier"`
	Reasoning   string   `json:"reasoning"`
	Adjustments []string `json:"adjustments,omitempty"`
	Priority    Priority `json:"priority"`
	Persona     string   `json:"persona,omitempty"`
	Strategy    Strategy `json:"strategy"`
}

// Clone returns a copy that shares no slices with m.
func (m MatchResult) Clone() MatchResult {
	out := m
	out.Adjustments = append([]string(nil), m.Adjustments...)
	return out
}

// ClampConfidence bounds c to [0, 100].
func ClampConfidence(c int) int {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}
