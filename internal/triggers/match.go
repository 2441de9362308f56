package triggers

import (
	"fmt"
	"math"
	"strings"
)

// FindMatches scans every trigger, tier by tier, and returns a MatchResult
// for each trigger whose normalized phrase is a substring of the normalized
// input. It has no side effects.
func (tb *Table) FindMatches(input string, strategy Strategy) []MatchResult {
	normalized := Normalize(input)
	if normalized == "" {
		return nil
	}

	if strategy != StrategyRatio {
		strategy = StrategyTiered
	}

	var matches []MatchResult
	for _, t := range tb.triggers {
		phrase := t.Normalized()
		if !strings.Contains(normalized, phrase) {
			continue
		}

		confidence := t.Confidence
		reasoning := fmt.Sprintf("%s trigger %q matched", t.Tier, t.Phrase)
		if strategy == StrategyRatio {
			score := Score(normalized, phrase)
			confidence = int(math.Round(score * 100))
			reasoning = fmt.Sprintf("%s trigger %q scored %.2f", t.Tier, t.Phrase, score)
		}

		matches = append(matches, MatchResult{
			Skill:      t.Skill,
			Confidence: ClampConfidence(confidence),
			Trigger:    t.Phrase,
			Tier:       t.Tier,
			Reasoning:  reasoning,
			Priority:   PriorityNormal,
			Strategy:   strategy,
		})
	}
	return matches
}
