package router

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/skillgate/internal/triggers"
)

// Adjust applies session-derived bonuses to raw matches and returns a new
// slice; the input slice is not modified. Every rule is evaluated
// independently per match, confidence is clamped to 100 after each bonus,
// and each applied bonus is recorded in the match's Adjustments.
func Adjust(matches []triggers.MatchResult, input string, session SessionContext, rules Rules) []triggers.MatchResult {
	if len(matches) == 0 {
		return nil
	}

	normalized := triggers.Normalize(input)

	nextSkills := nextSkillsAfter(session.LastActivity(), rules.NextSkills)
	urgency := firstContained(normalized, rules.UrgencyKeywords)

	perSkill := make(map[string]int, len(matches))
	for _, m := range matches {
		perSkill[m.Skill]++
	}

	out := make([]triggers.MatchResult, 0, len(matches))
	for _, raw := range matches {
		m := raw.Clone()

		if nextSkills[m.Skill] {
			bump(&m, SequentialBonus, "Sequential workflow progression")
		}

		if ep, ok := errorPhraseFor(normalized, m.Skill, rules.ErrorPhrases); ok {
			bump(&m, ErrorBonus, fmt.Sprintf("Error context %q", ep.Phrase))
			if ep.Persona != "" {
				m.Persona = ep.Persona
			}
		}

		if urgency != "" {
			bump(&m, UrgencyBonus, fmt.Sprintf("Urgency keyword %q", urgency))
			m.Priority = triggers.PriorityHigh
		}

		if perSkill[m.Skill] > 1 {
			bump(&m, RepetitionBonus, "Multiple triggers corroborate skill")
		}

		out = append(out, m)
	}
	return out
}

func bump(m *triggers.MatchResult, bonus int, label string) {
	m.Confidence = triggers.ClampConfidence(m.Confidence + bonus)
	m.Adjustments = append(m.Adjustments, fmt.Sprintf("%s (+%d)", label, bonus))
}

// nextSkillsAfter returns the skills that naturally follow the activity.
func nextSkillsAfter(activity string, rules []NextSkillRule) map[string]bool {
	activity = triggers.Normalize(activity)
	if activity == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, r := range rules {
		kw := triggers.Normalize(r.Activity)
		if kw == "" || !strings.Contains(activity, kw) {
			continue
		}
		for _, s := range r.Skills {
			out[s] = true
		}
	}
	return out
}

func errorPhraseFor(normalizedInput, skill string, phrases []ErrorPhrase) (ErrorPhrase, bool) {
	for _, ep := range phrases {
		if ep.Skill != skill {
			continue
		}
		p := triggers.Normalize(ep.Phrase)
		if p != "" && strings.Contains(normalizedInput, p) {
			return ep, true
		}
	}
	return ErrorPhrase{}, false
}

func firstContained(normalizedInput string, keywords []string) string {
	for _, kw := range keywords {
		k := triggers.Normalize(kw)
		if k != "" && strings.Contains(normalizedInput, k) {
			return kw
		}
	}
	return ""
}
