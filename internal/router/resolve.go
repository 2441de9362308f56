package router

import (
	"sort"

	"github.com/HendryAvila/skillgate/internal/triggers"
)

// DefaultTopK is the number of recommendations returned by Resolve.
const DefaultTopK = 3

// Resolve deduplicates matches by skill and ranks them.
//
// Within a skill the highest confidence wins, ties going to the higher tier.
// Skills are ordered by high priority first, then confidence, then tier
// rank, then skill name. Only the first k are returned (DefaultTopK when
// k <= 0); anything past the cutoff is dropped.
func Resolve(matches []triggers.MatchResult, k int) []triggers.MatchResult {
	if k <= 0 {
		k = DefaultTopK
	}

	best := make(map[string]triggers.MatchResult, len(matches))
	for _, m := range matches {
		cur, ok := best[m.Skill]
		if !ok || better(m, cur) {
			best[m.Skill] = m
		}
	}

	out := make([]triggers.MatchResult, 0, len(best))
	for _, m := range best {
		out = append(out, m.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ah, bh := a.Priority == triggers.PriorityHigh, b.Priority == triggers.PriorityHigh; ah != bh {
			return ah
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Tier.Rank() != b.Tier.Rank() {
			return a.Tier.Rank() > b.Tier.Rank()
		}
		return a.Skill < b.Skill
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}

// better reports whether a should replace b as the representative match of a skill.
func better(a, b triggers.MatchResult) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Tier.Rank() > b.Tier.Rank()
}
