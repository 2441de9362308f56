package triggers

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize puts text into matching form: lowercase, trimmed, hyphens and
// underscores treated as spaces, runs of whitespace collapsed to one space.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Score computes the length-ratio confidence of phrase against input in [0,1]:
//
//	base  = min(len(phraseWords)/len(inputWords), 1)
//	+0.3  if input contains phrase
//	+0.2  if phrase occurs on word boundaries
//	+0.1  if input starts with phrase
//
// Empty input counts as one word. Both sides are normalized first.
func Score(input, phrase string) float64 {
	in := Normalize(input)
	ph := Normalize(phrase)
	if ph == "" {
		return 0
	}

	inputWords := len(strings.Fields(in))
	if inputWords == 0 {
		inputWords = 1
	}
	phraseWords := len(strings.Fields(ph))

	score := math.Min(float64(phraseWords)/float64(inputWords), 1.0)
	if strings.Contains(in, ph) {
		score += 0.3
	}
	if containsAtBoundary(in, ph) {
		score += 0.2
	}
	if strings.HasPrefix(in, ph) {
		score += 0.1
	}
	return math.Max(0, math.Min(score, 1))
}

// containsAtBoundary reports whether phrase occurs in s with no word
// character immediately before or after it.
func containsAtBoundary(s, phrase string) bool {
	offset := 0
	for {
		idx := strings.Index(s[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
		if offset >= len(s) {
			return false
		}
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
