// Package tokens estimates how many model tokens a piece of text costs.
//
// The budget tracker charges activated skills and loaded files by token
// count. Two counters exist: a fast heuristic and an exact cl100k_base
// encoder backed by tiktoken-go that falls back to the heuristic when the
// encoding cannot be loaded.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
	Name() string
}

// Kind selects a Counter implementation.
type Kind string

const (
	KindHeuristic Kind = "heuristic"
	KindTiktoken  Kind = "tiktoken"
)

// DefaultEncoding is the tiktoken encoding used by NewTiktoken.
const DefaultEncoding = "cl100k_base"

// New returns the counter for kind. Empty kind selects the heuristic.
func New(kind Kind) (Counter, error) {
	switch kind {
	case "", KindHeuristic:
		return Heuristic{}, nil
	case KindTiktoken:
		return NewTiktoken(DefaultEncoding), nil
	}
	return nil, fmt.Errorf("invalid token counter %q: must be heuristic or tiktoken", kind)
}

// --- Heuristic ---

// Heuristic estimates max(runes/4, words). Non-empty text costs at least 1.
type Heuristic struct{}

// Name implements Counter.
func (Heuristic) Name() string { return string(KindHeuristic) }

// Count implements Counter.
func (Heuristic) Count(text string) int { return Estimate(text) }

// Estimate is the heuristic token estimate.
func Estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

// --- Tiktoken ---

// Tiktoken counts with a BPE encoding. The encoding is loaded on first use;
// if loading fails every count falls back to Estimate.
type Tiktoken struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewTiktoken returns a lazily initialized tiktoken counter.
func NewTiktoken(encoding string) *Tiktoken {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Tiktoken{encoding: encoding}
}

// Name implements Counter.
func (t *Tiktoken) Name() string { return string(KindTiktoken) + ":" + t.encoding }

// Count implements Counter.
func (t *Tiktoken) Count(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	if enc := t.load(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Err returns the encoding load error, if the encoding failed to load.
func (t *Tiktoken) Err() error {
	t.load()
	return t.err
}

func (t *Tiktoken) load() *tiktoken.Tiktoken {
	t.once.Do(func() {
		t.enc, t.err = tiktoken.GetEncoding(t.encoding)
	})
	return t.enc
}
