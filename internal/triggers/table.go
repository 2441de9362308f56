package triggers

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/HendryAvila/skillgate/internal/errs"
	"gopkg.in/yaml.v3"
)

//go:embed default_triggers.yaml
var defaultTriggersYAML []byte

// tableFile is the on-disk schema of a trigger table.
type tableFile struct {
	Triggers []Trigger `yaml:"triggers"`
}

// Table is an immutable, validated set of triggers in tier priority order.
type Table struct {
	triggers []Trigger
}

// DefaultTable parses the embedded built-in table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTriggersYAML)
}

// LoadTable reads and validates a trigger table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("trigger table", path)
		}
		return nil, errs.Wrap(err, "reading trigger table")
	}
	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("trigger table %s: %w", path, err)
	}
	return table, nil
}

// ParseTable validates YAML trigger data. Any malformed entry fails the whole
// load with a validation error naming the entry index.
func ParseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errs.Validation("parsing trigger table", map[string]any{"cause": err.Error()})
	}
	return NewTable(file.Triggers)
}

// NewTable validates triggers and builds a table.
func NewTable(triggers []Trigger) (*Table, error) {
	if len(triggers) == 0 {
		return nil, errs.Validationf("trigger table is empty")
	}

	seen := make(map[string]bool, len(triggers))
	out := make([]Trigger, 0, len(triggers))
	for i, t := range triggers {
		if err := validateTrigger(t); err != nil {
			return nil, errs.Validation(
				fmt.Sprintf("trigger #%d (%q): %s", i, t.Phrase, err),
				map[string]any{"index": i, "phrase": t.Phrase, "skill": t.Skill},
			)
		}
		t.Skill = strings.TrimSpace(t.Skill)
		t.normalized = Normalize(t.Phrase)
		key := t.normalized + "\x00" + t.Skill
		if seen[key] {
			return nil, errs.Validation(
				fmt.Sprintf("trigger #%d: duplicate phrase %q for skill %q", i, t.Phrase, t.Skill),
				map[string]any{"index": i, "phrase": t.Phrase, "skill": t.Skill},
			)
		}
		seen[key] = true
		out = append(out, t)
	}

	// Stable sort keeps file order within a tier.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tier.Rank() > out[j].Tier.Rank()
	})

	return &Table{triggers: out}, nil
}

func validateTrigger(t Trigger) error {
	if Normalize(t.Phrase) == "" {
		return fmt.Errorf("phrase is required")
	}
	if strings.TrimSpace(t.Skill) == "" {
		return fmt.Errorf("skill is required")
	}
	if err := ValidateTier(t.Tier); err != nil {
		return err
	}
	if t.Confidence < 0 || t.Confidence > 100 {
		return fmt.Errorf("confidence %d outside [0,100]", t.Confidence)
	}
	if band := t.Tier.Band(); !band.Contains(t.Confidence) {
		return fmt.Errorf("confidence %d outside %s band [%d,%d]", t.Confidence, t.Tier, band.Min, band.Max)
	}
	return nil
}

// Len returns the number of triggers.
func (tb *Table) Len() int { return len(tb.triggers) }

// Triggers returns a copy of the triggers in scan order.
func (tb *Table) Triggers() []Trigger {
	return append([]Trigger(nil), tb.triggers...)
}

// Skills returns the distinct skill ids referenced by the table, sorted.
func (tb *Table) Skills() []string {
	set := make(map[string]bool)
	for _, t := range tb.triggers {
		set[t.Skill] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ForSkill returns the triggers that point to skill, in scan order.
func (tb *Table) ForSkill(skill string) []Trigger {
	var out []Trigger
	for _, t := range tb.triggers {
		if t.Skill == skill {
			out = append(out, t)
		}
	}
	return out
}
