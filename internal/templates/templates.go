// Package templates renders the Markdown reports that skillgate returns to
// MCP clients and prints from the CLI.
//
// Templates are embedded in the binary and parsed once by NewRenderer.
// Tools depend on the Renderer interface, not on the embedded
// implementation.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/HendryAvila/skillgate/internal/budget"
	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/errs"
	"github.com/HendryAvila/skillgate/internal/pipeline"
)

//go:embed *.md.tmpl
var templateFS embed.FS

// Template names.
const (
	Recommendations = "recommendations.md.tmpl"
	Transition      = "transition.md.tmpl"
	PhaseStatus     = "phase_status.md.tmpl"
	BudgetStatus    = "budget_status.md.tmpl"
	SkillIndex      = "skill_index.md.tmpl"
	Activation      = "activation.md.tmpl"
	Deactivation    = "deactivation.md.tmpl"
	FileLoad        = "file_load.md.tmpl"
	FileUnload      = "file_unload.md.tmpl"
	Error           = "error.md.tmpl"
)

// Renderer renders a named template with data.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// --- Template data ---

// RecommendationsData feeds the Recommendations template.
type RecommendationsData struct {
	Result *engine.AnalysisResult
	Detail string
}

// TransitionData feeds the Transition template.
type TransitionData struct {
	Result *engine.TransitionResult
}

// PhaseStatusData feeds the PhaseStatus template.
type PhaseStatusData struct {
	Status pipeline.Status
}

// BudgetStatusData feeds the BudgetStatus template.
type BudgetStatusData struct {
	Status budget.Status
	Detail string
}

// SkillIndexData feeds the SkillIndex template.
type SkillIndexData struct {
	Skills []engine.SkillEntry
	Detail string
}

// ActivationData feeds the Activation template. Content is the skill's
// instructions; it is omitted in summary mode.
type ActivationData struct {
	Result  *budget.ActivationResult
	Ceiling int
	Content string
}

// DeactivationData feeds the Deactivation template.
type DeactivationData struct {
	Result  *budget.DeactivationResult
	Ceiling int
}

// FileLoadData feeds the FileLoad template.
type FileLoadData struct {
	Result  *budget.FileLoadResult
	Ceiling int
	Content string
}

// FileUnloadData feeds the FileUnload template.
type FileUnloadData struct {
	Result  *budget.UnloadResult
	Ceiling int
}

// ErrorDetail is one key/value line of an error report.
type ErrorDetail struct {
	Key   string
	Value string
}

// ErrorData feeds the Error template.
type ErrorData struct {
	Code    string
	Message string
	Details []ErrorDetail
	Hint    string
}

// NewErrorData flattens err for rendering. Taxonomy errors keep their code
// and details; anything else is reported as internal.
func NewErrorData(err error) ErrorData {
	var e *errs.Error
	if !errors.As(err, &e) {
		return ErrorData{Code: string(errs.CodeInternal), Message: err.Error()}
	}

	data := ErrorData{Code: string(e.Code), Message: e.Message}
	for _, k := range e.DetailKeys() {
		data.Details = append(data.Details, ErrorDetail{Key: k, Value: detailString(e.Details[k])})
	}
	switch e.Code {
	case errs.CodeSequenceViolation:
		if next, ok := e.Details["suggested_next"].(string); ok && next != "" {
			data.Hint = fmt.Sprintf("Complete the missing phases first. Start with `phase_transition` to %s.", next)
		}
	case errs.CodeBudgetExceeded:
		data.Hint = "Deactivate skills or unload files with `skill_deactivate` / `file_unload` to free tokens."
	case errs.CodeNotFound:
		data.Hint = "Use `skill_list` or `phase_status` to see what exists."
	}
	return data
}

func detailString(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ", ")
	case string:
		return t
	}
	return fmt.Sprint(v)
}

// --- Renderer ---

// EmbedRenderer renders the embedded templates.
type EmbedRenderer struct {
	tmpl *template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*EmbedRenderer, error) {
	t, err := template.New("skillgate").Funcs(funcMap()).ParseFS(templateFS, "*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &EmbedRenderer{tmpl: t}, nil
}

// Render executes the named template.
func (r *EmbedRenderer) Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := r.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return b.String(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join":    strings.Join,
		"phases":  pipeline.PhaseStrings,
		"number":  formatNumber,
		"percent": func(p float64) string { return fmt.Sprintf("%.1f%%", p) },
		"bar":     progressBar,
		"inc":     func(i int) int { return i + 1 },
		"check": func(b bool) string {
			if b {
				return "✅"
			}
			return "—"
		},
		"marker": func(status any) string {
			switch fmt.Sprint(status) {
			case string(pipeline.StatusCompleted):
				return "✅"
			case string(pipeline.StatusInProgress):
				return "🔄"
			}
			return "⬜"
		},
		"stateIcon": func(state any) string {
			switch fmt.Sprint(state) {
			case string(budget.StateWarning):
				return "⚠️"
			case string(budget.StateExceeded):
				return "🛑"
			}
			return "🟢"
		},
		"kind": skillKind,
	}
}

// progressBar draws a 20-cell bar for a utilization percentage.
func progressBar(percent float64) string {
	const width = 20
	filled := int(percent / 100 * width)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func skillKind(s engine.SkillEntry) string {
	switch {
	case s.Utility && s.Core:
		return "core utility"
	case s.Utility:
		return "utility"
	case s.Phase != "":
		return "phase"
	}
	return "supporting"
}
