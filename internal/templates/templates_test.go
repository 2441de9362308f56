package templates

import (
	"errors"
	"strings"
	"testing"

	"github.com/HendryAvila/skillgate/internal/budget"
	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/errs"
	"github.com/HendryAvila/skillgate/internal/pipeline"
	"github.com/HendryAvila/skillgate/internal/router"
	"github.com/HendryAvila/skillgate/internal/skills"
	"github.com/HendryAvila/skillgate/internal/triggers"
)

func mustRenderer(t *testing.T) *EmbedRenderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func sampleAnalysis() *engine.AnalysisResult {
	return &engine.AnalysisResult{
		Recommendations: []engine.Recommendation{{
			MatchResult: triggers.MatchResult{
				Skill:       "work",
				Confidence:  85,
				Trigger:     "start coding",
				Tier:        triggers.TierPrimary,
				Reasoning:   "Primary trigger \"start coding\" matched",
				Adjustments: []string{"Sequential workflow progression (+10)"},
				Priority:    triggers.PriorityNormal,
			},
			Metadata: skills.Metadata{Name: "work", Description: "Implement planned tasks."},
			Active:   true,
		}},
		Meta: router.AnalysisMeta{
			Input:      "let's start coding",
			Normalized: "let's start coding",
			RawMatches: 1,
			Strategy:   triggers.StrategyTiered,
			AnalyzedAt: "2026-02-20T12:00:00Z",
		},
	}
}

func sampleBudget() budget.Status {
	return budget.Status{
		TotalTokens:        6800,
		Ceiling:            8000,
		Available:          1200,
		UtilizationPercent: 85,
		State:              budget.StateWarning,
		Tiers: []budget.TierUsage{
			{Tier: budget.TierDiscovery, Tokens: 400, Items: 8},
			{Tier: budget.TierActivation, Tokens: 6000, Items: 6},
			{Tier: budget.TierExecution, Tokens: 400, Items: 1},
		},
		ActiveSkills:   []string{"work"},
		InactiveSkills: []string{"review"},
		ExecutionFiles: []budget.Item{{ID: "main.go", Tier: budget.TierExecution, TokenCost: 400, Owner: "work"}},
	}
}

// --- NewRenderer ---

func TestNewRenderer_ParsesAllTemplates(t *testing.T) {
	r := mustRenderer(t)
	for _, name := range []string{Recommendations, Transition, PhaseStatus, BudgetStatus, SkillIndex, Activation, Deactivation, FileLoad, FileUnload, Error} {
		if r.tmpl.Lookup(name) == nil {
			t.Errorf("template %s not parsed", name)
		}
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	if _, err := mustRenderer(t).Render("nope.md.tmpl", nil); err == nil {
		t.Error("Render(unknown) should fail")
	}
}

// --- Recommendations ---

func TestRender_Recommendations(t *testing.T) {
	out, err := mustRenderer(t).Render(Recommendations, RecommendationsData{Result: sampleAnalysis(), Detail: DetailStandard})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out,
		"# Skill Recommendations",
		"let's start coding",
		"| 1 | work | 85% | primary | normal | ✅ |",
		"## work",
		"Implement planned tasks.",
		"Sequential workflow progression (+10)",
	)
	if strings.Contains(out, "Raw matches") {
		t.Error("standard detail should not include analysis internals")
	}
}

func TestRender_RecommendationsDetailLevels(t *testing.T) {
	r := mustRenderer(t)

	summary, _ := r.Render(Recommendations, RecommendationsData{Result: sampleAnalysis(), Detail: DetailSummary})
	if strings.Contains(summary, "## work") {
		t.Error("summary should only render the table")
	}

	full, _ := r.Render(Recommendations, RecommendationsData{Result: sampleAnalysis(), Detail: DetailFull})
	assertContains(t, full, "**Raw matches:** 1", "2026-02-20T12:00:00Z")
}

func TestRender_RecommendationsEmpty(t *testing.T) {
	res := &engine.AnalysisResult{Meta: router.AnalysisMeta{Input: "weather", Strategy: triggers.StrategyTiered}}
	out, err := mustRenderer(t).Render(Recommendations, RecommendationsData{Result: res})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out, "No skill matched")
}

// --- Transition ---

func TestRender_TransitionValid(t *testing.T) {
	res := &engine.TransitionResult{
		Phase:         "planning",
		PreviousPhase: "spec-forge",
		Valid:         true,
		Reason:        "all phases before planning are completed",
		Activated:     []budget.ActivationResult{{ID: "planning", TokenCost: 1200, Evicted: []budget.Eviction{{ID: "old.go", Tier: budget.TierExecution, TokensFreed: 300}}}},
		Deactivated:   []budget.DeactivationResult{{ID: "spec-forge", TokensFreed: 500}},
		Kept:          []string{"codebase-analysis"},
		Budget:        sampleBudget(),
	}
	out, err := mustRenderer(t).Render(Transition, TransitionData{Result: res})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out,
		"✅ Entered **planning** from spec-forge",
		"- planning (+1,200 tokens)",
		"- spec-forge (-500 tokens)",
		"## Kept (core)",
		"execution `old.go`",
		"6,800 / 8,000 tokens (85.0%, warning)",
	)
}

func TestRender_TransitionViolation(t *testing.T) {
	res := &engine.TransitionResult{
		Phase:         "review",
		Reason:        "review requires 3 earlier phase(s) to be completed first",
		MissingPhases: []string{"spec-forge", "planning", "work"},
		SuggestedNext: "spec-forge",
	}
	out, err := mustRenderer(t).Render(Transition, TransitionData{Result: res})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out,
		"❌ Cannot enter **review**",
		"**Missing phases:** spec-forge, planning, work",
		"**Suggested next:** `spec-forge`",
	)
}

// --- PhaseStatus ---

func TestRender_PhaseStatus(t *testing.T) {
	st := pipeline.Status{
		Flow:         pipeline.FlowStandard,
		CurrentPhase: pipeline.PhasePlanning,
		NextPhase:    pipeline.PhasePlanning,
		Phases: []pipeline.PhaseEntry{
			{Name: pipeline.PhaseSpecForge, Status: pipeline.StatusCompleted, StartedAt: "t0", CompletedAt: "t1"},
			{Name: pipeline.PhasePlanning, Status: pipeline.StatusInProgress, StartedAt: "t2"},
			{Name: pipeline.PhaseWork, Status: pipeline.StatusPending},
		},
		UtilityPhases: []pipeline.Phase{"git-workflow", "troubleshooting"},
	}
	out, err := mustRenderer(t).Render(PhaseStatus, PhaseStatusData{Status: st})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out,
		"**Flow:** standard",
		"**Current phase:** planning",
		"| ✅ spec-forge | completed | t0 | t1 |",
		"| 🔄 planning | in_progress | t2 | — |",
		"| ⬜ work | pending | — | — |",
		"git-workflow, troubleshooting",
	)
}

func TestRender_PhaseStatusFresh(t *testing.T) {
	out, err := mustRenderer(t).Render(PhaseStatus, PhaseStatusData{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out, "**Current phase:** none", "**Flow:** custom")
}

// --- BudgetStatus ---

func TestRender_BudgetStatus(t *testing.T) {
	r := mustRenderer(t)

	out, err := r.Render(BudgetStatus, BudgetStatusData{Status: sampleBudget(), Detail: DetailStandard})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out,
		"85.0%",
		"- **Used:** 6,800 / 8,000 tokens",
		"⚠️ warning",
		"| activation | 6,000 | 6 |",
		"## Active skills",
		"`main.go` (400 tokens, owner work)",
	)
	if strings.Contains(out, "Inactive skills") {
		t.Error("standard detail should omit inactive skills")
	}

	summary, _ := r.Render(BudgetStatus, BudgetStatusData{Status: sampleBudget(), Detail: DetailSummary})
	if strings.Contains(summary, "## Active skills") {
		t.Error("summary should omit skill lists")
	}

	full, _ := r.Render(BudgetStatus, BudgetStatusData{Status: sampleBudget(), Detail: DetailFull})
	assertContains(t, full, "## Inactive skills", "- review")
}

// --- SkillIndex ---

func TestRender_SkillIndex(t *testing.T) {
	entries := []engine.SkillEntry{
		{Name: "codebase-analysis", Description: "Map a codebase.", Utility: true, Core: true, Version: "1.0.0"},
		{Name: "ears-specification", Description: "Write EARS requirements."},
		{Name: "work", Description: "Implement tasks.", Phase: "work", Supporting: []string{"troubleshooting"}, Active: true},
	}
	out, err := mustRenderer(t).Render(SkillIndex, SkillIndexData{Skills: entries, Detail: DetailStandard})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out,
		"3 skills available.",
		"| codebase-analysis | — | core utility | 1.0.0 | — |",
		"| ears-specification | — | supporting | — | — |",
		"| work | work | phase | — | ✅ |",
		"## work",
		"Supporting: troubleshooting",
	)
}

// --- Activation / files ---

func TestRender_Activation(t *testing.T) {
	r := mustRenderer(t)

	res := &budget.ActivationResult{
		ID:          "work",
		TokenCost:   1000,
		TotalTokens: 7500,
		Evicted:     []budget.Eviction{{ID: "planning", Tier: budget.TierActivation, TokensFreed: 900}},
	}
	out, err := r.Render(Activation, ActivationData{Result: res, Ceiling: 8000, Content: "# Work\n\nImplement the plan."})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out,
		"✅ Activated **work** (+1,000 tokens).",
		"- activation `planning` (-900 tokens)",
		"Budget: 7,500 / 8,000 tokens",
		"Implement the plan.",
	)

	again, _ := r.Render(Activation, ActivationData{Result: &budget.ActivationResult{ID: "work", AlreadyActive: true, TokenCost: 1000}, Ceiling: 8000})
	assertContains(t, again, "**work** is already active")
}

func TestRender_Deactivation(t *testing.T) {
	r := mustRenderer(t)

	out, _ := r.Render(Deactivation, DeactivationData{Result: &budget.DeactivationResult{ID: "work", TokensFreed: 1000, TotalTokens: 400}, Ceiling: 8000})
	assertContains(t, out, "✅ Deactivated **work** (-1,000 tokens).", "Budget: 400 / 8,000 tokens")
	if strings.Contains(out, "Files still loaded") {
		t.Errorf("no kept files should render no file line:\n%s", out)
	}

	kept, _ := r.Render(Deactivation, DeactivationData{Result: &budget.DeactivationResult{ID: "work", TokensFreed: 1000, FilesKept: []string{"a.go", "b.go"}}, Ceiling: 8000})
	assertContains(t, kept, "Files still loaded for this skill: `a.go`, `b.go`.")

	noop, _ := r.Render(Deactivation, DeactivationData{Result: &budget.DeactivationResult{ID: "work", AlreadyInactive: true}, Ceiling: 8000})
	assertContains(t, noop, "**work** was not active")
}

func TestRender_FileLoadAndUnload(t *testing.T) {
	r := mustRenderer(t)

	load, err := r.Render(FileLoad, FileLoadData{
		Result:  &budget.FileLoadResult{Path: "main.go", Owner: "work", TokenCost: 12, TotalTokens: 412},
		Ceiling: 8000,
		Content: "package main",
	})
	if err != nil {
		t.Fatalf("Render(FileLoad): %v", err)
	}
	assertContains(t, load, "✅ Loaded `main.go` for work (+12 tokens).", "package main")

	unload, err := r.Render(FileUnload, FileUnloadData{
		Result:  &budget.UnloadResult{Unloaded: []string{"main.go"}, NotLoaded: []string{"x.go"}, TokensFreed: 12, TotalTokens: 400},
		Ceiling: 8000,
	})
	if err != nil {
		t.Fatalf("Render(FileUnload): %v", err)
	}
	assertContains(t, unload, "Unloaded 1 file(s) (-12 tokens)", "- `main.go`", "Not loaded: x.go")
}

// --- Errors ---

func TestNewErrorData_SequenceViolation(t *testing.T) {
	data := NewErrorData(errs.SequenceViolation("review", []string{"spec-forge", "planning"}))
	if data.Code != "sequence_violation" {
		t.Errorf("Code = %s", data.Code)
	}
	if !strings.Contains(data.Hint, "spec-forge") {
		t.Errorf("Hint = %q, want suggestion", data.Hint)
	}

	out, err := mustRenderer(t).Render(Error, data)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertContains(t, out,
		"❌ **sequence_violation**",
		"- missing_phases: spec-forge, planning",
		"- suggested_next: spec-forge",
	)
}

func TestNewErrorData_PlainError(t *testing.T) {
	data := NewErrorData(errors.New("boom"))
	if data.Code != "internal" || data.Message != "boom" {
		t.Errorf("data = %+v", data)
	}
}

// --- Helpers ---

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{8000, "8,000"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.n); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct    float64
		filled int
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{140, 20},
	}
	for _, tt := range tests {
		bar := progressBar(tt.pct)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("progressBar(%v) filled = %d, want %d", tt.pct, got, tt.filled)
		}
		if cells := strings.Count(bar, "█") + strings.Count(bar, "░"); cells != 20 {
			t.Errorf("progressBar(%v) has %d cells", tt.pct, cells)
		}
	}
}

func TestParseDetailLevel(t *testing.T) {
	tests := map[string]string{
		"":         DetailStandard,
		"summary":  DetailSummary,
		"full":     DetailFull,
		"verbose":  DetailStandard,
		"standard": DetailStandard,
	}
	for in, want := range tests {
		if got := ParseDetailLevel(in); got != want {
			t.Errorf("ParseDetailLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNavigationHint(t *testing.T) {
	if got := NavigationHint(5, 5, ""); got != "" {
		t.Errorf("all shown: %q, want empty", got)
	}
	if got := NavigationHint(3, 10, "Raise limit."); !strings.Contains(got, "Showing 3 of 10. Raise limit.") {
		t.Errorf("capped: %q", got)
	}
}

func TestTokenFooter(t *testing.T) {
	if got := TokenFooter(12345); !strings.Contains(got, "~12,345 tokens") {
		t.Errorf("TokenFooter = %q", got)
	}
}
