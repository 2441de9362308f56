package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/skillgate/internal/errs"
)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "journal.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustStart(t *testing.T, s *Store) string {
	t.Helper()
	id, err := s.StartSession(context.Background(), "standard")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return id
}

// --- Sessions ---

func TestStartAndEndSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustStart(t, s)
	if s.CurrentSession() != id {
		t.Errorf("CurrentSession = %q, want %q", s.CurrentSession(), id)
	}

	if err := s.EndSession(ctx, id); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if s.CurrentSession() != "" {
		t.Error("current session not cleared")
	}
	if err := s.EndSession(ctx, id); !errs.Has(err, errs.CodeNotFound) {
		t.Errorf("second EndSession = %v, want not_found", err)
	}

	sessions, err := s.Sessions(ctx, 10)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].EndedAt == nil || sessions[0].Workflow != "standard" {
		t.Errorf("Sessions = %+v", sessions)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := New(Config{Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if _, err := s.StartSession(ctx, "quick"); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, Event{Kind: KindAnalysis, Summary: "routed to planning"}); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s2, err := New(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	st, err := s2.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalSessions != 1 || st.TotalEvents != 1 {
		t.Errorf("Stats = %+v", st)
	}
}

// --- Record ---

func TestRecord_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, Event{Kind: KindAnalysis, Summary: "x"}); !errs.Has(err, errs.CodeValidation) {
		t.Errorf("no session: err = %v, want validation_error", err)
	}
	mustStart(t, s)
	if err := s.Record(ctx, Event{Kind: "party", Summary: "x"}); !errs.Has(err, errs.CodeValidation) {
		t.Errorf("bad kind: err = %v, want validation_error", err)
	}
	if err := s.Record(ctx, Event{Kind: KindAnalysis, Summary: "  "}); !errs.Has(err, errs.CodeValidation) {
		t.Errorf("empty summary: err = %v, want validation_error", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := mustStart(t, s)

	events := []Event{
		{Kind: KindAnalysis, Summary: "top: ears-specification (93)", Input: "create requirements for login"},
		{Kind: KindActivation, Subject: "ears-specification", Summary: "activated ears-specification", Details: map[string]any{"token_cost": 412}},
		{Kind: KindTransition, Subject: "planning", Summary: "entered planning"},
	}
	for _, ev := range events {
		if err := s.Record(ctx, ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len = %d, want 2", len(recent))
	}
	if recent[0].Kind != KindTransition || recent[1].Kind != KindActivation {
		t.Errorf("order = %s, %s; want newest first", recent[0].Kind, recent[1].Kind)
	}
	if recent[1].SessionID != id {
		t.Errorf("SessionID = %q, want %q", recent[1].SessionID, id)
	}
	if got, ok := recent[1].Details["token_cost"].(float64); !ok || got != 412 {
		t.Errorf("Details = %#v", recent[1].Details)
	}
	if recent[0].CreatedAt != "2026-02-20 12:00:00" {
		t.Errorf("CreatedAt = %q", recent[0].CreatedAt)
	}
}

func TestRecord_TruncatesSummary(t *testing.T) {
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "j.db"), MaxSummaryLength: 10})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()
	mustStart(t, s)

	if err := s.Record(ctx, Event{Kind: KindAnalysis, Summary: "0123456789abcdef"}); err != nil {
		t.Fatal(err)
	}
	recent, _ := s.Recent(ctx, 1)
	if recent[0].Summary != "0123456789..." {
		t.Errorf("Summary = %q", recent[0].Summary)
	}
}

// --- Search ---

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustStart(t, s)

	s.Record(ctx, Event{Kind: KindAnalysis, Summary: "top: troubleshooting", Input: "critical error in production"})
	s.Record(ctx, Event{Kind: KindAnalysis, Summary: "top: work", Input: "let's start coding"})
	s.Record(ctx, Event{Kind: KindActivation, Subject: "spec-forge", Summary: "activated spec-forge"})

	results, err := s.Search(ctx, "production", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Summary != "top: troubleshooting" {
		t.Errorf("Search(production) = %+v", results)
	}

	results, err = s.Search(ctx, `spec-forge "`, 10)
	if err != nil {
		t.Fatalf("Search with punctuation: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Search(spec-forge) = %d results, want 1", len(results))
	}

	results, err = s.Search(ctx, "   ", 2)
	if err != nil {
		t.Fatalf("Search(empty): %v", err)
	}
	if len(results) != 2 {
		t.Errorf("empty query fallback = %d results, want 2", len(results))
	}
}

func TestSanitizeFTS(t *testing.T) {
	tests := []struct{ in, want string }{
		{"spec forge", `"spec" "forge"`},
		{`"quoted"`, `"quoted"`},
		{`" "`, ``},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeFTS(tt.in); got != tt.want {
			t.Errorf("sanitizeFTS(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- Stats ---

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustStart(t, s)

	for _, skill := range []string{"work", "review", "work"} {
		s.Record(ctx, Event{Kind: KindActivation, Subject: skill, Summary: "activated " + skill})
	}
	s.Record(ctx, Event{Kind: KindEviction, Subject: "planning", Summary: "evicted planning"})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalEvents != 4 || st.ByKind["activation"] != 3 || st.ByKind["eviction"] != 1 {
		t.Errorf("Stats = %+v", st)
	}
	if len(st.TopSkills) != 2 || st.TopSkills[0].Subject != "work" || st.TopSkills[0].Count != 2 {
		t.Errorf("TopSkills = %+v", st.TopSkills)
	}
	if got := SortedKinds(st.ByKind); len(got) != 2 || got[0] != "activation" {
		t.Errorf("SortedKinds = %v", got)
	}
}
