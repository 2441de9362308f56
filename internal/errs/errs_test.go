package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

// --- SequenceViolation ---

func TestSequenceViolation_SuggestsFirstMissing(t *testing.T) {
	err := SequenceViolation("review", []string{"spec-forge", "planning", "work"})

	if err.Code != CodeSequenceViolation {
		t.Fatalf("Code = %s, want %s", err.Code, CodeSequenceViolation)
	}
	if got := err.Detail("suggested_next"); got != "spec-forge" {
		t.Errorf("suggested_next = %v, want spec-forge", got)
	}
	missing, ok := err.Detail("missing_phases").([]string)
	if !ok || len(missing) != 3 {
		t.Fatalf("missing_phases = %#v, want 3 phases", err.Detail("missing_phases"))
	}
	if !strings.Contains(err.Error(), "review") {
		t.Errorf("message should mention requested phase: %s", err.Error())
	}
}

func TestSequenceViolation_CopiesMissingSlice(t *testing.T) {
	missing := []string{"planning"}
	err := SequenceViolation("work", missing)
	missing[0] = "mutated"

	got := err.Detail("missing_phases").([]string)
	if got[0] != "planning" {
		t.Errorf("missing_phases aliased caller slice: %v", got)
	}
}

// --- Is / CodeOf ---

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("activating: %w", NotFound("skill", "nope"))

	if !errors.Is(err, &Error{Code: CodeNotFound}) {
		t.Error("errors.Is should match by code through wrapping")
	}
	if errors.Is(err, &Error{Code: CodeBudgetExceeded}) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"taxonomy", BudgetExceeded("x", 10, 5), CodeBudgetExceeded},
		{"wrapped", fmt.Errorf("ctx: %w", Validationf("bad")), CodeValidation},
		{"foreign", errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- Wrap ---

func TestWrap_NotExistBecomesNotFound(t *testing.T) {
	err := Wrap(fmt.Errorf("open x: %w", fs.ErrNotExist), "reading file")
	if err.Code != CodeNotFound {
		t.Errorf("Code = %s, want not_found", err.Code)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("wrapped error should unwrap to fs.ErrNotExist")
	}
}

func TestWrap_PassesTaxonomyThrough(t *testing.T) {
	orig := SequenceViolation("work", []string{"planning"})
	if got := Wrap(orig, "ignored"); got != orig {
		t.Error("Wrap should return existing *Error unchanged")
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestDetailKeys_Sorted(t *testing.T) {
	err := BudgetExceeded("skill", 100, 20)
	keys := err.DetailKeys()
	want := []string{"available", "id", "requested"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("DetailKeys = %v, want %v", keys, want)
	}
}
