// Package errs defines the structured error taxonomy returned across the
// skillgate public boundary.
//
// Every error that leaves the engine is an *Error carrying a machine-readable
// Code, a human-readable Message and contextual Details (missing phases,
// offending ids, token counts). Callers branch on the code with errors.Is or
// CodeOf; nothing in this taxonomy is fatal to the process.
package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Code classifies an error.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeSequenceViolation Code = "sequence_violation"
	CodeBudgetExceeded    Code = "budget_exceeded"
	CodeNotFound          Code = "not_found"
	CodeInternal          Code = "internal"
)

// Error is the structured error value.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code, so
// errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) works as a code check.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Detail returns a detail value, or nil.
func (e *Error) Detail(key string) any {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
}

// DetailKeys returns the detail keys in sorted order (stable rendering).
func (e *Error) DetailKeys() []string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Constructors ---

// Validation reports malformed input or configuration.
func Validation(message string, details map[string]any) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

// Validationf is Validation with a formatted message and no details.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// SequenceViolation reports a phase transition attempted before its
// predecessors were completed. missing must be in sequence order; the first
// entry is suggested as the next phase to work on.
func SequenceViolation(requested string, missing []string) *Error {
	suggested := ""
	if len(missing) > 0 {
		suggested = missing[0]
	}
	return &Error{
		Code: CodeSequenceViolation,
		Message: fmt.Sprintf("cannot enter phase %q: complete %s first",
			requested, strings.Join(missing, ", ")),
		Details: map[string]any{
			"requested_phase": requested,
			"missing_phases":  append([]string(nil), missing...),
			"suggested_next":  suggested,
		},
	}
}

// BudgetExceeded reports that eviction could not free enough tokens.
func BudgetExceeded(id string, requested, available int) *Error {
	return &Error{
		Code: CodeBudgetExceeded,
		Message: fmt.Sprintf("loading %q needs %d tokens but only %d can be made available",
			id, requested, available),
		Details: map[string]any{
			"id":        id,
			"requested": requested,
			"available": available,
		},
	}
}

// NotFound reports an unknown identifier of the given kind (skill, phase, file).
func NotFound(kind, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %q not found", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// Wrap converts an arbitrary error into the taxonomy. Existing *Error values
// pass through untouched; fs.ErrNotExist becomes CodeNotFound; anything else
// becomes CodeInternal.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &Error{Code: CodeNotFound, Message: message, Err: err}
	}
	return &Error{Code: CodeInternal, Message: message, Err: err}
}

// CodeOf returns the taxonomy code of err, or "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Has reports whether err carries the given code.
func Has(err error, code Code) bool {
	return CodeOf(err) == code
}
