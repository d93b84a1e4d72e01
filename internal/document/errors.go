// Package document implements the top-level Document: ingress parsing,
// vocabulary-mode detection, directive extraction, and the orchestration
// that strings the Walker, Clause Assembler, and Shaper together into the
// compile/execute/shape pipeline spec.md §2 describes as "Control flow".
package document

import (
	"errors"
	"fmt"
)

// RuntimeError is the structured error type for every failure this package
// (and the packages it orchestrates) can surface: a stable Code for
// callers that want to branch on failure kind, a human Message, and
// free-form Details for diagnostics.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string
	Details map[string]string
}

// RuntimeErrorCode categorizes RuntimeError, one value per §7 error kind.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidInput: input is neither a parsed object nor a path to a
	// readable JSON file.
	ErrCodeInvalidInput RuntimeErrorCode = "INVALID_INPUT"
	// ErrCodeBestlangNoLanguage: bestlang option with no inline tag and no
	// root $lang to fall back to. Fatal.
	ErrCodeBestlangNoLanguage RuntimeErrorCode = "BESTLANG_NO_LANGUAGE"
	// ErrCodeUnknownAccept: accept-type key not in the accept table.
	// Non-fatal — logged, validation bypassed (fail-open).
	ErrCodeUnknownAccept RuntimeErrorCode = "UNKNOWN_ACCEPT_TYPE"
	// ErrCodeEndpointFailure: the executor returned an error. Propagated
	// unchanged, wrapped only for code/Details uniformity.
	ErrCodeEndpointFailure RuntimeErrorCode = "ENDPOINT_FAILURE"
	// ErrCodeInvalidDirectives: a directive key failed schema validation.
	ErrCodeInvalidDirectives RuntimeErrorCode = "INVALID_DIRECTIVES"
)

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsBestlangError reports whether err is (or wraps) a bestlang-without-
// language failure.
func IsBestlangError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeBestlangNoLanguage
	}
	return false
}

// IsInvalidInput reports whether err is (or wraps) an invalid-input failure.
func IsInvalidInput(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidInput
	}
	return false
}

func newError(code RuntimeErrorCode, msg string, details map[string]string) *RuntimeError {
	return &RuntimeError{Code: code, Message: msg, Details: details}
}
