package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies core failures for callers and transports
type ErrorCategory string

const (
	// ErrorCategoryValidation is missing or empty required input
	ErrorCategoryValidation ErrorCategory = "validation"

	// ErrorCategoryNotFound is a lookup against an absent or expired session
	ErrorCategoryNotFound ErrorCategory = "not_found"

	// ErrorCategoryPatternEngine is a catalog pattern that failed to compile
	ErrorCategoryPatternEngine ErrorCategory = "pattern_engine"
)

// Sentinel errors, one per category, for use with errors.Is
var (
	ErrValidation      = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrPatternEngine   = errors.New("pattern engine failure")
)

// Error wraps a failure with its category and the operation that produced it
type Error struct {
	Category ErrorCategory
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("[%s] %v", e.Category, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the category sentinel so errors.Is works without unwrapping by hand
func (e *Error) Is(target error) bool {
	return categorySentinel(e.Category) == target
}

func categorySentinel(c ErrorCategory) error {
	switch c {
	case ErrorCategoryValidation:
		return ErrValidation
	case ErrorCategoryNotFound:
		return ErrSessionNotFound
	case ErrorCategoryPatternEngine:
		return ErrPatternEngine
	}
	return nil
}

// ValidationError reports a missing or empty required parameter
func ValidationError(op string, format string, args ...interface{}) error {
	return &Error{Category: ErrorCategoryValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// NotFoundError reports an absent or expired session
func NotFoundError(op, sessionID string) error {
	return &Error{Category: ErrorCategoryNotFound, Op: op, Err: fmt.Errorf("no mapping found for session: %s", sessionID)}
}

// PatternEngineError reports a catalog pattern that cannot be used
func PatternEngineError(op string, err error) error {
	return &Error{Category: ErrorCategoryPatternEngine, Op: op, Err: err}
}

// CategoryOf returns the category of err, or "" when err is not a core error
func CategoryOf(err error) ErrorCategory {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Category
	}
	return ""
}
