package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SamuelRCrider/piiguard/core"
	"github.com/SamuelRCrider/piiguard/utils"
)

// ErrorCategory defines relay error categories for audit trails
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategorySession    ErrorCategory = "session"
	ErrorCategoryRateLimit  ErrorCategory = "rate_limit"
	ErrorCategorySystem     ErrorCategory = "system"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryModel      ErrorCategory = "model"
)

// RelayError wraps errors with request metadata
type RelayError struct {
	Category    ErrorCategory
	OriginalErr error
	RequestID   string
	Timestamp   time.Time
	Details     map[string]interface{}
}

func (e RelayError) Error() string {
	return fmt.Sprintf("[%s] %s (request: %s)", e.Category, e.OriginalErr.Error(), e.RequestID)
}

func (e RelayError) Unwrap() error {
	return e.OriginalErr
}

// newRelayError creates a new RelayError with standard fields
func newRelayError(category ErrorCategory, err error, requestID string, details map[string]interface{}) RelayError {
	return RelayError{
		Category:    category,
		OriginalErr: err,
		RequestID:   requestID,
		Timestamp:   time.Now(),
		Details:     details,
	}
}

// CategoryOf returns the relay category of err, or "" for foreign errors
func CategoryOf(err error) ErrorCategory {
	var relayErr RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Category
	}
	return ""
}

// ErrorReporter writes relay errors as structured log lines
type ErrorReporter struct {
	logger *utils.Logger
}

// NewErrorReporter creates a new error reporter
func NewErrorReporter(logger *utils.Logger) *ErrorReporter {
	return &ErrorReporter{logger: logger}
}

// ReportError logs err with its relay metadata, if any
func (e *ErrorReporter) ReportError(err error) {
	keyvals := []interface{}{"error", err.Error()}

	var relayErr RelayError
	if errors.As(err, &relayErr) {
		keyvals = append(keyvals,
			"category", string(relayErr.Category),
			"request_id", relayErr.RequestID,
		)
		for k, v := range relayErr.Details {
			keyvals = append(keyvals, k, v)
		}
	}

	e.logger.Error("relay error", keyvals...)
}

// categorizeError maps an error to a relay category
func categorizeError(err error) ErrorCategory {
	switch {
	case errors.Is(err, core.ErrValidation):
		return ErrorCategoryValidation
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrStoreClosed):
		return ErrorCategorySession
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorCategoryTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests"):
		return ErrorCategoryRateLimit
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ErrorCategoryTimeout
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "broken pipe"):
		return ErrorCategoryNetwork
	case strings.Contains(errStr, "invalid") || strings.Contains(errStr, "validation"):
		return ErrorCategoryValidation
	}
	return ErrorCategorySystem
}
