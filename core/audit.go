package core

import (
	"github.com/SamuelRCrider/piiguard/utils"
)

// AuditLogSeverity defines the severity of audit log events
type AuditLogSeverity string

const (
	// SeverityInfo for normal operations
	SeverityInfo AuditLogSeverity = "info"

	// SeverityWarning for lookups that could not be served
	SeverityWarning AuditLogSeverity = "warning"

	// SeverityError for failures inside the core
	SeverityError AuditLogSeverity = "error"
)

// Security event names
const (
	EventSessionStored   = "session_stored"
	EventSessionExpired  = "session_expired"
	EventSessionMissing  = "session_not_found"
	EventSessionCleared  = "session_cleared"
	EventSweepCompleted  = "sweep_completed"
	EventStoreDestroyed  = "store_destroyed"
	EventPIIRedacted     = "pii_redacted"
	EventPIIRestored     = "pii_restored"
	EventStoreInitialize = "store_initialized"
	EventOpenFailed      = "open_failed"
)

// AuditLogger writes security events as structured log lines. Events carry
// counts, kinds and session ids only, never original values.
type AuditLogger struct {
	logger *utils.Logger
}

// NewAuditLogger wraps a logger; nil selects a discarding logger
func NewAuditLogger(logger *utils.Logger) *AuditLogger {
	if logger == nil {
		logger = utils.Discard()
	}
	return &AuditLogger{logger: logger}
}

// LogSecurityEvent logs an event at the level matching its severity
func (a *AuditLogger) LogSecurityEvent(eventType string, severity AuditLogSeverity, keyvals ...interface{}) {
	kv := append([]interface{}{"event", eventType}, keyvals...)

	switch severity {
	case SeverityWarning:
		a.logger.Warn("security event", kv...)
	case SeverityError:
		a.logger.Error("security event", kv...)
	default:
		a.logger.Info("security event", kv...)
	}
}

// Debug logs low-volume diagnostic detail
func (a *AuditLogger) Debug(msg string, keyvals ...interface{}) {
	a.logger.Debug(msg, keyvals...)
}
