package llm

import (
	"time"

	"github.com/SamuelRCrider/piiguard/utils"
)

// RequestLogger writes request and response audit lines. Only sizes, counts
// and ids are logged, never text.
type RequestLogger struct {
	logger     *utils.Logger
	auditLevel string
}

// NewRequestLogger creates a new request logger
func NewRequestLogger(logger *utils.Logger, auditLevel string) *RequestLogger {
	return &RequestLogger{
		logger:     logger,
		auditLevel: auditLevel,
	}
}

// LogRequest logs request details according to audit level
func (l *RequestLogger) LogRequest(requestID string, details map[string]interface{}, level string) {
	if !l.enabled(level) {
		return
	}

	keyvals := []interface{}{"request_id", requestID, "level", level}
	for k, v := range utils.ScrubMap(details) {
		keyvals = append(keyvals, k, v)
	}
	l.logger.Info("relay request", keyvals...)
}

// LogResponse logs response details according to audit level
func (l *RequestLogger) LogResponse(requestID string, details map[string]interface{}, duration time.Duration, level string) {
	if l.auditLevel == "minimal" {
		l.logger.Info("relay request completed", "request_id", requestID, "duration_ms", duration.Milliseconds())
		return
	}
	if !l.enabled(level) {
		return
	}

	keyvals := []interface{}{"request_id", requestID, "level", level, "duration_ms", duration.Milliseconds()}
	for k, v := range utils.ScrubMap(details) {
		keyvals = append(keyvals, k, v)
	}
	l.logger.Info("relay response", keyvals...)
}

func (l *RequestLogger) enabled(level string) bool {
	rank := map[string]int{"minimal": 0, "standard": 1, "verbose": 2}
	configured, ok := rank[l.auditLevel]
	if !ok {
		configured = 1
	}
	return rank[level] <= configured
}
