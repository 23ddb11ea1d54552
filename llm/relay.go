package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/SamuelRCrider/piiguard"
	"github.com/SamuelRCrider/piiguard/utils"
)

// Relay forwards text to a downstream MCP tool with personal data replaced
// by placeholders, then restores the placeholders in the tool's answer
type Relay struct {
	guard  *piiguard.Guard
	caller ToolCaller
	config Config

	rateLimiter   *RateLimiter
	requestLog    *RequestLogger
	errorReporter *ErrorReporter
}

// NewRelay creates a relay over an established tool caller
func NewRelay(guard *piiguard.Guard, caller ToolCaller, config Config, logger *utils.Logger) *Relay {
	if logger == nil {
		logger = utils.Discard()
	}
	logger = logger.WithPrefix("relay")

	if config.ToolName == "" {
		config.ToolName = DefaultConfig().ToolName
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.AuditLevel == "" {
		config.AuditLevel = "standard"
	}

	var rateLimiter *RateLimiter
	if config.RequestsPerMinute > 0 {
		rateLimiter = NewRateLimiter(config.RequestsPerMinute, time.Minute)
	}

	return &Relay{
		guard:         guard,
		caller:        caller,
		config:        config,
		rateLimiter:   rateLimiter,
		requestLog:    NewRequestLogger(logger, config.AuditLevel),
		errorReporter: NewErrorReporter(logger),
	}
}

// Config returns the effective relay configuration
func (r *Relay) Config() Config {
	return r.config
}

// Process anonymizes input under sessionID, calls the tool with the
// anonymized text and returns the tool's output with originals restored
func (r *Relay) Process(ctx context.Context, sessionID, input string) (string, error) {
	requestID := generateRequestID()
	startTime := time.Now()

	requestDetails := map[string]interface{}{
		"session_id":  sessionID,
		"input_chars": len(input),
	}
	r.requestLog.LogRequest(requestID, requestDetails, "minimal")

	if err := r.validateInput(sessionID, input); err != nil {
		return "", r.fail(ErrorCategoryValidation, err, requestID, nil)
	}

	if r.rateLimiter != nil {
		limited, count, resetTime := r.rateLimiter.CheckLimit(sessionID)
		if limited {
			return "", r.fail(ErrorCategoryRateLimit,
				fmt.Errorf("rate limit exceeded: %d requests (limit: %d)", count, r.config.RequestsPerMinute),
				requestID,
				map[string]interface{}{
					"current_count": count,
					"limit":         r.config.RequestsPerMinute,
					"reset_time":    resetTime.Format(time.RFC3339),
				})
		}
		requestDetails["rate_limit_count"] = count
	}

	anonymized, err := r.guard.DetectAndAnonymize(input, sessionID)
	if err != nil {
		return "", r.fail(categorizeError(err), err, requestID, nil)
	}
	requestDetails["sensitive_matches"] = len(anonymized.Detected)
	r.requestLog.LogRequest(requestID, requestDetails, "standard")

	output, err := r.callTool(ctx, requestID, anonymized.AnonymizedText)
	if err != nil {
		return "", err
	}

	finalOutput := output
	if output != "" {
		restored, err := r.guard.Restore(output, sessionID)
		if err != nil {
			return "", r.fail(categorizeError(err), err, requestID, nil)
		}
		finalOutput = restored.OriginalText
	}

	duration := time.Since(startTime)
	r.requestLog.LogResponse(requestID, map[string]interface{}{
		"input_tokens_est":  estimateTokens(input),
		"output_tokens_est": estimateTokens(finalOutput),
		"output_chars":      len(finalOutput),
	}, duration, "standard")

	return finalOutput, nil
}

func (r *Relay) validateInput(sessionID, input string) error {
	if sessionID == "" {
		return errors.New("sessionId is required")
	}
	if input == "" {
		return errors.New("input is required")
	}
	if r.config.MaxContentSize > 0 && len(input) > r.config.MaxContentSize {
		return fmt.Errorf("input exceeds maximum size of %d bytes", r.config.MaxContentSize)
	}
	return nil
}

// callTool calls the configured tool with retries and exponential backoff
func (r *Relay) callTool(ctx context.Context, requestID, text string) (string, error) {
	params := map[string]interface{}{
		"input":      text,
		"request_id": requestID,
	}
	for k, v := range r.config.ExtraParams {
		params[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	request := mcp.CallToolRequest{}
	request.Params.Name = r.config.ToolName
	request.Params.Arguments = params

	var result *mcp.CallToolResult
	var lastErr error

	for attempt := 0; attempt <= r.config.RetryCount; attempt++ {
		if attempt > 0 {
			backoff := r.config.RetryBackoff * time.Duration(1<<(attempt-1))
			r.requestLog.LogRequest(requestID, map[string]interface{}{
				"retry_attempt":  attempt,
				"backoff_ms":     backoff.Milliseconds(),
				"previous_error": lastErr.Error(),
			}, "verbose")

			if err := sleepContext(ctx, backoff); err != nil {
				lastErr = err
				break
			}
		}

		result, lastErr = r.caller.CallTool(ctx, request)
		if lastErr == nil {
			break
		}
		if errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, context.Canceled) {
			break
		}
	}

	if lastErr != nil {
		if errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, context.Canceled) {
			return "", r.fail(ErrorCategoryTimeout,
				fmt.Errorf("MCP call timeout or canceled: %w", lastErr), requestID, nil)
		}
		return "", r.fail(categorizeError(lastErr),
			fmt.Errorf("MCP call failed after %d attempts: %w", r.config.RetryCount+1, lastErr), requestID, nil)
	}

	if result == nil {
		return "", r.fail(ErrorCategoryModel, errors.New("MCP tool returned no result"), requestID, nil)
	}
	if result.IsError {
		return "", r.fail(ErrorCategoryModel,
			fmt.Errorf("MCP tool returned an error: %s", extractText(result)), requestID, nil)
	}

	return extractText(result), nil
}

func (r *Relay) fail(category ErrorCategory, err error, requestID string, details map[string]interface{}) error {
	relayErr := newRelayError(category, err, requestID, details)
	r.errorReporter.ReportError(relayErr)
	return relayErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
