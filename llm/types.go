package llm

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/SamuelRCrider/piiguard/config"
)

// Config holds relay configuration
type Config struct {
	ToolName          string                 // The MCP tool to call with redacted text
	ExtraParams       map[string]interface{} // Extra arguments passed to the tool
	Timeout           time.Duration          // Deadline for one Process call
	RetryCount        int                    // Number of retries on failure
	RetryBackoff      time.Duration          // Base backoff, doubled per retry
	RequestsPerMinute int                    // Per-session limit; 0 disables
	MaxContentSize    int                    // Maximum input size in bytes; 0 disables
	AuditLevel        string                 // "minimal", "standard" or "verbose"
}

// DefaultConfig returns the relay defaults
func DefaultConfig() Config {
	return Config{
		ToolName:       "csp.llm.wrap",
		Timeout:        30 * time.Second,
		RetryCount:     2,
		RetryBackoff:   500 * time.Millisecond,
		MaxContentSize: 32768,
		AuditLevel:     "standard",
	}
}

// ConfigFrom maps process configuration onto relay defaults
func ConfigFrom(rc config.RelayConfig) Config {
	cfg := DefaultConfig()
	if rc.ToolName != "" {
		cfg.ToolName = rc.ToolName
	}
	if rc.TimeoutMs > 0 {
		cfg.Timeout = rc.Timeout()
	}
	cfg.RetryCount = rc.RetryCount
	cfg.RequestsPerMinute = rc.RequestsPerMinute
	return cfg
}

// ToolCaller is the part of an MCP client the relay needs
type ToolCaller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}
