// Package mcpserver exposes a Guard as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SamuelRCrider/piiguard"
	"github.com/SamuelRCrider/piiguard/core"
	"github.com/SamuelRCrider/piiguard/utils"
)

// Tool names
const (
	ToolDetectAndAnonymize = "detectAndAnonymizePII"
	ToolRestore            = "restoreOriginalText"
	ToolClearSession       = "clearSession"
	ToolGetStats           = "getStats"
)

// ServerName is announced during the MCP handshake
const ServerName = "pii-security-server"

// Version is set at build time via ldflags
var Version = "dev"

// Server adapts Guard operations to MCP tool calls
type Server struct {
	guard  *piiguard.Guard
	logger *utils.Logger
	mcp    *server.MCPServer
}

// New registers every tool on a fresh MCP server
func New(guard *piiguard.Guard, logger *utils.Logger) *Server {
	if logger == nil {
		logger = utils.Discard()
	}

	s := &Server{
		guard:  guard,
		logger: logger.WithPrefix("mcp"),
		mcp: server.NewMCPServer(
			ServerName,
			Version,
			server.WithToolCapabilities(true),
		),
	}

	s.mcp.AddTool(mcp.NewTool(ToolDetectAndAnonymize,
		mcp.WithDescription("Detects and anonymizes PII (email, phone, national id, card number, birth date) in text. "+
			"Stores the mapping for later restoration and returns text safe for LLM processing."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Original text containing potential PII")),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Unique session identifier for mapping storage (e.g. a UUID)")),
	), s.handleDetectAndAnonymize)

	s.mcp.AddTool(mcp.NewTool(ToolRestore,
		mcp.WithDescription("Restores anonymized text to its original form using the session mapping. "+
			"Use this before storing data in trusted external systems."),
		mcp.WithString("anonymizedText", mcp.Required(), mcp.Description("Text with PII placeholders")),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Session identifier used during anonymization")),
	), s.handleRestore)

	s.mcp.AddTool(mcp.NewTool(ToolClearSession,
		mcp.WithDescription("Clears the PII mapping data for a session, typically after a workflow completes."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Session identifier to clear")),
	), s.handleClearSession)

	s.mcp.AddTool(mcp.NewTool(ToolGetStats,
		mcp.WithDescription("Returns statistics about the PII mapping store."),
	), s.handleGetStats)

	return s
}

// MCPServer returns the underlying server for custom transports
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving MCP over stdin/stdout
func (s *Server) ServeStdio() error {
	s.logger.Info("PII security server started on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleDetectAndAnonymize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := stringArg(req, "text")
	sessionID := stringArg(req, "sessionId")
	if text == "" || sessionID == "" {
		return s.toolError(ToolDetectAndAnonymize, errors.New("Missing required parameters: text, sessionId")), nil
	}

	result, err := s.guard.DetectAndAnonymize(text, sessionID)
	if err != nil {
		return s.toolError(ToolDetectAndAnonymize, err), nil
	}

	s.logger.Info("PII anonymization completed",
		"session_id", sessionID,
		"detected_count", len(result.Detected),
		"has_pii", result.HasPII,
	)

	return jsonResult(ToolDetectAndAnonymize, result)
}

func (s *Server) handleRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	anonymizedText := stringArg(req, "anonymizedText")
	sessionID := stringArg(req, "sessionId")
	if anonymizedText == "" || sessionID == "" {
		return s.toolError(ToolRestore, errors.New("Missing required parameters: anonymizedText, sessionId")), nil
	}

	result, err := s.guard.Restore(anonymizedText, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			err = fmt.Errorf("No mapping found for session: %s", sessionID)
		}
		return s.toolError(ToolRestore, err), nil
	}

	s.logger.Info("PII restoration completed",
		"session_id", sessionID,
		"restored_count", result.RestoredCount,
	)

	return jsonResult(ToolRestore, result)
}

func (s *Server) handleClearSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(req, "sessionId")
	if sessionID == "" {
		return s.toolError(ToolClearSession, errors.New("Missing required parameter: sessionId")), nil
	}

	if err := s.guard.ClearSession(sessionID); err != nil {
		return s.toolError(ToolClearSession, err), nil
	}

	return jsonResult(ToolClearSession, map[string]interface{}{
		"cleared":   true,
		"sessionId": sessionID,
	})
}

func (s *Server) handleGetStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(ToolGetStats, s.guard.StoreStats())
}

// toolError reports a failure inside the tool result so the calling model
// can see it, rather than failing the JSON-RPC call
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Error("Tool execution failed", "tool", tool, "error", err.Error())

	body, _ := json.MarshalIndent(map[string]string{
		"error": err.Error(),
		"tool":  tool,
	}, "", "  ")

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(body)}},
		IsError: true,
	}
}

func jsonResult(tool string, v interface{}) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode result: %w", tool, err)
	}
	return mcp.NewToolResultText(string(body)), nil
}

func stringArg(req mcp.CallToolRequest, name string) string {
	if req.Params.Arguments == nil {
		return ""
	}
	v, _ := req.Params.Arguments[name].(string)
	return v
}
