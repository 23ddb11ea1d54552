package llm

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// generateRequestID creates a unique ID for request tracking
func generateRequestID() string {
	return uuid.NewString()
}

// estimateTokens provides a rough estimate of tokens in text
func estimateTokens(text string) int {
	// 1 token ≈ 4 characters for English text
	return len(text) / 4
}

// extractText concatenates the text content of a tool result
func extractText(result *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}
