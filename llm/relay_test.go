package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelRCrider/piiguard"
	"github.com/SamuelRCrider/piiguard/config"
	"github.com/SamuelRCrider/piiguard/core"
)

// fakeCaller answers tool calls from a scripted list of responses
type fakeCaller struct {
	mu        sync.Mutex
	requests  []mcp.CallToolRequest
	responses []func(input string) (*mcp.CallToolResult, error)
}

func (f *fakeCaller) CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, request)
	input, _ := request.Params.Arguments["input"].(string)

	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx](input)
}

func echo(prefix string) func(string) (*mcp.CallToolResult, error) {
	return func(input string) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(prefix + input), nil
	}
}

func failWith(err error) func(string) (*mcp.CallToolResult, error) {
	return func(string) (*mcp.CallToolResult, error) {
		return nil, err
	}
}

func newTestGuard(t *testing.T) *piiguard.Guard {
	t.Helper()
	guard := piiguard.New(piiguard.Options{
		Store: core.StoreConfig{TTL: time.Minute, SweepInterval: time.Minute},
	})
	t.Cleanup(func() { _ = guard.Close() })
	return guard
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

func TestProcessRedactsBeforeCallAndRestoresAfter(t *testing.T) {
	caller := &fakeCaller{responses: []func(string) (*mcp.CallToolResult, error){echo("Summary: ")}}
	relay := NewRelay(newTestGuard(t), caller, testConfig(), nil)

	output, err := relay.Process(context.Background(), "sess-1", "Email john@example.com about birthday 19900101")
	require.NoError(t, err)
	assert.Equal(t, "Summary: Email john@example.com about birthday 19900101", output)

	require.Len(t, caller.requests, 1)
	sent := caller.requests[0].Params.Arguments["input"].(string)
	assert.NotContains(t, sent, "john@example.com")
	assert.NotContains(t, sent, "19900101")
	assert.Equal(t, "Email [EMAIL_001] about birthday [BIRTHDATE_001]", sent)
	assert.Equal(t, "csp.llm.wrap", caller.requests[0].Params.Name)
	assert.NotEmpty(t, caller.requests[0].Params.Arguments["request_id"])
}

func TestProcessRetriesThenSucceeds(t *testing.T) {
	caller := &fakeCaller{responses: []func(string) (*mcp.CallToolResult, error){
		failWith(errors.New("connection reset")),
		failWith(errors.New("connection reset")),
		echo(""),
	}}
	relay := NewRelay(newTestGuard(t), caller, testConfig(), nil)

	output, err := relay.Process(context.Background(), "sess-2", "ping a@b.io")
	require.NoError(t, err)
	assert.Equal(t, "ping a@b.io", output)
	assert.Len(t, caller.requests, 3)
}

func TestProcessGivesUpAfterRetries(t *testing.T) {
	caller := &fakeCaller{responses: []func(string) (*mcp.CallToolResult, error){
		failWith(errors.New("network unreachable")),
	}}
	cfg := testConfig()
	cfg.RetryCount = 1
	relay := NewRelay(newTestGuard(t), caller, cfg, nil)

	_, err := relay.Process(context.Background(), "sess-3", "hello")
	require.Error(t, err)
	assert.Equal(t, ErrorCategoryNetwork, CategoryOf(err))
	assert.Len(t, caller.requests, 2)
}

func TestProcessToolError(t *testing.T) {
	caller := &fakeCaller{responses: []func(string) (*mcp.CallToolResult, error){
		func(string) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "model overloaded"}},
				IsError: true,
			}, nil
		},
	}}
	relay := NewRelay(newTestGuard(t), caller, testConfig(), nil)

	_, err := relay.Process(context.Background(), "sess-4", "hello")
	require.Error(t, err)
	assert.Equal(t, ErrorCategoryModel, CategoryOf(err))
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestProcessValidation(t *testing.T) {
	caller := &fakeCaller{responses: []func(string) (*mcp.CallToolResult, error){echo("")}}
	cfg := testConfig()
	cfg.MaxContentSize = 8
	relay := NewRelay(newTestGuard(t), caller, cfg, nil)

	_, err := relay.Process(context.Background(), "", "hello")
	assert.Equal(t, ErrorCategoryValidation, CategoryOf(err))

	_, err = relay.Process(context.Background(), "s", "")
	assert.Equal(t, ErrorCategoryValidation, CategoryOf(err))

	_, err = relay.Process(context.Background(), "s", strings.Repeat("x", 9))
	assert.Equal(t, ErrorCategoryValidation, CategoryOf(err))

	assert.Empty(t, caller.requests)
}

func TestProcessRateLimitedPerSession(t *testing.T) {
	caller := &fakeCaller{responses: []func(string) (*mcp.CallToolResult, error){echo("")}}
	cfg := testConfig()
	cfg.RequestsPerMinute = 1
	relay := NewRelay(newTestGuard(t), caller, cfg, nil)

	_, err := relay.Process(context.Background(), "limited", "one")
	require.NoError(t, err)

	_, err = relay.Process(context.Background(), "limited", "two")
	require.Error(t, err)
	assert.Equal(t, ErrorCategoryRateLimit, CategoryOf(err))

	_, err = relay.Process(context.Background(), "other", "three")
	require.NoError(t, err)
}

func TestProcessCanceledContext(t *testing.T) {
	caller := &fakeCaller{responses: []func(string) (*mcp.CallToolResult, error){
		failWith(context.Canceled),
	}}
	relay := NewRelay(newTestGuard(t), caller, testConfig(), nil)

	_, err := relay.Process(context.Background(), "sess-5", "hello")
	require.Error(t, err)
	assert.Equal(t, ErrorCategoryTimeout, CategoryOf(err))
	assert.Len(t, caller.requests, 1)
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	limited, count, _ := limiter.CheckLimit("k")
	assert.False(t, limited)
	assert.Equal(t, 1, count)

	limited, _, _ = limiter.CheckLimit("k")
	assert.False(t, limited)

	limited, count, reset := limiter.CheckLimit("k")
	assert.True(t, limited)
	assert.Equal(t, 3, count)
	assert.Equal(t, now.Add(time.Minute), reset)

	now = now.Add(61 * time.Second)
	limited, count, _ = limiter.CheckLimit("k")
	assert.False(t, limited)
	assert.Equal(t, 1, count)

	limiter.Forget("k")
	limited, count, _ = limiter.CheckLimit("k")
	assert.False(t, limited)
	assert.Equal(t, 1, count)
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, ErrorCategoryValidation, categorizeError(core.ValidationError("op", "bad")))
	assert.Equal(t, ErrorCategorySession, categorizeError(core.NotFoundError("op", "s")))
	assert.Equal(t, ErrorCategorySession, categorizeError(core.ErrStoreClosed))
	assert.Equal(t, ErrorCategoryTimeout, categorizeError(context.DeadlineExceeded))
	assert.Equal(t, ErrorCategoryRateLimit, categorizeError(errors.New("429 Too Many Requests")))
	assert.Equal(t, ErrorCategorySystem, categorizeError(errors.New("boom")))
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.RelayConfig{ToolName: "summarize", TimeoutMs: 1500, RetryCount: 4, RequestsPerMinute: 10})

	assert.Equal(t, "summarize", cfg.ToolName)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 4, cfg.RetryCount)
	assert.Equal(t, 10, cfg.RequestsPerMinute)
}
