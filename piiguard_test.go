package piiguard

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelRCrider/piiguard/config"
	"github.com/SamuelRCrider/piiguard/core"
	"github.com/SamuelRCrider/piiguard/utils"
)

func newTestGuard(t *testing.T, opts Options) *Guard {
	t.Helper()
	if opts.Store.TTL == 0 {
		opts.Store.TTL = time.Minute
	}
	if opts.Store.SweepInterval == 0 {
		opts.Store.SweepInterval = time.Minute
	}
	g := New(opts)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

// TestBasicUsage shows the common anonymize, call out, restore flow
func TestBasicUsage(t *testing.T) {
	g := newTestGuard(t, Options{})

	input := "My email is john.doe@example.com and my phone is 010-9876-5432"
	result, err := g.DetectAndAnonymize(input, "session-1")
	require.NoError(t, err)

	assert.True(t, result.HasPII)
	assert.Equal(t, "session-1", result.SessionID)
	assert.Equal(t, "My email is [EMAIL_001] and my phone is [PHONE_001]", result.AnonymizedText)
	require.Len(t, result.Detected, 2)
	assert.Equal(t, core.PIIPhone, result.Detected[0].Kind)
	assert.Equal(t, core.PIIEmail, result.Detected[1].Kind)

	// an LLM may reorder and repeat placeholders
	llmOutput := "Ticket for [EMAIL_001]; callback [PHONE_001] ([EMAIL_001])"
	restored, err := g.Restore(llmOutput, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Ticket for john.doe@example.com; callback 010-9876-5432 (john.doe@example.com)", restored.OriginalText)
	assert.Equal(t, 2, restored.RestoredCount)
}

func TestNoPII(t *testing.T) {
	g := newTestGuard(t, Options{})

	result, err := g.DetectAndAnonymize("nothing sensitive here", "s")
	require.NoError(t, err)
	assert.False(t, result.HasPII)
	assert.NotNil(t, result.Detected)
	assert.Empty(t, result.Detected)
	assert.Equal(t, "nothing sensitive here", result.AnonymizedText)

	restored, err := g.Restore("still nothing", "s")
	require.NoError(t, err)
	assert.Equal(t, "still nothing", restored.OriginalText)
	assert.Equal(t, 0, restored.RestoredCount)
}

func TestValidation(t *testing.T) {
	g := newTestGuard(t, Options{})

	_, err := g.DetectAndAnonymize("", "s")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = g.DetectAndAnonymize("text", "")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = g.Restore("", "s")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = g.Restore("text", "")
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.ErrorIs(t, g.ClearSession(""), core.ErrValidation)
}

func TestRestoreUnknownSession(t *testing.T) {
	g := newTestGuard(t, Options{})

	_, err := g.Restore("[EMAIL_001]", "never-stored")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestClearSessionThenRestore(t *testing.T) {
	g := newTestGuard(t, Options{Store: core.StoreConfig{TTL: time.Hour}})

	_, err := g.DetectAndAnonymize("a@b.co", "s1")
	require.NoError(t, err)
	require.NoError(t, g.ClearSession("s1"))

	_, err = g.Restore("[EMAIL_001]", "s1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.Equal(t, 0, g.StoreStats().SessionCount)
}

func TestReanonymizeReplacesSession(t *testing.T) {
	g := newTestGuard(t, Options{})

	_, err := g.DetectAndAnonymize("first a@b.co", "s1")
	require.NoError(t, err)
	_, err = g.DetectAndAnonymize("second c@d.co", "s1")
	require.NoError(t, err)

	restored, err := g.Restore("[EMAIL_001]", "s1")
	require.NoError(t, err)
	assert.Equal(t, "c@d.co", restored.OriginalText)
	assert.Equal(t, 1, g.StoreStats().SessionCount)
}

func TestCloseIsIdempotent(t *testing.T) {
	g := New(Options{})
	assert.NoError(t, g.Close())
	assert.NoError(t, g.Close())

	_, err := g.DetectAndAnonymize("a@b.co", "s1")
	assert.ErrorIs(t, err, core.ErrStoreClosed)
}

func TestAuditEventsCarryNoOriginals(t *testing.T) {
	var buf bytes.Buffer
	logger := utils.NewLogger(utils.LoggerOptions{Level: "debug", Output: &buf, JSON: true})
	g := newTestGuard(t, Options{Logger: logger})

	_, err := g.DetectAndAnonymize("mail jane@example.com", "s1")
	require.NoError(t, err)
	_, err = g.Restore("[EMAIL_001]", "s1")
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, core.EventPIIRedacted)
	assert.Contains(t, logs, core.EventPIIRestored)
	assert.Contains(t, logs, core.EventSessionStored)
	assert.NotContains(t, logs, "jane@example.com")
}

func TestNewFromConfig(t *testing.T) {
	catalogPath := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`metadata:
  version: "1.0.0"
patterns:
  - kind: email
    pattern: '[a-z]+@internal\.test'
`), 0o644))

	cfg := config.DefaultConfig()
	cfg.PII.CatalogPath = catalogPath
	cfg.PII.SessionTTLMillis = 2000
	cfg.PII.OverlapPolicy = "longest_wins"

	g, err := NewFromConfig(cfg, nil)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, 2.0, g.StoreStats().TTLSeconds)
	assert.Equal(t, 1, g.Detector().Catalog().Len())

	result, err := g.DetectAndAnonymize("ops@internal.test, 010-1234-5678", "s1")
	require.NoError(t, err)
	assert.Equal(t, "[EMAIL_001], 010-1234-5678", result.AnonymizedText)

	restored, err := g.Restore(result.AnonymizedText, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ops@internal.test, 010-1234-5678", restored.OriginalText)
}

func TestNewFromConfigErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PII.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewFromConfig(cfg, nil)
	assert.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.PII.OverlapPolicy = "first_wins"
	_, err = NewFromConfig(cfg, nil)
	assert.Error(t, err)
}
