package piiguard

import (
	"fmt"

	"github.com/SamuelRCrider/piiguard/config"
	"github.com/SamuelRCrider/piiguard/core"
	"github.com/SamuelRCrider/piiguard/utils"
)

// DetectedPII describes one redacted value without revealing it
type DetectedPII struct {
	Kind        core.PIIType `json:"type"`
	Placeholder string       `json:"placeholder"`
	Span        core.Span    `json:"position"`
}

// AnonymizeResult is returned by DetectAndAnonymize
type AnonymizeResult struct {
	AnonymizedText string        `json:"anonymizedText"`
	Detected       []DetectedPII `json:"detectedPII"`
	HasPII         bool          `json:"hasPII"`
	SessionID      string        `json:"sessionId"`
}

// RestoreResult is returned by Restore
type RestoreResult struct {
	OriginalText  string `json:"originalText"`
	RestoredCount int    `json:"restoredCount"`
	SessionID     string `json:"sessionId"`
}

// Options configures a Guard
type Options struct {
	// Catalog to scan with; nil selects the built-in catalog
	Catalog *core.Catalog

	// Overlap policy for matches of different kinds
	Overlap core.OverlapPolicy

	// Store configuration; its Logger defaults to Options.Logger
	Store core.StoreConfig

	// Logger for audit events; nil discards
	Logger *utils.Logger
}

// Guard ties a Detector to a SessionStore so that text can be anonymized
// under a session id and later restored from the same id
type Guard struct {
	detector *core.Detector
	store    *core.SessionStore
	audit    *core.AuditLogger
}

// New creates a Guard and starts its store's sweeper. Close must be called
// to stop it.
func New(opts Options) *Guard {
	if opts.Store.Logger == nil {
		opts.Store.Logger = opts.Logger
	}

	return &Guard{
		detector: core.NewDetector(opts.Catalog, core.WithOverlapPolicy(opts.Overlap)),
		store:    core.NewSessionStore(opts.Store),
		audit:    core.NewAuditLogger(opts.Logger),
	}
}

// NewFromConfig builds a Guard from loaded process configuration
func NewFromConfig(cfg config.Config, logger *utils.Logger) (*Guard, error) {
	catalog := core.DefaultCatalog()
	if cfg.PII.CatalogPath != "" {
		loaded, err := core.LoadCatalog(cfg.PII.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		catalog = loaded
		if logger != nil {
			logger.Info("loaded catalog",
				"path", cfg.PII.CatalogPath,
				"patterns", catalog.Len(),
				"hash", catalog.Metadata().Hash,
			)
		}
	}

	overlap, err := core.ParseOverlapPolicy(cfg.PII.OverlapPolicy)
	if err != nil {
		return nil, err
	}

	storeConfig := core.StoreConfig{
		TTL:           cfg.PII.SessionTTL(),
		SweepInterval: cfg.PII.SweepInterval(),
		Logger:        logger,
	}
	if cfg.PII.SealOriginals {
		sealer, err := core.NewMemorySealer()
		if err != nil {
			return nil, err
		}
		storeConfig.Sealer = sealer
	}

	return New(Options{
		Catalog: catalog,
		Overlap: overlap,
		Store:   storeConfig,
		Logger:  logger,
	}), nil
}

// Detector exposes the underlying detector
func (g *Guard) Detector() *core.Detector {
	return g.detector
}

// DetectAndAnonymize redacts text and stores the mappings under sessionID,
// replacing anything previously stored there. The result never carries
// original values.
func (g *Guard) DetectAndAnonymize(text, sessionID string) (*AnonymizeResult, error) {
	if text == "" {
		return nil, core.ValidationError("detect and anonymize", "text is required")
	}
	if sessionID == "" {
		return nil, core.ValidationError("detect and anonymize", "sessionId is required")
	}

	anonymized, matches, mappings := g.detector.Redact(text)

	if err := g.store.StoreMappings(sessionID, mappings); err != nil {
		return nil, err
	}

	detected := make([]DetectedPII, 0, len(matches))
	kinds := make(map[core.PIIType]int)
	for _, m := range matches {
		detected = append(detected, DetectedPII{Kind: m.Kind, Placeholder: m.Placeholder, Span: m.Span})
		kinds[m.Kind]++
	}

	g.audit.LogSecurityEvent(core.EventPIIRedacted, core.SeverityInfo,
		"session_id", sessionID,
		"count", len(matches),
		"kinds", kinds,
	)

	return &AnonymizeResult{
		AnonymizedText: anonymized,
		Detected:       detected,
		HasPII:         len(matches) > 0,
		SessionID:      sessionID,
	}, nil
}

// Restore puts the originals stored under sessionID back into text
func (g *Guard) Restore(anonymizedText, sessionID string) (*RestoreResult, error) {
	if anonymizedText == "" {
		return nil, core.ValidationError("restore", "anonymizedText is required")
	}
	if sessionID == "" {
		return nil, core.ValidationError("restore", "sessionId is required")
	}

	mappings, err := g.store.Retrieve(sessionID)
	if err != nil {
		return nil, err
	}

	restored := g.detector.Restore(anonymizedText, mappings)

	g.audit.LogSecurityEvent(core.EventPIIRestored, core.SeverityInfo,
		"session_id", sessionID,
		"count", len(mappings),
	)

	return &RestoreResult{
		OriginalText:  restored,
		RestoredCount: len(mappings),
		SessionID:     sessionID,
	}, nil
}

// ClearSession drops a session's mappings
func (g *Guard) ClearSession(sessionID string) error {
	if sessionID == "" {
		return core.ValidationError("clear session", "sessionId is required")
	}
	g.store.ClearSession(sessionID)
	return nil
}

// StoreStats reports the live session count and TTL
func (g *Guard) StoreStats() core.StoreStats {
	return g.store.Stats()
}

// Close destroys the session store. Safe to call more than once.
func (g *Guard) Close() error {
	return g.store.Close()
}
