package core

import (
	"errors"
	"sync"
	"time"

	"github.com/SamuelRCrider/piiguard/utils"
)

const (
	// DefaultSessionTTL is how long a session's mappings stay retrievable
	DefaultSessionTTL = time.Hour

	// DefaultSweepInterval is how often the background sweeper runs
	DefaultSweepInterval = 5 * time.Minute
)

// ErrStoreClosed is returned by writes issued after Destroy
var ErrStoreClosed = errors.New("session store destroyed")

// StoreConfig defines configuration for the session store
type StoreConfig struct {
	// How long a session stays retrievable after its last write
	TTL time.Duration

	// How often the background sweeper evicts expired sessions
	SweepInterval time.Duration

	// Optional sealer applied to original values while stored
	Sealer Sealer

	// Logger for security events; nil discards
	Logger *utils.Logger

	// Clock overrides time.Now, for tests
	Clock func() time.Time
}

// StoreStats is a point-in-time snapshot of the store
type StoreStats struct {
	SessionCount int     `json:"totalSessions"`
	TTLSeconds   float64 `json:"ttlSeconds"`
}

type sessionEntry struct {
	mappings  []Mapping
	createdAt time.Time
}

// SessionStore is an in-memory, TTL-bounded map from session id to the
// mappings needed to reverse a redaction. Nothing is ever written to disk.
type SessionStore struct {
	config StoreConfig
	audit  *AuditLogger

	// Guards sessions and closed. Held only for map access.
	lock     sync.Mutex
	sessions map[string]sessionEntry
	closed   bool

	// Sweeper lifecycle
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates the store and starts its background sweeper
func NewSessionStore(config StoreConfig) *SessionStore {
	if config.TTL <= 0 {
		config.TTL = DefaultSessionTTL
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	s := &SessionStore{
		config:   config,
		audit:    NewAuditLogger(config.Logger),
		sessions: make(map[string]sessionEntry),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	go s.sweeper()

	s.audit.LogSecurityEvent(EventStoreInitialize, SeverityInfo,
		"ttl_seconds", config.TTL.Seconds(),
		"sweep_interval", config.SweepInterval.String(),
		"sealed", config.Sealer != nil,
	)

	return s
}

// sweeper periodically removes expired sessions until Destroy
func (s *SessionStore) sweeper() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *SessionStore) expired(e sessionEntry, now time.Time) bool {
	return now.Sub(e.createdAt) > s.config.TTL
}

// StoreMappings replaces whatever is stored under sessionID and restarts its
// TTL. An opportunistic sweep of the whole store follows the write.
func (s *SessionStore) StoreMappings(sessionID string, mappings []Mapping) error {
	if sessionID == "" {
		return ValidationError("store mappings", "sessionId is required")
	}
	if mappings == nil {
		return ValidationError("store mappings", "mappings are required")
	}

	stored := cloneMappings(mappings)
	if s.config.Sealer != nil {
		sealed, err := sealMappings(s.config.Sealer, mappings)
		if err != nil {
			return err
		}
		stored = sealed
	}

	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrStoreClosed
	}
	s.sessions[sessionID] = sessionEntry{mappings: stored, createdAt: s.config.Clock()}
	s.lock.Unlock()

	s.audit.LogSecurityEvent(EventSessionStored, SeverityInfo,
		"session_id", sessionID,
		"count", len(mappings),
	)

	s.Sweep()
	return nil
}

// Retrieve returns the mappings stored under sessionID. Absent and expired
// sessions both yield an error matching ErrSessionNotFound; an expired entry
// is deleted on the way out. Reads never extend the TTL.
func (s *SessionStore) Retrieve(sessionID string) ([]Mapping, error) {
	if sessionID == "" {
		return nil, ValidationError("retrieve", "sessionId is required")
	}

	s.lock.Lock()
	entry, ok := s.sessions[sessionID]
	isExpired := ok && s.expired(entry, s.config.Clock())
	if isExpired {
		delete(s.sessions, sessionID)
	}
	s.lock.Unlock()

	if !ok {
		s.audit.LogSecurityEvent(EventSessionMissing, SeverityWarning, "session_id", sessionID)
		return nil, NotFoundError("retrieve", sessionID)
	}
	if isExpired {
		s.audit.LogSecurityEvent(EventSessionExpired, SeverityWarning, "session_id", sessionID)
		return nil, NotFoundError("retrieve", sessionID)
	}

	// entry.mappings is never mutated after insertion, so it is safe to
	// copy or open outside the lock
	var mappings []Mapping
	if s.config.Sealer != nil {
		opened, err := openMappings(s.config.Sealer, entry.mappings)
		if err != nil {
			s.audit.LogSecurityEvent(EventOpenFailed, SeverityError, "session_id", sessionID, "error", err.Error())
			return nil, err
		}
		mappings = opened
	} else {
		mappings = cloneMappings(entry.mappings)
	}

	s.audit.Debug("retrieved mappings", "session_id", sessionID, "count", len(mappings))
	return mappings, nil
}

// ClearSession deletes a session; clearing an absent session is not an error
func (s *SessionStore) ClearSession(sessionID string) {
	s.lock.Lock()
	delete(s.sessions, sessionID)
	s.lock.Unlock()

	s.audit.LogSecurityEvent(EventSessionCleared, SeverityInfo, "session_id", sessionID)
}

// Sweep deletes every expired session and returns how many were removed
func (s *SessionStore) Sweep() int {
	s.lock.Lock()
	now := s.config.Clock()
	removed := 0
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.lock.Unlock()

	if removed > 0 {
		s.audit.LogSecurityEvent(EventSweepCompleted, SeverityInfo, "removed", removed)
	}
	return removed
}

// Stats returns a snapshot without evicting anything
func (s *SessionStore) Stats() StoreStats {
	s.lock.Lock()
	count := len(s.sessions)
	s.lock.Unlock()

	return StoreStats{
		SessionCount: count,
		TTLSeconds:   s.config.TTL.Seconds(),
	}
}

// TTL returns the configured session lifetime
func (s *SessionStore) TTL() time.Duration {
	return s.config.TTL
}

// Destroy stops the sweeper, waits for it to exit and drops every entry.
// It is safe to call more than once and concurrently with other operations.
func (s *SessionStore) Destroy() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh

	s.lock.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.sessions = make(map[string]sessionEntry)
	s.lock.Unlock()

	if !alreadyClosed {
		s.audit.LogSecurityEvent(EventStoreDestroyed, SeverityInfo)
	}
}

// Close implements io.Closer
func (s *SessionStore) Close() error {
	s.Destroy()
	return nil
}
