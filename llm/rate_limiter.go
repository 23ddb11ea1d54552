package llm

import (
	"sync"
	"time"
)

// RateLimiter counts requests per key in fixed windows
type RateLimiter struct {
	counters     map[string]*RateLimitEntry
	mu           sync.Mutex
	maxRequests  int           // Maximum requests per window
	windowPeriod time.Duration // Time window for rate limiting
	now          func() time.Time
}

// RateLimitEntry represents an entry in the rate limit counter
type RateLimitEntry struct {
	Count       int       // Number of requests in current window
	WindowStart time.Time // Start time of current window
}

// NewRateLimiter creates a new rate limiter with the specified configuration
func NewRateLimiter(maxRequests int, windowPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		counters:     make(map[string]*RateLimitEntry),
		maxRequests:  maxRequests,
		windowPeriod: windowPeriod,
		now:          time.Now,
	}
}

// CheckLimit records a request for key and reports whether it exceeded the
// limit, the count in the current window and when the window resets
func (r *RateLimiter) CheckLimit(key string) (bool, int, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.counters[key]

	if !ok || now.Sub(entry.WindowStart) > r.windowPeriod {
		r.counters[key] = &RateLimitEntry{
			Count:       1,
			WindowStart: now,
		}
		r.prune(now)
		return false, 1, now.Add(r.windowPeriod)
	}

	entry.Count++
	return entry.Count > r.maxRequests, entry.Count, entry.WindowStart.Add(r.windowPeriod)
}

// Forget drops the counter for key, e.g. when its session is cleared
func (r *RateLimiter) Forget(key string) {
	r.mu.Lock()
	delete(r.counters, key)
	r.mu.Unlock()
}

// prune drops windows that have closed so session ids do not accumulate
func (r *RateLimiter) prune(now time.Time) {
	for key, entry := range r.counters {
		if now.Sub(entry.WindowStart) > r.windowPeriod {
			delete(r.counters, key)
		}
	}
}
