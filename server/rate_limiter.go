package server

import (
	"sync"
	"time"
)

// Guard rate-limit policy: at most guardMaxRequests per origin within a
// sliding guardWindow.
const (
	guardMaxRequests = 10
	guardWindow      = time.Minute
)

// rateLimiter tracks request timestamps per origin with a sliding window
// (filter-then-append, not fixed buckets). It is owned by the Server and
// constructed once at startup; there is no package-level state.
type rateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	requests    map[string][]time.Time
}

func newRateLimiter(maxRequests int, window time.Duration) *rateLimiter {
	if maxRequests <= 0 {
		maxRequests = guardMaxRequests
	}
	if window <= 0 {
		window = guardWindow
	}
	return &rateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
	}
}

// Allow reports whether origin may make another request now. When allowed,
// the request is recorded; a rejected request is not recorded, so a client
// that backs off recovers as soon as the window slides past its oldest
// request.
func (rl *rateLimiter) Allow(origin string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	var recent []time.Time
	for _, t := range rl.requests[origin] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.maxRequests {
		rl.requests[origin] = recent
		return false
	}

	rl.requests[origin] = append(recent, now)
	return true
}
