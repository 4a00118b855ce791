// internal/auth/ratelimit.go
package auth

import (
	"sync"
	"time"
)

// rateWindow is the sliding window over which per-client limits apply.
const rateWindow = time.Minute

// RateLimiter applies a per-client sliding window limit. Each AuthManager
// owns one, so limits are scoped to the server instance that enforces them.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewRateLimiter creates an empty rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string][]time.Time)}
}

// Allow records a request for clientID and reports whether it stays within
// perMinute requests over the sliding window.
func (rl *RateLimiter) Allow(clientID string, perMinute int) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	window := pruneWindow(rl.windows[clientID], now.Add(-rateWindow))
	if len(window) >= perMinute {
		rl.windows[clientID] = window
		return false
	}

	rl.windows[clientID] = append(window, now)
	return true
}

// Prune drops clients whose last request left the window. Called from the
// manager's periodic cleanup so idle clients do not accumulate.
func (rl *RateLimiter) Prune() {
	cutoff := time.Now().Add(-rateWindow)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for clientID, window := range rl.windows {
		if len(window) == 0 || window[len(window)-1].Before(cutoff) {
			delete(rl.windows, clientID)
		}
	}
}

// Stats reports the tracked clients and their request counts within the
// current window.
func (rl *RateLimiter) Stats() map[string]interface{} {
	cutoff := time.Now().Add(-rateWindow)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	clients := make([]map[string]interface{}, 0, len(rl.windows))
	for clientID, window := range rl.windows {
		window = pruneWindow(window, cutoff)
		rl.windows[clientID] = window
		if len(window) == 0 {
			continue
		}
		clients = append(clients, map[string]interface{}{
			"client_id":     clientID,
			"request_count": len(window),
			"last_request":  window[len(window)-1],
		})
	}

	return map[string]interface{}{
		"total_clients": len(clients),
		"clients":       clients,
	}
}

func pruneWindow(window []time.Time, cutoff time.Time) []time.Time {
	kept := window[:0]
	for _, at := range window {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}
