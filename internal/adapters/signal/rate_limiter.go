package signal

import (
	"sync"
	"time"

	"github.com/venlink/huddle/internal/core"
)

// EventRateLimiter is a sliding-window limiter per connection. State is
// process-scoped and owned by the controller, never a package global, so
// parallel test instances don't interfere.
type EventRateLimiter struct {
	mu       sync.Mutex
	history  map[core.ConnID][]time.Time
	limit    int
	interval time.Duration
}

func NewEventRateLimiter(limit int, interval time.Duration) *EventRateLimiter {
	return &EventRateLimiter{
		history:  make(map[core.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *EventRateLimiter) Allow(cid core.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[cid]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[cid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[cid] = fresh
	return true
}

// Forget drops a connection's window so the map doesn't grow with churn.
func (rl *EventRateLimiter) Forget(cid core.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, cid)
}
