package server

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Entries older than pruneAfter windows are dropped on the next Allow
// so one-off buyers do not accumulate in the map forever.
const pruneAfter = 2

// checkoutLimiter is a fixed-window counter per buyer. Checkout locks
// ledger rows for the whole transaction, so a runaway client must not
// be able to hold that contention.
type checkoutLimiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	items  map[snowflake.ID]*checkoutWindow
}

type checkoutWindow struct {
	start time.Time
	count int
}

func newCheckoutLimiter(limit int, window time.Duration) *checkoutLimiter {
	return &checkoutLimiter{
		limit:  limit,
		window: window,
		items:  make(map[snowflake.ID]*checkoutWindow),
	}
}

// Allow reports whether the buyer may start another checkout attempt
// in the current window.
func (l *checkoutLimiter) Allow(userID snowflake.ID) bool {
	if userID == 0 {
		return false
	}

	now := time.Now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, w := range l.items {
		if now.Sub(w.start) > pruneAfter*l.window {
			delete(l.items, id)
		}
	}

	w := l.items[userID]
	if w == nil || now.Sub(w.start) > l.window {
		w = &checkoutWindow{start: now}
		l.items[userID] = w
	}

	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}
