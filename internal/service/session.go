package service

import (
	"sync"
	"time"
)

// SessionTracker counts distinct users seen within a sliding window.
type SessionTracker struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[string]time.Time
	pruned   time.Time // last sweep of expired users
	now      func() time.Time
}

// NewSessionTracker creates a tracker over the given window (default 15m).
func NewSessionTracker(window time.Duration) *SessionTracker {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &SessionTracker{
		window:   window,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Touch marks userID as active now. Empty ids are ignored. Expired users
// are swept at most once per tenth of the window.
func (t *SessionTracker) Touch(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.lastSeen[userID] = now
	if now.Sub(t.pruned) >= t.window/10 {
		t.pruneLocked(now)
	}
}

// ActiveUsers returns the number of users seen within the window and
// forgets the rest.
func (t *SessionTracker) ActiveUsers() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(t.now())
	return len(t.lastSeen)
}

func (t *SessionTracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.window)
	for id, seen := range t.lastSeen {
		if seen.Before(cutoff) {
			delete(t.lastSeen, id)
		}
	}
	t.pruned = now
}
