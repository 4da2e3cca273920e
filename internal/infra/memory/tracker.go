package memory

import (
	"context"
	"sync"
	"time"
)

// DefaultUsedTTL is how long a used-destination set lives after its last write.
const DefaultUsedTTL = time.Hour

// UsedDestinationTracker is an in-process app.UsedDestinationTracker with sliding expiry.
type UsedDestinationTracker struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	entries map[string]usedEntry
}

type usedEntry struct {
	ids       map[string]struct{}
	expiresAt time.Time
}

func NewUsedDestinationTracker(ttl time.Duration) *UsedDestinationTracker {
	if ttl <= 0 {
		ttl = DefaultUsedTTL
	}
	return &UsedDestinationTracker{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]usedEntry),
	}
}

// NewUsedDestinationTrackerWithClock is for tests that need to move time forward.
func NewUsedDestinationTrackerWithClock(ttl time.Duration, now func() time.Time) *UsedDestinationTracker {
	t := NewUsedDestinationTracker(ttl)
	t.clock = now
	return t
}

func (t *UsedDestinationTracker) Used(_ context.Context, username string) (map[string]struct{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.liveLocked(username)
	if !ok {
		return map[string]struct{}{}, nil
	}
	out := make(map[string]struct{}, len(entry.ids))
	for id := range entry.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (t *UsedDestinationTracker) MarkUsed(_ context.Context, username, destinationID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.liveLocked(username)
	if !ok {
		entry = usedEntry{ids: make(map[string]struct{})}
	}
	entry.ids[destinationID] = struct{}{}
	entry.expiresAt = t.clock().Add(t.ttl)
	t.entries[username] = entry
	return nil
}

func (t *UsedDestinationTracker) liveLocked(username string) (usedEntry, bool) {
	entry, ok := t.entries[username]
	if !ok {
		return usedEntry{}, false
	}
	if !entry.expiresAt.After(t.clock()) {
		delete(t.entries, username)
		return usedEntry{}, false
	}
	return entry, true
}
