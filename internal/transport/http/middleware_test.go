package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func trackedClients(l *clientLimiter) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func TestClientLimiterDropsIdleClients(t *testing.T) {
	now := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)
	l := newClientLimiter(1, 1)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.Equal(t, 1, trackedClients(l))

	now = now.Add(limiterIdle / 2)
	assert.True(t, l.allow("10.0.0.2"))
	assert.Equal(t, 2, trackedClients(l))

	// 10.0.0.1 has been idle for the full window, 10.0.0.2 for half of it.
	now = now.Add(limiterIdle / 2)
	assert.True(t, l.allow("10.0.0.3"))
	assert.Equal(t, 2, trackedClients(l))

	l.mu.Lock()
	_, stale := l.clients["10.0.0.1"]
	_, recent := l.clients["10.0.0.2"]
	l.mu.Unlock()
	assert.False(t, stale)
	assert.True(t, recent)

	// A returning client starts with a fresh bucket.
	assert.True(t, l.allow("10.0.0.1"))
}
