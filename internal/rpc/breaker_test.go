// internal/rpc/breaker_test.go
package rpc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	clock := newFakeClock()
	b := &circuitBreaker{threshold: 5, cooldown: 30 * time.Second, now: clock.now}
	h := &NodeHealth{Healthy: true}

	for i := 0; i < 4; i++ {
		opened := b.recordFailure(h)
		assert.False(t, opened, "failure %d must not open the circuit", i+1)
		assert.False(t, b.isOpen(h))
	}

	assert.True(t, b.recordFailure(h), "5th failure must open the circuit")
	assert.True(t, b.isOpen(h))
	assert.Equal(t, 5, h.ConsecutiveFailures)
	assert.False(t, h.Healthy)
}

func TestBreakerSuccessResetsAnyState(t *testing.T) {
	clock := newFakeClock()
	b := &circuitBreaker{threshold: 5, cooldown: 30 * time.Second, now: clock.now}
	h := &NodeHealth{}

	for i := 0; i < 7; i++ {
		b.recordFailure(h)
	}
	assert.True(t, b.isOpen(h))

	wasOpen := b.recordSuccess(h, 80*time.Millisecond)
	assert.True(t, wasOpen)
	assert.False(t, b.isOpen(h))
	assert.Equal(t, 0, h.ConsecutiveFailures)
	assert.True(t, h.Healthy)
	assert.Equal(t, 80*time.Millisecond, h.Latency)
}

func TestBreakerAutoClosesAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	b := &circuitBreaker{threshold: 2, cooldown: 30 * time.Second, now: clock.now}
	h := &NodeHealth{}

	b.recordFailure(h)
	b.recordFailure(h)
	assert.True(t, b.isOpen(h))

	clock.advance(29 * time.Second)
	assert.True(t, b.isOpen(h), "circuit must stay open within the cool-down")

	clock.advance(2 * time.Second)
	assert.False(t, b.isOpen(h), "circuit must close once the cool-down elapses, without traffic")
	assert.Equal(t, 0, h.ConsecutiveFailures)

	// Idempotent: re-checking stays closed.
	assert.False(t, b.isOpen(h))
}

func TestBreakerFailuresWhileOpenKeepOriginalExpiry(t *testing.T) {
	clock := newFakeClock()
	b := &circuitBreaker{threshold: 1, cooldown: 10 * time.Second, now: clock.now}
	h := &NodeHealth{}

	b.recordFailure(h)
	assert.True(t, b.isOpen(h))

	clock.advance(8 * time.Second)
	b.recordFailure(h)

	clock.advance(3 * time.Second)
	assert.False(t, b.isOpen(h), "later failures must not extend the one-shot cool-down")
}
