// internal/rpc/breaker.go
package rpc

import "time"

// circuitBreaker implements the per-node fail-fast gate. The open state is an
// expiry timestamp on NodeHealth checked lazily on access, so a circuit
// closes after its cool-down even with no further traffic. Callers hold the
// Client mutex around every method.
type circuitBreaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// isOpen reports whether the node's circuit is currently open, closing it and
// zeroing the failure counter once the cool-down has elapsed.
func (b *circuitBreaker) isOpen(h *NodeHealth) bool {
	if h.circuitOpenUntil.IsZero() {
		return false
	}
	if !b.now().Before(h.circuitOpenUntil) {
		h.circuitOpenUntil = time.Time{}
		h.ConsecutiveFailures = 0
		return false
	}
	return true
}

// recordFailure bumps the consecutive-failure counter and opens the circuit
// on the threshold crossing. Reports the closed-to-open transition.
func (b *circuitBreaker) recordFailure(h *NodeHealth) bool {
	h.ConsecutiveFailures++
	h.Healthy = false
	h.LastChecked = b.now()
	if h.ConsecutiveFailures >= b.threshold && h.circuitOpenUntil.IsZero() {
		h.circuitOpenUntil = b.now().Add(b.cooldown)
		return true
	}
	return false
}

// recordSuccess resets failures and closes the circuit regardless of its
// state at call time. Reports whether an open circuit was closed.
func (b *circuitBreaker) recordSuccess(h *NodeHealth, latency time.Duration) bool {
	wasOpen := !h.circuitOpenUntil.IsZero()
	h.ConsecutiveFailures = 0
	h.circuitOpenUntil = time.Time{}
	h.Healthy = true
	h.Latency = latency
	h.LastChecked = b.now()
	return wasOpen
}
