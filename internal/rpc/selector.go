// internal/rpc/selector.go
package rpc

import (
	"math/rand"
	"sync"
	"time"
)

const (
	minPenalty      = 0.1
	latencyScale    = 5 * time.Second
	loadScale       = 10
	weightSmoothing = 0.2
	unhealthyTarget = 0.1
	healthyTarget   = 1.0
)

// selector performs weighted random node selection. Every candidate keeps a
// nonzero weight so no node is ever starved.
type selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSelector(rng *rand.Rand) *selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &selector{rng: rng}
}

// updateWeight decays the base weight toward 1.0 for healthy nodes and 0.1
// for unhealthy ones. Caller holds the Client mutex.
func updateWeight(w *ConnectionWeight, h *NodeHealth) {
	target := healthyTarget
	if !h.Healthy {
		target = unhealthyTarget
	}
	if w.Weight == 0 {
		w.Weight = target
		return
	}
	w.Weight += weightSmoothing * (target - w.Weight)
}

// nodeWeight is baseWeight × latencyPenalty × loadPenalty, each penalty
// floored at 0.1.
func nodeWeight(w *ConnectionWeight, h *NodeHealth) float64 {
	latencyPenalty := 1 - h.Latency.Seconds()/latencyScale.Seconds()
	if latencyPenalty < minPenalty {
		latencyPenalty = minPenalty
	}
	loadPenalty := 1 - float64(w.ActiveConnections)/loadScale
	if loadPenalty < minPenalty {
		loadPenalty = minPenalty
	}
	return w.Weight * latencyPenalty * loadPenalty
}

// pick draws one node from a non-empty candidate list: cumulative weights,
// one uniform draw in [0, total). A single candidate is always selected.
func (s *selector) pick(candidates []string, weightOf func(string) float64) string {
	if len(candidates) == 1 {
		return candidates[0]
	}

	cum := make([]float64, len(candidates))
	total := 0.0
	for i, n := range candidates {
		total += weightOf(n)
		cum[i] = total
	}

	s.mu.Lock()
	r := s.rng.Float64() * total
	s.mu.Unlock()

	for i, c := range cum {
		if r < c {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}
