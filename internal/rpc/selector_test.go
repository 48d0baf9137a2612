// internal/rpc/selector_test.go
package rpc

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNodeWeightPenalties(t *testing.T) {
	w := &ConnectionWeight{Weight: 1.0}
	h := &NodeHealth{}

	assert.InDelta(t, 1.0, nodeWeight(w, h), 1e-9)

	h.Latency = 2500 * time.Millisecond
	assert.InDelta(t, 0.5, nodeWeight(w, h), 1e-9, "2500ms latency halves the weight")

	h.Latency = 0
	w.ActiveConnections = 5
	assert.InDelta(t, 0.5, nodeWeight(w, h), 1e-9, "5 in-flight connections halve the weight")

	h.Latency = 10 * time.Second
	w.ActiveConnections = 50
	assert.InDelta(t, 0.01, nodeWeight(w, h), 1e-9, "both penalties floor at 0.1")
}

func TestUpdateWeightDecay(t *testing.T) {
	w := &ConnectionWeight{Weight: 0.1}
	healthy := &NodeHealth{Healthy: true}
	for i := 0; i < 50; i++ {
		updateWeight(w, healthy)
	}
	assert.InDelta(t, 1.0, w.Weight, 0.01, "healthy nodes decay toward 1.0")

	unhealthy := &NodeHealth{Healthy: false}
	for i := 0; i < 50; i++ {
		updateWeight(w, unhealthy)
	}
	assert.InDelta(t, 0.1, w.Weight, 0.01, "unhealthy nodes decay toward 0.1")

	fresh := &ConnectionWeight{}
	updateWeight(fresh, healthy)
	assert.Equal(t, 1.0, fresh.Weight, "zero weight snaps straight to the target")
}

func TestPickSingleCandidate(t *testing.T) {
	s := newSelector(rand.New(rand.NewSource(1)))
	got := s.pick([]string{"only"}, func(string) float64 { return 0.0001 })
	assert.Equal(t, "only", got, "a single candidate is always selected regardless of weight")
}

func TestPickSkipsZeroWeight(t *testing.T) {
	s := newSelector(rand.New(rand.NewSource(42)))
	weights := map[string]float64{"a": 1.0, "b": 0.0}
	for i := 0; i < 100; i++ {
		got := s.pick([]string{"a", "b"}, func(n string) float64 { return weights[n] })
		assert.Equal(t, "a", got)
	}
}

func TestPickFavorsHeavierNode(t *testing.T) {
	s := newSelector(rand.New(rand.NewSource(7)))
	weights := map[string]float64{"fast": 0.9, "slow": 0.1}

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		counts[s.pick([]string{"fast", "slow"}, func(n string) float64 { return weights[n] })]++
	}

	assert.Greater(t, counts["fast"], 1500, "selection must be biased toward the heavier node")
	assert.Greater(t, counts["slow"], 0, "light nodes must never be starved")
}
