// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsTotal counts RPC attempts by method, node and outcome.
	CallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hivepub",
		Name:      "rpc_calls_total",
		Help:      "Total number of RPC attempts.",
	}, []string{"method", "node", "status"})

	// CallLatency observes per-attempt latency per node.
	CallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hivepub",
		Name:      "rpc_call_latency_seconds",
		Help:      "RPC attempt latency in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"node"})

	// CacheHitsTotal counts read-only calls served from the response cache.
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hivepub",
		Name:      "rpc_cache_hits_total",
		Help:      "Total number of cache-served read-only calls.",
	}, []string{"method"})

	// NodeHealthy shows whether a node passed its latest attempt or probe.
	NodeHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hivepub",
		Name:      "rpc_node_healthy",
		Help:      "Whether a node is currently considered healthy (1) or not (0).",
	}, []string{"node"})

	// CircuitOpen shows whether a node's circuit is open.
	CircuitOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hivepub",
		Name:      "rpc_node_circuit_open",
		Help:      "Whether a node's circuit breaker is open (1) or closed (0).",
	}, []string{"node"})

	// NodeHeadBlock shows the head block height each node last reported.
	NodeHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hivepub",
		Name:      "rpc_node_head_block",
		Help:      "Head block number last observed on each node.",
	}, []string{"node"})
)
