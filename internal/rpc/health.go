// internal/rpc/health.go
package rpc

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/enrique89ve/HivePublisher-sub000/internal/events"
	"github.com/enrique89ve/HivePublisher-sub000/internal/metrics"
)

type probeResult struct {
	healthy bool
	at      time.Time
}

// Probe checks a single node with a lightweight read-only call under the
// probe's own 5s timeout, independent of the configured call timeout.
// Results are cached for 30s; repeated probes within the window return the
// last result without a network round trip.
func (c *Client) Probe(ctx context.Context, node string) bool {
	c.mu.Lock()
	if pr, ok := c.probes[node]; ok && c.now().Sub(pr.at) < probeCacheTTL {
		c.mu.Unlock()
		return pr.healthy
	}
	c.mu.Unlock()

	return c.probe(ctx, node)
}

// probe always performs the network check and records the result.
func (c *Client) probe(ctx context.Context, node string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	raw, err := c.do(ctx, node, "condenser_api.get_dynamic_global_properties", json.RawMessage("[]"))
	latency := time.Since(start)

	healthy := err == nil
	var headBlock int64
	if healthy {
		var props dynamicGlobalProps
		if jsonErr := json.Unmarshal(raw, &props); jsonErr == nil {
			headBlock = int64(props.HeadBlockNumber)
		}
	}

	c.mu.Lock()
	h := c.health[node]
	if healthy {
		c.breaker.recordSuccess(h, latency)
		if headBlock > 0 {
			h.HeadBlock = headBlock
		}
	} else {
		c.breaker.recordFailure(h)
	}
	updateWeight(c.weights[node], h)
	c.probes[node] = probeResult{healthy: healthy, at: c.now()}
	c.mu.Unlock()

	if healthy {
		metrics.NodeHealthy.WithLabelValues(node).Set(1)
		if headBlock > 0 {
			metrics.NodeHeadBlock.WithLabelValues(node).Set(float64(headBlock))
		}
	} else {
		metrics.NodeHealthy.WithLabelValues(node).Set(0)
		c.logger.Debug("Node probe failed", zap.String("node", node), zap.Error(err))
	}

	c.bus.Emit(events.Event{
		Type:    events.NodeProbed,
		Node:    node,
		Err:     err,
		Latency: latency,
		Healthy: healthy,
		At:      c.now(),
	})
	return healthy
}

// GetHealthyNodes probes every configured node (served from the probe cache
// where fresh) and returns those passing, with the currently-preferred node
// first and the rest in registry order.
func (c *Client) GetHealthyNodes(ctx context.Context) []string {
	nodes := c.Nodes()
	results := make([]bool, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	for i, n := range nodes {
		i, n := i, n
		g.Go(func() error {
			results[i] = c.Probe(gctx, n)
			return nil
		})
	}
	_ = g.Wait()

	current := c.CurrentNode()
	healthy := make([]string, 0, len(nodes))
	for i, n := range nodes {
		if results[i] && n == current {
			healthy = append(healthy, n)
		}
	}
	for i, n := range nodes {
		if results[i] && n != current {
			healthy = append(healthy, n)
		}
	}
	return healthy
}

// StartMonitor launches a background loop re-probing all nodes on the given
// interval, bypassing the probe cache. It stops when ctx is cancelled.
func (c *Client) StartMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = probeCacheTTL
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.refreshAll(ctx)
			}
		}
	}()
	c.logger.Info("Health monitor started", zap.Duration("interval", interval))
}

func (c *Client) refreshAll(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range c.Nodes() {
		n := n
		g.Go(func() error {
			c.probe(gctx, n)
			return nil
		})
	}
	_ = g.Wait()
}
