// internal/rpc/health_test.go
package rpc

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dynPropsResult = `{
	"head_block_number": 12345678,
	"head_block_id": "00bc614eaabbccdd000000000000000000000000",
	"time": "2026-08-25T12:00:00"
}`

func TestProbeRecordsHealth(t *testing.T) {
	node := newCountingNode(t, jsonRPCResult(dynPropsResult))

	c := newTestClient(t, Options{Nodes: []string{node.URL}})

	assert.True(t, c.Probe(context.Background(), node.URL))

	health, ok := c.Health(node.URL)
	require.True(t, ok)
	assert.True(t, health.Healthy)
	assert.Equal(t, int64(12345678), health.HeadBlock)
	assert.Equal(t, 0, health.ConsecutiveFailures)
	assert.Greater(t, health.Latency, time.Duration(0))
}

func TestProbeResultIsCached(t *testing.T) {
	node := newCountingNode(t, jsonRPCResult(dynPropsResult))

	clock := newFakeClock()
	c := newTestClient(t, Options{Nodes: []string{node.URL}})
	c.setClock(clock.now)

	assert.True(t, c.Probe(context.Background(), node.URL))
	assert.True(t, c.Probe(context.Background(), node.URL))
	assert.Equal(t, int64(1), node.calls.Load(), "repeated probes within the window reuse the last result")

	clock.advance(31 * time.Second)
	assert.True(t, c.Probe(context.Background(), node.URL))
	assert.Equal(t, int64(2), node.calls.Load())
}

func TestProbeFailureCountsAgainstNode(t *testing.T) {
	node := newCountingNode(t, httpError(http.StatusBadGateway))

	c := newTestClient(t, Options{Nodes: []string{node.URL}})

	assert.False(t, c.Probe(context.Background(), node.URL))

	health, ok := c.Health(node.URL)
	require.True(t, ok)
	assert.False(t, health.Healthy)
	assert.Equal(t, 1, health.ConsecutiveFailures)
}

func TestGetHealthyNodesOrdersCurrentFirst(t *testing.T) {
	a := newCountingNode(t, jsonRPCResult(dynPropsResult))
	b := newCountingNode(t, jsonRPCResult(dynPropsResult))
	broken := newCountingNode(t, httpError(http.StatusServiceUnavailable))

	c := newTestClient(t, Options{Nodes: []string{a.URL, b.URL, broken.URL}})

	// Pretend the last success came from b.
	c.mu.Lock()
	c.current = b.URL
	c.mu.Unlock()

	healthy := c.GetHealthyNodes(context.Background())
	assert.Equal(t, []string{b.URL, a.URL}, healthy, "preferred node first, failing node excluded")
}
