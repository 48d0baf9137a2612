// internal/rpc/client.go
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/enrique89ve/HivePublisher-sub000/internal/events"
	"github.com/enrique89ve/HivePublisher-sub000/internal/metrics"
)

// Client dispatches JSON-RPC 2.0 calls across a fleet of Hive nodes with
// circuit breaking, health tracking, weighted failover, response caching and
// exponential retry backoff. All state is in-memory and rebuilt on restart.
//
// The health, weight and probe maps share one mutex; it is never held across
// network I/O or sleeps, so concurrent calls interleave only at those
// boundaries.
type Client struct {
	opts   Options
	http   *http.Client
	logger *zap.Logger
	bus    *events.Bus

	mu      sync.Mutex
	nodes   []string
	primary string
	current string
	health  map[string]*NodeHealth
	weights map[string]*ConnectionWeight
	probes  map[string]probeResult

	breaker circuitBreaker
	sel     *selector
	cache   *ttlCache

	taposMu sync.Mutex
	tapos   *TaposSnapshot

	perf    *performanceMetrics
	limiter ratelimit.Limiter
	reqID   atomic.Uint64
	now     func() time.Time
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      uint64          `json:"id"`
}

type rpcResponse struct {
	ID     json.RawMessage  `json:"id"`
	Result *json.RawMessage `json:"result"`
	Error  *RPCError        `json:"error"`
}

// New creates a Client for the given options. The first node is the primary;
// an empty node list falls back to the network preset.
func New(opts Options, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	nodes := normalizeNodes(opts.Nodes)
	if len(nodes) == 0 {
		nodes = DefaultNodes(opts.Network)
	}
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}

	now := time.Now
	c := &Client{
		opts:    opts,
		http:    &http.Client{},
		logger:  logger.Named("rpc"),
		bus:     opts.Bus,
		nodes:   nodes,
		primary: nodes[0],
		current: nodes[0],
		health:  make(map[string]*NodeHealth, len(nodes)),
		weights: make(map[string]*ConnectionWeight, len(nodes)),
		probes:  make(map[string]probeResult, len(nodes)),
		breaker: circuitBreaker{
			threshold: opts.FailureThreshold,
			cooldown:  opts.CircuitCooldown,
			now:       now,
		},
		sel:   newSelector(opts.Rand),
		cache: newTTLCache(now),
		perf:  newPerformanceMetrics(now),
		now:   now,
	}

	if c.bus == nil {
		c.bus = events.NewBus(logger)
	}
	if opts.RateLimitRPS > 0 {
		c.limiter = ratelimit.New(opts.RateLimitRPS)
	} else {
		c.limiter = ratelimit.NewUnlimited()
	}

	// Nodes start optimistic; the first failed attempt or probe corrects this.
	for _, n := range nodes {
		c.health[n] = &NodeHealth{Healthy: true}
		c.weights[n] = &ConnectionWeight{Weight: healthyTarget}
	}

	return c, nil
}

// setClock rewires every time source, for tests.
func (c *Client) setClock(now func() time.Time) {
	c.now = now
	c.breaker.now = now
	c.cache.now = now
	c.perf.now = now
}

// Nodes returns the configured endpoints, primary first.
func (c *Client) Nodes() []string {
	out := make([]string, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// CurrentNode reports the node that served the most recent successful attempt.
func (c *Client) CurrentNode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Health returns a copy of a node's health record, applying any pending
// circuit cool-down expiry first.
func (c *Client) Health(node string) (NodeHealth, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.health[node]
	if !ok {
		return NodeHealth{}, false
	}
	c.breaker.isOpen(h)
	return *h, true
}

// CircuitOpen reports whether a node's circuit is currently open.
func (c *Client) CircuitOpen(node string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.health[node]
	return ok && c.breaker.isOpen(h)
}

// Metrics returns a snapshot of the aggregate call counters.
func (c *Client) Metrics() MetricsSnapshot {
	return c.perf.snapshot()
}

// Bus exposes the event bus for observability hooks.
func (c *Client) Bus() *events.Bus {
	return c.bus
}

// Call dispatches one logical RPC call: cache check, node pick, circuit
// check, HTTP attempt, retry with backoff. It fails with *ExhaustedError when
// every attempt across every retry round failed, or ErrCircuitOpen when no
// node has a closed circuit before the first attempt.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	rawParams, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	readOnly := IsReadOnly(method)
	key := cacheKey(method, rawParams)
	if readOnly {
		if v, ok := c.cache.get(key); ok {
			metrics.CacheHitsTotal.WithLabelValues(method).Inc()
			c.bus.Emit(events.Event{Type: events.CacheHit, Method: method, At: c.now()})
			return v, nil
		}
	}

	if len(c.closedCircuitNodes()) == 0 {
		c.perf.recordFailure(ErrCircuitOpen)
		return nil, ErrCircuitOpen
	}

	bo := c.newBackoff()
	failed := make(map[string]bool, len(c.nodes))
	var lastErr error

	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := c.pickNode(attempt, failed)
		if node == "" {
			lastErr = ErrCircuitOpen
			break
		}

		start := time.Now()
		result, err := c.doAttempt(ctx, node, method, rawParams)
		latency := time.Since(start)

		if err == nil {
			c.noteSuccess(node, method, latency)
			if readOnly {
				c.cache.set(key, result, c.opts.CacheTTL)
			}
			return result, nil
		}

		lastErr = &CallError{Method: method, Node: node, Err: err}
		failed[node] = true
		c.noteFailure(node, method, err)
		c.logger.Debug("RPC attempt failed",
			zap.String("method", method),
			zap.String("node", node),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < c.opts.MaxRetries-1 {
			select {
			case <-time.After(bo.NextBackOff()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	exhausted := &ExhaustedError{Attempts: c.opts.MaxRetries, LastErr: lastErr}
	c.logger.Warn("RPC call exhausted all nodes",
		zap.String("method", method),
		zap.Int("attempts", exhausted.Attempts),
		zap.Error(lastErr))
	return nil, exhausted
}

func marshalParams(params interface{}) (json.RawMessage, error) {
	if params == nil {
		return json.RawMessage("[]"), nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return raw, nil
}

// newBackoff builds the retry interval source: base 1s doubling per attempt,
// randomized by up to 30% to avoid synchronized retry storms.
func (c *Client) newBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opts.BackoffBase
	bo.Multiplier = 2
	bo.RandomizationFactor = backoffJitter
	bo.MaxInterval = 16 * c.opts.BackoffBase
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// closedCircuitNodes lists nodes currently eligible for traffic.
func (c *Client) closedCircuitNodes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closedCircuitLocked()
}

func (c *Client) closedCircuitLocked() []string {
	out := make([]string, 0, len(c.nodes))
	for _, n := range c.nodes {
		if !c.breaker.isOpen(c.health[n]) {
			out = append(out, n)
		}
	}
	return out
}

// pickNode chooses the target for one attempt. The first attempt always goes
// to the primary when its circuit is closed; later attempts draw from the
// weighted selector, excluding nodes already failed within this call unless
// no alternative remains. Returns "" when every circuit is open.
func (c *Client) pickNode(attempt int, failed map[string]bool) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := c.closedCircuitLocked()
	if len(candidates) == 0 {
		return ""
	}

	if attempt == 0 && !c.breaker.isOpen(c.health[c.primary]) {
		return c.primary
	}

	fresh := make([]string, 0, len(candidates))
	for _, n := range candidates {
		if !failed[n] {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) == 0 {
		fresh = candidates
	}

	for _, n := range fresh {
		updateWeight(c.weights[n], c.health[n])
	}
	return c.sel.pick(fresh, func(n string) float64 {
		return nodeWeight(c.weights[n], c.health[n])
	})
}

// doAttempt issues a single HTTP attempt bounded by the per-attempt timeout.
func (c *Client) doAttempt(ctx context.Context, node, method string, rawParams json.RawMessage) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	return c.do(ctx, node, method, rawParams)
}

// do performs one JSON-RPC exchange against a node. The caller bounds ctx.
func (c *Client) do(ctx context.Context, node, method string, rawParams json.RawMessage) (json.RawMessage, error) {
	c.markInflight(node, 1)
	defer c.markInflight(node, -1)

	req := &Request{
		Method: method,
		Params: rawParams,
		ID:     c.reqID.Add(1),
		Header: make(http.Header),
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	if c.opts.OnRequest != nil {
		if err := c.opts.OnRequest(req); err != nil {
			return nil, fmt.Errorf("request interceptor: %w", err)
		}
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  req.Method,
		Params:  req.Params,
		ID:      req.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, node, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	httpReq.Header = req.Header

	c.limiter.Take()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrConnectionFailed, resp.StatusCode, node)
	}

	var env rpcResponse
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	if env.Result == nil {
		return nil, fmt.Errorf("%w: response carries neither result nor error", ErrProtocol)
	}

	result := *env.Result
	if c.opts.OnResponse != nil {
		result, err = c.opts.OnResponse(method, result)
		if err != nil {
			return nil, fmt.Errorf("response interceptor: %w", err)
		}
	}
	return result, nil
}

func (c *Client) markInflight(node string, delta int) {
	c.mu.Lock()
	if w, ok := c.weights[node]; ok {
		w.ActiveConnections += delta
		if w.ActiveConnections < 0 {
			w.ActiveConnections = 0
		}
	}
	c.mu.Unlock()
}

func (c *Client) noteSuccess(node, method string, latency time.Duration) {
	c.mu.Lock()
	h := c.health[node]
	closed := c.breaker.recordSuccess(h, latency)
	updateWeight(c.weights[node], h)
	c.current = node
	c.mu.Unlock()

	c.perf.recordSuccess(latency)
	metrics.CallsTotal.WithLabelValues(method, node, "success").Inc()
	metrics.CallLatency.WithLabelValues(node).Observe(latency.Seconds())
	metrics.NodeHealthy.WithLabelValues(node).Set(1)
	metrics.CircuitOpen.WithLabelValues(node).Set(0)

	c.bus.Emit(events.Event{
		Type:    events.CallSucceeded,
		Node:    node,
		Method:  method,
		Latency: latency,
		At:      c.now(),
	})
	if closed {
		c.bus.Emit(events.Event{Type: events.CircuitClosed, Node: node, At: c.now()})
	}
}

func (c *Client) noteFailure(node, method string, err error) {
	c.mu.Lock()
	h := c.health[node]
	opened := c.breaker.recordFailure(h)
	failures := h.ConsecutiveFailures
	updateWeight(c.weights[node], h)
	c.mu.Unlock()

	c.perf.recordFailure(err)
	metrics.CallsTotal.WithLabelValues(method, node, "failure").Inc()
	metrics.NodeHealthy.WithLabelValues(node).Set(0)

	c.bus.Emit(events.Event{
		Type:   events.CallFailed,
		Node:   node,
		Method: method,
		Err:    err,
		At:     c.now(),
	})
	if opened {
		metrics.CircuitOpen.WithLabelValues(node).Set(1)
		c.bus.Emit(events.Event{Type: events.CircuitOpened, Node: node, At: c.now()})
		c.logger.Warn("Circuit opened for node",
			zap.String("node", node),
			zap.Int("consecutive_failures", failures),
			zap.Duration("cooldown", c.opts.CircuitCooldown))
	}
}
