// internal/rpc/types.go
package rpc

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/enrique89ve/HivePublisher-sub000/internal/events"
)

const (
	DefaultTimeout          = 10 * time.Second
	DefaultMaxRetries       = 3
	DefaultFailureThreshold = 5
	DefaultCircuitCooldown  = 30 * time.Second
	DefaultCacheTTL         = 6 * time.Second
	DefaultBackoffBase      = 1 * time.Second
	DefaultUserAgent        = "hivepublisher/0.1"

	probeTimeout  = 5 * time.Second
	probeCacheTTL = 30 * time.Second
	taposMaxAge   = 30 * time.Second

	backoffJitter = 0.3
)

// NodeHealth tracks the observed state of a single RPC node. All fields are
// guarded by the owning Client's mutex.
type NodeHealth struct {
	Healthy             bool
	Latency             time.Duration
	HeadBlock           int64
	LastChecked         time.Time
	ConsecutiveFailures int

	// Zero while the circuit is closed. While set, the node is skipped until
	// the cool-down elapses; expiry is observed lazily on the next access.
	circuitOpenUntil time.Time
}

// ConnectionWeight is the selector's per-node state: a smoothed base weight in
// (0, 1] plus the number of in-flight attempts against the node.
type ConnectionWeight struct {
	Weight            float64
	ActiveConnections int
}

// Request is the outgoing call descriptor handed to the request interceptor
// before the HTTP attempt. Interceptors may mutate headers and params.
type Request struct {
	Method string
	Params json.RawMessage
	ID     uint64
	Header http.Header
}

// RequestInterceptor runs before each HTTP attempt.
type RequestInterceptor func(*Request) error

// ResponseInterceptor transforms a parsed result before it reaches the cache
// and the caller.
type ResponseInterceptor func(method string, result json.RawMessage) (json.RawMessage, error)

// Options configures a Client. The zero value selects mainnet presets with
// the documented defaults.
type Options struct {
	// Nodes lists endpoints in preference order; the first entry is the
	// primary. Empty falls back to the Network preset list.
	Nodes   []string
	Network string

	Timeout          time.Duration
	MaxRetries       int
	FailureThreshold int
	CircuitCooldown  time.Duration
	CacheTTL         time.Duration
	BackoffBase      time.Duration

	// RateLimitRPS caps outbound attempts per second. Zero disables pacing.
	RateLimitRPS int

	UserAgent  string
	OnRequest  RequestInterceptor
	OnResponse ResponseInterceptor

	// Rand overrides the selection/jitter RNG, letting tests pin node choice.
	Rand *rand.Rand

	// Bus receives call/circuit/probe events. A private bus is created when nil.
	Bus *events.Bus
}

func (o Options) withDefaults() Options {
	if o.Network == "" {
		o.Network = NetworkMainnet
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = DefaultFailureThreshold
	}
	if o.CircuitCooldown <= 0 {
		o.CircuitCooldown = DefaultCircuitCooldown
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}
