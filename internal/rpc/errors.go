// internal/rpc/errors.go
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNoNodes is returned when neither the options nor the network preset
	// yield a usable endpoint list.
	ErrNoNodes = errors.New("no RPC nodes configured")

	// ErrConnectionFailed marks transport-level failures: refused connections,
	// DNS errors, broken bodies, non-200 HTTP statuses.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrTimeout marks an attempt that exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrProtocol marks malformed JSON or a JSON-RPC envelope carrying
	// neither result nor error.
	ErrProtocol = errors.New("malformed JSON-RPC response")

	// ErrCircuitOpen is returned by Call when every configured node has an
	// open circuit before the first attempt.
	ErrCircuitOpen = errors.New("all nodes have open circuits")
)

// RPCError is a well-formed JSON-RPC error returned by a node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// CallError annotates a per-attempt error with the node and method involved.
type CallError struct {
	Method string
	Node   string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("rpc call %s at %s: %v", e.Method, e.Node, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// ExhaustedError is the terminal failure of a call: every attempt across
// every retry round failed. It wraps the last underlying error.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all nodes exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// classifyTransport folds raw network-library errors into the taxonomy so
// they never reach the caller unwrapped.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
}
