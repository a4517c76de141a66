package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/ValentinKolb/mprpc/rpc/common"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Status is the state of a Call. Waiting is the only non-terminal state.
type Status int32

const (
	StatusWaiting Status = iota
	StatusReceived
	StatusErrored
)

// String returns the string representation of a Status
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusReceived:
		return "received"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Call is a single outstanding call. It is created by the client when the call is
// issued and resolved exactly once, either by the matching response or by the loss
// of the connection. Any number of goroutines may wait on it.
type Call struct {
	id    uint32
	label string

	mu     sync.Mutex
	status Status
	result msgpack.RawMessage
	errVal msgpack.RawMessage
	cause  error         // set instead of errVal when the call failed locally
	done   chan struct{} // closed on resolution
}

func newCall(id uint32, label string) *Call {
	return &Call{
		id:    id,
		label: label,
		done:  make(chan struct{}),
	}
}

// ID returns the identifier the call was sent with
func (c *Call) ID() uint32 {
	return c.id
}

// Label returns the rendered method and arguments of the call
func (c *Call) Label() string {
	return c.label
}

// Status returns the current state of the call
func (c *Call) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Done returns a channel that is closed once the call is resolved
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// --------------------------------------------------------------------------
// Resolution
// --------------------------------------------------------------------------

// ResolveWithResult resolves the call with the result of a successful response.
// A call that is already resolved keeps its outcome and a ProtocolError is returned.
func (c *Call) ResolveWithResult(value msgpack.RawMessage) error {
	return c.resolve(StatusReceived, value, nil)
}

// ResolveWithError resolves the call with the error object of a failed response.
// A call that is already resolved keeps its outcome and a ProtocolError is returned.
func (c *Call) ResolveWithError(value msgpack.RawMessage) error {
	return c.resolve(StatusErrored, value, nil)
}

// fail resolves the call with a local cause, e.g. the loss of the connection
func (c *Call) fail(cause error) error {
	return c.resolve(StatusErrored, nil, cause)
}

func (c *Call) resolve(status Status, value msgpack.RawMessage, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusWaiting {
		return &common.ProtocolError{ID: c.id, Reason: "duplicate resolution"}
	}

	c.status = status
	if status == StatusReceived {
		c.result = value
	} else {
		c.errVal = value
		c.cause = cause
	}
	close(c.done)
	return nil
}

// --------------------------------------------------------------------------
// Waiting and Conversion
// --------------------------------------------------------------------------

// Wait blocks until the call is resolved or ctx ends. It returns nil once the call
// is resolved (even if it resolved with an error) and ctx.Err() otherwise.
func (c *Call) Wait(ctx context.Context) error {
	// an already resolved call wins over an already cancelled context
	select {
	case <-c.done:
		return nil
	default:
	}

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Decode decodes the result of a resolved call into v.
//
//   - not resolved yet: common.ErrNotReady
//   - resolved with an error response: *common.RPCError
//   - failed locally: the cause, which wraps common.ErrClosed
//   - result does not fit v: *common.ConversionError
func (c *Call) Decode(v any) error {
	c.mu.Lock()
	status, result, errVal, cause := c.status, c.result, c.errVal, c.cause
	c.mu.Unlock()

	switch status {
	case StatusReceived:
		if common.IsNil(result) {
			result = msgpack.RawMessage{msgpcode.Nil}
		}
		if err := msgpack.Unmarshal(result, v); err != nil {
			return &common.ConversionError{Label: c.label, Err: err}
		}
		return nil
	case StatusErrored:
		if cause != nil {
			return cause
		}
		return common.NewRPCError(errVal)
	default:
		return common.ErrNotReady
	}
}

// Convert decodes the result of a resolved call into a value of type T.
// See Call.Decode for the returned errors.
func Convert[T any](c *Call) (T, error) {
	var value T
	if err := c.Decode(&value); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

// String renders the call for diagnostics as "label = result", "label = !error"
// or "label = ?" while it is unresolved
func (c *Call) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case StatusReceived:
		return fmt.Sprintf("%s = %s", c.label, common.RenderValue(c.result))
	case StatusErrored:
		if c.cause != nil {
			return fmt.Sprintf("%s = !%v", c.label, c.cause)
		}
		return fmt.Sprintf("%s = !%s", c.label, common.RenderValue(c.errVal))
	default:
		return fmt.Sprintf("%s = ?", c.label)
	}
}
