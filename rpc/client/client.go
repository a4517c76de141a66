package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/mprpc/rpc/common"
	"github.com/ValentinKolb/mprpc/rpc/serializer"
	"github.com/ValentinKolb/mprpc/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	Logger = logger.GetLogger(common.LoggerRPC)
)

// Client issues msgpack-rpc calls over a single transport and matches the
// responses to the outstanding calls by their identifier.
type Client struct {
	name       string
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer

	issueMu sync.Mutex // Serializes id allocation, table insert and enqueue
	ids     idAllocator
	closed  atomic.Bool // Only set while holding issueMu

	pending *xsync.MapOf[uint32, *Call]

	onNotify     NotifyHandler
	onDiagnostic DiagnosticHandler
	metrics      *clientMetrics
	closeOnce    sync.Once
}

// NewClient creates a client, registers it as the transport's handler and connects the transport
func NewClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	opts ...Option,
) (*Client, error) {
	c := &Client{
		name:       config.Endpoint,
		transport:  transport,
		serializer: serializer,
		ids:        newIDAllocator(),
		pending:    xsync.NewMapOf[uint32, *Call](),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = newClientMetrics(c.name, func() float64 {
		return float64(c.pending.Size())
	})

	// Handlers must be in place before the first byte can arrive
	transport.RegisterHandler(c.HandleFrame, c.connectionLost)

	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return c, nil
}

// --------------------------------------------------------------------------
// Issuing Calls
// --------------------------------------------------------------------------

// CallAsync sends a call and returns its handle without waiting for the response.
// The arguments are encoded with msgpack in the given order.
func (c *Client) CallAsync(method string, args ...any) (*Call, error) {
	c.issueMu.Lock()
	defer c.issueMu.Unlock()

	if c.closed.Load() {
		return nil, common.ErrClosed
	}

	id, err := c.ids.Next()
	if err != nil {
		return nil, err
	}

	req, err := common.NewRequest(id, method, args...)
	if err != nil {
		return nil, err
	}

	frame, err := c.serializer.Serialize(req)
	if err != nil {
		return nil, fmt.Errorf("serializing call %d (%s): %w", id, method, err)
	}

	// Register before sending, the response may arrive before Enqueue returns
	call := newCall(id, common.RenderCall(method, args))
	c.pending.Store(id, call)

	if err := c.transport.Enqueue(frame); err != nil {
		c.pending.Delete(id)
		return nil, fmt.Errorf("sending call %d (%s): %w", id, method, err)
	}

	c.metrics.issued.Inc()
	Logger.Debugf("Issued call %d: %s", id, call.label)
	return call, nil
}

// Invoke sends a call and waits until it is resolved or ctx ends.
// If ctx ends first the call is forgotten and ctx.Err() is returned.
func (c *Client) Invoke(ctx context.Context, method string, args ...any) (*Call, error) {
	call, err := c.CallAsync(method, args...)
	if err != nil {
		return nil, err
	}
	if err := call.Wait(ctx); err != nil {
		c.Forget(call.ID())
		return nil, err
	}
	return call, nil
}

// CallSync sends a call, waits for the response and converts the result to T.
// Errors are those of CallAsync, Call.Wait and Convert.
func CallSync[T any](ctx context.Context, c *Client, method string, args ...any) (T, error) {
	call, err := c.Invoke(ctx, method, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Convert[T](call)
}

// Forget removes a call nobody waits for anymore from the pending table.
// A response arriving for it later is dropped as unmatched. It reports whether
// the call was still pending.
func (c *Client) Forget(id uint32) bool {
	if _, ok := c.pending.LoadAndDelete(id); ok {
		c.metrics.abandoned.Inc()
		return true
	}
	return false
}

// Pending returns the number of calls waiting for a response
func (c *Client) Pending() int {
	return c.pending.Size()
}

// Close closes the transport. Calls still pending fail with common.ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.transport.Close()
		// the transport normally reports this itself, a second pass finds nothing
		c.connectionLost(transport.ErrTransportClosed)
	})
	return err
}

// --------------------------------------------------------------------------
// Inbound Messages
// --------------------------------------------------------------------------

// HandleFrame decodes one inbound message and dispatches it.
// Malformed messages are reported as diagnostics, nothing is returned.
func (c *Client) HandleFrame(frame []byte) {
	var env common.Envelope
	if err := c.serializer.Deserialize(frame, &env); err != nil {
		c.diagnose(fmt.Errorf("%w: %v", common.ErrMalformedEnvelope, err), c.metrics.malformed)
		return
	}
	c.Dispatch(&env)
}

// Dispatch routes a decoded envelope. Responses resolve their pending call,
// requests are discarded, notifications go to the notify handler. Nothing a peer
// sends can make Dispatch fail or disturb calls other than the one addressed.
func (c *Client) Dispatch(env *common.Envelope) {
	if env == nil {
		c.diagnose(fmt.Errorf("%w: nil envelope", common.ErrMalformedEnvelope), c.metrics.malformed)
		return
	}

	switch env.Type {
	case common.MsgTResponse:
		c.dispatchResponse(env)

	case common.MsgTRequest:
		c.metrics.requests.Inc()
		Logger.Debugf("Discarding request %d for %q from %s, requests are not served", env.ID, env.Method, c.name)

	case common.MsgTNotify:
		c.metrics.notifications.Inc()
		c.dispatchNotify(env)

	default:
		c.diagnose(&common.ProtocolError{
			Reason: fmt.Sprintf("unrecognized envelope type %d", int(env.Type)),
		}, c.metrics.protocolErrors)
	}
}

func (c *Client) dispatchResponse(env *common.Envelope) {
	// Lookup and removal are one step, so a call is resolved by at most one response
	call, ok := c.pending.LoadAndDelete(env.ID)
	if !ok {
		c.diagnose(fmt.Errorf("%w %d", common.ErrUnmatchedResponse, env.ID), c.metrics.unmatched)
		return
	}

	var err error
	if common.IsNil(env.Error) {
		err = call.ResolveWithResult(env.Result)
		c.metrics.succeeded.Inc()
	} else {
		err = call.ResolveWithError(env.Error)
		c.metrics.rpcErrors.Inc()
	}
	if err != nil {
		c.diagnose(err, c.metrics.protocolErrors)
		return
	}

	Logger.Debugf("Resolved call %d: %s", call.id, call)
}

func (c *Client) dispatchNotify(env *common.Envelope) {
	if c.onNotify == nil {
		Logger.Debugf("Discarding notification %q from %s", env.Method, c.name)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Notify handler panicked for %q: %v", env.Method, r)
		}
	}()
	c.onNotify(env.Method, env.Params)
}

// connectionLost fails all pending calls once the transport is gone
func (c *Client) connectionLost(cause error) {
	c.issueMu.Lock()
	c.closed.Store(true)
	c.issueMu.Unlock()

	failure := common.ErrClosed
	if !errors.Is(cause, transport.ErrTransportClosed) {
		failure = fmt.Errorf("%w: %v", common.ErrClosed, cause)
	}

	c.pending.Range(func(id uint32, _ *Call) bool {
		if call, ok := c.pending.LoadAndDelete(id); ok {
			call.fail(failure)
			c.metrics.failed.Inc()
		}
		return true
	})
}

// diagnose counts, logs and reports a non-fatal dispatch anomaly
func (c *Client) diagnose(err error, counter interface{ Inc() }) {
	counter.Inc()
	Logger.Warningf("Dispatch from %s: %v", c.name, err)
	if c.onDiagnostic != nil {
		c.onDiagnostic(err)
	}
}
