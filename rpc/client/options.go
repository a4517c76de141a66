package client

import "github.com/vmihailenco/msgpack/v5"

// NotifyHandler receives inbound notifications. It runs on the transport's read
// goroutine, so it should return quickly.
type NotifyHandler func(method string, params []msgpack.RawMessage)

// DiagnosticHandler receives every non-fatal anomaly seen while dispatching inbound
// messages: unmatched responses, protocol errors and malformed envelopes.
type DiagnosticHandler func(err error)

// Option configures a Client
type Option func(*Client)

// WithName sets the name used in logs and as the metrics label (default: the endpoint)
func WithName(name string) Option {
	return func(c *Client) {
		c.name = name
	}
}

// WithNotifyHandler installs a handler for inbound notifications.
// Without one, notifications are counted and discarded.
func WithNotifyHandler(h NotifyHandler) Option {
	return func(c *Client) {
		c.onNotify = h
	}
}

// WithDiagnosticHandler installs a handler for dispatch anomalies
func WithDiagnosticHandler(h DiagnosticHandler) Option {
	return func(c *Client) {
		c.onDiagnostic = h
	}
}
