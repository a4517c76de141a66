package transport

import (
	"errors"

	"github.com/ValentinKolb/mprpc/rpc/common"
)

// ErrTransportClosed is passed to the CloseFunc when the transport was closed locally
var ErrTransportClosed = errors.New("transport closed")

// ReceiveFunc is called by a client transport for every complete message read
// from the connection. Calls happen sequentially on the transport's read goroutine,
// so a slow handler delays all following messages.
type ReceiveFunc func(frame []byte)

// CloseFunc is called exactly once when the connection of a client transport ends.
// err is ErrTransportClosed after a local Close, otherwise the read or write error.
type CloseFunc func(err error)

// IRPCClientTransport is the interface for the RPC client transport.
// A transport owns one connection and an outgoing queue of frames.
type IRPCClientTransport interface {
	// RegisterHandler sets the callbacks for inbound frames and connection loss.
	// It must be called before Connect.
	RegisterHandler(onFrame ReceiveFunc, onClose CloseFunc)
	// Connect establishes the connection with the given configuration
	Connect(config common.ClientConfig) error
	// Enqueue queues a frame for sending and returns without waiting for the network.
	// Frames are written in the order they were enqueued.
	Enqueue(frame []byte) error
	// Close closes the transport connection
	Close() error
}
