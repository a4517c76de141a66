// Package base provides the connection handling shared by all client transports,
// independent of the specific network protocol (TCP, Unix sockets, etc.). It can
// be extended with protocol-specific connectors.
//
// Key Components:
//
//   - IClientConnector: Interface for protocol-specific operations (dialing and
//     connection tuning) that allows extending the base transport with different
//     network protocols.
//
//   - clientTransport: One connection plus two goroutines.
//
//     The write goroutine drains a lock-free MPSC queue (lib/queue). Enqueue never
//     touches the network, so issuing a call never waits for a slow peer. Frames
//     are written in queue order and flushed whenever the queue runs empty.
//
//     The read goroutine decodes the inbound byte stream with a msgpack decoder.
//     msgpack-rpc has no extra framing, every top level msgpack object is one
//     message and is handed to the registered ReceiveFunc as raw bytes. A panic
//     inside the handler is logged, the read loop keeps running.
//
//     When either goroutine fails, or Close is called, the connection is closed
//     once and the CloseFunc learns the cause.
//
// There is no reconnection and no retry: a lost connection ends the transport.
//
// Thread Safety:
//
//	Enqueue is safe for concurrent use. RegisterHandler must be called before Connect.
package base
