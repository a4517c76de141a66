// Package transport defines the interface between the msgpack-rpc client core and
// the byte stream it talks over. The client only needs two things from a transport:
// "deliver this frame" (Enqueue) and "hand me every message as it arrives"
// (the ReceiveFunc registered with RegisterHandler).
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handle connection management, the outgoing queue and the read loop.
//
//   - ReceiveFunc / CloseFunc: Callbacks through which a transport reports inbound
//     messages and the end of its connection.
//
// Implementations live in the subpackages: base provides the connector independent
// session, tcp and unix plug in the concrete network.
package transport
