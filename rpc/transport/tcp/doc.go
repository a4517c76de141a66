// Package tcp implements TCP socket-based transport for the msgpack-rpc client.
// It provides the tcp specific connector for the base package's session, which
// owns the outgoing queue and the read loop.
//
// Key Components:
//
//   - clientConnector: Dials the endpoint and applies the TCPConf options
//     (TCP_NODELAY, keep alive, linger) and socket buffer sizes.
package tcp
