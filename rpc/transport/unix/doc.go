// Package unix implements a transport layer for the msgpack-rpc client using
// Unix domain sockets, for peers running on the same machine.
//
// This package extends the base transport layer with a Unix socket-specific connector
// while inheriting the outgoing queue and the read loop from the base package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets and
//     applies the configured socket buffer sizes.
package unix
