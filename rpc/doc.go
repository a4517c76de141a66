// Package rpc implements a msgpack-rpc client that multiplexes many outstanding
// calls over one bidirectional byte stream.
//
// The package is organized into several subpackages:
//
//   - common: The msgpack-rpc envelope, the error types, the client configuration
//     and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets). A transport moves whole msgpack objects, it knows nothing
//     about calls.
//
//   - serializer: Conversion between envelopes and msgpack bytes.
//
//   - client: Call identifiers, the pending call table, response dispatch and the
//     typed conversion of results.
package rpc
