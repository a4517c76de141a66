// Package common provides core data structures and utilities shared across
// the msgpack-rpc client. It defines the wire envelope, the error taxonomy,
// configuration structures and the logging setup used by other packages.
//
// Key Components:
//
//   - Envelope: A single msgpack-rpc message (request, response or notify).
//     Implements msgpack.CustomEncoder and msgpack.CustomDecoder so that it is
//     written and read as the tagged array of the msgpack-rpc specification.
//     Parameters, results and errors stay encoded (msgpack.RawMessage) until a
//     caller converts them.
//
//   - MessageType: The envelope tag (0 = request, 1 = response, 2 = notify).
//
//   - Errors: ProtocolError, ConversionError and RPCError plus sentinel errors
//     (ErrNotReady, ErrClosed, ...) that callers inspect with errors.Is/As.
//
//   - ClientConfig: Endpoint, timeouts and socket options of a client.
//
//   - Logger: Custom logging implementation plugged into Dragonboat's
//     logger package, providing consistent formatting across the module.
package common
