// Package serializer converts msgpack-rpc envelopes to and from the bytes that
// travel over a transport.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that serializer implementations must satisfy.
//
//   - msgpackSerializerImpl: Writes and reads the tagged arrays defined by the
//     msgpack-rpc specification, so the client interoperates with any
//     msgpack-rpc peer:
//
//     Request:  [0, msgid, method, params]
//     Response: [1, msgid, error, result]
//     Notify:   [2, method, params]
//
//     Deserialize rejects frames with trailing bytes. Envelopes with an unknown
//     tag deserialize successfully; rejecting them is left to the dispatcher.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	  serializer := serializer.NewMsgpackSerializer()
//	  data, err := serializer.Serialize(envelope)
//	  // ... send data ...
//	  var received common.Envelope
//	  err = serializer.Deserialize(receivedData, &received)
package serializer
