// Package client implements the msgpack-rpc client. It issues calls over a single
// transport connection and matches the responses to the outstanding calls.
//
// Key Components:
//
//   - Client: Allocates call identifiers, keeps the table of pending calls and
//     dispatches inbound messages. Responses resolve their call, notifications are
//     handed to an optional NotifyHandler and inbound requests are discarded.
//
//   - Call: Handle of one outstanding call. It is resolved exactly once, can be
//     waited on from any number of goroutines and converts its result with
//     Convert or Call.Decode.
//
//   - CallSync: Issues a call, waits for it and converts the result in one step.
//
// Usage Example:
//
//	config := common.DefaultClientConfig("localhost:18800")
//	c, err := client.NewClient(config, tcp.NewTCPClientTransport(), serializer.NewMsgpackSerializer())
//	if err != nil {
//	  return err
//	}
//	defer c.Close()
//
//	// synchronous
//	sum, err := client.CallSync[int](ctx, c, "add", 1, 2)
//
//	// asynchronous
//	call, _ := c.CallAsync("add", 40, 2)
//	_ = call.Wait(ctx)
//	sum, err = client.Convert[int](call)
//
// A response the client cannot use (unknown id, unknown envelope type, undecodable
// bytes) never fails a call. It is counted, logged and passed to the optional
// DiagnosticHandler.
//
// Thread Safety:
//
//	A Client and its Calls can be used concurrently from multiple goroutines.
package client
