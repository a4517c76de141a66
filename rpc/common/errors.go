package common

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// --------------------------------------------------------------------------
// Sentinel Errors
// --------------------------------------------------------------------------

var (
	// ErrNotReady is returned when a call result is read before the call was resolved
	ErrNotReady = errors.New("call not ready")

	// ErrClosed is returned for calls issued on, or still pending at, a closed client
	ErrClosed = errors.New("client closed")

	// ErrIdentifiersExhausted is returned once every call identifier of a client has been used
	ErrIdentifiersExhausted = errors.New("call identifiers exhausted")

	// ErrUnmatchedResponse is reported for responses whose id has no pending call
	ErrUnmatchedResponse = errors.New("response for unknown call id")

	// ErrMalformedEnvelope is reported for inbound frames that cannot be decoded
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// --------------------------------------------------------------------------
// Error Types
// --------------------------------------------------------------------------

// ProtocolError signals that the peer violated the msgpack-rpc protocol,
// e.g. by answering a call twice or sending an unrecognized envelope type.
type ProtocolError struct {
	ID     uint32 // call id involved, 0 if none
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("protocol error: %s", e.Reason)
	}
	return fmt.Sprintf("protocol error (id %d): %s", e.ID, e.Reason)
}

// ConversionError signals that a result could not be decoded into the requested type
type ConversionError struct {
	Label string // rendered call the result belongs to
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting result of %s: %v", e.Label, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// RPCError is an application level error reported by the peer for a call
type RPCError struct {
	// Payload is the error object exactly as received
	Payload msgpack.RawMessage
	// Value is Payload decoded into a generic value (nil if it could not be decoded)
	Value any
}

// NewRPCError decodes the payload of an error response
func NewRPCError(payload msgpack.RawMessage) *RPCError {
	e := &RPCError{Payload: payload}
	_ = msgpack.Unmarshal(payload, &e.Value)
	return e
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error: %v", e.Value)
}

// Decode decodes the error payload into v
func (e *RPCError) Decode(v any) error {
	return msgpack.Unmarshal(e.Payload, v)
}
