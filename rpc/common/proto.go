package common

import (
	"fmt"
	"math"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// --------------------------------------------------------------------------
// Envelope Structure
// --------------------------------------------------------------------------

// Envelope is a single msgpack-rpc message. Which fields are used depends on
// the type of the envelope:
//
//	Request:  [0, ID, Method, Params]
//	Response: [1, ID, Error, Result]
//	Notify:   [2, Method, Params]
//
// Params, Error and Result hold already encoded msgpack objects. The core never
// looks inside them, only the caller converting a result does.
type Envelope struct {
	// Type of envelope
	Type MessageType

	ID     uint32               // Used for: Request, Response
	Method string               // Used for: Request, Notify
	Params []msgpack.RawMessage // Used for: Request, Notify

	// Response only fields
	Error  msgpack.RawMessage // nil (or msgpack nil) if the call succeeded
	Result msgpack.RawMessage // nil (or msgpack nil) if the call failed
}

// --------------------------------------------------------------------------
// Envelope Factory Functions
// --------------------------------------------------------------------------

// NewRequest creates a new request envelope. Every argument is encoded
// immediately, so the returned envelope does not reference the arguments.
func NewRequest(id uint32, method string, args ...any) (*Envelope, error) {
	params, err := EncodeParams(args)
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", method, err)
	}
	return &Envelope{
		Type:   MsgTRequest,
		ID:     id,
		Method: method,
		Params: params,
	}, nil
}

// NewResponse creates a new response envelope. A nil rpcErr marks a successful call.
func NewResponse(id uint32, rpcErr any, result any) (*Envelope, error) {
	errRaw, err := EncodeValue(rpcErr)
	if err != nil {
		return nil, fmt.Errorf("response %d error: %w", id, err)
	}
	resultRaw, err := EncodeValue(result)
	if err != nil {
		return nil, fmt.Errorf("response %d result: %w", id, err)
	}
	return &Envelope{
		Type:   MsgTResponse,
		ID:     id,
		Error:  errRaw,
		Result: resultRaw,
	}, nil
}

// NewNotify creates a new notification envelope
func NewNotify(method string, args ...any) (*Envelope, error) {
	params, err := EncodeParams(args)
	if err != nil {
		return nil, fmt.Errorf("notify %q: %w", method, err)
	}
	return &Envelope{
		Type:   MsgTNotify,
		Method: method,
		Params: params,
	}, nil
}

// --------------------------------------------------------------------------
// Opaque Value Helpers
// --------------------------------------------------------------------------

// EncodeValue encodes a single value. Values that are already a msgpack.RawMessage
// are passed through unchanged and nil becomes the msgpack nil object.
func EncodeValue(v any) (msgpack.RawMessage, error) {
	switch raw := v.(type) {
	case nil:
		return msgpack.RawMessage{msgpcode.Nil}, nil
	case msgpack.RawMessage:
		return raw, nil
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeParams encodes an ordered list of arguments
func EncodeParams(args []any) ([]msgpack.RawMessage, error) {
	params := make([]msgpack.RawMessage, len(args))
	for i, arg := range args {
		raw, err := EncodeValue(arg)
		if err != nil {
			return nil, fmt.Errorf("encoding argument %d: %w", i, err)
		}
		params[i] = raw
	}
	return params, nil
}

// IsNil reports whether raw is absent or the msgpack nil object
func IsNil(raw msgpack.RawMessage) bool {
	return len(raw) == 0 || (len(raw) == 1 && raw[0] == msgpcode.Nil)
}

// RenderValue decodes raw into a generic value and formats it for diagnostics
func RenderValue(raw msgpack.RawMessage) string {
	if IsNil(raw) {
		return "nil"
	}
	var v any
	if err := msgpack.Unmarshal(raw, &v); err != nil {
		return fmt.Sprintf("<undecodable %d bytes>", len(raw))
	}
	return fmt.Sprintf("%v", v)
}

// RenderCall formats a method and its arguments as "method[arg1, arg2]"
func RenderCall(method string, args []any) string {
	var sb strings.Builder
	sb.WriteString(method)
	sb.WriteByte('[')
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if raw, ok := arg.(msgpack.RawMessage); ok {
			sb.WriteString(RenderValue(raw))
			continue
		}
		sb.WriteString(fmt.Sprintf("%v", arg))
	}
	sb.WriteByte(']')
	return sb.String()
}

// --------------------------------------------------------------------------
// msgpack Encoding (implements msgpack.CustomEncoder and msgpack.CustomDecoder)
// --------------------------------------------------------------------------

// EncodeMsgpack writes the envelope as the msgpack-rpc tagged array
func (e *Envelope) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch e.Type {
	case MsgTRequest:
		if err := enc.EncodeArrayLen(4); err != nil {
			return err
		}
		if err := enc.EncodeInt(int64(e.Type)); err != nil {
			return err
		}
		if err := enc.EncodeUint(uint64(e.ID)); err != nil {
			return err
		}
		if err := enc.EncodeString(e.Method); err != nil {
			return err
		}
		return encodeParams(enc, e.Params)

	case MsgTResponse:
		if err := enc.EncodeArrayLen(4); err != nil {
			return err
		}
		if err := enc.EncodeInt(int64(e.Type)); err != nil {
			return err
		}
		if err := enc.EncodeUint(uint64(e.ID)); err != nil {
			return err
		}
		if err := encodeRaw(enc, e.Error); err != nil {
			return err
		}
		return encodeRaw(enc, e.Result)

	case MsgTNotify:
		if err := enc.EncodeArrayLen(3); err != nil {
			return err
		}
		if err := enc.EncodeInt(int64(e.Type)); err != nil {
			return err
		}
		if err := enc.EncodeString(e.Method); err != nil {
			return err
		}
		return encodeParams(enc, e.Params)

	default:
		return &ProtocolError{Reason: fmt.Sprintf("cannot encode envelope of type %s", e.Type)}
	}
}

// DecodeMsgpack reads a msgpack-rpc tagged array. An unknown tag is not a decoding
// error: the remaining elements are skipped and the tag is kept in Type, so the
// caller decides how to treat it.
func (e *Envelope) DecodeMsgpack(dec *msgpack.Decoder) error {
	*e = Envelope{}

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("envelope is not a tagged array (length %d)", n)
	}

	tag, err := dec.DecodeInt()
	if err != nil {
		return fmt.Errorf("envelope tag: %w", err)
	}
	e.Type = MessageType(tag)

	// Known types have a fixed arity
	if want := e.Type.arity(); want > 0 && n != want {
		return fmt.Errorf("%s envelope has %d elements, expected %d", e.Type, n, want)
	}

	switch e.Type {
	case MsgTRequest:
		if e.ID, err = decodeID(dec); err != nil {
			return fmt.Errorf("request id: %w", err)
		}
		if e.Method, err = dec.DecodeString(); err != nil {
			return fmt.Errorf("request method: %w", err)
		}
		if e.Params, err = decodeParams(dec); err != nil {
			return fmt.Errorf("request params: %w", err)
		}

	case MsgTResponse:
		if e.ID, err = decodeID(dec); err != nil {
			return fmt.Errorf("response id: %w", err)
		}
		if e.Error, err = decodeRaw(dec); err != nil {
			return fmt.Errorf("response error: %w", err)
		}
		if e.Result, err = decodeRaw(dec); err != nil {
			return fmt.Errorf("response result: %w", err)
		}

	case MsgTNotify:
		if e.Method, err = dec.DecodeString(); err != nil {
			return fmt.Errorf("notify method: %w", err)
		}
		if e.Params, err = decodeParams(dec); err != nil {
			return fmt.Errorf("notify params: %w", err)
		}

	default:
		for i := 1; i < n; i++ {
			if err := dec.Skip(); err != nil {
				return err
			}
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func encodeRaw(enc *msgpack.Encoder, raw msgpack.RawMessage) error {
	if len(raw) == 0 {
		return enc.EncodeNil()
	}
	return enc.Encode(raw)
}

func encodeParams(enc *msgpack.Encoder, params []msgpack.RawMessage) error {
	if err := enc.EncodeArrayLen(len(params)); err != nil {
		return err
	}
	for _, p := range params {
		if err := encodeRaw(enc, p); err != nil {
			return err
		}
	}
	return nil
}

// decodeID reads a call id. Nil, negative and ids wider than 32 bits are errors,
// they can never name a call and must not be truncated onto one.
func decodeID(dec *msgpack.Decoder) (uint32, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return 0, err
	}

	switch {
	case c == msgpcode.Uint8 || c == msgpcode.Uint16 || c == msgpcode.Uint32 || c == msgpcode.Uint64:
		n, err := dec.DecodeUint64()
		if err != nil {
			return 0, err
		}
		if n > math.MaxUint32 {
			return 0, fmt.Errorf("id %d out of range", n)
		}
		return uint32(n), nil

	case msgpcode.IsFixedNum(c) || c == msgpcode.Int8 || c == msgpcode.Int16 || c == msgpcode.Int32 || c == msgpcode.Int64:
		n, err := dec.DecodeInt64()
		if err != nil {
			return 0, err
		}
		if n < 0 || n > math.MaxUint32 {
			return 0, fmt.Errorf("id %d out of range", n)
		}
		return uint32(n), nil

	default:
		return 0, fmt.Errorf("id is not an integer (code 0x%02x)", c)
	}
}

// decodeRaw reads the next object and normalizes msgpack nil to a nil slice
func decodeRaw(dec *msgpack.Decoder) (msgpack.RawMessage, error) {
	raw, err := dec.DecodeRaw()
	if err != nil {
		return nil, err
	}
	if IsNil(raw) {
		return nil, nil
	}
	return raw, nil
}

func decodeParams(dec *msgpack.Decoder) ([]msgpack.RawMessage, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	params := make([]msgpack.RawMessage, n)
	for i := range params {
		if params[i], err = dec.DecodeRaw(); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType is the tag in the first element of every msgpack-rpc envelope
type MessageType int

// Message types as defined by the msgpack-rpc specification
const (
	MsgTRequest  MessageType = 0
	MsgTResponse MessageType = 1
	MsgTNotify   MessageType = 2
)

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTRequest:
		return "request"
	case MsgTResponse:
		return "response"
	case MsgTNotify:
		return "notify"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// arity returns the element count of a known envelope type, 0 for unknown types
func (t MessageType) arity() int {
	switch t {
	case MsgTRequest, MsgTResponse:
		return 4
	case MsgTNotify:
		return 3
	default:
		return 0
	}
}
