package serializer

import (
	"bytes"
	"fmt"

	"github.com/ValentinKolb/mprpc/rpc/common"
	"github.com/vmihailenco/msgpack/v5"
)

// NewMsgpackSerializer creates a new serializer writing msgpack-rpc envelopes
func NewMsgpackSerializer() IRPCSerializer {
	return &msgpackSerializerImpl{}
}

// msgpackSerializerImpl implements the IRPCSerializer interface using msgpack encoding
type msgpackSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (m msgpackSerializerImpl) Serialize(env *common.Envelope) ([]byte, error) {
	return msgpack.Marshal(env)
}

func (m msgpackSerializerImpl) Deserialize(b []byte, env *common.Envelope) error {
	// bytes.Reader is used by the decoder without extra buffering, so r.Len()
	// is exactly what is left after the envelope
	r := bytes.NewReader(b)
	if err := env.DecodeMsgpack(msgpack.NewDecoder(r)); err != nil {
		return err
	}

	// A frame holds exactly one envelope
	if r.Len() > 0 {
		return fmt.Errorf("%d trailing bytes after envelope", r.Len())
	}
	return nil
}
