package serializer

import "github.com/ValentinKolb/mprpc/rpc/common"

// IRPCSerializer is the interface for all envelope serializers
type IRPCSerializer interface {
	// Serialize serializes an Envelope into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(env *common.Envelope) ([]byte, error)
	// Deserialize deserializes a byte array into an Envelope
	// It takes a byte array and a pointer to an Envelope as parameters
	// It returns an error if any
	Deserialize(b []byte, env *common.Envelope) error
}
