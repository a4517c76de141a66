package client

import (
	"math"

	"github.com/ValentinKolb/mprpc/rpc/common"
)

// idAllocator hands out call identifiers 1, 2, 3, ... up to math.MaxUint32.
// It is not safe for concurrent use, the client serializes access to it.
type idAllocator struct {
	next uint64
}

func newIDAllocator() idAllocator {
	return idAllocator{next: 1}
}

// Next returns the current identifier and advances the counter.
// Once the id space is used up it keeps returning ErrIdentifiersExhausted, ids never wrap.
func (a *idAllocator) Next() (uint32, error) {
	if a.next > math.MaxUint32 {
		return 0, common.ErrIdentifiersExhausted
	}
	id := uint32(a.next)
	a.next++
	return id, nil
}
