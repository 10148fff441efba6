package types

import (
	"fmt"

	"github.com/umbracle/fastrlp"
)

// Header is the part of a block index entry the checkpoint logic needs:
// identity, parent link, height and time
type Header struct {
	Hash       Hash   `json:"hash"`
	ParentHash Hash   `json:"parentHash"`
	Number     uint64 `json:"number"`
	Timestamp  uint64 `json:"timestamp"`
}

func (h *Header) Copy() *Header {
	hh := new(Header)
	*hh = *h

	return hh
}

var marshalArenaPool fastrlp.ArenaPool

// MarshalRLP encodes the header for the block index store
func (h *Header) MarshalRLP() []byte {
	return h.MarshalRLPTo(nil)
}

func (h *Header) MarshalRLPTo(dst []byte) []byte {
	ar := marshalArenaPool.Get()
	defer marshalArenaPool.Put(ar)

	return h.MarshalRLPWith(ar).MarshalTo(dst)
}

// MarshalRLPWith marshals the header to RLP with a specific fastrlp.Arena
func (h *Header) MarshalRLPWith(arena *fastrlp.Arena) *fastrlp.Value {
	vv := arena.NewArray()

	vv.Set(arena.NewBytes(h.Hash.Bytes()))
	vv.Set(arena.NewBytes(h.ParentHash.Bytes()))
	vv.Set(arena.NewUint(h.Number))
	vv.Set(arena.NewUint(h.Timestamp))

	return vv
}

func (h *Header) UnmarshalRLP(input []byte) error {
	pr := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(pr)

	v, err := pr.Parse(input)
	if err != nil {
		return err
	}

	return h.UnmarshalRLPFrom(pr, v)
}

func (h *Header) UnmarshalRLPFrom(_ *fastrlp.Parser, v *fastrlp.Value) error {
	elems, err := v.GetElems()
	if err != nil {
		return err
	}

	if len(elems) != 4 {
		return fmt.Errorf("incorrect number of elements to decode header, expected 4 but found %d", len(elems))
	}

	if err = elems[0].GetHash(h.Hash[:]); err != nil {
		return err
	}

	if err = elems[1].GetHash(h.ParentHash[:]); err != nil {
		return err
	}

	if h.Number, err = elems[2].GetUint64(); err != nil {
		return err
	}

	if h.Timestamp, err = elems[3].GetUint64(); err != nil {
		return err
	}

	return nil
}
