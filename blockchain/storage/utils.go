package storage

import (
	"github.com/umbracle/fastrlp"

	"github.com/syncpoint-network/syncpoint/types"
)

type Forks []types.Hash

var forksArenaPool fastrlp.ArenaPool

// MarshalRLPTo is a wrapper function for calling the type marshal implementation
func (f *Forks) MarshalRLPTo(dst []byte) []byte {
	ar := forksArenaPool.Get()
	defer forksArenaPool.Put(ar)

	return f.MarshalRLPWith(ar).MarshalTo(dst)
}

// MarshalRLPWith is the actual RLP marshal implementation for the type
func (f *Forks) MarshalRLPWith(ar *fastrlp.Arena) *fastrlp.Value {
	var vr *fastrlp.Value

	if len(*f) == 0 {
		vr = ar.NewNullArray()
	} else {
		vr = ar.NewArray()

		for _, fork := range *f {
			vr.Set(ar.NewCopyBytes(fork[:]))
		}
	}

	return vr
}

// UnmarshalRLP is a wrapper function for calling the type unmarshal implementation
func (f *Forks) UnmarshalRLP(input []byte) error {
	pr := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(pr)

	v, err := pr.Parse(input)
	if err != nil {
		return err
	}

	return f.UnmarshalRLPFrom(pr, v)
}

// UnmarshalRLPFrom is the actual RLP unmarshal implementation for the type
func (f *Forks) UnmarshalRLPFrom(_ *fastrlp.Parser, v *fastrlp.Value) error {
	elems, err := v.GetElems()
	if err != nil {
		return err
	}

	forks := make([]types.Hash, len(elems))
	for indx, elem := range elems {
		if err := elem.GetHash(forks[indx][:]); err != nil {
			return err
		}
	}

	*f = forks

	return nil
}
