package syncer

import (
	"fmt"

	"github.com/umbracle/fastrlp"

	"github.com/syncpoint-network/syncpoint/types"
)

var wireArenaPool fastrlp.ArenaPool

// encodeLocator encodes the getheaders request
func encodeLocator(locator []types.Hash) []byte {
	ar := wireArenaPool.Get()
	defer wireArenaPool.Put(ar)

	if len(locator) == 0 {
		return ar.NewNullArray().MarshalTo(nil)
	}

	vv := ar.NewArray()
	for _, hash := range locator {
		vv.Set(ar.NewCopyBytes(hash.Bytes()))
	}

	return vv.MarshalTo(nil)
}

func decodeLocator(input []byte) ([]types.Hash, error) {
	pr := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(pr)

	v, err := pr.Parse(input)
	if err != nil {
		return nil, err
	}

	elems, err := v.GetElems()
	if err != nil {
		return nil, err
	}

	if len(elems) > maxLocatorSize {
		return nil, fmt.Errorf("%w: %d locator entries", errInvalidRequest, len(elems))
	}

	locator := make([]types.Hash, len(elems))
	for i, elem := range elems {
		if err := elem.GetHash(locator[i][:]); err != nil {
			return nil, err
		}
	}

	return locator, nil
}

// encodeHeaders encodes the getheaders response
func encodeHeaders(headers []*types.Header) []byte {
	ar := wireArenaPool.Get()
	defer wireArenaPool.Put(ar)

	if len(headers) == 0 {
		return ar.NewNullArray().MarshalTo(nil)
	}

	vv := ar.NewArray()
	for _, header := range headers {
		vv.Set(header.MarshalRLPWith(ar))
	}

	return vv.MarshalTo(nil)
}

func decodeHeaders(input []byte) ([]*types.Header, error) {
	pr := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(pr)

	v, err := pr.Parse(input)
	if err != nil {
		return nil, err
	}

	elems, err := v.GetElems()
	if err != nil {
		return nil, err
	}

	headers := make([]*types.Header, len(elems))
	for i, elem := range elems {
		headers[i] = new(types.Header)
		if err := headers[i].UnmarshalRLPFrom(pr, elem); err != nil {
			return nil, err
		}
	}

	return headers, nil
}
