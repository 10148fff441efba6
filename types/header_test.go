package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umbracle/fastrlp"
)

func TestHeader_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	input := `{
		"hash": "0x0800000000000000000000000000000000000000000000000000000000000000",
		"parentHash": "0x0100000000000000000000000000000000000000000000000000000000000000",
		"number": 11,
		"timestamp": 14
	}`

	var header Header
	require.NoError(t, json.Unmarshal([]byte(input), &header))

	assert.Equal(t, Header{
		Hash:       Hash{0x8},
		ParentHash: Hash{0x1},
		Number:     11,
		Timestamp:  14,
	}, header)

	encoded, err := json.Marshal(&header)
	require.NoError(t, err)

	var decoded Header
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, header, decoded)
}

func TestHeader_Copy(t *testing.T) {
	t.Parallel()

	header := &Header{Hash: Hash{0x2}, ParentHash: Hash{0x1}, Number: 1, Timestamp: 100}

	cpy := header.Copy()
	require.Equal(t, header, cpy)

	cpy.Number = 2
	assert.Equal(t, uint64(1), header.Number)
}

func TestHeader_UnmarshalRLP_Invalid(t *testing.T) {
	t.Parallel()

	ar := &fastrlp.Arena{}

	short := ar.NewArray()
	short.Set(ar.NewBytes(Hash{0x1}.Bytes()))
	short.Set(ar.NewUint(1))

	var header Header
	require.ErrorContains(t, header.UnmarshalRLP(short.MarshalTo(nil)), "expected 4")

	badHash := ar.NewArray()
	badHash.Set(ar.NewBytes([]byte{0x1, 0x2}))
	badHash.Set(ar.NewBytes(Hash{0x1}.Bytes()))
	badHash.Set(ar.NewUint(1))
	badHash.Set(ar.NewUint(2))

	require.Error(t, header.UnmarshalRLP(badHash.MarshalTo(nil)))

	require.Error(t, header.UnmarshalRLP([]byte{0xff}))
}
