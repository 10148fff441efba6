package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/types"
)

func TestImport_Builtin(t *testing.T) {
	t.Parallel()

	c, err := Import("mainnet")
	require.NoError(t, err)
	assert.Equal(t, ChainIdentity{}, c.Identity())
	assert.Equal(t, []types.Hash{mainnetGenesis}, c.Hardened.Hashes())

	dev, err := Import("dev")
	require.NoError(t, err)
	assert.False(t, dev.Genesis.Hash.IsZero())
	assert.Equal(t, "DEV", dev.Identity().String())
}

func TestImportFromFile(t *testing.T) {
	t.Parallel()

	content := `{
		"name": "custom",
		"symbol": "CST",
		"magic": "0x01020304",
		"genesis": {"hash": "0x` + hash64("11") + `", "timestamp": 10},
		"params": {
			"syncCheckpoint": {"activeAt": 5, "masterPubKey": "02ff"},
			"badBlocks": ["0x` + hash64("22") + `"]
		},
		"checkpoints": [
			{"number": 0, "hash": "0x` + hash64("11") + `"},
			{"number": 50, "hash": "0x` + hash64("33") + `"}
		]
	}`

	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	c, err := Import(path)
	require.NoError(t, err)

	assert.Equal(t, Magic{1, 2, 3, 4}, c.Magic)
	assert.Equal(t, "CST", c.Identity().Symbol)
	assert.Equal(t, int64(5), c.Params.SyncCheckpoint.ActiveAt)
	assert.Len(t, c.Params.BadBlocks, 1)
	assert.Equal(t, uint64(50), c.Hardened[1].Number)
	assert.Equal(t, uint64(0), c.Genesis.Header().Number)
}

func TestImportFromFile_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no genesis":  `{"name": "x", "magic": "0x01020304"}`,
		"short magic": `{"name": "x", "magic": "0x0102", "genesis": {"hash": "0x` + hash64("11") + `"}}`,
		"unordered": `{"name": "x", "magic": "0x01020304", "genesis": {"hash": "0x` + hash64("11") + `"},
			"checkpoints": [{"number": 5, "hash": "0x` + hash64("11") + `"}, {"number": 5, "hash": "0x` + hash64("11") + `"}]}`,
	}

	for name, content := range cases {
		_, err := importChain([]byte(content))
		require.Error(t, err, name)
	}

	_, err := Import(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func hash64(b string) string {
	out := ""
	for i := 0; i < 32; i++ {
		out += b
	}

	return out
}
