package chain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/syncpoint-network/syncpoint/helper/hex"
	"github.com/syncpoint-network/syncpoint/types"
)

// Chain is the static description of a proof-of-work chain
// the node follows
type Chain struct {
	Name      string      `json:"name"`
	Symbol    string      `json:"symbol,omitempty"`
	Testnet   bool        `json:"testnet,omitempty"`
	Magic     Magic       `json:"magic"`
	Genesis   *Genesis    `json:"genesis"`
	Bootnodes []string    `json:"bootnodes,omitempty"`
	Params    *Params     `json:"params"`
	Hardened  Checkpoints `json:"checkpoints,omitempty"`
}

// Identity returns the identity used to resolve sync checkpoint activation
func (c *Chain) Identity() ChainIdentity {
	return ChainIdentity{Symbol: c.Symbol, Testnet: c.Testnet}
}

// Genesis is the first block of the chain
type Genesis struct {
	Hash      types.Hash `json:"hash"`
	Timestamp uint64     `json:"timestamp"`
}

// Header returns the block index entry of the genesis block
func (g *Genesis) Header() *types.Header {
	return &types.Header{
		Hash:      g.Hash,
		Number:    0,
		Timestamp: g.Timestamp,
	}
}

// Params are the chain parameters consulted by the sync checkpoint logic
type Params struct {
	// SyncCheckpoint overrides the activation params of the built-in policy
	SyncCheckpoint *SyncCheckpointParams `json:"syncCheckpoint,omitempty"`

	// BadBlocks are blocks flagged as invalid, used to recover stuck peers
	BadBlocks []types.Hash `json:"badBlocks,omitempty"`
}

// Checkpoint is a hardened (built-in) checkpoint
type Checkpoint struct {
	Number uint64     `json:"number"`
	Hash   types.Hash `json:"hash"`
}

// Checkpoints are the hardened checkpoints ordered by height
type Checkpoints []Checkpoint

// Hashes returns the checkpoint hashes, the latest last
func (c Checkpoints) Hashes() []types.Hash {
	res := make([]types.Hash, 0, len(c))
	for _, cp := range c {
		res = append(res, cp.Hash)
	}

	return res
}

// Magic is the 4 byte network identity prefix
type Magic [4]byte

func (m Magic) String() string {
	return hex.EncodeToHex(m[:])
}

func (m Magic) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Magic) UnmarshalText(input []byte) error {
	buf, err := hex.DecodeHex(string(input))
	if err != nil {
		return fmt.Errorf("invalid magic: %w", err)
	}

	if len(buf) != len(m) {
		return fmt.Errorf("invalid magic length %d, expected %d", len(buf), len(m))
	}

	copy(m[:], buf)

	return nil
}

// Import imports a chain by its built-in name or from a json file
func Import(chain string) (*Chain, error) {
	if c, ok := builtinChains[chain]; ok {
		return c(), nil
	}

	return ImportFromFile(chain)
}

// ImportFromFile imports a chain from a filepath
func ImportFromFile(filename string) (*Chain, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return importChain(data)
}

func importChain(content []byte) (*Chain, error) {
	chain := &Chain{}

	if err := json.Unmarshal(content, chain); err != nil {
		return nil, err
	}

	if chain.Genesis == nil || chain.Genesis.Hash.IsZero() {
		return nil, fmt.Errorf("chain %q has no genesis hash", chain.Name)
	}

	if chain.Params == nil {
		chain.Params = &Params{}
	}

	for i := 1; i < len(chain.Hardened); i++ {
		if chain.Hardened[i].Number <= chain.Hardened[i-1].Number {
			return nil, fmt.Errorf("hardened checkpoints of chain %q are not ordered by height", chain.Name)
		}
	}

	return chain, nil
}
