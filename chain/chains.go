package chain

import (
	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/types"
)

var builtinChains = map[string]func() *Chain{
	"mainnet": mainnet,
	"dev":     dev,
}

var mainnetGenesis = types.StringToHash("0x027e3758c3a65b12aa1046462b486d0a63bfa1beae327897f56c5cfb7daaae71")

func mainnet() *Chain {
	return &Chain{
		Name:  "mainnet",
		Magic: Magic{0xf9, 0xee, 0xe4, 0x8d},
		Genesis: &Genesis{
			Hash:      mainnetGenesis,
			Timestamp: 1473793441,
		},
		Params: &Params{},
		Hardened: Checkpoints{
			{Number: 0, Hash: mainnetGenesis},
		},
	}
}

// dev is a local chain with a deterministic genesis, for running single nodes and tests.
// Sync checkpoints are enabled from the start and the authority key comes from configuration
func dev() *Chain {
	return &Chain{
		Name:    "dev",
		Symbol:  "DEV",
		Testnet: true,
		Magic:   Magic{0xde, 0x7c, 0xa1, 0x01},
		Genesis: &Genesis{
			Hash:      crypto.DoubleSHA256([]byte("syncpoint dev genesis")),
			Timestamp: 0,
		},
		Params: &Params{},
	}
}
