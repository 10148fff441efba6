package network

import (
	"net"
	"time"

	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/secrets"
)

const (
	DefaultLibp2pPort int = 1478

	DefaultMaxPeers int64 = 40

	DefaultBanDuration = 24 * time.Hour
)

// Config details the params for the base networking server
type Config struct {
	NoDiscover bool         // flag indicating if the bootnodes should be dialed
	Addr       *net.TCPAddr // the base address
	NatAddr    net.IP       // the NAT address
	MaxPeers   int64        // the maximum number of connected peers

	// BanDuration is how long a misbehaving peer stays banned
	BanDuration time.Duration

	Chain          *chain.Chain           // the reference to the chain configuration
	SecretsManager secrets.SecretsManager // the secrets manager used for key storage
}

func DefaultConfig() *Config {
	return &Config{
		NoDiscover: false,
		Addr: &net.TCPAddr{
			IP:   net.ParseIP("127.0.0.1"),
			Port: DefaultLibp2pPort,
		},
		MaxPeers:    DefaultMaxPeers,
		BanDuration: DefaultBanDuration,
	}
}
