package common

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

const (
	// CheckpointProto relays signed sync-checkpoint messages
	CheckpointProto = "/syncpoint/%s/checkpoint/0.1"

	// GetHeadersProto serves headers after a block locator
	GetHeadersProto = "/syncpoint/%s/getheaders/0.1"
)

// ProtocolID returns the protocol id scoped to the network magic
func ProtocolID(proto string, magic fmt.Stringer) string {
	return fmt.Sprintf(proto, magic.String())
}

// StringToAddrInfo parses a /ip4/<ip>/tcp/<port>/p2p/<id> address
func StringToAddrInfo(addr string) (*peer.AddrInfo, error) {
	addr0, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return nil, err
	}

	return peer.AddrInfoFromP2pAddr(addr0)
}

// loopbackRegex matches /ip4/127.x.x.x/tcp/<port>, /ip4/localhost/tcp/<port> and the ip6 loopback
var loopbackRegex = regexp.MustCompile(
	//nolint:lll
	`^\/ip4\/127(?:\.[0-9]+){0,2}\.[0-9]+\/tcp\/\d+$|^\/ip4\/localhost\/tcp\/\d+$|^\/ip6\/(?:0*\:)*?:?0*1\/tcp\/\d+$`,
)

// AddrInfoToString converts an AddrInfo into a string representation that can be dialed from another node
func AddrInfoToString(addr *peer.AddrInfo) (string, error) {
	if len(addr.Addrs) == 0 {
		return "", errors.New("no dial addresses found")
	}

	dialAddress := addr.Addrs[0].String()

	// prefer a non loopback address
	if len(addr.Addrs) > 1 && loopbackRegex.MatchString(dialAddress) {
		for _, address := range addr.Addrs {
			if !loopbackRegex.MatchString(address.String()) {
				dialAddress = address.String()

				break
			}
		}
	}

	return dialAddress + "/p2p/" + addr.ID.String(), nil
}
