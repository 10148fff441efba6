package network

import (
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/control"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// banGater refuses connections from and to banned peers
type banGater struct {
	lock   sync.RWMutex
	banned map[peer.ID]time.Time // peer -> ban expiry
	now    func() time.Time
}

func newBanGater() *banGater {
	return &banGater{
		banned: make(map[peer.ID]time.Time),
		now:    time.Now,
	}
}

func (g *banGater) ban(id peer.ID, duration time.Duration) {
	g.lock.Lock()
	defer g.lock.Unlock()

	g.banned[id] = g.now().Add(duration)
}

func (g *banGater) isBanned(id peer.ID) bool {
	g.lock.RLock()
	until, ok := g.banned[id]
	g.lock.RUnlock()

	if !ok {
		return false
	}

	if g.now().After(until) {
		g.lock.Lock()
		delete(g.banned, id)
		g.lock.Unlock()

		return false
	}

	return true
}

// clear lifts every ban and returns how many were lifted
func (g *banGater) clear() int {
	g.lock.Lock()
	defer g.lock.Unlock()

	n := len(g.banned)
	g.banned = make(map[peer.ID]time.Time)

	return n
}

func (g *banGater) list() []peer.ID {
	g.lock.RLock()
	defer g.lock.RUnlock()

	ids := make([]peer.ID, 0, len(g.banned))
	for id := range g.banned {
		ids = append(ids, id)
	}

	return ids
}

func (g *banGater) InterceptPeerDial(p peer.ID) bool {
	return !g.isBanned(p)
}

func (g *banGater) InterceptAddrDial(p peer.ID, _ multiaddr.Multiaddr) bool {
	return !g.isBanned(p)
}

func (g *banGater) InterceptAccept(network.ConnMultiaddrs) bool {
	return true
}

func (g *banGater) InterceptSecured(_ network.Direction, p peer.ID, _ network.ConnMultiaddrs) bool {
	return !g.isBanned(p)
}

func (g *banGater) InterceptUpgraded(network.Conn) (bool, control.DisconnectReason) {
	return true, 0
}
