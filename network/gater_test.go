package network

import (
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
)

func TestBanGater(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)

	g := newBanGater()
	g.now = func() time.Time { return now }

	a, b := peer.ID("a"), peer.ID("b")

	g.ban(a, time.Minute)
	g.ban(b, time.Hour)

	assert.False(t, g.InterceptPeerDial(a))
	assert.False(t, g.InterceptSecured(0, b, nil))
	assert.True(t, g.InterceptPeerDial(peer.ID("c")))
	assert.ElementsMatch(t, []peer.ID{a, b}, g.list())

	// bans expire
	now = now.Add(2 * time.Minute)

	assert.True(t, g.InterceptPeerDial(a))
	assert.False(t, g.InterceptPeerDial(b))

	assert.Equal(t, 1, g.clear())
	assert.True(t, g.InterceptPeerDial(b))
	assert.Empty(t, g.list())
}
