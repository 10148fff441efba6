package checkpoint

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/types"
)

func newVerifiedMessage(t *testing.T, hash types.Hash) *Message {
	t.Helper()

	key, _ := generateAuthority(t)

	msg, err := Sign(UnsignedPayload{Version: PayloadVersion, Hash: hash}, key)
	require.NoError(t, err)

	return msg
}

func TestRelay_Dedup(t *testing.T) {
	t.Parallel()

	peer := newMockPeer("a")
	r, err := NewRelay(&testBroadcaster{peers: []*mockPeer{peer}}, 0, hclog.NewNullLogger())
	require.NoError(t, err)

	first := newVerifiedMessage(t, types.StringToHash("0x01"))
	second := newVerifiedMessage(t, types.StringToHash("0x02"))

	assert.True(t, r.RelayTo(peer, first))
	assert.False(t, r.RelayTo(peer, first))

	// a different signature over the same checkpoint is not sent again
	assert.False(t, r.RelayTo(peer, newVerifiedMessage(t, types.StringToHash("0x01"))))

	assert.True(t, r.RelayTo(peer, second))
	assert.True(t, r.RelayTo(peer, first))

	peer.AssertNumberOfCalls(t, "Send", 3)
}

func TestRelay_SkipsDisconnectedAndNull(t *testing.T) {
	t.Parallel()

	peer := newMockPeer("a")
	peer.connected = false

	r, err := NewRelay(&testBroadcaster{}, 0, hclog.NewNullLogger())
	require.NoError(t, err)

	assert.False(t, r.RelayTo(peer, newVerifiedMessage(t, types.StringToHash("0x01"))))
	assert.False(t, r.RelayTo(newMockPeer("b"), newVerifiedMessage(t, types.ZeroHash)))
	assert.False(t, r.RelayTo(newMockPeer("c"), nil))

	peer.AssertNotCalled(t, "Send", mock.Anything)
}

func TestRelay_SendFailureRetried(t *testing.T) {
	t.Parallel()

	peer := &mockPeer{id: "a", connected: true}
	peer.On("Send", mock.Anything).Return(errors.New("stream reset")).Once()
	peer.On("Send", mock.Anything).Return(nil).Once()

	r, err := NewRelay(&testBroadcaster{}, 0, hclog.NewNullLogger())
	require.NoError(t, err)

	msg := newVerifiedMessage(t, types.StringToHash("0x01"))

	assert.False(t, r.RelayTo(peer, msg))
	assert.True(t, r.RelayTo(peer, msg))
	assert.False(t, r.RelayTo(peer, msg))

	peer.AssertExpectations(t)
}

func TestRelay_ConcurrentSameCheckpoint(t *testing.T) {
	t.Parallel()

	peer := &mockPeer{id: "a", connected: true}
	peer.On("Send", mock.Anything).Return(nil).After(50 * time.Millisecond)

	r, err := NewRelay(&testBroadcaster{}, 0, hclog.NewNullLogger())
	require.NoError(t, err)

	msg := newVerifiedMessage(t, types.StringToHash("0x01"))

	var (
		sent int32
		wg   sync.WaitGroup
	)

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if r.RelayTo(peer, msg) {
				atomic.AddInt32(&sent, 1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), sent)
	peer.AssertNumberOfCalls(t, "Send", 1)
}

func TestRelay_FailedSendRestoresPrevious(t *testing.T) {
	t.Parallel()

	peer := &mockPeer{id: "a", connected: true}
	peer.On("Send", mock.Anything).Return(nil).Once()
	peer.On("Send", mock.Anything).Return(errors.New("stream reset")).Once()

	r, err := NewRelay(&testBroadcaster{}, 0, hclog.NewNullLogger())
	require.NoError(t, err)

	first := newVerifiedMessage(t, types.StringToHash("0x01"))
	second := newVerifiedMessage(t, types.StringToHash("0x02"))

	require.True(t, r.RelayTo(peer, first))
	require.False(t, r.RelayTo(peer, second))

	// the peer still knows only the first checkpoint
	assert.False(t, r.RelayTo(peer, first))

	peer.AssertExpectations(t)
}

func TestRelay_All(t *testing.T) {
	t.Parallel()

	peers := []*mockPeer{newMockPeer("a"), newMockPeer("b"), newMockPeer("c")}
	peers[1].connected = false

	r, err := NewRelay(&testBroadcaster{peers: peers}, 0, hclog.NewNullLogger())
	require.NoError(t, err)

	msg := newVerifiedMessage(t, types.StringToHash("0x01"))

	assert.Equal(t, 2, r.RelayAll(msg))
	assert.Equal(t, 0, r.RelayAll(msg))
	assert.Equal(t, 0, r.RelayAll(nil))

	// a reconnecting peer gets the checkpoint again
	r.Forget("a")
	assert.Equal(t, 1, r.RelayAll(msg))
}
