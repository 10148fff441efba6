package checkpoint

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/checkpoint/storage/memory"
	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/types"
)

var testMagic = [4]byte{0xf9, 0xee, 0xe4, 0x8d}

// testIndex is an in memory block tree
type testIndex struct {
	sync.Mutex

	headers     map[types.Hash]*types.Header
	failed      map[types.Hash]bool
	genesis     types.Hash
	tip         types.Hash
	hardcoded   []types.Hash
	activateErr error
}

func newTestIndex(t *testing.T) (*testIndex, *types.Header) {
	t.Helper()

	genesis := &types.Header{Hash: blockHash(types.ZeroHash, 0, 0)}

	return &testIndex{
		headers: map[types.Hash]*types.Header{genesis.Hash: genesis},
		failed:  map[types.Hash]bool{},
		genesis: genesis.Hash,
		tip:     genesis.Hash,
	}, genesis
}

func blockHash(parent types.Hash, number uint64, branch byte) types.Hash {
	buf := make([]byte, 9)
	binary.BigEndian.PutUint64(buf, number)
	buf[8] = branch

	return crypto.DoubleSHA256(parent.Bytes(), buf)
}

// extend appends n blocks on top of parent. Blocks of different branches get different hashes
func (i *testIndex) extend(parent *types.Header, n int, branch byte) []*types.Header {
	res := make([]*types.Header, 0, n)

	for j := 0; j < n; j++ {
		h := &types.Header{
			Hash:       blockHash(parent.Hash, parent.Number+1, branch),
			ParentHash: parent.Hash,
			Number:     parent.Number + 1,
			Timestamp:  parent.Timestamp + 10,
		}

		i.headers[h.Hash] = h
		res = append(res, h)
		parent = h
	}

	return res
}

// detached builds the blocks without adding them to the index
func (i *testIndex) detached(parent *types.Header, n int, branch byte) []*types.Header {
	res := i.extend(parent, n, branch)
	for _, h := range res {
		delete(i.headers, h.Hash)
	}

	return res
}

func (i *testIndex) add(headers ...*types.Header) {
	for _, h := range headers {
		i.headers[h.Hash] = h
	}
}

func (i *testIndex) GetHeader(hash types.Hash) (*types.Header, bool) {
	h, ok := i.headers[hash]

	return h, ok
}

func (i *testIndex) GenesisHash() types.Hash {
	return i.genesis
}

func (i *testIndex) IsOnActiveChain(hash types.Hash) bool {
	header, ok := i.headers[hash]
	if !ok {
		return false
	}

	tip := i.headers[i.tip]
	ancestor, err := ancestorAt(i, tip, header.Number)

	return err == nil && tip.Number >= header.Number && ancestor.Hash == hash
}

func (i *testIndex) ActivateBestChain(hash types.Hash) error {
	if i.activateErr != nil {
		return i.activateErr
	}

	if _, ok := i.headers[hash]; !ok {
		return errors.New("unknown block")
	}

	i.tip = hash

	return nil
}

func (i *testIndex) InvalidateBlock(hash types.Hash) error {
	header, ok := i.headers[hash]
	if !ok {
		return errors.New("unknown block")
	}

	if i.IsOnActiveChain(hash) {
		i.tip = header.ParentHash
	}

	i.failed[hash] = true

	return nil
}

func (i *testIndex) IsFailed(hash types.Hash) bool {
	return i.failed[hash]
}

func (i *testIndex) Tip() *types.Header {
	return i.headers[i.tip]
}

func (i *testIndex) HardcodedCheckpoints() []types.Hash {
	return i.hardcoded
}

func (i *testIndex) Locator() []types.Hash {
	return []types.Hash{i.tip, i.genesis}
}

type mockPeer struct {
	mock.Mock

	id        PeerID
	connected bool
}

func newMockPeer(id string) *mockPeer {
	p := &mockPeer{id: PeerID(id), connected: true}
	p.On("Send", mock.Anything).Return(nil).Maybe()
	p.On("RequestHeaders", mock.Anything).Return(nil).Maybe()

	return p
}

func (p *mockPeer) ID() PeerID {
	return p.id
}

func (p *mockPeer) Connected() bool {
	return p.connected
}

func (p *mockPeer) Send(msg *Message) error {
	args := p.Called(msg)

	return args.Error(0)
}

func (p *mockPeer) RequestHeaders(locator []types.Hash) error {
	args := p.Called(locator)

	return args.Error(0)
}

type testBroadcaster struct {
	peers []*mockPeer
}

func (b *testBroadcaster) Peers() []Peer {
	res := make([]Peer, 0, len(b.peers))
	for _, p := range b.peers {
		res = append(res, p)
	}

	return res
}

func (b *testBroadcaster) GetPeer(id PeerID) (Peer, bool) {
	for _, p := range b.peers {
		if p.id == id {
			return p, true
		}
	}

	return nil, false
}

type mockBanClearer struct {
	mock.Mock
}

func (m *mockBanClearer) ClearBans() {
	m.Called()
}

type mockKeyStore struct {
	mock.Mock
}

func (m *mockKeyStore) GetAuthorityKey(pubKeyHex string) (*btcec.PrivateKey, error) {
	args := m.Called(pubKeyHex)

	key, _ := args.Get(0).(*btcec.PrivateKey)

	return key, args.Error(1)
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func generateAuthority(t *testing.T) (*btcec.PrivateKey, string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return key, crypto.PublicKeyHex(key.PubKey())
}

func signCheckpoint(t *testing.T, key *btcec.PrivateKey, hash types.Hash) *Message {
	t.Helper()

	msg, err := Sign(UnsignedPayload{Version: PayloadVersion, Hash: hash}, key)
	require.NoError(t, err)

	// peers only receive the wire form
	buf, err := msg.MarshalBinary()
	require.NoError(t, err)

	received := &Message{}
	require.NoError(t, received.UnmarshalBinary(buf))

	return received
}

type testNode struct {
	service     *Service
	index       *testIndex
	genesis     *types.Header
	backend     *memory.MemoryBackend
	broadcaster *testBroadcaster
	clock       *fixedClock
	key         *btcec.PrivateKey
}

type testNodeOption func(*Config)

func newTestNode(t *testing.T, opts ...testNodeOption) *testNode {
	t.Helper()

	key, pub := generateAuthority(t)
	index, genesis := newTestIndex(t)

	node := &testNode{
		index:       index,
		genesis:     genesis,
		backend:     memory.NewMemoryBackend(),
		broadcaster: &testBroadcaster{},
		clock:       &fixedClock{now: time.Unix(1_700_000_000, 0)},
		key:         key,
	}

	config := &Config{
		Magic:        testMagic,
		MasterPubKey: pub,
	}

	for _, opt := range opts {
		opt(config)
	}

	service, err := NewService(config, index, node.backend, node.broadcaster, node.clock, hclog.NewNullLogger())
	require.NoError(t, err)

	node.service = service

	return node
}

func (n *testNode) open(t *testing.T) {
	t.Helper()

	require.NoError(t, n.service.Open())
}
