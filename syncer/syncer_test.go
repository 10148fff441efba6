package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/blockchain"
	"github.com/syncpoint-network/syncpoint/blockchain/storage/memory"
	"github.com/syncpoint-network/syncpoint/chain"
	"github.com/syncpoint-network/syncpoint/checkpoint"
	cpmemory "github.com/syncpoint-network/syncpoint/checkpoint/storage/memory"
	"github.com/syncpoint-network/syncpoint/consensus"
	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/network"
	"github.com/syncpoint-network/syncpoint/types"
)

const waitTimeout = 15 * time.Second

var testGenesis = &types.Header{
	Hash:      crypto.DoubleSHA256([]byte("genesis")),
	Timestamp: 1000,
}

type rejectAll struct{}

func (rejectAll) VerifyHeader(_, _ *types.Header) error {
	return errors.New("bad proof of work")
}

type testNode struct {
	srv     *network.Server
	chain   *blockchain.Blockchain
	service *checkpoint.Service
	syncer  *Syncer
}

func newTestNode(t *testing.T, authority *btcec.PrivateKey, verifier Verifier) *testNode {
	t.Helper()

	return buildTestNode(t, authority, verifier, true)
}

// buildTestNode creates a node, a nil authority runs it without sync checkpoints
func buildTestNode(t *testing.T, authority *btcec.PrivateKey, verifier Verifier, active bool) *testNode {
	t.Helper()

	logger := hclog.NewNullLogger()

	db, err := memory.NewMemoryStorage(logger)
	require.NoError(t, err)

	b, err := blockchain.NewBlockchain(logger, db, &chain.Chain{})
	require.NoError(t, err)
	require.NoError(t, b.ComputeGenesis(testGenesis))

	srv := network.CreateServer(t, nil)

	if verifier == nil {
		verifier = &consensus.NoProof{}
	}

	s := NewSyncer(logger, srv, b, verifier)
	s.SetSyncInterval(time.Second)

	var service *checkpoint.Service

	if authority != nil {
		service, err = checkpoint.NewService(&checkpoint.Config{
			MasterPubKey: crypto.PublicKeyHex(authority.PubKey()),
			BanClearer:   srv,
		}, b, cpmemory.NewMemoryBackend(), s, nil, logger)
		require.NoError(t, err)
		require.NoError(t, service.Open())

		s.SetCheckpoints(service)

		if active {
			b.SetSyncCheck(service.CheckSync)
			s.EnableCheckpoints()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	t.Cleanup(func() {
		cancel()
		_ = s.Close()
	})

	return &testNode{srv: srv, chain: b, service: service, syncer: s}
}

func generateKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return key
}

func TestSyncer_SyncHeaders(t *testing.T) {
	t.Parallel()

	key := generateKey(t)

	source := newTestNode(t, key, nil)
	target := newTestNode(t, key, nil)

	// more than one batch
	headers := buildHeaders(testGenesis, blockchain.MaxHeadersPerRequest+100)
	require.NoError(t, source.chain.WriteHeaders(headers))

	network.JoinAndWait(t, target.srv, source.srv)

	tip := headers[len(headers)-1]

	assert.Eventually(t, func() bool {
		return target.chain.Tip().Hash == tip.Hash
	}, waitTimeout, 100*time.Millisecond)

	// new headers are picked up by the sync loop
	more := buildHeaders(tip, 5)
	require.NoError(t, source.chain.WriteHeaders(more))

	assert.Eventually(t, func() bool {
		return target.chain.Tip().Hash == more[4].Hash
	}, waitTimeout, 100*time.Millisecond)
}

func TestSyncer_RelayCheckpoint(t *testing.T) {
	t.Parallel()

	key := generateKey(t)

	source := newTestNode(t, key, nil)
	target := newTestNode(t, key, nil)

	headers := buildHeaders(testGenesis, 10)
	require.NoError(t, source.chain.WriteHeaders(headers))

	msg, err := checkpoint.Sign(checkpoint.UnsignedPayload{
		Version: checkpoint.PayloadVersion,
		Hash:    headers[5].Hash,
	}, key)
	require.NoError(t, err)

	outcome, err := source.service.ProcessMessage("", msg)
	require.NoError(t, err)
	require.Equal(t, checkpoint.OutcomeAccepted, outcome)

	network.JoinAndWait(t, target.srv, source.srv)

	assert.Eventually(t, func() bool {
		return target.service.Current() == headers[5].Hash
	}, waitTimeout, 100*time.Millisecond)

	assert.True(t, msg.Equal(target.service.CurrentMessage()))
	assert.Equal(t, headers[9].Hash, target.chain.Tip().Hash)
}

func TestSyncer_WithoutCheckpoints(t *testing.T) {
	t.Parallel()

	source := newTestNode(t, generateKey(t), nil)
	target := newTestNode(t, nil, nil)

	headers := buildHeaders(testGenesis, 20)
	require.NoError(t, source.chain.WriteHeaders(headers))

	network.JoinAndWait(t, target.srv, source.srv)

	assert.Eventually(t, func() bool {
		return target.chain.Tip().Hash == headers[19].Hash
	}, waitTimeout, 100*time.Millisecond)
}

func TestSyncer_BansInvalidHeaders(t *testing.T) {
	t.Parallel()

	key := generateKey(t)

	source := newTestNode(t, key, nil)
	target := newTestNode(t, key, rejectAll{})

	require.NoError(t, source.chain.WriteHeaders(buildHeaders(testGenesis, 5)))

	network.JoinAndWait(t, target.srv, source.srv)

	assert.Eventually(t, func() bool {
		return target.srv.IsBanned(source.srv.ID())
	}, waitTimeout, 100*time.Millisecond)

	assert.Equal(t, testGenesis.Hash, target.chain.Tip().Hash)
}

func TestSyncer_GetPeer(t *testing.T) {
	t.Parallel()

	key := generateKey(t)

	node0 := newTestNode(t, key, nil)
	node1 := newTestNode(t, key, nil)

	_, ok := node0.syncer.GetPeer(toPeerID(node1.srv.ID()))
	assert.False(t, ok)

	network.JoinAndWait(t, node0.srv, node1.srv)

	p, ok := node0.syncer.GetPeer(toPeerID(node1.srv.ID()))
	require.True(t, ok)
	assert.True(t, p.Connected())
	assert.Equal(t, toPeerID(node1.srv.ID()), p.ID())

	assert.Len(t, node0.syncer.Peers(), 1)

	_, ok = node0.syncer.GetPeer("not a peer id")
	assert.False(t, ok)
}

func TestSyncer_CheckpointsInactive(t *testing.T) {
	t.Parallel()

	key := generateKey(t)

	source := newTestNode(t, key, nil)
	target := buildTestNode(t, key, nil, false)

	headers := buildHeaders(testGenesis, 10)
	require.NoError(t, source.chain.WriteHeaders(headers))

	signed := func(hash types.Hash) *checkpoint.Message {
		msg, err := checkpoint.Sign(checkpoint.UnsignedPayload{
			Version: checkpoint.PayloadVersion,
			Hash:    hash,
		}, key)
		require.NoError(t, err)

		return msg
	}

	outcome, err := source.service.ProcessMessage("", signed(headers[5].Hash))
	require.NoError(t, err)
	require.Equal(t, checkpoint.OutcomeAccepted, outcome)

	network.JoinAndWait(t, target.srv, source.srv)

	assert.Eventually(t, func() bool {
		return target.chain.Tip().Hash == headers[9].Hash
	}, waitTimeout, 100*time.Millisecond)

	// the relayed checkpoint is dropped while the node is below the activation point
	assert.Never(t, func() bool {
		return target.service.Current() != testGenesis.Hash || !target.service.Pending().IsZero()
	}, 2*time.Second, 100*time.Millisecond)

	target.syncer.EnableCheckpoints()

	outcome, err = source.service.ProcessMessage("", signed(headers[7].Hash))
	require.NoError(t, err)
	require.Equal(t, checkpoint.OutcomeAccepted, outcome)

	assert.Eventually(t, func() bool {
		return target.service.Current() == headers[7].Hash
	}, waitTimeout, 100*time.Millisecond)
}
