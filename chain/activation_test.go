package chain

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivationPolicy_NotConfigured(t *testing.T) {
	t.Parallel()

	p := NewActivationPolicy(0, hclog.NewNullLogger())

	for _, id := range []ChainIdentity{{}, {Testnet: true}, {Symbol: "MCL"}} {
		_, err := p.Params(id)
		require.ErrorIs(t, err, ErrActivationNotConfigured)

		_, active := p.IsActive(id, 1_000_000, 2_000_000_000)
		assert.False(t, active)
	}
}

func TestActivationPolicy_Default(t *testing.T) {
	t.Parallel()

	p := DefaultActivationPolicy(0, hclog.NewNullLogger())

	params, err := p.Params(ChainIdentity{Symbol: "MCL"})
	require.NoError(t, err)
	assert.Equal(t, mclMasterPubKey, params.MasterPubKey)
	assert.Equal(t, LocktimeThreshold, p.Threshold())

	_, err = p.Params(ChainIdentity{})
	require.ErrorIs(t, err, ErrActivationNotConfigured)

	_, err = p.Params(ChainIdentity{Symbol: "OTHER"})
	require.ErrorIs(t, err, ErrActivationNotConfigured)
}

func TestActivationPolicy_IsActive(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		activeAt  int64
		height    uint64
		timestamp int64
		active    bool
	}{
		{"height below", 100, 99, 2_000_000_000, false},
		{"height equal", 100, 100, 2_000_000_000, false},
		{"height above", 100, 101, 0, true},
		{"timestamp below", 1_600_000_000, 10_000_000, 1_599_999_999, false},
		{"timestamp equal", 1_600_000_000, 10_000_000, 1_600_000_000, false},
		{"timestamp above", 1_600_000_000, 0, 1_600_000_001, true},
		{"boundary is timestamp", LocktimeThreshold, uint64(LocktimeThreshold + 1), LocktimeThreshold, false},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			p := NewActivationPolicy(0, hclog.NewNullLogger())
			p.Set(ChainIdentity{}, SyncCheckpointParams{ActiveAt: c.activeAt, MasterPubKey: "02ab"})

			params, active := p.IsActive(ChainIdentity{}, c.height, c.timestamp)
			assert.Equal(t, c.active, active)
			assert.Equal(t, "02ab", params.MasterPubKey)
		})
	}
}

func TestActivationPolicy_CustomThreshold(t *testing.T) {
	t.Parallel()

	p := NewActivationPolicy(1000, hclog.NewNullLogger())
	p.Set(ChainIdentity{Testnet: true}, SyncCheckpointParams{ActiveAt: 1500})

	// 1500 is above the custom boundary, so it is read as a timestamp
	_, active := p.IsActive(ChainIdentity{Testnet: true}, 2000, 1400)
	assert.False(t, active)

	_, active = p.IsActive(ChainIdentity{Testnet: true}, 0, 1501)
	assert.True(t, active)

	_, active = p.IsActive(ChainIdentity{}, 0, 1501)
	assert.False(t, active)
}
