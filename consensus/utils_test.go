package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/types"
)

func TestVerifyLinkage(t *testing.T) {
	t.Parallel()

	parent := &types.Header{Hash: types.StringToHash("0x01"), Number: 5, Timestamp: 100}
	child := BuildHeader(parent, 110)

	cases := []struct {
		name   string
		modify func(h *types.Header)
		err    error
	}{
		{"valid", func(h *types.Header) {}, nil},
		{"wrong parent", func(h *types.Header) { h.ParentHash = types.StringToHash("0x02") }, ErrInvalidParent},
		{"wrong number", func(h *types.Header) { h.Number = 7 }, ErrInvalidNumber},
		{"older timestamp", func(h *types.Header) { h.Timestamp = 99 }, ErrInvalidTimestamp},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h := child.Copy()
			c.modify(h)

			err := VerifyLinkage(parent, h)
			if c.err == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, c.err)
			}
		})
	}

	assert.NotEqual(t, child.Hash, ComputeHash(parent.Hash, child.Number, child.Timestamp+1))
}
