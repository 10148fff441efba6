package hashicorpvault

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/secrets"
)

func TestSecretsManagerFactory(t *testing.T) {
	t.Parallel()

	params := &secrets.SecretsManagerParams{Logger: hclog.NewNullLogger()}

	cases := []struct {
		name   string
		config *secrets.SecretsManagerConfig
		err    error
	}{
		{"no token", &secrets.SecretsManagerConfig{ServerURL: "http://127.0.0.1:8200", Name: "node"}, errNoToken},
		{"no server", &secrets.SecretsManagerConfig{Token: "t", Name: "node"}, errNoServerURL},
		{"no name", &secrets.SecretsManagerConfig{Token: "t", ServerURL: "http://127.0.0.1:8200"}, errNoName},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			_, err := SecretsManagerFactory(c.config, params)
			require.ErrorIs(t, err, c.err)
		})
	}

	manager, err := SecretsManagerFactory(&secrets.SecretsManagerConfig{
		Token:     "t",
		ServerURL: "http://127.0.0.1:8200",
		Name:      "node",
	}, params)
	require.NoError(t, err)

	//nolint:forcetypeassert
	assert.Equal(t, "secret/data/node/"+secrets.AuthorityKey, manager.(*VaultSecretsManager).secretPath(secrets.AuthorityKey))
}
