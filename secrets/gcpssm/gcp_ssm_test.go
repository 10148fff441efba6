package gcpssm

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/secrets"
)

func TestSecretsManagerFactory_InvalidConfig(t *testing.T) {
	t.Parallel()

	params := &secrets.SecretsManagerParams{Logger: hclog.NewNullLogger()}

	_, err := SecretsManagerFactory(&secrets.SecretsManagerConfig{
		Name:  "node",
		Extra: map[string]interface{}{projectIDKey: "project"},
	}, params)
	require.ErrorIs(t, err, errInvalidConfig)
}

func TestSecretNames(t *testing.T) {
	t.Parallel()

	gm := &GcpSsmManager{projectID: "project", nodeName: "node"}

	assert.Equal(t, "node_network-key", gm.secretID(secrets.NetworkKey))
	assert.Equal(t, "projects/project/secrets/node_network-key/versions/1", gm.versionName(secrets.NetworkKey))
}
