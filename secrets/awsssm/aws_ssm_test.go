package awsssm

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/syncpoint-network/syncpoint/secrets"
)

func TestSecretsManagerFactory_InvalidConfig(t *testing.T) {
	t.Parallel()

	params := &secrets.SecretsManagerParams{Logger: hclog.NewNullLogger()}

	_, err := SecretsManagerFactory(&secrets.SecretsManagerConfig{}, params)
	require.ErrorIs(t, err, errNoName)

	_, err = SecretsManagerFactory(&secrets.SecretsManagerConfig{
		Name:  "node",
		Extra: map[string]interface{}{regionKey: "us-east-1"},
	}, params)
	require.ErrorIs(t, err, errNoExtra)
}
