package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/network"
	"github.com/syncpoint-network/syncpoint/secrets"
	"github.com/syncpoint-network/syncpoint/secrets/awsssm"
	"github.com/syncpoint-network/syncpoint/secrets/gcpssm"
	"github.com/syncpoint-network/syncpoint/secrets/hashicorpvault"
	"github.com/syncpoint-network/syncpoint/secrets/local"
)

var (
	ErrUnsupportedType   = errors.New("unsupported secrets manager")
	ErrAuthorityMismatch = errors.New("authority key does not match the master public key")
)

// secretsManagerFactories maps the remote types to their factories
var secretsManagerFactories = map[secrets.SecretsManagerType]secrets.SecretsManagerFactory{
	secrets.HashicorpVault: hashicorpvault.SecretsManagerFactory,
	secrets.AWSSSM:         awsssm.SecretsManagerFactory,
	secrets.GCPSSM:         gcpssm.SecretsManagerFactory,
}

// SetupLocalSecretsManager is a helper method for boilerplate local secrets manager setup
func SetupLocalSecretsManager(dataDir string) (secrets.SecretsManager, error) {
	return local.SecretsManagerFactory(
		nil, // Local secrets manager doesn't require a config
		&secrets.SecretsManagerParams{
			Logger: hclog.NewNullLogger(),
			Extra: map[string]interface{}{
				secrets.Path: dataDir,
			},
		},
	)
}

// SetupSecretsManager creates the manager described by the config,
// or the local one under dataDir if there is no config
func SetupSecretsManager(
	config *secrets.SecretsManagerConfig,
	dataDir string,
	logger hclog.Logger,
) (secrets.SecretsManager, error) {
	if config == nil || config.Type == secrets.Local {
		return local.SecretsManagerFactory(config, &secrets.SecretsManagerParams{
			Logger: logger,
			Extra:  map[string]interface{}{secrets.Path: dataDir},
		})
	}

	factory, ok := secretsManagerFactories[config.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, config.Type)
	}

	return factory(config, &secrets.SecretsManagerParams{Logger: logger})
}

// InitAuthorityKey creates a new sync-checkpoint authority key and stores it,
// returning the hex encoded public key
func InitAuthorityKey(secretsManager secrets.SecretsManager) (string, error) {
	if secretsManager.HasSecret(secrets.AuthorityKey) {
		return "", fmt.Errorf("%w: %s", secrets.ErrSecretAlreadyExists, secrets.AuthorityKey)
	}

	key, encoded, err := crypto.GenerateAndEncodePrivateKey()
	if err != nil {
		return "", err
	}

	if err := secretsManager.SetSecret(secrets.AuthorityKey, encoded); err != nil {
		return "", err
	}

	return crypto.PublicKeyHex(key.PubKey()), nil
}

// LoadAuthorityKey reads the sync-checkpoint authority key
func LoadAuthorityKey(secretsManager secrets.SecretsManager) (*btcec.PrivateKey, error) {
	encoded, err := secretsManager.GetSecret(secrets.AuthorityKey)
	if err != nil {
		return nil, err
	}

	return crypto.BytesToPrivateKey(encoded)
}

// InitNetworkingPrivateKey creates a new libp2p key and stores it
func InitNetworkingPrivateKey(secretsManager secrets.SecretsManager) (peer.ID, error) {
	if secretsManager.HasSecret(secrets.NetworkKey) {
		return "", fmt.Errorf("%w: %s", secrets.ErrSecretAlreadyExists, secrets.NetworkKey)
	}

	key, encoded, err := network.GenerateAndEncodeLibp2pKey()
	if err != nil {
		return "", err
	}

	if err := secretsManager.SetSecret(secrets.NetworkKey, encoded); err != nil {
		return "", err
	}

	return peer.IDFromPrivateKey(key)
}

// LoadNodeID returns the libp2p id of the stored network key
func LoadNodeID(secretsManager secrets.SecretsManager) (peer.ID, error) {
	encoded, err := secretsManager.GetSecret(secrets.NetworkKey)
	if err != nil {
		return "", err
	}

	key, err := network.ParseLibp2pKey(encoded)
	if err != nil {
		return "", err
	}

	return peer.IDFromPrivateKey(key)
}

// KeyStore looks up the sync-checkpoint authority key in a secrets manager
type KeyStore struct {
	manager secrets.SecretsManager
}

func NewKeyStore(manager secrets.SecretsManager) *KeyStore {
	return &KeyStore{manager: manager}
}

// GetAuthorityKey returns the stored key if it belongs to the given public key
func (k *KeyStore) GetAuthorityKey(pubKeyHex string) (*btcec.PrivateKey, error) {
	key, err := LoadAuthorityKey(k.manager)
	if err != nil {
		return nil, err
	}

	pub, err := crypto.ParsePublicKeyHex(strings.TrimSpace(pubKeyHex))
	if err != nil {
		return nil, err
	}

	if !key.PubKey().IsEqual(pub) {
		return nil, fmt.Errorf("%w: %s", ErrAuthorityMismatch, pubKeyHex)
	}

	return key, nil
}
