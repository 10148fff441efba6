package init

import (
	"github.com/syncpoint-network/syncpoint/crypto"
	"github.com/syncpoint-network/syncpoint/secrets"
	"github.com/syncpoint-network/syncpoint/secrets/helper"
)

// loadMasterPubKey returns the public key of the stored authority key, if any
func loadMasterPubKey(secretsManager secrets.SecretsManager) (string, error) {
	if !secretsManager.HasSecret(secrets.AuthorityKey) {
		return "", nil
	}

	key, err := helper.LoadAuthorityKey(secretsManager)
	if err != nil {
		return "", err
	}

	return crypto.PublicKeyHex(key.PubKey()), nil
}

// loadNodeID returns the libp2p id of the stored network key, if any
func loadNodeID(secretsManager secrets.SecretsManager) (string, error) {
	if !secretsManager.HasSecret(secrets.NetworkKey) {
		return "", nil
	}

	nodeID, err := helper.LoadNodeID(secretsManager)
	if err != nil {
		return "", err
	}

	return nodeID.String(), nil
}
