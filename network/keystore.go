package network

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/syncpoint-network/syncpoint/helper/hex"
	"github.com/syncpoint-network/syncpoint/secrets"
)

// ReadLibp2pKey reads the networking key from the secrets manager
func ReadLibp2pKey(manager secrets.SecretsManager) (crypto.PrivKey, error) {
	libp2pKey, err := manager.GetSecret(secrets.NetworkKey)
	if err != nil {
		return nil, err
	}

	return ParseLibp2pKey(libp2pKey)
}

// GenerateAndEncodeLibp2pKey generates a new networking key and its hex encoding
func GenerateAndEncodeLibp2pKey() (crypto.PrivKey, []byte, error) {
	priv, _, err := crypto.GenerateKeyPair(crypto.Secp256k1, 256)
	if err != nil {
		return nil, nil, err
	}

	buf, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, nil, err
	}

	return priv, []byte(hex.EncodeToString(buf)), nil
}

// ParseLibp2pKey decodes a hex encoded networking key
func ParseLibp2pKey(key []byte) (crypto.PrivKey, error) {
	buf, err := hex.DecodeString(string(key))
	if err != nil {
		return nil, err
	}

	libp2pKey, err := crypto.UnmarshalPrivateKey(buf)
	if err != nil {
		return nil, err
	}

	return libp2pKey, nil
}

// setupLibp2pKey reads the networking key, generating and storing it on first use
func setupLibp2pKey(manager secrets.SecretsManager) (crypto.PrivKey, error) {
	if manager.HasSecret(secrets.NetworkKey) {
		key, err := ReadLibp2pKey(manager)
		if err != nil {
			return nil, fmt.Errorf("unable to read networking private key from Secrets Manager, %w", err)
		}

		return key, nil
	}

	key, encoded, err := GenerateAndEncodeLibp2pKey()
	if err != nil {
		return nil, fmt.Errorf("unable to generate networking private key for Secrets Manager, %w", err)
	}

	if err := manager.SetSecret(secrets.NetworkKey, encoded); err != nil {
		return nil, fmt.Errorf("unable to store networking private key to Secrets Manager, %w", err)
	}

	return key, nil
}
