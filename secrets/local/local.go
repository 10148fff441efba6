package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/helper/common"
	"github.com/syncpoint-network/syncpoint/secrets"
)

// LocalSecretsManager is a SecretsManager that
// stores secrets locally on disk
type LocalSecretsManager struct {
	logger hclog.Logger

	// Path to the base working directory
	path string

	// Map of known secrets and their paths
	secretPathMap     map[string]string
	secretPathMapLock sync.RWMutex
}

// SecretsManagerFactory implements the factory method
func SecretsManagerFactory(
	_ *secrets.SecretsManagerConfig,
	params *secrets.SecretsManagerParams,
) (secrets.SecretsManager, error) {
	path, ok := params.Extra[secrets.Path]
	if !ok {
		return nil, errors.New("no path specified for local secrets manager")
	}

	basePath, ok := path.(string)
	if !ok {
		return nil, errors.New("invalid type assertion")
	}

	localManager := &LocalSecretsManager{
		logger:        params.Logger.Named(string(secrets.Local)),
		path:          basePath,
		secretPathMap: make(map[string]string),
	}

	if err := localManager.Setup(); err != nil {
		return nil, err
	}

	return localManager, nil
}

// Setup creates the key directories and registers the paths of the known secrets
func (l *LocalSecretsManager) Setup() error {
	l.secretPathMapLock.Lock()
	defer l.secretPathMapLock.Unlock()

	subDirectories := []string{secrets.CheckpointFolderLocal, secrets.NetworkFolderLocal}

	if err := common.SetupDataDir(l.path, subDirectories); err != nil {
		return err
	}

	// baseDir/checkpoint/authority.key
	l.secretPathMap[secrets.AuthorityKey] = filepath.Join(
		l.path,
		secrets.CheckpointFolderLocal,
		secrets.AuthorityKeyLocal,
	)

	// baseDir/libp2p/libp2p.key
	l.secretPathMap[secrets.NetworkKey] = filepath.Join(
		l.path,
		secrets.NetworkFolderLocal,
		secrets.NetworkKeyLocal,
	)

	return nil
}

func (l *LocalSecretsManager) secretPath(name string) (string, error) {
	l.secretPathMapLock.RLock()
	defer l.secretPathMapLock.RUnlock()

	secretPath, ok := l.secretPathMap[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown secret %s", secrets.ErrSecretNotFound, name)
	}

	return secretPath, nil
}

// GetSecret reads the secret from disk
func (l *LocalSecretsManager) GetSecret(name string) ([]byte, error) {
	secretPath, err := l.secretPath(name)
	if err != nil {
		return nil, err
	}

	secret, err := os.ReadFile(secretPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", secrets.ErrSecretNotFound, secretPath)
		}

		return nil, fmt.Errorf("unable to read secret from disk (%s), %w", secretPath, err)
	}

	return secret, nil
}

// SetSecret writes the secret to disk, existing secrets are never overwritten
func (l *LocalSecretsManager) SetSecret(name string, value []byte) error {
	secretPath, err := l.secretPath(name)
	if err != nil {
		return err
	}

	if common.FileExists(secretPath) {
		return fmt.Errorf("%w: %s", secrets.ErrSecretAlreadyExists, secretPath)
	}

	if err := os.WriteFile(secretPath, value, 0600); err != nil {
		return fmt.Errorf("unable to write secret to disk (%s), %w", secretPath, err)
	}

	l.logger.Debug("secret written", "name", name, "path", secretPath)

	return nil
}

// HasSecret checks if the secret is present on disk
func (l *LocalSecretsManager) HasSecret(name string) bool {
	_, err := l.GetSecret(name)

	return err == nil
}

// RemoveSecret removes the secret from disk
func (l *LocalSecretsManager) RemoveSecret(name string) error {
	secretPath, err := l.secretPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(secretPath); err != nil {
		return fmt.Errorf("unable to remove secret, %w", err)
	}

	return nil
}
