package hashicorpvault

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	vault "github.com/hashicorp/vault/api"

	"github.com/syncpoint-network/syncpoint/secrets"
)

var (
	errNoToken     = errors.New("no token specified for Vault secrets manager")
	errNoServerURL = errors.New("no server URL specified for Vault secrets manager")
	errNoName      = errors.New("no node name specified for Vault secrets manager")
)

// VaultSecretsManager stores the secrets in the KV-2 engine of a Hashicorp Vault server
type VaultSecretsManager struct {
	logger hclog.Logger

	token     string
	serverURL string
	namespace string

	// basePath is secret/data/<node name>
	basePath string

	client *vault.Client
}

// SecretsManagerFactory implements the factory method
func SecretsManagerFactory(
	config *secrets.SecretsManagerConfig,
	params *secrets.SecretsManagerParams,
) (secrets.SecretsManager, error) {
	switch {
	case config.Token == "":
		return nil, errNoToken
	case config.ServerURL == "":
		return nil, errNoServerURL
	case config.Name == "":
		return nil, errNoName
	}

	vaultManager := &VaultSecretsManager{
		logger:    params.Logger.Named(string(secrets.HashicorpVault)),
		token:     config.Token,
		serverURL: config.ServerURL,
		namespace: config.Namespace,
		basePath:  fmt.Sprintf("secret/data/%s", config.Name),
	}

	if err := vaultManager.Setup(); err != nil {
		return nil, err
	}

	return vaultManager, nil
}

// Setup creates the Vault client
func (v *VaultSecretsManager) Setup() error {
	config := vault.DefaultConfig()
	config.Address = v.serverURL

	client, err := vault.NewClient(config)
	if err != nil {
		return fmt.Errorf("unable to initialize Vault client: %w", err)
	}

	client.SetToken(v.token)
	client.SetNamespace(v.namespace)

	v.client = client

	return nil
}

func (v *VaultSecretsManager) secretPath(name string) string {
	return fmt.Sprintf("%s/%s", v.basePath, name)
}

// GetSecret reads the secret from the {"data": {name: value}} KV-2 record
func (v *VaultSecretsManager) GetSecret(name string) ([]byte, error) {
	secret, err := v.client.Logical().Read(v.secretPath(name))
	if err != nil {
		return nil, fmt.Errorf("unable to read secret from Vault, %w", err)
	}

	if secret == nil || secret.Data["data"] == nil {
		return nil, fmt.Errorf("%w: %s", secrets.ErrSecretNotFound, name)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected Vault record type %T", secret.Data["data"])
	}

	value, ok := data[name].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s", secrets.ErrSecretNotFound, name)
	}

	return []byte(value), nil
}

// SetSecret stores the secret, values are kept as strings
func (v *VaultSecretsManager) SetSecret(name string, value []byte) error {
	if _, err := v.GetSecret(name); err == nil {
		v.logger.Warn("overwriting secret", "name", name)
	} else if !errors.Is(err, secrets.ErrSecretNotFound) {
		return err
	}

	_, err := v.client.Logical().Write(v.secretPath(name), map[string]interface{}{
		"data": map[string]string{name: string(value)},
	})
	if err != nil {
		return fmt.Errorf("unable to store secret (%s), %w", name, err)
	}

	return nil
}

// HasSecret checks if the secret is present on the Vault server
func (v *VaultSecretsManager) HasSecret(name string) bool {
	_, err := v.GetSecret(name)

	return err == nil
}

// RemoveSecret deletes the secret from the Vault server
func (v *VaultSecretsManager) RemoveSecret(name string) error {
	if _, err := v.GetSecret(name); err != nil {
		return err
	}

	if _, err := v.client.Logical().Delete(v.secretPath(name)); err != nil {
		return fmt.Errorf("unable to delete secret (%s), %w", name, err)
	}

	return nil
}
