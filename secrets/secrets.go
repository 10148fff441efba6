package secrets

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Define constant names for available secrets
const (
	// AuthorityKey is the hex encoded private key of the sync-checkpoint authority
	AuthorityKey = "sync-checkpoint-authority-key"

	// NetworkKey is the libp2p private key secret used for networking
	NetworkKey = "network-key"
)

// Define constant file names for the local StorageManager
const (
	AuthorityKeyLocal = "authority.key"
	NetworkKeyLocal   = "libp2p.key"
)

// Define constant folder names for the local StorageManager
const (
	CheckpointFolderLocal = "checkpoint"
	NetworkFolderLocal    = "libp2p"
)

var (
	// ErrSecretNotFound is returned when the secret is not present in the manager
	ErrSecretNotFound = errors.New("secret not found")

	// ErrSecretAlreadyExists is returned when a secret would be overwritten
	ErrSecretAlreadyExists = errors.New("secret already initialized")
)

// SecretsManagerType defines the type of the secrets manager
type SecretsManagerType string

// Define constant types of secrets managers
const (
	// Local pertains to the local FS [Default]
	Local SecretsManagerType = "local"

	// HashicorpVault pertains to the Hashicorp Vault server
	HashicorpVault SecretsManagerType = "hashicorp-vault"

	// AWSSSM pertains to AWS SSM using Parameter Store
	AWSSSM SecretsManagerType = "aws-ssm"

	// GCPSSM pertains to the Google Cloud Platform Secret Manager
	GCPSSM SecretsManagerType = "gcp-ssm"
)

// SecretsManager defines the base public interface that all
// secret manager implementations should have
type SecretsManager interface {
	// Setup performs secret manager-specific setup
	Setup() error

	// GetSecret gets the secret by name
	GetSecret(name string) ([]byte, error)

	// SetSecret sets the secret to a provided value
	SetSecret(name string, value []byte) error

	// HasSecret checks if the secret is present
	HasSecret(name string) bool

	// RemoveSecret removes the secret from storage
	RemoveSecret(name string) error
}

// SecretsManagerParams defines the configuration params for the
// secrets manager
type SecretsManagerParams struct {
	// Local logger object
	Logger hclog.Logger

	// Extra contains additional data needed for the SecretsManager to function
	Extra map[string]interface{}
}

// SecretsManagerConfig is the configuration that gets
// written to a single configuration file
type SecretsManagerConfig struct {
	Token     string                 `json:"token"`      // Access token to the instance
	ServerURL string                 `json:"server_url"` // The URL of the running server
	Type      SecretsManagerType     `json:"type"`       // The type of SecretsManager
	Name      string                 `json:"name"`       // The name of the current node
	Namespace string                 `json:"namespace"`  // The namespace of the service
	Extra     map[string]interface{} `json:"extra"`      // Any kind of arbitrary data
}

// SecretsManagerFactory is the factory method for secrets managers
type SecretsManagerFactory func(
	config *SecretsManagerConfig,
	params *SecretsManagerParams,
) (SecretsManager, error)

// Path is the key of the base directory in SecretsManagerParams.Extra
const Path = "path"

// SupportedServiceManager checks if the passed in service manager type is supported
func SupportedServiceManager(service SecretsManagerType) bool {
	return service == HashicorpVault ||
		service == AWSSSM ||
		service == GCPSSM ||
		service == Local
}

// WriteConfig writes the current configuration to the specified path
func (c *SecretsManagerConfig) WriteConfig(path string) error {
	jsonBytes, _ := json.MarshalIndent(c, "", " ")

	return os.WriteFile(path, jsonBytes, 0600)
}

// ReadConfig reads the SecretsManagerConfig from the specified path
func ReadConfig(path string) (*SecretsManagerConfig, error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &SecretsManagerConfig{}

	if unmarshalErr := json.Unmarshal(configFile, config); unmarshalErr != nil {
		return nil, unmarshalErr
	}

	return config, nil
}
