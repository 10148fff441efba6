package gcpssm

import (
	"context"
	"errors"
	"fmt"

	sm "cloud.google.com/go/secretmanager/apiv1"
	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/option"

	"github.com/syncpoint-network/syncpoint/secrets"
)

const (
	projectIDKey  = "project-id"
	credentialKey = "gcp-ssm-cred"
)

var errInvalidConfig = fmt.Errorf("name, %s and %s must be set for gcp-ssm", projectIDKey, credentialKey)

// GcpSsmManager stores the secrets in the Google Cloud Secret Manager
type GcpSsmManager struct {
	logger hclog.Logger

	projectID    string
	credFilePath string

	// nodeName prefixes the secret ids
	nodeName string

	client *sm.Client
}

// SecretsManagerFactory implements the factory method
func SecretsManagerFactory(
	config *secrets.SecretsManagerConfig,
	params *secrets.SecretsManagerParams,
) (secrets.SecretsManager, error) {
	projectID, _ := config.Extra[projectIDKey].(string)
	credFilePath, _ := config.Extra[credentialKey].(string)

	if config.Name == "" || projectID == "" || credFilePath == "" {
		return nil, errInvalidConfig
	}

	gcpSsmManager := &GcpSsmManager{
		logger:       params.Logger.Named(string(secrets.GCPSSM)),
		projectID:    projectID,
		credFilePath: credFilePath,
		nodeName:     config.Name,
	}

	if err := gcpSsmManager.Setup(); err != nil {
		return nil, err
	}

	return gcpSsmManager, nil
}

// Setup creates the client from the credentials file
func (gm *GcpSsmManager) Setup() error {
	client, err := sm.NewClient(context.Background(), option.WithCredentialsFile(gm.credFilePath))
	if err != nil {
		return fmt.Errorf("could not initialize new GCP secrets manager client %w", err)
	}

	gm.client = client

	return nil
}

// GetSecret reads the first version of the secret
func (gm *GcpSsmManager) GetSecret(name string) ([]byte, error) {
	result, err := gm.client.AccessSecretVersion(context.Background(), &smpb.AccessSecretVersionRequest{
		Name: gm.versionName(name),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: could not fetch %s from GCP secret manager: %w", secrets.ErrSecretNotFound, name, err)
	}

	return result.Payload.Data, nil
}

// SetSecret creates the secret and stores the value as its first version
func (gm *GcpSsmManager) SetSecret(name string, value []byte) error {
	ctx := context.Background()

	secret, err := gm.client.CreateSecret(ctx, &smpb.CreateSecretRequest{
		Parent:   fmt.Sprintf("projects/%s", gm.projectID),
		SecretId: gm.secretID(name),
		Secret: &smpb.Secret{
			Replication: &smpb.Replication{
				Replication: &smpb.Replication_Automatic_{
					Automatic: &smpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("could not set secret, %w", err)
	}

	if _, err = gm.client.AddSecretVersion(ctx, &smpb.AddSecretVersionRequest{
		Parent:  secret.Name,
		Payload: &smpb.SecretPayload{Data: value},
	}); err != nil {
		return fmt.Errorf("could not store secret, %w", err)
	}

	return nil
}

// HasSecret checks if the secret is present
func (gm *GcpSsmManager) HasSecret(name string) bool {
	_, err := gm.GetSecret(name)

	return err == nil
}

// RemoveSecret deletes the secret with all its versions
func (gm *GcpSsmManager) RemoveSecret(name string) error {
	if err := gm.client.DeleteSecret(context.Background(), &smpb.DeleteSecretRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s", gm.projectID, gm.secretID(name)),
	}); err != nil {
		return fmt.Errorf("could not delete secret %s from GCP secret manager: %w", name, err)
	}

	return nil
}

// secretID is <node name>_<secret name>
func (gm *GcpSsmManager) secretID(name string) string {
	return fmt.Sprintf("%s_%s", gm.nodeName, name)
}

func (gm *GcpSsmManager) versionName(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/1", gm.projectID, gm.secretID(name))
}

// Close closes the client connection
func (gm *GcpSsmManager) Close() error {
	if gm.client == nil {
		return errors.New("client not initialized")
	}

	return gm.client.Close()
}
