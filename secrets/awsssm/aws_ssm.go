package awsssm

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/secrets"
)

const (
	regionKey        = "region"
	parameterPathKey = "ssm-parameter-path"
)

var (
	errNoName  = errors.New("no node name specified for AWS SSM secrets manager")
	errNoExtra = fmt.Errorf("required extra map containing '%s' and '%s' not found for aws-ssm", regionKey, parameterPathKey)
)

// AwsSsmManager stores the secrets as SecureString parameters of the SSM Parameter Store
type AwsSsmManager struct {
	logger hclog.Logger

	region string
	client *ssm.SSM

	// basePath is <ssm-parameter-path>/<node name>
	basePath string
}

// SecretsManagerFactory implements the factory method
func SecretsManagerFactory(
	config *secrets.SecretsManagerConfig,
	params *secrets.SecretsManagerParams,
) (secrets.SecretsManager, error) {
	if config.Name == "" {
		return nil, errNoName
	}

	if config.Extra == nil || config.Extra[regionKey] == nil || config.Extra[parameterPathKey] == nil {
		return nil, errNoExtra
	}

	awsSsmManager := &AwsSsmManager{
		logger:   params.Logger.Named(string(secrets.AWSSSM)),
		region:   fmt.Sprintf("%v", config.Extra[regionKey]),
		basePath: fmt.Sprintf("%v/%s", config.Extra[parameterPathKey], config.Name),
	}

	if err := awsSsmManager.Setup(); err != nil {
		return nil, err
	}

	return awsSsmManager, nil
}

// Setup creates the SSM client from the shared AWS configuration
func (a *AwsSsmManager) Setup() error {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(a.region)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize AWS SSM client: %w", err)
	}

	a.client = ssm.New(sess, aws.NewConfig().WithRegion(a.region))

	return nil
}

func (a *AwsSsmManager) secretPath(name string) string {
	return fmt.Sprintf("%s/%s", a.basePath, name)
}

// GetSecret fetches and decrypts the parameter
func (a *AwsSsmManager) GetSecret(name string) ([]byte, error) {
	param, err := a.client.GetParameter(&ssm.GetParameterInput{
		Name:           aws.String(a.secretPath(name)),
		WithDecryption: aws.Bool(true),
	})
	if err != nil || param == nil || param.Parameter == nil || param.Parameter.Value == nil {
		a.logger.Debug("parameter not available", "name", name, "err", err)

		return nil, fmt.Errorf("%w: %s", secrets.ErrSecretNotFound, name)
	}

	return []byte(*param.Parameter.Value), nil
}

// SetSecret stores the secret, existing parameters are never overwritten
func (a *AwsSsmManager) SetSecret(name string, value []byte) error {
	if _, err := a.client.PutParameter(&ssm.PutParameterInput{
		Name:      aws.String(a.secretPath(name)),
		Value:     aws.String(string(value)),
		Type:      aws.String(ssm.ParameterTypeSecureString),
		Overwrite: aws.Bool(false),
	}); err != nil {
		return fmt.Errorf("unable to store secret (%s), %w", name, err)
	}

	return nil
}

// HasSecret checks if the parameter is present
func (a *AwsSsmManager) HasSecret(name string) bool {
	_, err := a.GetSecret(name)

	return err == nil
}

// RemoveSecret deletes the parameter
func (a *AwsSsmManager) RemoveSecret(name string) error {
	if _, err := a.GetSecret(name); err != nil {
		return err
	}

	if _, err := a.client.DeleteParameter(&ssm.DeleteParameterInput{
		Name: aws.String(a.secretPath(name)),
	}); err != nil {
		return fmt.Errorf("unable to delete secret (%s), %w", name, err)
	}

	return nil
}
