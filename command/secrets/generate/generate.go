package generate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/command"
	"github.com/syncpoint-network/syncpoint/command/helper"
	"github.com/syncpoint-network/syncpoint/secrets"
)

const (
	dirFlag        = "dir"
	tokenFlag      = "token"
	serverURLFlag  = "server-url"
	typeFlag       = "type"
	nameFlag       = "name"
	namespaceFlag  = "namespace"
	extraFlag      = "extra"
	defaultDirPath = "./secretsManagerConfig.json"
)

var (
	params = &generateParams{}

	errUnsupportedType = errors.New("unsupported service manager type")
	errInvalidExtra    = errors.New("extra values must be key=value pairs")
)

type generateParams struct {
	dir         string
	token       string
	serverURL   string
	serviceType string
	name        string
	namespace   string
	extra       []string
}

func GetCommand() *cobra.Command {
	secretsGenerateCmd := &cobra.Command{
		Use:     "generate",
		Short:   "Initializes the secrets manager configuration in the provided directory.",
		PreRunE: runPreRun,
		Run:     runCommand,
	}

	setFlags(secretsGenerateCmd)

	return secretsGenerateCmd
}

func setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&params.dir, dirFlag, defaultDirPath, "the directory for the secrets manager configuration file")
	cmd.Flags().StringVar(&params.token, tokenFlag, "", "the access token for the service")
	cmd.Flags().StringVar(&params.serverURL, serverURLFlag, "", "the server URL for the service")
	cmd.Flags().StringVar(
		&params.serviceType,
		typeFlag,
		string(secrets.HashicorpVault),
		fmt.Sprintf(
			"the type of the secrets manager: %s, %s or %s",
			secrets.HashicorpVault, secrets.AWSSSM, secrets.GCPSSM,
		),
	)
	cmd.Flags().StringVar(&params.name, nameFlag, "", "the name of the node for on-service record keeping")
	cmd.Flags().StringVar(&params.namespace, namespaceFlag, "admin", "the namespace for the service")
	cmd.Flags().StringArrayVar(&params.extra, extraFlag, nil, "extra service specific params as key=value")

	_ = cmd.MarkFlagRequired(nameFlag)
}

func runPreRun(_ *cobra.Command, _ []string) error {
	if !secrets.SupportedServiceManager(secrets.SecretsManagerType(params.serviceType)) {
		return errUnsupportedType
	}

	return nil
}

func (p *generateParams) config() (*secrets.SecretsManagerConfig, error) {
	extra := make(map[string]interface{}, len(p.extra))

	for _, kv := range p.extra {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidExtra, kv)
		}

		extra[key] = value
	}

	return &secrets.SecretsManagerConfig{
		Token:     p.token,
		ServerURL: p.serverURL,
		Type:      secrets.SecretsManagerType(p.serviceType),
		Name:      p.name,
		Namespace: p.namespace,
		Extra:     extra,
	}, nil
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	config, err := params.config()
	if err != nil {
		outputter.SetError(err)

		return
	}

	if err := config.WriteConfig(params.dir); err != nil {
		outputter.SetError(fmt.Errorf("unable to write configuration file, %w", err))

		return
	}

	outputter.SetCommandResult(&GenerateResult{
		ServiceType: params.serviceType,
		ServerURL:   params.serverURL,
		Name:        params.name,
		Namespace:   params.namespace,
		Path:        params.dir,
	})
}

type GenerateResult struct {
	ServiceType string `json:"service_type"`
	ServerURL   string `json:"server_url"`
	Name        string `json:"name"`
	Namespace   string `json:"namespace"`
	Path        string `json:"path"`
}

func (r *GenerateResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[SECRETS GENERATE]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Service Type|%s", r.ServiceType),
		fmt.Sprintf("Server URL|%s", r.ServerURL),
		fmt.Sprintf("Node Name|%s", r.Name),
		fmt.Sprintf("Namespace|%s", r.Namespace),
		fmt.Sprintf("Config|%s", r.Path),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
