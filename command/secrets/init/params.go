package init

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/command"
	"github.com/syncpoint-network/syncpoint/secrets"
	"github.com/syncpoint-network/syncpoint/secrets/helper"
)

const (
	dataDirFlag   = "data-dir"
	configFlag    = "config"
	authorityFlag = "authority"
	networkFlag   = "network"
)

var (
	params = &initParams{}
)

var (
	errInvalidConfig   = errors.New("invalid secrets configuration")
	errInvalidParams   = errors.New("no config file or data directory passed in")
	errUnsupportedType = errors.New("unsupported secrets manager")
)

type initParams struct {
	dataDir            string
	configPath         string
	generatesAuthority bool
	generatesNetwork   bool

	secretsManager secrets.SecretsManager
	secretsConfig  *secrets.SecretsManagerConfig
}

func (ip *initParams) validateFlags() error {
	if ip.dataDir == "" && ip.configPath == "" {
		return errInvalidParams
	}

	return nil
}

func (ip *initParams) initSecrets() error {
	if err := ip.initSecretsManager(); err != nil {
		return err
	}

	if err := ip.initAuthorityKey(); err != nil {
		return err
	}

	return ip.initNetworkingKey()
}

func (ip *initParams) initSecretsManager() error {
	if ip.hasConfigPath() {
		return ip.initFromConfig()
	}

	return ip.initLocalSecretsManager()
}

func (ip *initParams) hasConfigPath() bool {
	return ip.configPath != ""
}

func (ip *initParams) initFromConfig() error {
	if err := ip.parseConfig(); err != nil {
		return err
	}

	secretsManager, err := helper.SetupSecretsManager(ip.secretsConfig, ip.dataDir, hclog.NewNullLogger())
	if err != nil {
		return err
	}

	ip.secretsManager = secretsManager

	return nil
}

func (ip *initParams) parseConfig() error {
	secretsConfig, readErr := secrets.ReadConfig(ip.configPath)
	if readErr != nil {
		return errInvalidConfig
	}

	if !secrets.SupportedServiceManager(secretsConfig.Type) {
		return errUnsupportedType
	}

	ip.secretsConfig = secretsConfig

	return nil
}

func (ip *initParams) initLocalSecretsManager() error {
	local, err := helper.SetupLocalSecretsManager(ip.dataDir)
	if err != nil {
		return err
	}

	ip.secretsManager = local

	return nil
}

func (ip *initParams) initAuthorityKey() error {
	if !ip.generatesAuthority {
		return nil
	}

	_, err := helper.InitAuthorityKey(ip.secretsManager)

	return err
}

func (ip *initParams) initNetworkingKey() error {
	if !ip.generatesNetwork {
		return nil
	}

	_, err := helper.InitNetworkingPrivateKey(ip.secretsManager)

	return err
}

// getResult gets keys from secret manager and return result to display
func (ip *initParams) getResult() (command.CommandResult, error) {
	var (
		res = &SecretsInitResult{}
		err error
	)

	if res.MasterPubKey, err = loadMasterPubKey(ip.secretsManager); err != nil {
		return nil, err
	}

	if res.NodeID, err = loadNodeID(ip.secretsManager); err != nil {
		return nil, err
	}

	return res, nil
}
