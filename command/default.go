package command

const (
	JSONOutputFlag = "json"
	DataDirFlag    = "data-dir"
	ChainFlag      = "chain"
	LogLevelFlag   = "log-level"
	NoDiscoverFlag = "no-discover"
	BootnodeFlag   = "bootnode"
	MasterKeyFlag  = "master-key"
	ConfigFlag     = "config"
)

const (
	DefaultChainName = "mainnet"
)
