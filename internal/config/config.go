package config

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
}

type mainConfig struct {
	EnvVars
	API
	Store
}

func New() Config {
	return mainConfig{}
}
