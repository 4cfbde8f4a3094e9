package config

type StoreConfig interface {
	GetCredentialFile() string
	GetRedisAddr() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (s Store) GetCredentialFile() string {
	return EnvVars{}.GetDataDir() + "/credentials"
}

// GetRedisAddr returns the redis address for shared-kiosk deployments.
// Empty means the file-backed store is used instead.
func (Store) GetRedisAddr() string {
	return GetEnv(redisVar, "")
}
