package config

import (
	"os"
)

const (
	appNameVar  = "APP_NAME"
	baseURLVar  = "CLINIC_API_URL"
	dataDirVar  = "CLINIC_DATA_DIR"
	redisVar    = "CLINIC_REDIS_ADDR"
	logLevelVar = "LOG_LEVEL"
)

type EnvConfig interface {
	GetAppName() string
	GetDataDir() string
	GetLogLevel() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Clinic Client")
}

func (EnvVars) GetDataDir() string {
	if dir := GetEnv(dataDirVar, ""); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return home + "/.clinicclient"
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
