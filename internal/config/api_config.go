package config

import (
	"time"
)

type APIConfig interface {
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetBaseURL returns the base URL of the clinic API (e.g. "https://api.vetwell.example")
func (API) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (API) GetHTTPTimeout() time.Duration {
	return 30 * time.Second
}
