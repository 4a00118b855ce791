package config

import (
	"context"
	"os"
)

// envPrefix namespaces the service's environment variables so they do not
// collide with other processes sharing the environment.
const envPrefix = "OQG_"

// EnvProvider retrieves secrets from environment variables
type EnvProvider struct{}

// NewEnvProvider creates a new environment variable provider
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// GetSecret reads the prefixed variable first (OQG_DB_PASSWORD), then the
// plain name (DB_PASSWORD).
func (e *EnvProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value, nil
	}
	return os.Getenv(key), nil
}

// Name returns the provider name
func (e *EnvProvider) Name() string {
	return "env"
}

// IsAvailable always returns true as env vars are always available
func (e *EnvProvider) IsAvailable(ctx context.Context) bool {
	return true
}
