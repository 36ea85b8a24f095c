package config

import (
	"context"
	"fmt"
	"os"
)

// SecretStore resolves secret values at startup. The environment-backed store
// is the default; deployments with a secrets manager provide their own.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key string, fallback string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

// NewEnvironmentSecretStore returns a SecretStore backed by os.Getenv.
func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

// Get returns the secret value or an error when the variable is unset.
func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s not found in environment", key)
	}
	return value, nil
}

// GetWithDefault returns the secret value, or fallback when unset.
func (s *EnvironmentSecretStore) GetWithDefault(_ context.Context, key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

var _ SecretStore = (*EnvironmentSecretStore)(nil)
