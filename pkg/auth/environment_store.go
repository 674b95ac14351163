package auth

import (
	"os"
	"time"
)

// EnvAPIKey is the environment variable holding the fallback API key
const EnvAPIKey = "PUBPROXY_API_KEY"

// EnvironmentStore implements CredentialStore using environment
// variables. It is read-only and exists so a key exported in the shell
// keeps working without any stored credential.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the API key from the environment
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	key := os.Getenv(EnvAPIKey)
	if key == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultName
	}

	return &Credential{
		Name:         name,
		Key:          key,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment credential is set
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvAPIKey) != ""
}
