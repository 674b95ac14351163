package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultName is the credential name used when the caller does not
// manage multiple keys
const DefaultName = "default"

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// Credential is a stored pubproxy API key
type Credential struct {
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving API keys
type CredentialStore interface {
	// Store saves a credential
	Store(cred *Credential) error

	// Retrieve gets the credential with the given name
	Retrieve(name string) (*Credential, error)

	// Delete removes the credential with the given name
	Delete(name string) error

	// Exists checks if a credential with the given name is stored
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager backed by the system keychain
// when available, an encrypted file otherwise, with environment
// variables as the read-only last resort.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Add environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a credential using the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Key == "" {
		return ErrInvalidCredentials
	}
	if cred.Name == "" {
		cred.Name = DefaultName
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the named credential from the first store that has it
func (m *Manager) Retrieve(name string) (*Credential, error) {
	if name == "" {
		name = DefaultName
	}

	for _, store := range m.stores {
		if cred, err := store.Retrieve(name); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// Delete removes the named credential from every store that has it
func (m *Manager) Delete(name string) error {
	if name == "" {
		name = DefaultName
	}

	deleted := false
	for _, store := range m.stores {
		if store.Exists(name) {
			if err := store.Delete(name); err == nil {
				deleted = true
			}
		}
	}

	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}
	return nil
}

// ResolveKey returns the default stored API key, or an empty string
// when none is stored anywhere
func (m *Manager) ResolveKey() string {
	cred, err := m.Retrieve(DefaultName)
	if err != nil {
		return ""
	}
	return cred.Key
}

// getConfigDir returns the directory for pubproxy configuration files
func getConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(base, "pubproxy")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
