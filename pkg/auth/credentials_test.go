package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory CredentialStore for manager tests
type memoryStore struct {
	creds    map[string]*Credential
	readOnly bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{creds: make(map[string]*Credential)}
}

func (m *memoryStore) Store(cred *Credential) error {
	if m.readOnly {
		return ErrStoreUnavailable
	}
	if cred == nil || cred.Name == "" {
		return ErrInvalidCredentials
	}
	copied := *cred
	m.creds[cred.Name] = &copied
	return nil
}

func (m *memoryStore) Retrieve(name string) (*Credential, error) {
	cred, ok := m.creds[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return cred, nil
}

func (m *memoryStore) Delete(name string) error {
	if _, ok := m.creds[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.creds, name)
	return nil
}

func (m *memoryStore) Exists(name string) bool {
	_, ok := m.creds[name]
	return ok
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	store := newMemoryStore()
	m := &Manager{stores: []CredentialStore{store}}

	require.NoError(t, m.Store(&Credential{Key: "abc123"}))

	cred, err := m.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, cred.Name)
	assert.Equal(t, "abc123", cred.Key)
	assert.False(t, cred.LastModified.IsZero())
}

func TestManagerRejectsEmptyKey(t *testing.T) {
	m := &Manager{stores: []CredentialStore{newMemoryStore()}}

	assert.ErrorIs(t, m.Store(&Credential{}), ErrInvalidCredentials)
	assert.ErrorIs(t, m.Store(nil), ErrInvalidCredentials)
}

func TestManagerFallsThroughStores(t *testing.T) {
	full := newMemoryStore()
	require.NoError(t, full.Store(&Credential{Name: DefaultName, Key: "from-first"}))
	full.readOnly = true

	second := newMemoryStore()
	m := &Manager{stores: []CredentialStore{full, second}}

	// Writes land in the first store that accepts them.
	require.NoError(t, m.Store(&Credential{Name: "other", Key: "xyz"}))
	assert.True(t, second.Exists("other"))

	// Reads consult stores in order.
	cred, err := m.Retrieve(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, "from-first", cred.Key)
}

func TestManagerDelete(t *testing.T) {
	store := newMemoryStore()
	m := &Manager{stores: []CredentialStore{store}}

	require.NoError(t, m.Store(&Credential{Key: "abc"}))
	require.NoError(t, m.Delete(""))
	assert.False(t, store.Exists(DefaultName))

	assert.ErrorContains(t, m.Delete("missing"), "credentials not found")
}

func TestManagerResolveKey(t *testing.T) {
	store := newMemoryStore()
	m := &Manager{stores: []CredentialStore{store}}

	assert.Empty(t, m.ResolveKey())

	require.NoError(t, m.Store(&Credential{Key: "resolved"}))
	assert.Equal(t, "resolved", m.ResolveKey())
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Run("no key set", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		_, err := store.Retrieve(DefaultName)
		assert.ErrorIs(t, err, ErrCredentialsNotFound)
		assert.False(t, store.Exists(DefaultName))
	})

	t.Run("key set", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "env-key")
		cred, err := store.Retrieve("")
		require.NoError(t, err)
		assert.Equal(t, "env-key", cred.Key)
		assert.Equal(t, DefaultName, cred.Name)
		assert.True(t, store.Exists(DefaultName))
	})

	t.Run("read only", func(t *testing.T) {
		assert.ErrorIs(t, store.Store(&Credential{Key: "x"}), ErrStoreUnavailable)
		assert.ErrorIs(t, store.Delete(DefaultName), ErrStoreUnavailable)
	})
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("PUBPROXY_PASSPHRASE", "test-passphrase")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	t.Run("retrieve before any store", func(t *testing.T) {
		_, err := store.Retrieve(DefaultName)
		assert.ErrorIs(t, err, ErrCredentialsNotFound)
	})

	t.Run("roundtrip", func(t *testing.T) {
		require.NoError(t, store.Store(&Credential{Name: DefaultName, Key: "secret-key"}))

		cred, err := store.Retrieve(DefaultName)
		require.NoError(t, err)
		assert.Equal(t, "secret-key", cred.Key)
		assert.True(t, store.Exists(DefaultName))
	})

	t.Run("ciphertext does not leak the key", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "secret-key")
	})

	t.Run("reopen with same passphrase", func(t *testing.T) {
		reopened, err := NewEncryptedFileStore(path)
		require.NoError(t, err)

		cred, err := reopened.Retrieve(DefaultName)
		require.NoError(t, err)
		assert.Equal(t, "secret-key", cred.Key)
	})

	t.Run("wrong passphrase fails to decrypt", func(t *testing.T) {
		t.Setenv("PUBPROXY_PASSPHRASE", "different")
		wrong, err := NewEncryptedFileStore(path)
		require.NoError(t, err)

		_, err = wrong.Retrieve(DefaultName)
		assert.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(DefaultName))
		assert.False(t, store.Exists(DefaultName))
		assert.ErrorIs(t, store.Delete(DefaultName), ErrCredentialsNotFound)
	})
}

func TestEncryptedFileStoreGeneratedPassphrase(t *testing.T) {
	t.Setenv("PUBPROXY_PASSPHRASE", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credential{Name: DefaultName, Key: "generated"}))

	// The generated passphrase is persisted, so a fresh store instance
	// can still decrypt.
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	cred, err := reopened.Retrieve(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, "generated", cred.Key)
}
