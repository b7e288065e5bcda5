package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"witsbot/pkg/config"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{Email: "analyst@example.org", Password: "s3cret-portal-pass"}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero(), "Store stamps LastModified")

	retrieved, err := manager.Retrieve("analyst@example.org")
	require.NoError(t, err)
	assert.Equal(t, account.Email, retrieved.Email)
	assert.Equal(t, account.Password, retrieved.Password)

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("analyst@example.org"))
	_, err = manager.Retrieve("analyst@example.org")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Zero(t, mockStore.Count())

	assert.ErrorIs(t, manager.Delete("analyst@example.org"), ErrCredentialsNotFound)
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.ErrorContains(t, manager.Store(&Account{Password: "x"}), "email is required")
	assert.ErrorContains(t, manager.Store(&Account{Email: "a@b.c"}), "password is required")
	assert.Error(t, manager.Store(nil))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keyring locked")
	backup := NewMockStore()
	manager := NewManagerWithStores(broken, backup)

	require.NoError(t, manager.Store(&Account{Email: "a@b.c", Password: "pw"}))
	assert.Zero(t, broken.Count())
	assert.True(t, backup.Exists("a@b.c"))

	backup.StoreError = errors.New("disk full")
	err := manager.Store(&Account{Email: "d@e.f", Password: "pw"})
	assert.ErrorContains(t, err, "disk full")
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()
	require.NoError(t, older.Store(&Account{Email: "a@b.c", Password: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Account{Email: "a@b.c", Password: "new", LastModified: now}))
	require.NoError(t, older.Store(&Account{Email: "z@b.c", Password: "pw", LastModified: now.Add(-2 * time.Hour)}))

	accounts, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a@b.c", accounts[0].Email)
	assert.Equal(t, "new", accounts[0].Password)
	assert.Equal(t, "z@b.c", accounts[1].Email)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Email: "analyst@example.org", Password: "correct-horse-battery"}
	sanitized := SanitizeAccount(account)

	assert.Equal(t, account.Email, sanitized.Email)
	assert.Equal(t, "co****ry", sanitized.Password)
	assert.Equal(t, "********", MaskSecret("short"))
	assert.Empty(t, MaskSecret(""))
	assert.Nil(t, SanitizeAccount(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")
	store, err := NewEncryptedFileStoreWithPassphrase(path, "test_passphrase_123")
	require.NoError(t, err)

	account := &Account{Email: "analyst@example.org", Password: "portal-password-42"}
	require.NoError(t, store.Store(account))
	require.NoError(t, store.Store(&Account{Email: "second@example.org", Password: "another-pass"}))

	retrieved, err := store.Retrieve("analyst@example.org")
	require.NoError(t, err)
	assert.Equal(t, account.Password, retrieved.Password)
	assert.True(t, store.Exists("second@example.org"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "portal-password-42")
	assert.NotContains(t, string(content), "analyst@example.org")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	wrong, err := NewEncryptedFileStoreWithPassphrase(path, "not-the-passphrase")
	require.NoError(t, err)
	_, err = wrong.Retrieve("analyst@example.org")
	assert.ErrorContains(t, err, "wrong passphrase")

	require.NoError(t, store.Delete("analyst@example.org"))
	require.NoError(t, store.Delete("second@example.org"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file removed with its last account")
	assert.ErrorIs(t, store.Delete("second@example.org"), ErrCredentialsNotFound)
}

func TestEncryptedFileStorePassphrase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	t.Setenv(EnvPassphrase, "")
	first, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Store(&Account{Email: "a@b.c", Password: "pw"}))

	_, err = os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err, "generated passphrase is kept next to the store")

	second, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	account, err := second.Retrieve("a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "pw", account.Password)

	t.Setenv(EnvPassphrase, "from-env")
	fromEnv, err := NewEncryptedFileStore(filepath.Join(dir, "other.enc"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", fromEnv.passphrase)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(EnvEmail, "env@example.org")
	t.Setenv(EnvPassword, "env-password")
	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "env@example.org", account.Email)
	assert.Equal(t, "env-password", account.Password)

	_, err = store.Retrieve("someone@else.org")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.True(t, store.Exists("env@example.org"))
	assert.ErrorIs(t, store.Store(&Account{}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("env@example.org"), ErrStoreUnavailable)

	t.Setenv(EnvPassword, "")
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Email: "b@example.org", Password: "pw-b"}))
	require.NoError(t, store.Store(&Account{Email: "a@example.org", Password: "pw-a"}))

	account, err := store.Retrieve("a@example.org")
	require.NoError(t, err)
	assert.Equal(t, "pw-a", account.Password)
	assert.True(t, store.Exists("b@example.org"))

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a@example.org", accounts[0].Email)

	require.NoError(t, store.Delete("a@example.org"))
	require.NoError(t, store.Delete("b@example.org"))
	assert.ErrorIs(t, store.Delete("b@example.org"), ErrCredentialsNotFound)

	accounts, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestResolve(t *testing.T) {
	manager, _ := NewMockManager()
	require.NoError(t, manager.Store(&Account{Email: "saved@example.org", Password: "saved-pw"}))

	t.Run("config credentials win", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Credentials = config.CredentialsConfig{Email: "cfg@example.org", Password: "cfg-pw"}
		require.NoError(t, Resolve(cfg, manager))
		assert.Equal(t, "cfg@example.org", cfg.Credentials.Email)
	})

	t.Run("email only looks up saved password", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Credentials.Email = "saved@example.org"
		require.NoError(t, Resolve(cfg, manager))
		assert.Equal(t, "saved-pw", cfg.Credentials.Password)
	})

	t.Run("falls back to default account", func(t *testing.T) {
		cfg := config.DefaultConfig()
		require.NoError(t, Resolve(cfg, manager))
		assert.Equal(t, "saved@example.org", cfg.Credentials.Email)
	})

	t.Run("nothing saved", func(t *testing.T) {
		empty, _ := NewMockManager()
		cfg := config.DefaultConfig()
		cfg.Credentials.Email = "unknown@example.org"
		err := Resolve(cfg, empty)
		assert.ErrorIs(t, err, ErrCredentialsNotFound)
		assert.Empty(t, cfg.Credentials.Password)
	})
}

func TestShowCredentialHelp(t *testing.T) {
	var buf bytes.Buffer
	ShowCredentialHelp(&buf)
	assert.Contains(t, buf.String(), EnvEmail)
	assert.Contains(t, buf.String(), "witsbot auth login")
}
