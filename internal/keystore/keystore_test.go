package keystore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"taskdesk/internal/keystore"
)

func exerciseStore(t *testing.T, s keystore.Store) {
	t.Helper()

	_, ok, err := s.Get(keystore.CredentialKey)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(keystore.CredentialKey, "first"))
	require.NoError(t, s.Set(keystore.CredentialKey, "second"))

	v, ok, err := s.Get(keystore.CredentialKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", v)

	require.NoError(t, s.Delete(keystore.CredentialKey))
	_, ok, err = s.Get(keystore.CredentialKey)
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting an absent key is not an error.
	require.NoError(t, s.Delete(keystore.CredentialKey))
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, keystore.NewFileStore(t.TempDir()))
}

func TestFileStore_Permissions(t *testing.T) {
	s := keystore.NewFileStore(t.TempDir())
	require.NoError(t, s.Set(keystore.CredentialKey, "abc"))

	info, err := os.Stat(s.Path(keystore.CredentialKey))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_MissingDir(t *testing.T) {
	s := keystore.NewFileStore(filepath.Join(t.TempDir(), "missing"))

	_, ok, err := s.Get(keystore.CredentialKey)
	require.NoError(t, err)
	require.False(t, ok)
	require.Error(t, s.Set(keystore.CredentialKey, "abc"))
}

func TestFileStore_BlankFileIsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keystore.CredentialKey), []byte("\n"), 0600))

	_, ok, err := keystore.NewFileStore(dir).Get(keystore.CredentialKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s := keystore.NewFileStore(t.TempDir())
	require.Error(t, s.Set("../escape", "x"))
	require.Error(t, s.Delete(""))
}

func TestSQLiteStore(t *testing.T) {
	s, err := keystore.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := keystore.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(keystore.CredentialKey, "persisted"))
	require.NoError(t, s.Close())

	s, err = keystore.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	v, ok, err := s.Get(keystore.CredentialKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persisted", v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, keystore.NewMemoryStore())
}
