package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
	"github.com/sotaychohdv/hdv-functions/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		require.NotNil(t, store)
	})
	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports", "guides")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		require.True(t, info.IsDir())
	})
	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		require.Error(t, err)
	})
	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		require.Error(t, err)
	})
}

func TestPutObject(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)
	ctx := context.Background()

	uri, err := store.PutObject(ctx, "guides/46/2025-03-10.json", "application/json", []byte(`{"guides":[]}`))
	require.NoError(t, err)
	require.Equal(t, "file://"+filepath.Join(tempDir, "guides/46/2025-03-10.json"), uri)
	// #nosec G304 -- test reads from the controlled temp directory.
	got, err := os.ReadFile(filepath.Join(tempDir, "guides/46/2025-03-10.json"))
	require.NoError(t, err)
	require.Equal(t, `{"guides":[]}`, string(got))

	_, err = store.PutObject(ctx, "guides/46/2025-03-10.json", "application/json", []byte(`{}`))
	require.NoError(t, err)

	_, err = store.PutObject(ctx, "", "text/plain", []byte("data"))
	require.ErrorIs(t, err, directory.ErrBlobPathRequired)

	_, err = store.PutObject(ctx, "../escape.txt", "text/plain", []byte("data"))
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(tempDir, "guides/46"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
