package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenBlobStoreBackends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, closeFn, err := OpenBlobStore(ctx, Config{})
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, closeFn())

	store, closeFn, err = OpenBlobStore(ctx, Config{Backend: "local", BaseDir: t.TempDir()})
	require.NoError(t, err)
	uri, err := store.PutObject(ctx, "guides/46.json", "application/json", []byte("{}"))
	require.NoError(t, err)
	require.Contains(t, uri, "file://")
	require.NoError(t, closeFn())

	_, closeFn, err = OpenBlobStore(ctx, Config{Backend: "s3"})
	require.Error(t, err)
	require.NotNil(t, closeFn)

	_, _, err = OpenBlobStore(ctx, Config{Backend: "local"})
	require.Error(t, err)
}
