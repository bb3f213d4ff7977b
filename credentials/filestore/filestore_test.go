package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-login-server/credentials"
	"github.com/jrsteele09/go-login-server/credentials/filestore"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := filestore.New(filepath.Join(t.TempDir(), "nested"))

	t.Run("read before store is empty", func(t *testing.T) {
		record, err := store.Read(ctx)
		require.NoError(t, err)
		require.True(t, record.Empty())
	})

	t.Run("delete before store", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx))
	})

	t.Run("store overwrites", func(t *testing.T) {
		require.NoError(t, store.Store(ctx, credentials.Record{ID: "x", Token: "t1"}))
		require.NoError(t, store.Store(ctx, credentials.Record{ID: "y", Token: "t2"}))

		record, err := store.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, credentials.Record{ID: "y", Token: "t2"}, record)

		info, err := os.Stat(store.Path())
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		data, err := os.ReadFile(store.Path())
		require.NoError(t, err)
		require.JSONEq(t, `{"id":"y","token":"t2"}`, string(data))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx))
		_, err := os.Stat(store.Path())
		require.True(t, os.IsNotExist(err))

		record, err := store.Read(ctx)
		require.NoError(t, err)
		require.True(t, record.Empty())
	})
}

func TestStore_ReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filestore.DefaultFileName), []byte("{"), 0o600))

	_, err := filestore.New(dir).Read(context.Background())
	require.Error(t, err)
}
