package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreUploadDownload(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	folderID, err := store.EnsureFolder(ctx, "root", "students")
	require.NoError(t, err)

	fileID, err := store.UploadBytes(ctx, folderID, []byte("hello"), "data.zip", "application/zip")
	require.NoError(t, err)

	data, err := store.Download(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestLocalStoreFindItem(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, exists, err := store.FindItem(ctx, "root", "missing", true)
	require.NoError(t, err)
	assert.False(t, exists)

	folderID, err := store.EnsureFolder(ctx, "root", "data")
	require.NoError(t, err)

	id, exists, err := store.FindItem(ctx, "root", "data", true)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, folderID, id)

	// A folder must not be reported when a file is requested.
	_, exists, err = store.FindItem(ctx, "root", "data", false)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStoreUploadFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(src, []byte("zip-bytes"), 0o644))

	folderID, err := store.EnsureFolder(ctx, "root", "students")
	require.NoError(t, err)

	fileID, err := store.UploadFile(ctx, folderID, src, "data.zip")
	require.NoError(t, err)

	data, err := store.Download(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, []byte("zip-bytes"), data)
}

func TestLocalStoreDownloadMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "nope/data.zip")
	assert.ErrorIs(t, err, ErrNotFound)
}
