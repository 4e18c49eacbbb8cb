package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipDirAndExtractFile(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "AuthorA"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "meta.csv"), []byte("id,FilePath\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "AuthorA", "book1.txt"), []byte("text"), 0o644))

	dest := filepath.Join(t.TempDir(), "data.zip")
	require.NoError(t, ZipDir(src, dest))

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)

	meta, err := ExtractFile(raw, "meta.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("id,FilePath\n"), meta)

	book, err := ExtractFile(raw, "book1.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("text"), book)

	_, err = ExtractFile(raw, "missing.csv")
	assert.Error(t, err)
}
