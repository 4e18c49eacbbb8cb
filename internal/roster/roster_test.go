package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "students_list.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeRoster(t, "N°,Nom,Prénoms,Full_Name\n1,Doe,Jane,Jane Doe\n2,Smith,Ali,Ali  Smith\n")

	r, err := Load(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"Jane Doe", "Ali  Smith"}, r.AllNames())
	assert.True(t, r.IsValidName("Jane Doe"))
	assert.True(t, r.IsValidName("  jane   doe "))
	assert.True(t, r.IsValidName("ALI SMITH"))
	assert.False(t, r.IsValidName("John Doe"))
}

func TestLoadMissingFileYieldsEmptyRoster(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "absent.csv"), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, r.AllNames())
	assert.False(t, r.IsValidName("Anyone"))
}

func TestLoadRejectsMissingColumn(t *testing.T) {
	path := writeRoster(t, "N°,Nom\n1,Doe\n")
	_, err := Load(path, zap.NewNop())
	assert.Error(t, err)
}
