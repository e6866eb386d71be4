package filesys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDirCreatesNestedPath(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "c")

	require.NoError(t, CreateDir(target, 0o755, true))

	exists, err := Exists(target)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateDirWithoutForceFailsWhenAlreadyPresent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, CreateDir(root, 0o755, true))
	assert.Error(t, CreateDir(root, 0o755, false))
}

func TestCreateDirRejectsExistingFile(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "notadir")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	err := CreateDir(filePath, 0o755, true)
	assert.ErrorIs(t, err, ErrIsNotDir)
}

func TestExistsReportsMissingPath(t *testing.T) {
	exists, err := Exists(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteFileRemovesFile(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	require.NoError(t, DeleteFile(filePath))

	exists, err := Exists(filePath)
	require.NoError(t, err)
	assert.False(t, exists)
}
