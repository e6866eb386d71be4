package vfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "github.com/SuperDan1/aistore/pkg/errors"
)

func TestCreateOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v := New()
	path := filepath.Join(dir, "data", "0.dat")

	h, err := v.Create(path, 4096)
	require.NoError(t, err)

	payload := make([]byte, 128)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, v.Pwrite(h, payload, 1000))
	require.NoError(t, v.Sync(h))
	require.NoError(t, v.Close(h))

	h2, err := v.Open(path)
	require.NoError(t, err)
	defer v.Close(h2)

	out := make([]byte, 128)
	require.NoError(t, v.Pread(h2, out, 1000))
	assert.Equal(t, payload, out)
}

func TestOpenMissingFileReportsNotFound(t *testing.T) {
	v := New()
	_, err := v.Open(filepath.Join(t.TempDir(), "missing.dat"))
	require.Error(t, err)
	assert.True(t, aerrors.IsVFSError(err))
	assert.Equal(t, aerrors.ErrorCodeNotFound, aerrors.GetErrorCode(err))
}

func TestPreadPastEOFIsShortRead(t *testing.T) {
	dir := t.TempDir()
	v := New()
	h, err := v.Create(filepath.Join(dir, "f.dat"), 64)
	require.NoError(t, err)
	defer v.Close(h)

	buf := make([]byte, 128)
	err = v.Pread(h, buf, 0)
	require.Error(t, err)
	assert.Equal(t, aerrors.ErrorCodeShortRead, aerrors.GetErrorCode(err))
}

func TestFileSetLazyOpensOnce(t *testing.T) {
	dir := t.TempDir()
	v := New()
	fs := NewFileSet(v, dir, "%08d.dat", 4096)

	h1, err := fs.Create(3, 4096)
	require.NoError(t, err)
	h2, err := fs.Get(3)
	require.NoError(t, err)
	assert.Same(t, h1, h2)

	require.NoError(t, fs.CloseAll())
}
