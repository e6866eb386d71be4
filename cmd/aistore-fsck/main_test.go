package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuperDan1/aistore/internal/tablespace"
	"github.com/SuperDan1/aistore/internal/vfs"
	"github.com/SuperDan1/aistore/pkg/logger"
)

func writeTestTablespace(t *testing.T, path string) {
	t.Helper()
	v := vfs.New()
	size := tablespace.FileHeaderSize + tablespace.ExtentSize
	h, err := v.Create(path, size)
	require.NoError(t, err)
	defer v.Close(h)

	require.NoError(t, v.Pwrite(h, tablespace.EncodeFileHeader(tablespace.FileHeader{
		Version:       1,
		FileID:        0,
		TablespaceID:  1,
		FileSize:      uint64(size),
		ExtentCount:   1,
		FreePageCount: tablespace.UsablePagesFirstExtent,
	}), 0))

	require.NoError(t, v.Pwrite(h, tablespace.EncodeExtentHeader(tablespace.ExtentHeader{
		FileID:        0,
		TablespaceID:  1,
		ExtentOffset:  tablespace.FileHeaderSize,
		PageCount:     tablespace.PagesPerExtent,
		FreePageCount: tablespace.UsablePagesFirstExtent,
		NextExtentPtr: tablespace.NoExtent,
	}), int64(tablespace.FileHeaderSize)))
}

func TestCheckFileCleanTablespaceHasNoFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.ibd")
	writeTestTablespace(t, path)

	failures, err := checkFile(vfs.New(), path, logger.NewNop(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, failures)
}

func TestCheckFileDetectsCorruptedExtentHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.ibd")
	writeTestTablespace(t, path)

	v := vfs.New()
	h, err := v.Open(path)
	require.NoError(t, err)
	corrupt := []byte{0xFF}
	require.NoError(t, v.Pwrite(h, corrupt, int64(tablespace.FileHeaderSize)))
	require.NoError(t, v.Close(h))

	failures, err := checkFile(v, path, logger.NewNop(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, failures)
}
