package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuperDan1/aistore/internal/page"
	"github.com/SuperDan1/aistore/internal/tablespace"
	"github.com/SuperDan1/aistore/pkg/logger"
	"github.com/SuperDan1/aistore/pkg/options"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	opts := options.New(
		options.WithDataDir(t.TempDir()),
		options.WithInitialFileSize(options.MinInitialFileSize),
		options.WithBufferPoolSlots(32),
	)
	e, err := New(context.Background(), &Config{Options: opts, Logger: logger.NewNop()})
	require.NoError(t, err)
	return e
}

func TestEngineCreatesDataDirOnNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	e, err := New(context.Background(), &Config{
		Options: options.New(options.WithDataDir(dir)),
		Logger:  logger.NewNop(),
	})
	require.NoError(t, err)
	defer e.Close()
	assert.NotNil(t, e)
	assert.DirExists(t, dir)
}

func TestEngineEndToEndPageRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	tsID, err := e.CreateTablespace("main")
	require.NoError(t, err)

	segID, err := e.CreateSegment(tsID, tablespace.SegmentTypeData)
	require.NoError(t, err)

	id, err := e.AllocatePage(tsID, segID)
	require.NoError(t, err)
	require.NotEqual(t, page.InvalidID, id)

	body := make([]byte, page.Size-page.HeaderSize)
	copy(body, []byte("engine round trip"))
	require.NoError(t, e.WritePage(tsID, segID, 0, body, true, page.TypeData))

	got, err := e.ReadPage(tsID, segID, 0)
	require.NoError(t, err)
	assert.Equal(t, body, got[page.HeaderSize:])
}

func TestEngineOperationsFailAfterClose(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close())

	_, err := e.CreateTablespace("after-close")
	assert.ErrorIs(t, err, ErrEngineClosed)

	err = e.Close()
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestNewRejectsMissingOptions(t *testing.T) {
	_, err := New(context.Background(), &Config{Logger: logger.NewNop()})
	require.Error(t, err)
}
