package aistore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuperDan1/aistore/pkg/options"
)

func TestInstanceEndToEndTablespaceAndPageLifecycle(t *testing.T) {
	ctx := context.Background()
	inst, err := NewInstance(ctx, "aistore-test",
		options.WithDataDir(t.TempDir()),
		options.WithInitialFileSize(options.MinInitialFileSize),
		options.WithBufferPoolSlots(32),
	)
	require.NoError(t, err)
	defer inst.Close(ctx)

	tsID, err := inst.CreateTablespace("users")
	require.NoError(t, err)

	segID, err := inst.CreateSegment(tsID, SegmentTypeData)
	require.NoError(t, err)

	id, err := inst.AllocatePage(tsID, segID)
	require.NoError(t, err)

	body := make([]byte, 100)
	copy(body, []byte("facade round trip"))
	require.NoError(t, inst.WritePage(tsID, segID, 0, body, true, PageTypeData))

	got, err := inst.ReadPage(tsID, segID, 0)
	require.NoError(t, err)
	assert.Contains(t, string(got), "facade round trip")

	require.NoError(t, inst.FreePage(tsID, id))
	require.NoError(t, inst.DropTablespace(tsID))
}
