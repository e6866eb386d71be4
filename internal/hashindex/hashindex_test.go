package hashindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "github.com/SuperDan1/aistore/pkg/errors"
)

func TestInsertLookupRemove(t *testing.T) {
	idx := New(4, 8)

	require.NoError(t, idx.Insert(100, 0))
	require.NoError(t, idx.Insert(200, 1))

	slot, ok := idx.Lookup(100)
	require.True(t, ok)
	assert.EqualValues(t, 0, slot)

	slot, ok = idx.Lookup(200)
	require.True(t, ok)
	assert.EqualValues(t, 1, slot)

	_, ok = idx.Lookup(300)
	assert.False(t, ok)

	require.NoError(t, idx.Remove(100))
	_, ok = idx.Lookup(100)
	assert.False(t, ok)

	assert.Equal(t, 1, idx.Len())
}

func TestInsertDuplicateFails(t *testing.T) {
	idx := New(4, 8)
	require.NoError(t, idx.Insert(42, 0))

	err := idx.Insert(42, 1)
	require.Error(t, err)
	assert.Equal(t, aerrors.ErrorCodeHashIndexDuplicate, aerrors.GetErrorCode(err))
}

func TestRemoveMissingFails(t *testing.T) {
	idx := New(4, 8)
	err := idx.Remove(999)
	require.Error(t, err)
	assert.Equal(t, aerrors.ErrorCodeHashIndexNotFound, aerrors.GetErrorCode(err))
}

func TestArenaReuseAfterRemove(t *testing.T) {
	idx := New(2, 4)
	require.NoError(t, idx.Insert(1, 0))
	require.NoError(t, idx.Insert(2, 1))

	// Arena is full; a third insert without a prior remove must fail fatally.
	assert.Panics(t, func() {
		if err := idx.Insert(3, 0); err != nil {
			panic(err)
		}
	})

	require.NoError(t, idx.Remove(1))
	require.NoError(t, idx.Insert(3, 0))
	slot, ok := idx.Lookup(3)
	require.True(t, ok)
	assert.EqualValues(t, 0, slot)
}

func TestChainedBucketCollisions(t *testing.T) {
	// New rounds the requested single bucket up to 8 buckets (capacity 8).
	// Multiples of 8 differ only in bits that FNV-1a modulo 8 ignores, so
	// all eight keys share one bucket and form a single eight-node chain.
	idx := New(8, 1)
	for i := uint64(0); i < 8; i++ {
		require.NoError(t, idx.Insert(i*8, int32(i)))
	}
	for i := uint64(0); i < 8; i++ {
		slot, ok := idx.Lookup(i * 8)
		require.True(t, ok)
		assert.EqualValues(t, i, slot)
	}
}
