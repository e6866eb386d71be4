package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitializesEmptyBodyBounds(t *testing.T) {
	p := New(ID(7), TypeData)
	assert.Equal(t, uint16(HeaderSize), p.Lower())
	assert.Equal(t, uint16(Size), p.Upper())
	assert.Equal(t, ID(7), p.SelfID())
	assert.Equal(t, TypeData, p.Type())
	assert.True(t, p.CheckInvariants())
}

func TestWrapPanicsOnWrongBufferSize(t *testing.T) {
	assert.Panics(t, func() {
		Wrap(make([]byte, Size-1))
	})
}

func TestSealThenVerifySucceeds(t *testing.T) {
	p := New(ID(1), TypeLeaf)
	p.SetGlobalLSN(42)
	p.Seal()
	require.NoError(t, p.Verify())
}

func TestVerifyDetectsCorruption(t *testing.T) {
	p := New(ID(1), TypeLeaf)
	p.Seal()
	p.Bytes()[HeaderSize] ^= 0xFF // corrupt a body byte after sealing
	err := p.Verify()
	require.Error(t, err)
}

func TestSpecialPacksOffsetAndReservedIndependently(t *testing.T) {
	p := New(ID(1), TypeData)
	p.SetSpecial(1234, 7)
	offset, reserved := p.Special()
	assert.Equal(t, uint16(1234), offset)
	assert.Equal(t, uint16(7), reserved)
}

func TestAllocateTupleGrowsSlotArrayAndShrinksFreeSpace(t *testing.T) {
	p := New(ID(1), TypeData)
	free := p.FreeSpace()

	off, err := p.AllocateTuple(100)
	require.NoError(t, err)
	assert.Equal(t, uint16(Size-100), off)
	assert.Equal(t, uint16(HeaderSize+2), p.Lower())
	assert.Equal(t, free-102, p.FreeSpace())
}

func TestAllocateTupleFailsWhenOutOfSpace(t *testing.T) {
	p := New(ID(1), TypeData)
	_, err := p.AllocateTuple(int(p.FreeSpace()))
	require.Error(t, err)
}

func TestTypeStringAndValid(t *testing.T) {
	assert.True(t, TypeLeaf.Valid())
	assert.Equal(t, "Leaf", TypeLeaf.String())
	assert.Equal(t, "Invalid", Type(99).String())
}
