package tablespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuperDan1/aistore/internal/page"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(Config{
		DataDir:         t.TempDir(),
		InitialFileSize: ExtentSize,
		AutoExtendSize:  ExtentSize,
		BufferPoolSlots: 32,
	})
}

func TestCreateTablespaceThenSegmentThenPageRoundTrip(t *testing.T) {
	m := newTestManager(t)

	tsID, err := m.CreateTablespace("orders")
	require.NoError(t, err)

	segID, err := m.CreateSegment(tsID, SegmentTypeData)
	require.NoError(t, err)

	id, err := m.AllocatePage(tsID, segID)
	require.NoError(t, err)
	assert.NotEqual(t, page.InvalidID, id)

	payload := make([]byte, page.Size-page.HeaderSize)
	copy(payload, []byte("hello world"))
	require.NoError(t, m.WritePage(tsID, segID, 0, payload, true, page.TypeData))

	got, err := m.ReadPage(tsID, segID, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, got[page.HeaderSize:])

	require.NoError(t, m.Close())
}

func TestOpenTablespaceReconstructsSegmentsAfterReopen(t *testing.T) {
	dir := t.TempDir()

	m1 := New(Config{DataDir: dir, InitialFileSize: ExtentSize, AutoExtendSize: ExtentSize, BufferPoolSlots: 32})
	tsID, err := m1.CreateTablespace("catalog")
	require.NoError(t, err)
	segID, err := m1.CreateSegment(tsID, SegmentTypeData)
	require.NoError(t, err)
	_, err = m1.AllocatePage(tsID, segID)
	require.NoError(t, err)
	payload := make([]byte, page.Size-page.HeaderSize)
	copy(payload, []byte("persisted"))
	require.NoError(t, m1.WritePage(tsID, segID, 0, payload, true, page.TypeData))
	require.NoError(t, m1.Close())

	m2 := New(Config{DataDir: dir, InitialFileSize: ExtentSize, AutoExtendSize: ExtentSize, BufferPoolSlots: 32})
	reopenedID, err := m2.OpenTablespace("catalog")
	require.NoError(t, err)
	assert.Equal(t, tsID, reopenedID)

	got, err := m2.ReadPage(reopenedID, segID, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, got[page.HeaderSize:])
	require.NoError(t, m2.Close())
}

func TestAllocatePageUnknownSegmentFails(t *testing.T) {
	m := newTestManager(t)
	tsID, err := m.CreateTablespace("misc")
	require.NoError(t, err)

	_, err = m.AllocatePage(tsID, 999)
	require.Error(t, err)
}

func TestFreePageReturnsSpaceToExtent(t *testing.T) {
	m := newTestManager(t)
	tsID, err := m.CreateTablespace("scratch")
	require.NoError(t, err)
	segID, err := m.CreateSegment(tsID, SegmentTypeTemporary)
	require.NoError(t, err)

	id, err := m.AllocatePage(tsID, segID)
	require.NoError(t, err)
	require.NoError(t, m.FreePage(tsID, id))

	ts, err := m.get(tsID)
	require.NoError(t, err)
	entry, ok := ts.sd.get(segID)
	require.True(t, ok)
	eh := readExtentHeader(t, m, ts, entry.firstExtent)
	assert.True(t, bitSet(eh.Bitmap, 0), "freed page's bitmap bit must be marked free")
}

// readExtentHeader reads and decodes the extent header at loc, for tests
// that assert directly on bitmap/free-page-count state rather than going
// back through AllocatePage/FreePage.
func readExtentHeader(t *testing.T, m *Manager, ts *tablespaceState, loc extentLoc) ExtentHeader {
	t.Helper()
	h, err := ts.files.Get(loc.fileID)
	require.NoError(t, err)
	buf := make([]byte, PageSize)
	require.NoError(t, m.v.Pread(h, buf, int64(loc.offset)))
	eh, err := DecodeExtentHeader(buf)
	require.NoError(t, err)
	return eh
}

// freeListEntry looks up loc in ts's free-list directly, for tests that
// assert on free-list membership.
func freeListEntry(ts *tablespaceState, loc extentLoc) (freeExtent, bool) {
	ts.flMu.Lock()
	defer ts.flMu.Unlock()
	for _, e := range ts.fl.entries {
		if e.fileID == loc.fileID && e.offset == loc.offset {
			return e, true
		}
	}
	return freeExtent{}, false
}

func TestFreePageReinsertsFullExtentIntoFreeList(t *testing.T) {
	m := newTestManager(t)
	tsID, err := m.CreateTablespace("scratch2")
	require.NoError(t, err)
	segID, err := m.CreateSegment(tsID, SegmentTypeTemporary)
	require.NoError(t, err)

	// Exhaust every usable page in the segment's first extent: CreateSegment
	// claimed that extent directly, so it never appeared in the tablespace
	// free-list to begin with.
	var ids []page.ID
	for i := 0; i < UsablePagesFirstExtent; i++ {
		id, err := m.AllocatePage(tsID, segID)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	ts, err := m.get(tsID)
	require.NoError(t, err)
	entry, ok := ts.sd.get(segID)
	require.True(t, ok)
	loc := entry.firstExtent

	eh := readExtentHeader(t, m, ts, loc)
	assert.EqualValues(t, 0, eh.FreePageCount)
	_, inFreeList := freeListEntry(ts, loc)
	assert.False(t, inFreeList, "a fully-allocated extent must not be in the free-list")

	require.NoError(t, m.FreePage(tsID, ids[0]))

	eh = readExtentHeader(t, m, ts, loc)
	assert.EqualValues(t, 1, eh.FreePageCount)
	assert.True(t, bitSet(eh.Bitmap, 0))

	fe, inFreeList := freeListEntry(ts, loc)
	require.True(t, inFreeList, "freeing a page in a full extent must re-insert it into the free-list")
	assert.Equal(t, 1, fe.freePages)
}

func TestDropTablespaceRemovesBackingFile(t *testing.T) {
	m := newTestManager(t)
	tsID, err := m.CreateTablespace("temp")
	require.NoError(t, err)
	require.NoError(t, m.DropTablespace(tsID))

	_, err = m.CreateTablespace("temp")
	require.NoError(t, err, "dropping should free the name for reuse")
}

func TestCreateSegmentGrowsTablespaceWhenFreeListExhausted(t *testing.T) {
	m := newTestManager(t)
	tsID, err := m.CreateTablespace("grow")
	require.NoError(t, err)

	// The initial file has exactly one extent; the first segment consumes
	// it, so the second must force growTablespace.
	_, err = m.CreateSegment(tsID, SegmentTypeData)
	require.NoError(t, err)
	_, err = m.CreateSegment(tsID, SegmentTypeData)
	require.NoError(t, err)
}
