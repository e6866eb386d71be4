package tablespace

import (
	"github.com/SuperDan1/aistore/internal/page"
	aerrors "github.com/SuperDan1/aistore/pkg/errors"
)

// segmentMapper implements bufferpool.Mapper for one open tablespace,
// translating a segment-encoded page.ID into the file and byte offset the
// buffer pool should read or write, by walking (and caching) the owning
// segment's extent chain.
type segmentMapper struct {
	ts *tablespaceState
}

func (sm *segmentMapper) Locate(id page.ID) (uint32, int64, error) {
	segmentID, k := decodePageID(id)

	sm.ts.sdMu.Lock()
	defer sm.ts.sdMu.Unlock()

	entry, ok := sm.ts.sd.get(segmentID)
	if !ok {
		return 0, 0, aerrors.NewSegmentError(nil, aerrors.ErrorCodeSegmentNotFound,
			"segment not found").WithDetail("segmentId", segmentID)
	}

	loc, bit, err := locateBit(sm.ts, entry, k)
	if err != nil {
		return 0, 0, err
	}

	extIdx := 0
	if k >= UsablePagesFirstExtent {
		extIdx = 1
	}
	physicalPage := bit + 1
	if extIdx == 0 {
		physicalPage = bit + 2
	}
	offset := int64(loc.offset) + int64(physicalPage)*PageSize
	return loc.fileID, offset, nil
}

// RawMapper implements bufferpool.Mapper for single-file, segment-free
// addressing: file_path(id) = data_dir/page_{id>>32}.dat,
// offset(id) = (id & 0xFFFFFFFF) * PageSize. It exists for callers that
// need direct page-id addressing without the segment/extent layout (for
// instance a consistency-check tool scanning a raw file) and must never be
// used against a file also managed through the segment-mapped path.
type RawMapper struct{}

func (RawMapper) Locate(id page.ID) (uint32, int64, error) {
	v := uint64(id)
	fileID := uint32(v >> 32)
	offset := int64(v&0xFFFFFFFF) * PageSize
	return fileID, offset, nil
}
