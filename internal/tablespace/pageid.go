package tablespace

import "github.com/SuperDan1/aistore/internal/page"

// Segment-managed page identifiers pack the owning segment-id into the
// high bits and the logical in-segment page index into the low bits. This
// lets the buffer pool's Mapper resolve a page-id to a file offset with no
// state beyond the tablespace's segment directory, while every other layer
// continues to treat page.ID as opaque per the storage layer's own
// addressing convention.
const segmentIndexBits = 24
const segmentIndexMask = (uint64(1) << segmentIndexBits) - 1

func encodePageID(segmentID uint64, k uint64) page.ID {
	return page.ID(segmentID<<segmentIndexBits | (k & segmentIndexMask))
}

func decodePageID(id page.ID) (segmentID uint64, k uint64) {
	v := uint64(id)
	return v >> segmentIndexBits, v & segmentIndexMask
}
