package tablespace

import "sort"

// freeExtent is one entry in a tablespace's free-extent list: an extent
// with at least one unused page.
type freeExtent struct {
	fileID    uint32
	offset    uint64 // byte offset of the extent within fileID
	freePages int
}

// freeList is the in-memory free-extent list, kept sorted descending by
// free-page count for best-fit allocation, with a deterministic tie-break
// by file-id then offset. Its lock (flMu, held by the owning
// tablespaceState) is taken with the segment-directory lock already held
// by claimExtentForGrowth and FreePage; see segmentDirectory.
type freeList struct {
	entries []freeExtent
}

func (fl *freeList) sort() {
	sort.Slice(fl.entries, func(i, j int) bool {
		a, b := fl.entries[i], fl.entries[j]
		if a.freePages != b.freePages {
			return a.freePages > b.freePages
		}
		if a.fileID != b.fileID {
			return a.fileID < b.fileID
		}
		return a.offset < b.offset
	})
}

// insert adds or updates an extent's free-page count, re-sorting to
// preserve best-fit order.
func (fl *freeList) insert(fileID uint32, offset uint64, freePages int) {
	for i := range fl.entries {
		if fl.entries[i].fileID == fileID && fl.entries[i].offset == offset {
			fl.entries[i].freePages = freePages
			fl.sort()
			return
		}
	}
	fl.entries = append(fl.entries, freeExtent{fileID: fileID, offset: offset, freePages: freePages})
	fl.sort()
}

// bestFit returns the first extent with at least one free page (the head
// of the descending-sorted list), or ok=false if none exists.
func (fl *freeList) bestFit() (freeExtent, bool) {
	if len(fl.entries) == 0 || fl.entries[0].freePages == 0 {
		return freeExtent{}, false
	}
	return fl.entries[0], true
}

// decrement reduces an extent's recorded free-page count by one after a
// page allocation from it.
func (fl *freeList) decrement(fileID uint32, offset uint64) {
	for i := range fl.entries {
		if fl.entries[i].fileID == fileID && fl.entries[i].offset == offset {
			if fl.entries[i].freePages > 0 {
				fl.entries[i].freePages--
			}
			fl.sort()
			return
		}
	}
}

// increment raises an extent's recorded free-page count by one after a
// page is freed back to it.
func (fl *freeList) increment(fileID uint32, offset uint64) {
	for i := range fl.entries {
		if fl.entries[i].fileID == fileID && fl.entries[i].offset == offset {
			fl.entries[i].freePages++
			fl.sort()
			return
		}
	}
}

// totalFreePages sums free-page counts across every tracked extent, for
// invariant checks and diagnostics.
func (fl *freeList) totalFreePages() int {
	total := 0
	for _, e := range fl.entries {
		total += e.freePages
	}
	return total
}
