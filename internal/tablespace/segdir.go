package tablespace

// SegmentType tags what kind of object a segment stores. Only Data and
// Index have behavior specific to this layer; the remaining kinds are
// stored and reconstructed identically, leaving their contents up to
// whatever upper layer owns them.
type SegmentType uint8

const (
	SegmentTypeData SegmentType = iota
	SegmentTypeIndex
	SegmentTypeRollback
	SegmentTypeSystem
	SegmentTypeTemporary
	SegmentTypeUndo
)

// extentLoc identifies one extent's position for chain traversal and
// caching: the file it lives in and its byte offset within that file.
type extentLoc struct {
	fileID uint32
	offset uint64
}

// segmentEntry is the segment directory's in-memory record for one
// segment, reconstructed by scanning extent and segment headers on
// tablespace open (the persistent format carries no separate directory).
type segmentEntry struct {
	id           uint64
	typ          SegmentType
	tablespaceID uint64

	headerFileID uint32
	headerOffset uint64 // offset of the dedicated segment-header page

	firstExtent extentLoc
	lastExtent  extentLoc
	totalPages  uint64

	// chainCache maps extent index (0-based, following next_extent_ptr)
	// to its location, avoiding a chain walk on every page access once an
	// index has been visited.
	chainCache map[int]extentLoc
}

// segmentDirectory is the tablespace's in-memory segment directory.
// CreateSegment releases the free-list lock before taking this one;
// AllocatePage (through claimExtentForGrowth) and FreePage take the
// free-list lock while already holding this one. No path takes this lock
// while holding the free-list lock.
type segmentDirectory struct {
	segments map[uint64]*segmentEntry
	nextID   uint64
}

func newSegmentDirectory() *segmentDirectory {
	return &segmentDirectory{segments: make(map[uint64]*segmentEntry)}
}

func (d *segmentDirectory) allocateID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *segmentDirectory) put(e *segmentEntry) {
	if e.chainCache == nil {
		e.chainCache = make(map[int]extentLoc)
	}
	e.chainCache[0] = e.firstExtent
	d.segments[e.id] = e
}

func (d *segmentDirectory) get(id uint64) (*segmentEntry, bool) {
	e, ok := d.segments[id]
	return e, ok
}

func (d *segmentDirectory) remove(id uint64) {
	delete(d.segments, id)
}
