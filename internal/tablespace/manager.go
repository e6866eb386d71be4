package tablespace

import (
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/SuperDan1/aistore/internal/bufferpool"
	"github.com/SuperDan1/aistore/internal/page"
	"github.com/SuperDan1/aistore/internal/vfs"
	aerrors "github.com/SuperDan1/aistore/pkg/errors"
	"github.com/SuperDan1/aistore/pkg/filesys"
	"github.com/SuperDan1/aistore/pkg/seginfo"
)

// Status is a tablespace's lifecycle state.
type Status uint8

const (
	StatusCreating Status = iota
	StatusActive
	StatusDropping
	StatusRecovering
)

// Config parameterizes a Manager.
type Config struct {
	DataDir         string
	InitialFileSize int64 // rounded up to a whole number of extents
	AutoExtendSize  int64
	BufferPoolSlots int
	HotFraction     float64
	ColdFraction    float64
	Logger          *zap.SugaredLogger
}

// tablespaceState is a Manager's in-memory bookkeeping for one open
// tablespace: its files, free-extent list, segment directory, and the
// buffer pool serving its pages.
type tablespaceState struct {
	id             uint64
	name           string
	status         Status
	dataDir        string
	autoExtendSize int64

	v     *vfs.VFS
	files *vfs.FileSet

	flMu sync.Mutex
	fl   freeList

	sdMu sync.RWMutex
	sd   *segmentDirectory

	fileSizesMu sync.Mutex
	fileSizes   map[uint32]int64

	pool *bufferpool.Pool
}

// Manager owns every open tablespace for one engine instance.
type Manager struct {
	mu          sync.RWMutex
	tablespaces map[uint64]*tablespaceState
	byName      map[string]uint64
	nextID      uint64

	v   *vfs.VFS
	cfg Config
	log *zap.SugaredLogger
}

// New creates a Manager rooted at cfg.DataDir.
func New(cfg Config) *Manager {
	return &Manager{
		tablespaces: make(map[uint64]*tablespaceState),
		byName:      make(map[string]uint64),
		v:           vfs.New(),
		cfg:         cfg,
		log:         cfg.Logger,
	}
}

func (m *Manager) tablespacePath(name string) string {
	return filepath.Join(m.cfg.DataDir, name+".ibd")
}

// CreateTablespace creates a new tablespace with one initial file sized to
// at least cfg.InitialFileSize (rounded up to a whole number of extents),
// writes the file header and header-initialized extents, and carves the
// new extents into the free-list.
func (m *Manager) CreateTablespace(name string) (uint64, error) {
	m.mu.Lock()
	if _, exists := m.byName[name]; exists {
		m.mu.Unlock()
		return 0, aerrors.NewSegmentError(nil, aerrors.ErrorCodeInvalidInput,
			"tablespace already exists").WithDetail("name", name)
	}
	m.nextID++
	id := m.nextID
	m.mu.Unlock()

	extentCount := uint32((m.cfg.InitialFileSize + ExtentSize - 1) / ExtentSize)
	if extentCount == 0 {
		extentCount = 1
	}
	fileSize := FileHeaderSize + int64(extentCount)*ExtentSize

	path := m.tablespacePath(name)
	fs := vfs.NewFileSet(m.v, filepath.Dir(path), filepath.Base(path), fileSize)
	h, err := fs.Create(0, fileSize)
	if err != nil {
		return 0, err
	}

	ts := &tablespaceState{
		id:             id,
		name:           name,
		status:         StatusCreating,
		dataDir:        m.cfg.DataDir,
		autoExtendSize: m.cfg.AutoExtendSize,
		v:              m.v,
		files:          fs,
		sd:             newSegmentDirectory(),
		fileSizes:      map[uint32]int64{0: fileSize},
	}

	if err := m.v.Pwrite(h, EncodeFileHeader(FileHeader{
		Version:       1,
		FileID:        0,
		TablespaceID:  id,
		FileSize:      uint64(fileSize),
		ExtentCount:   extentCount,
		FreePageCount: extentCount * UsablePagesPerExtent,
	}), 0); err != nil {
		return 0, err
	}

	for i := uint32(0); i < extentCount; i++ {
		off := FileHeaderSize + uint64(i)*ExtentSize
		if err := m.writeFreshExtentHeader(h, 0, id, off); err != nil {
			return 0, err
		}
		ts.fl.insert(0, off, UsablePagesPerExtent)
	}

	ts.pool = bufferpool.New(bufferpool.Config{
		Capacity:     m.cfg.BufferPoolSlots,
		Mapper:       &segmentMapper{ts: ts},
		Files:        fs,
		VFS:          m.v,
		Logger:       m.log,
		HotFraction:  m.cfg.HotFraction,
		ColdFraction: m.cfg.ColdFraction,
	})
	ts.status = StatusActive

	m.mu.Lock()
	m.tablespaces[id] = ts
	m.byName[name] = id
	m.mu.Unlock()

	if m.log != nil {
		m.log.Infow("created tablespace", "name", name, "id", id, "extents", extentCount)
	}
	return id, nil
}

func (m *Manager) writeFreshExtentHeader(h *vfs.Handle, fileID uint32, tablespaceID uint64, offset uint64) error {
	var bm [bitmapBytes]byte
	setBitmapFree(&bm, UsablePagesPerExtent)
	buf := EncodeExtentHeader(ExtentHeader{
		FileID:        fileID,
		TablespaceID:  tablespaceID,
		ExtentOffset:  offset,
		PageCount:     PagesPerExtent,
		FreePageCount: UsablePagesPerExtent,
		Bitmap:        bm,
		NextExtentPtr: NoExtent,
	})
	return m.v.Pwrite(h, buf, int64(offset))
}

// setBitmapFree marks the low n bits of bm as free (1).
func setBitmapFree(bm *[bitmapBytes]byte, n int) {
	for i := 0; i < n; i++ {
		bm[i/8] |= 1 << uint(i%8)
	}
}

func bitSet(bm [bitmapBytes]byte, i int) bool {
	return bm[i/8]&(1<<uint(i%8)) != 0
}

func bitClear(bm *[bitmapBytes]byte, i int) {
	bm[i/8] &^= 1 << uint(i%8)
}

func bitMark(bm *[bitmapBytes]byte, i int) {
	bm[i/8] |= 1 << uint(i%8)
}

// OpenTablespace validates every file and extent header and reconstructs
// the in-memory free-list and segment directory by scanning the file.
func (m *Manager) OpenTablespace(name string) (uint64, error) {
	m.mu.RLock()
	if id, ok := m.byName[name]; ok {
		m.mu.RUnlock()
		return id, nil
	}
	m.mu.RUnlock()

	path := m.tablespacePath(name)
	fs := vfs.NewFileSet(m.v, filepath.Dir(path), filepath.Base(path), 0)
	h, err := fs.Get(0)
	if err != nil {
		return 0, err
	}

	hdrBuf := make([]byte, FileHeaderSize)
	if err := m.v.Pread(h, hdrBuf, 0); err != nil {
		return 0, err
	}
	fh, err := DecodeFileHeader(hdrBuf)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.nextID++
	if fh.TablespaceID > m.nextID {
		m.nextID = fh.TablespaceID
	}
	m.mu.Unlock()

	ts := &tablespaceState{
		id:             fh.TablespaceID,
		name:           name,
		status:         StatusRecovering,
		dataDir:        m.cfg.DataDir,
		autoExtendSize: m.cfg.AutoExtendSize,
		v:              m.v,
		files:          fs,
		sd:             newSegmentDirectory(),
		fileSizes:      map[uint32]int64{0: int64(fh.FileSize)},
	}

	fingerprints := make([]seginfo.Fingerprint, 0, fh.ExtentCount)

	for i := uint32(0); i < fh.ExtentCount; i++ {
		off := FileHeaderSize + uint64(i)*ExtentSize
		pageBuf := make([]byte, PageSize)
		if err := m.v.Pread(h, pageBuf, int64(off)); err != nil {
			return 0, err
		}
		eh, err := DecodeExtentHeader(pageBuf)
		if err != nil {
			return 0, err
		}
		fingerprints = append(fingerprints, seginfo.FingerprintHeader(off, pageBuf[:ExtentHeaderSize]))

		segHdrOff := off + PageSize
		segBuf := make([]byte, PageSize)
		isSegmentFirst := false
		var sh SegmentHeader
		if err := m.v.Pread(h, segBuf, int64(segHdrOff)); err == nil {
			if decoded, derr := DecodeSegmentHeader(segBuf); derr == nil {
				sh = decoded
				isSegmentFirst = true
			}
		}

		if isSegmentFirst {
			entry := &segmentEntry{
				id:           sh.SegmentID,
				typ:          SegmentType(sh.SegmentType),
				tablespaceID: ts.id,
				headerFileID: 0,
				headerOffset: segHdrOff,
				firstExtent:  extentLoc{fileID: 0, offset: off},
				lastExtent:   extentLoc{fileID: 0, offset: off},
				totalPages:   sh.TotalPages,
			}
			ts.sd.put(entry)
		} else if eh.FreePageCount > 0 {
			ts.fl.insert(0, off, int(eh.FreePageCount))
		}
	}

	if dupes := seginfo.FindDuplicates(fingerprints); len(dupes) > 0 && m.log != nil {
		m.log.Warnw("extent headers with matching fingerprints found during directory reconstruction",
			"tablespaceId", ts.id, "pairs", dupes)
	}

	// Walk each segment's chain to populate chainCache and find the last
	// extent, now that every extent header has been read once.
	for _, entry := range ts.sd.segments {
		loc := entry.firstExtent
		idx := 0
		for {
			pageBuf := make([]byte, PageSize)
			if err := m.v.Pread(h, pageBuf, int64(loc.offset)); err != nil {
				return 0, err
			}
			eh, err := DecodeExtentHeader(pageBuf)
			if err != nil {
				return 0, err
			}
			entry.chainCache[idx] = loc
			entry.lastExtent = loc
			if eh.NextExtentPtr == NoExtent {
				break
			}
			loc = extentLoc{fileID: 0, offset: eh.NextExtentPtr}
			idx++
		}
	}

	ts.pool = bufferpool.New(bufferpool.Config{
		Capacity:     m.cfg.BufferPoolSlots,
		Mapper:       &segmentMapper{ts: ts},
		Files:        fs,
		VFS:          m.v,
		Logger:       m.log,
		HotFraction:  m.cfg.HotFraction,
		ColdFraction: m.cfg.ColdFraction,
	})
	ts.status = StatusActive

	m.mu.Lock()
	m.tablespaces[ts.id] = ts
	m.byName[name] = ts.id
	m.mu.Unlock()

	if m.log != nil {
		m.log.Infow("opened tablespace", "name", name, "id", ts.id, "segments", len(ts.sd.segments))
	}
	return ts.id, nil
}

func (m *Manager) get(id uint64) (*tablespaceState, error) {
	m.mu.RLock()
	ts, ok := m.tablespaces[id]
	m.mu.RUnlock()
	if !ok {
		return nil, aerrors.NewSegmentError(nil, aerrors.ErrorCodeSegmentNotFound,
			"tablespace not open").WithDetail("tablespaceId", id)
	}
	return ts, nil
}

// DropTablespace flushes and closes a tablespace's files and removes them
// from disk, accumulating any per-file errors.
func (m *Manager) DropTablespace(id uint64) error {
	m.mu.Lock()
	ts, ok := m.tablespaces[id]
	if !ok {
		m.mu.Unlock()
		return aerrors.NewSegmentError(nil, aerrors.ErrorCodeSegmentNotFound,
			"tablespace not open").WithDetail("tablespaceId", id)
	}
	ts.status = StatusDropping
	delete(m.tablespaces, id)
	delete(m.byName, ts.name)
	m.mu.Unlock()

	var errs error
	if err := ts.pool.FlushAll(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := ts.files.CloseAll(); err != nil {
		errs = multierr.Append(errs, err)
	}
	path := m.tablespacePath(ts.name)
	if exists, err := filesys.Exists(path); err != nil {
		errs = multierr.Append(errs, err)
	} else if exists {
		if err := filesys.DeleteFile(path); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Close flushes and closes every open tablespace.
func (m *Manager) Close() error {
	m.mu.RLock()
	ids := make([]uint64, 0, len(m.tablespaces))
	for id := range m.tablespaces {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var errs error
	for _, id := range ids {
		ts, err := m.get(id)
		if err != nil {
			continue
		}
		if err := ts.pool.FlushAll(); err != nil {
			errs = multierr.Append(errs, err)
		}
		if err := ts.files.CloseAll(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// CreateSegment claims one extent from the tablespace's free-list as a new
// segment's first extent, initializes its segment header, and records a
// directory entry.
func (m *Manager) CreateSegment(tablespaceID uint64, typ SegmentType) (uint64, error) {
	ts, err := m.get(tablespaceID)
	if err != nil {
		return 0, err
	}

	ts.flMu.Lock()
	loc, ok := ts.fl.bestFit()
	if !ok {
		if err := m.growTablespace(ts); err != nil {
			ts.flMu.Unlock()
			return 0, err
		}
		loc, ok = ts.fl.bestFit()
		if !ok {
			ts.flMu.Unlock()
			return 0, aerrors.NewSegmentError(nil, aerrors.ErrorCodeNoFreeExtent,
				"no free extent available after growth")
		}
	}
	ts.fl.remove(loc.fileID, loc.offset)
	ts.flMu.Unlock()

	ts.sdMu.Lock()
	defer ts.sdMu.Unlock()

	segID := ts.sd.allocateID()

	h, err := ts.files.Get(loc.fileID)
	if err != nil {
		return 0, err
	}

	var bm [bitmapBytes]byte
	setBitmapFree(&bm, UsablePagesFirstExtent)
	extBuf := EncodeExtentHeader(ExtentHeader{
		FileID:        loc.fileID,
		TablespaceID:  ts.id,
		ExtentOffset:  loc.offset,
		PageCount:     PagesPerExtent,
		FreePageCount: UsablePagesFirstExtent,
		Bitmap:        bm,
		NextExtentPtr: NoExtent,
	})
	if err := m.v.Pwrite(h, extBuf, int64(loc.offset)); err != nil {
		return 0, err
	}

	segHdrOffset := loc.offset + PageSize
	segBuf := EncodeSegmentHeader(SegmentHeader{
		SegmentID:     segID,
		SegmentType:   uint8(typ),
		NextExtentPtr: NoExtent,
		TotalPages:    0,
	})
	if err := m.v.Pwrite(h, segBuf, int64(segHdrOffset)); err != nil {
		return 0, err
	}

	entry := &segmentEntry{
		id:           segID,
		typ:          typ,
		tablespaceID: ts.id,
		headerFileID: loc.fileID,
		headerOffset: segHdrOffset,
		firstExtent:  loc,
		lastExtent:   loc,
		totalPages:   0,
	}
	ts.sd.put(entry)

	if m.log != nil {
		m.log.Infow("created segment", "tablespaceId", ts.id, "segmentId", segID, "type", typ)
	}
	return segID, nil
}

// growTablespace extends file 0 by autoExtendSize bytes (or one extent's
// worth, whichever is larger) and carves the new space into fresh,
// header-initialized extents added to the free-list. Caller holds flMu.
func (m *Manager) growTablespace(ts *tablespaceState) error {
	grow := ts.autoExtendSize
	if grow < ExtentSize {
		grow = ExtentSize
	}
	newExtents := uint32((grow + ExtentSize - 1) / ExtentSize)

	ts.fileSizesMu.Lock()
	curSize := ts.fileSizes[0]
	newSize := curSize + int64(newExtents)*ExtentSize
	ts.fileSizesMu.Unlock()

	h, err := ts.files.Get(0)
	if err != nil {
		return err
	}
	if err := m.v.Truncate(h, newSize); err != nil {
		return err
	}

	for i := uint32(0); i < newExtents; i++ {
		off := uint64(curSize) + uint64(i)*ExtentSize
		if err := m.writeFreshExtentHeader(h, 0, ts.id, off); err != nil {
			return err
		}
		ts.fl.insert(0, off, UsablePagesPerExtent)
	}

	ts.fileSizesMu.Lock()
	ts.fileSizes[0] = newSize
	ts.fileSizesMu.Unlock()

	hdrBuf := make([]byte, FileHeaderSize)
	if err := m.v.Pread(h, hdrBuf, 0); err != nil {
		return err
	}
	fh, err := DecodeFileHeader(hdrBuf)
	if err != nil {
		return err
	}
	fh.ExtentCount += newExtents
	fh.FileSize = uint64(newSize)
	return m.v.Pwrite(h, EncodeFileHeader(fh), 0)
}

// remove deletes an entry from the free-list by identity.
func (fl *freeList) remove(fileID uint32, offset uint64) {
	for i := range fl.entries {
		if fl.entries[i].fileID == fileID && fl.entries[i].offset == offset {
			fl.entries = append(fl.entries[:i], fl.entries[i+1:]...)
			return
		}
	}
}

// AllocatePage finds or creates room in segmentID's extent chain for one
// more page and returns its page-id.
func (m *Manager) AllocatePage(tablespaceID, segmentID uint64) (page.ID, error) {
	ts, err := m.get(tablespaceID)
	if err != nil {
		return page.InvalidID, err
	}

	ts.sdMu.Lock()
	defer ts.sdMu.Unlock()

	entry, ok := ts.sd.get(segmentID)
	if !ok {
		return page.InvalidID, aerrors.NewSegmentError(nil, aerrors.ErrorCodeSegmentNotFound,
			"segment not found").WithDetail("segmentId", segmentID)
	}

	extIdx := 0
	loc := entry.firstExtent
	for {
		h, err := ts.files.Get(loc.fileID)
		if err != nil {
			return page.InvalidID, err
		}
		buf := make([]byte, PageSize)
		if err := m.v.Pread(h, buf, int64(loc.offset)); err != nil {
			return page.InvalidID, err
		}
		eh, err := DecodeExtentHeader(buf)
		if err != nil {
			return page.InvalidID, err
		}

		usable := UsablePagesPerExtent
		if extIdx == 0 {
			usable = UsablePagesFirstExtent
		}

		if eh.FreePageCount > 0 {
			for i := 0; i < usable; i++ {
				if bitSet(eh.Bitmap, i) {
					bitClear(&eh.Bitmap, i)
					eh.FreePageCount--
					out := EncodeExtentHeader(eh)
					if err := m.v.Pwrite(h, out, int64(loc.offset)); err != nil {
						return page.InvalidID, err
					}

					k := uint64(extentBaseIndex(extIdx)) + uint64(i)
					if k+1 > entry.totalPages {
						entry.totalPages = k + 1
						if err := m.persistSegmentHeader(ts, entry); err != nil {
							return page.InvalidID, err
						}
					}
					return encodePageID(segmentID, k), nil
				}
			}
		}

		if eh.NextExtentPtr == NoExtent {
			newLoc, err := m.claimExtentForGrowth(ts)
			if err != nil {
				return page.InvalidID, err
			}
			eh.NextExtentPtr = newLoc.offset
			if err := m.v.Pwrite(h, EncodeExtentHeader(eh), int64(loc.offset)); err != nil {
				return page.InvalidID, err
			}
			entry.lastExtent = newLoc
			entry.chainCache[extIdx+1] = newLoc
			loc = newLoc
			extIdx++
			continue
		}

		loc = extentLoc{fileID: loc.fileID, offset: eh.NextExtentPtr}
		entry.chainCache[extIdx+1] = loc
		extIdx++
	}
}

// extentBaseIndex returns the logical page index of usable-page-0 within
// the extent at chain position extIdx.
func extentBaseIndex(extIdx int) int {
	if extIdx == 0 {
		return 0
	}
	return UsablePagesFirstExtent + (extIdx-1)*UsablePagesPerExtent
}

// claimExtentForGrowth takes a whole extent from the tablespace free-list,
// growing the tablespace first if none is available, and returns it
// header-initialized and ready to link into a segment's chain. Caller
// holds sdMu; this takes flMu while sdMu is held, as FreePage also does.
// No path takes sdMu while holding flMu, so the two cannot deadlock.
func (m *Manager) claimExtentForGrowth(ts *tablespaceState) (extentLoc, error) {
	ts.flMu.Lock()
	defer ts.flMu.Unlock()
	loc, ok := ts.fl.bestFit()
	if !ok {
		if err := m.growTablespace(ts); err != nil {
			return extentLoc{}, err
		}
		loc, ok = ts.fl.bestFit()
		if !ok {
			return extentLoc{}, aerrors.NewSegmentError(nil, aerrors.ErrorCodeNoFreeExtent,
				"no free extent available after growth")
		}
	}
	ts.fl.remove(loc.fileID, loc.offset)
	return loc, nil
}

func (m *Manager) persistSegmentHeader(ts *tablespaceState, entry *segmentEntry) error {
	h, err := ts.files.Get(entry.headerFileID)
	if err != nil {
		return err
	}
	buf := EncodeSegmentHeader(SegmentHeader{
		SegmentID:     entry.id,
		SegmentType:   uint8(entry.typ),
		NextExtentPtr: NoExtent,
		TotalPages:    entry.totalPages,
	})
	return m.v.Pwrite(h, buf, int64(entry.headerOffset))
}

// FreePage flips the bitmap bit for pageID's slot back to free. It does
// not reclaim the owning extent, but an extent that was completely full
// (free-page-count zero, and therefore absent from the tablespace
// free-list) is re-inserted into the free-list the moment this call gives
// it its first free page back, so a later CreateSegment's best-fit scan
// can see it.
func (m *Manager) FreePage(tablespaceID uint64, id page.ID) error {
	ts, err := m.get(tablespaceID)
	if err != nil {
		return err
	}
	segmentID, k := decodePageID(id)

	ts.sdMu.Lock()
	defer ts.sdMu.Unlock()

	entry, ok := ts.sd.get(segmentID)
	if !ok {
		return aerrors.NewSegmentError(nil, aerrors.ErrorCodeSegmentNotFound,
			"segment not found").WithDetail("segmentId", segmentID)
	}

	loc, bit, err := locateBit(ts, entry, k)
	if err != nil {
		return err
	}
	h, err := ts.files.Get(loc.fileID)
	if err != nil {
		return err
	}
	buf := make([]byte, PageSize)
	if err := m.v.Pread(h, buf, int64(loc.offset)); err != nil {
		return err
	}
	eh, err := DecodeExtentHeader(buf)
	if err != nil {
		return err
	}
	bitMark(&eh.Bitmap, bit)
	wasFull := eh.FreePageCount == 0
	eh.FreePageCount++
	if err := m.v.Pwrite(h, EncodeExtentHeader(eh), int64(loc.offset)); err != nil {
		return err
	}

	if wasFull {
		// flMu is taken while sdMu is held, as in claimExtentForGrowth.
		// The extent is not in the free-list until this insert completes.
		ts.flMu.Lock()
		ts.fl.insert(loc.fileID, loc.offset, int(eh.FreePageCount))
		ts.flMu.Unlock()
	}
	return nil
}

// locateBit resolves logical index k to its extent location and bitmap bit
// position, using and extending entry.chainCache.
func locateBit(ts *tablespaceState, entry *segmentEntry, k uint64) (extentLoc, int, error) {
	var extIdx int
	var bit int
	if k < UsablePagesFirstExtent {
		extIdx = 0
		bit = int(k)
	} else {
		rem := k - UsablePagesFirstExtent
		extIdx = 1 + int(rem/UsablePagesPerExtent)
		bit = int(rem % UsablePagesPerExtent)
	}

	if loc, ok := entry.chainCache[extIdx]; ok {
		return loc, bit, nil
	}

	// Walk from the last cached position to extIdx, reading extent headers
	// to extend the cache.
	last := 0
	for idx := range entry.chainCache {
		if idx > last {
			last = idx
		}
	}
	loc := entry.chainCache[last]
	for i := last; i < extIdx; i++ {
		h, err := ts.files.Get(loc.fileID)
		if err != nil {
			return extentLoc{}, 0, err
		}
		buf := make([]byte, PageSize)
		if err := ts.v.Pread(h, buf, int64(loc.offset)); err != nil {
			return extentLoc{}, 0, err
		}
		eh, err := DecodeExtentHeader(buf)
		if err != nil {
			return extentLoc{}, 0, err
		}
		if eh.NextExtentPtr == NoExtent {
			return extentLoc{}, 0, aerrors.NewSegmentError(nil, aerrors.ErrorCodeExtentNotFound,
				"segment chain does not reach requested extent")
		}
		loc = extentLoc{fileID: loc.fileID, offset: eh.NextExtentPtr}
		entry.chainCache[i+1] = loc
	}
	return loc, bit, nil
}

// ReadPage returns a copy of the full page (header and body) at logical
// index k within segmentID.
func (m *Manager) ReadPage(tablespaceID, segmentID uint64, k uint64) ([]byte, error) {
	ts, err := m.get(tablespaceID)
	if err != nil {
		return nil, err
	}
	ref, err := ts.pool.Pin(encodePageID(segmentID, k))
	if err != nil {
		return nil, err
	}
	defer ts.pool.Unpin(ref)

	ref.RLock()
	out := make([]byte, PageSize)
	copy(out, ref.Page().Bytes())
	ref.RUnlock()
	return out, nil
}

// WritePage pins (allocating if this is the page's first write) logical
// index k within segmentID and overwrites its body with data.
func (m *Manager) WritePage(tablespaceID, segmentID uint64, k uint64, data []byte, fresh bool, typ page.Type) error {
	ts, err := m.get(tablespaceID)
	if err != nil {
		return err
	}
	id := encodePageID(segmentID, k)

	var ref *bufferpool.PageRef
	if fresh {
		ref, err = ts.pool.Allocate(id, typ)
	} else {
		ref, err = ts.pool.Pin(id)
	}
	if err != nil {
		return err
	}
	defer ts.pool.Unpin(ref)

	ref.Lock()
	body := ref.Page().Bytes()[page.HeaderSize:]
	n := copy(body, data)
	for i := n; i < len(body); i++ {
		body[i] = 0
	}
	ref.Unlock()
	ts.pool.MarkDirty(ref)
	return nil
}
