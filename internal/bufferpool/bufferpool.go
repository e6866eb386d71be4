// Package bufferpool implements the engine's page cache: a fixed set of
// 8 KiB slots serving one open tablespace (the tablespace manager creates
// one Pool per tablespace), addressed by page-id through a hash-chain
// index (internal/hashindex) and replaced under an LRU-K policy
// (internal/lruk). It is the only component that reads or writes data
// pages; the tablespace manager reads and writes its own extent-header
// and segment-header pages directly through the VFS, and reaches data
// pages only through pins.
//
// Lock ordering, in acquisition order: admission latch, then a slot's I/O
// lock, then a slot's content lock. The admission latch is held only long
// enough to look up or reserve a slot; it is never held across a disk
// read or write. A slot reserved for a page-id on a cache miss is linked
// into the hash index before the admission latch is released, so a second
// concurrent miss on the same page-id finds the reservation and waits on
// the slot's I/O lock rather than racing to allocate a second slot for the
// same page.
//
// The content lock guards the page body itself: shared (RLock) for
// callers only reading bytes, exclusive (Lock) for anything that mutates
// them. Flush takes the exclusive form rather than a shared snapshot,
// because sealing a page rewrites its checksum field in place immediately
// before the write — that is itself a mutation, so flush excludes
// concurrent modifiers the same way a direct body write would.
package bufferpool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/SuperDan1/aistore/internal/hashindex"
	"github.com/SuperDan1/aistore/internal/lruk"
	"github.com/SuperDan1/aistore/internal/page"
	"github.com/SuperDan1/aistore/internal/vfs"
	aerrors "github.com/SuperDan1/aistore/pkg/errors"
)

const nilSlot = int32(-1)

// Mapper resolves a page-id to the file and byte offset holding it. The
// buffer pool is agnostic to whether that resolution is a fixed formula
// over a single raw file or a lookup through a tablespace's segment
// directory; internal/tablespace supplies the latter, and also exports
// RawMapper for single-file, segment-free addressing.
type Mapper interface {
	Locate(id page.ID) (fileID uint32, offset int64, err error)
}

// FileProvider hands out VFS handles for numbered data files, typically
// backed by a vfs.FileSet shared with the tablespace manager.
type FileProvider interface {
	Get(fileID uint32) (*vfs.Handle, error)
}

// stateWord packs a slot's pin count (bits 8-63) and dirty flag (bit 0)
// into a single int64 so both can be read and mutated with one atomic
// operation.
type stateWord int64

func encodeState(pinCount int64, dirty bool) stateWord {
	var d int64
	if dirty {
		d = 1
	}
	return stateWord(pinCount<<8 | d)
}

func (s stateWord) pinCount() int64 { return int64(s) >> 8 }
func (s stateWord) dirty() bool     { return int64(s)&1 == 1 }

// slot is one cache frame: a fixed Size-byte buffer, the page-id currently
// resident there (only meaningful once io has completed at least once),
// and the locks serializing access to it.
type slot struct {
	buf    []byte
	pageID page.ID

	state atomic.Int64 // stateWord

	// ioLock is held for the duration of the disk read or write that
	// populates or persists this slot's content. A concurrent hit on a
	// slot still being loaded blocks on this lock rather than reading a
	// half-populated buffer.
	ioLock sync.Mutex

	// contentLock guards buf against concurrent body access once the slot
	// is resident: shared for readers, exclusive for any mutator
	// (WritePage's body overwrite, Allocate's fresh-page init, and
	// flush's checksum reseal).
	contentLock sync.RWMutex
}

func (s *slot) load() stateWord  { return stateWord(s.state.Load()) }
func (s *slot) pinCount() int64  { return s.load().pinCount() }
func (s *slot) isDirty() bool    { return s.load().dirty() }

func (s *slot) incrementPin() {
	for {
		old := s.load()
		next := encodeState(old.pinCount()+1, old.dirty())
		if s.state.CompareAndSwap(int64(old), int64(next)) {
			return
		}
	}
}

func (s *slot) decrementPin() error {
	for {
		old := s.load()
		if old.pinCount() <= 0 {
			return aerrors.NewFatalError("buffer-pin-underflow",
				"unpin called on a slot with zero pin count").
				WithDetail("pageId", uint64(s.pageID))
		}
		next := encodeState(old.pinCount()-1, old.dirty())
		if s.state.CompareAndSwap(int64(old), int64(next)) {
			return nil
		}
	}
}

func (s *slot) setDirty(dirty bool) {
	for {
		old := s.load()
		next := encodeState(old.pinCount(), dirty)
		if s.state.CompareAndSwap(int64(old), int64(next)) {
			return
		}
	}
}

// Config parameterizes a Pool.
type Config struct {
	Capacity    int
	BucketCount int
	Mapper      Mapper
	Files       FileProvider
	VFS         *vfs.VFS
	Logger      *zap.SugaredLogger

	// HotFraction/ColdFraction size the LRU-K manager's hot/cold
	// partitions as a fraction of Capacity (spec.md defaults: 50/30,
	// remainder free). Zero means use lruk's own defaults.
	HotFraction  float64
	ColdFraction float64
}

// Pool is the engine's shared page cache.
type Pool struct {
	slots   []slot
	hidx    *hashindex.Index
	repl    *lruk.Manager
	mapper  Mapper
	files   FileProvider
	vfs     *vfs.VFS
	log     *zap.SugaredLogger

	admissionMu sync.Mutex
}

// New allocates a Pool with cfg.Capacity slots.
func New(cfg Config) *Pool {
	bucketCount := cfg.BucketCount
	if bucketCount == 0 {
		bucketCount = cfg.Capacity * 2
	}
	repl := lruk.New(cfg.Capacity)
	if cfg.HotFraction > 0 && cfg.ColdFraction > 0 {
		repl = lruk.NewWithFractions(cfg.Capacity, cfg.HotFraction, cfg.ColdFraction)
	}
	p := &Pool{
		slots:  make([]slot, cfg.Capacity),
		hidx:   hashindex.New(cfg.Capacity, bucketCount),
		repl:   repl,
		mapper: cfg.Mapper,
		files:  cfg.Files,
		vfs:    cfg.VFS,
		log:    cfg.Logger,
	}
	for i := range p.slots {
		p.slots[i].buf = make([]byte, page.Size)
		p.slots[i].pageID = page.InvalidID
	}
	return p
}

// PageRef is a live pin on a resident page. Callers must call Unpin exactly
// once per successful Pin/Allocate call.
type PageRef struct {
	pool *Pool
	slot int32
	pg   *page.Page
}

// Page returns the pinned page for direct inspection or mutation. Callers
// that mutate the body must hold the content lock (Lock/Unlock) around the
// mutation and call MarkDirty afterward; callers that only read should
// hold it shared (RLock/RUnlock) to avoid a torn read against a concurrent
// flush or writer.
func (r *PageRef) Page() *page.Page { return r.pg }

// Lock acquires the page's content lock exclusively, for a caller about to
// mutate the page body directly.
func (r *PageRef) Lock() { r.pool.slots[r.slot].contentLock.Lock() }

// Unlock releases a lock taken by Lock.
func (r *PageRef) Unlock() { r.pool.slots[r.slot].contentLock.Unlock() }

// RLock acquires the page's content lock for shared reading.
func (r *PageRef) RLock() { r.pool.slots[r.slot].contentLock.RLock() }

// RUnlock releases a lock taken by RLock.
func (r *PageRef) RUnlock() { r.pool.slots[r.slot].contentLock.RUnlock() }

// Stats reports pool occupancy.
type Stats struct {
	Capacity       int
	Resident       int
	lruk.Stats
}

// Stats returns current occupancy.
func (p *Pool) Stats() Stats {
	return Stats{Capacity: len(p.slots), Resident: p.hidx.Len(), Stats: p.repl.Stats()}
}

// Pin returns a pinned reference to id, loading it from storage on a cache
// miss. Callers must Unpin the returned reference exactly once.
func (p *Pool) Pin(id page.ID) (*PageRef, error) {
	return p.pin(id, false, page.TypeInvalid)
}

// Allocate pins a brand-new page identified by id, skipping the disk read
// and initializing it as an empty page of typ. The page is marked dirty so
// a subsequent Flush or FlushAll persists it.
func (p *Pool) Allocate(id page.ID, typ page.Type) (*PageRef, error) {
	return p.pin(id, true, typ)
}

func (p *Pool) pin(id page.ID, fresh bool, typ page.Type) (*PageRef, error) {
	if id == page.InvalidID {
		return nil, aerrors.NewBufferError(nil, aerrors.ErrorCodeInvalidPageId,
			"cannot pin the invalid page id")
	}

	p.admissionMu.Lock()
	if idx, ok := p.hidx.Lookup(uint64(id)); ok {
		s := &p.slots[idx]
		s.incrementPin()
		p.repl.Touch(idx)
		p.admissionMu.Unlock()

		// A concurrent first-load or flush may still be in flight; block
		// until it finishes before handing back the buffer.
		s.ioLock.Lock()
		s.ioLock.Unlock()
		return &PageRef{pool: p, slot: idx, pg: page.Wrap(s.buf)}, nil
	}

	slotIdx := p.repl.AllocateFree()
	if slotIdx == nilSlot {
		var err error
		slotIdx, err = p.evictLocked()
		if err != nil {
			p.admissionMu.Unlock()
			return nil, err
		}
	}
	if slotIdx == nilSlot {
		p.admissionMu.Unlock()
		return nil, aerrors.NewBufferError(nil, aerrors.ErrorCodeBufferPoolFull,
			"no unpinned slot available to satisfy miss").
			WithPageID(uint64(id))
	}

	s := &p.slots[slotIdx]
	s.pageID = id
	if err := p.hidx.Insert(uint64(id), slotIdx); err != nil {
		p.admissionMu.Unlock()
		return nil, err
	}
	p.repl.Admit(slotIdx)
	s.incrementPin()
	s.ioLock.Lock()
	p.admissionMu.Unlock()

	defer s.ioLock.Unlock()

	if fresh {
		pg := page.New(id, typ)
		s.contentLock.Lock()
		copy(s.buf, pg.Bytes())
		s.contentLock.Unlock()
		s.setDirty(true)
		return &PageRef{pool: p, slot: slotIdx, pg: page.Wrap(s.buf)}, nil
	}

	if err := p.readSlot(s, id); err != nil {
		p.abortMiss(slotIdx, id)
		return nil, err
	}
	pg := page.Wrap(s.buf)
	if err := pg.Verify(); err != nil {
		p.abortMiss(slotIdx, id)
		return nil, err
	}
	if pg.SelfID() != id {
		p.abortMiss(slotIdx, id)
		return nil, aerrors.NewFatalError("page-identity-mismatch",
			"page loaded from storage does not carry the requested id").
			WithDetail("requested", uint64(id)).WithDetail("got", uint64(pg.SelfID()))
	}
	return &PageRef{pool: p, slot: slotIdx, pg: pg}, nil
}

// abortMiss unwinds a reserved slot after a failed load: drops the pin,
// removes the hash-index entry, and returns the slot to free. Called with
// the slot's ioLock already held by the caller (released by the caller's
// own defer).
func (p *Pool) abortMiss(slotIdx int32, id page.ID) {
	p.admissionMu.Lock()
	defer p.admissionMu.Unlock()
	s := &p.slots[slotIdx]
	s.decrementPin()
	p.hidx.Remove(uint64(id))
	p.repl.Remove(slotIdx)
	s.pageID = page.InvalidID
}

func (p *Pool) readSlot(s *slot, id page.ID) error {
	fileID, offset, err := p.mapper.Locate(id)
	if err != nil {
		return err
	}
	h, err := p.files.Get(fileID)
	if err != nil {
		return err
	}
	s.contentLock.Lock()
	defer s.contentLock.Unlock()
	return p.vfs.Pread(h, s.buf, offset)
}

// writeSlot reseals the page's checksum and persists it. The reseal writes
// into s.buf, so this takes the content lock exclusively for the whole
// operation rather than a shared snapshot read, excluding any concurrent
// reader or modifier until the write completes.
func (p *Pool) writeSlot(s *slot, id page.ID) error {
	fileID, offset, err := p.mapper.Locate(id)
	if err != nil {
		return err
	}
	h, err := p.files.Get(fileID)
	if err != nil {
		return err
	}
	s.contentLock.Lock()
	defer s.contentLock.Unlock()
	pg := page.Wrap(s.buf)
	pg.Seal()
	return p.vfs.Pwrite(h, s.buf, offset)
}

// evictLocked finds an unpinned slot to reuse, flushing it first if dirty.
// Called with admissionMu held; releases and reacquires it around any
// flush I/O, re-validating the candidate afterward since its state may
// have changed while the latch was released.
func (p *Pool) evictLocked() (int32, error) {
	cand := p.repl.EvictCandidate()
	for cand != nilSlot {
		s := &p.slots[cand]
		if s.pinCount() != 0 {
			cand = p.repl.NextCandidate(cand)
			continue
		}
		oldID := s.pageID
		if s.isDirty() {
			p.admissionMu.Unlock()
			err := p.flushOne(s, oldID)
			p.admissionMu.Lock()
			if err != nil {
				return nilSlot, err
			}
			if s.pinCount() != 0 || s.pageID != oldID {
				cand = p.repl.EvictCandidate()
				continue
			}
		}
		p.hidx.Remove(uint64(oldID))
		p.repl.Evict(cand)
		s.pageID = page.InvalidID
		return cand, nil
	}
	return nilSlot, nil
}

func (p *Pool) flushOne(s *slot, id page.ID) error {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()
	if !s.isDirty() {
		return nil
	}
	if err := p.writeSlot(s, id); err != nil {
		return err
	}
	s.setDirty(false)
	return nil
}

// MarkDirty flags ref's page as modified, so a later Flush or FlushAll
// persists it.
func (p *Pool) MarkDirty(ref *PageRef) {
	p.slots[ref.slot].setDirty(true)
}

// Unpin releases a pin taken by Pin or Allocate.
func (p *Pool) Unpin(ref *PageRef) error {
	return p.slots[ref.slot].decrementPin()
}

// Flush persists id's page if it is resident and dirty. It is a no-op if
// the page is not resident or not dirty.
func (p *Pool) Flush(id page.ID) error {
	p.admissionMu.Lock()
	idx, ok := p.hidx.Lookup(uint64(id))
	p.admissionMu.Unlock()
	if !ok {
		return nil
	}
	return p.flushOne(&p.slots[idx], id)
}

// FlushAll persists every dirty resident page, accumulating per-slot
// failures rather than stopping at the first one.
func (p *Pool) FlushAll() error {
	var errs error
	for i := range p.slots {
		s := &p.slots[i]
		if s.pageID == page.InvalidID || !s.isDirty() {
			continue
		}
		if err := p.flushOne(s, s.pageID); err != nil {
			errs = multierr.Append(errs, err)
			if p.log != nil {
				p.log.Errorw("failed to flush page", "pageId", uint64(s.pageID), "error", err)
			}
		}
	}
	return errs
}
