// Package hashindex implements the buffer pool's page-id to slot-index
// lookup structure: a fixed bucket array of hash chains, with chain nodes
// held in a single pre-allocated arena and addressed by 32-bit index rather
// than pointer. This keeps the structure free of per-node heap allocations
// and GC pressure once the pool has reached steady state — every node the
// index will ever need is allocated once, at construction, alongside the
// buffer pool's slot array.
//
// The index only records the page-id to slot-index mapping; it has no
// notion of pinning, dirtiness, or replacement. Mutation is the buffer
// pool's responsibility, serialized under its admission latch.
package hashindex

import (
	"hash/fnv"

	aerrors "github.com/SuperDan1/aistore/pkg/errors"
)

// nilNode is the arena-index sentinel meaning "no node" (an empty chain, or
// a chain terminator).
const nilNode = ^uint32(0)

// node is one arena slot: a (page-id, buffer-slot) pair plus the index of
// the next node in its bucket's chain.
type node struct {
	pageID uint64
	slot   int32
	next   uint32
	inUse  bool
}

// Index is a fixed-capacity hash-chain index from page-id to buffer-slot
// index. Capacity matches the buffer pool's slot count; there is never more
// than one resident entry per page-id.
type Index struct {
	buckets []uint32
	arena   []node
	free    uint32 // head of the free node list, linked through node.next
}

// New allocates an Index sized for capacity resident pages. bucketCount
// should be a power of two at least as large as capacity for a reasonable
// load factor; New rounds up if it isn't.
func New(capacity int, bucketCount int) *Index {
	if bucketCount < capacity {
		bucketCount = nextPowerOfTwo(capacity)
	}
	idx := &Index{
		buckets: make([]uint32, bucketCount),
		arena:   make([]node, capacity),
	}
	for i := range idx.buckets {
		idx.buckets[i] = nilNode
	}
	for i := range idx.arena {
		idx.arena[i].next = uint32(i + 1)
	}
	if capacity > 0 {
		idx.arena[capacity-1].next = nilNode
	}
	idx.free = 0
	if capacity == 0 {
		idx.free = nilNode
	}
	return idx
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (idx *Index) bucketFor(pageID uint64) uint32 {
	h := fnv.New64a()
	var b [8]byte
	b[0] = byte(pageID)
	b[1] = byte(pageID >> 8)
	b[2] = byte(pageID >> 16)
	b[3] = byte(pageID >> 24)
	b[4] = byte(pageID >> 32)
	b[5] = byte(pageID >> 40)
	b[6] = byte(pageID >> 48)
	b[7] = byte(pageID >> 56)
	h.Write(b[:])
	return uint32(h.Sum64() % uint64(len(idx.buckets)))
}

// Lookup returns the buffer-slot index holding pageID, and whether it was
// found. Safe for concurrent callers that hold at least a read lock on
// whatever external lock serializes it against Insert/Remove.
func (idx *Index) Lookup(pageID uint64) (int32, bool) {
	b := idx.bucketFor(pageID)
	for n := idx.buckets[b]; n != nilNode; n = idx.arena[n].next {
		if idx.arena[n].inUse && idx.arena[n].pageID == pageID {
			return idx.arena[n].slot, true
		}
	}
	return 0, false
}

// Insert records that pageID now occupies slot. Returns a HashIndexError
// with ErrorCodeHashIndexDuplicate if pageID already has an entry — the
// buffer pool's admission path must never call Insert twice for the same
// page-id without an intervening Remove.
func (idx *Index) Insert(pageID uint64, slot int32) error {
	b := idx.bucketFor(pageID)
	for n := idx.buckets[b]; n != nilNode; n = idx.arena[n].next {
		if idx.arena[n].inUse && idx.arena[n].pageID == pageID {
			return aerrors.NewHashIndexError(nil, aerrors.ErrorCodeHashIndexDuplicate,
				"page-id already present in hash index").
				WithPageID(pageID).WithBucket(b).WithOperation("insert")
		}
	}
	if idx.free == nilNode {
		return aerrors.NewFatalError("hash-index-arena-exhausted",
			"hash index arena has no free nodes; capacity must match buffer pool slot count").
			WithDetail("pageId", pageID)
	}
	n := idx.free
	idx.free = idx.arena[n].next
	idx.arena[n] = node{pageID: pageID, slot: slot, next: idx.buckets[b], inUse: true}
	idx.buckets[b] = n
	return nil
}

// Remove deletes pageID's entry. Returns a HashIndexError with
// ErrorCodeHashIndexNotFound if no entry exists.
func (idx *Index) Remove(pageID uint64) error {
	b := idx.bucketFor(pageID)
	prev := nilNode
	for n := idx.buckets[b]; n != nilNode; n = idx.arena[n].next {
		if idx.arena[n].inUse && idx.arena[n].pageID == pageID {
			if prev == nilNode {
				idx.buckets[b] = idx.arena[n].next
			} else {
				idx.arena[prev].next = idx.arena[n].next
			}
			idx.arena[n] = node{next: idx.free}
			idx.free = n
			return nil
		}
		prev = n
	}
	return aerrors.NewHashIndexError(nil, aerrors.ErrorCodeHashIndexNotFound,
		"page-id has no hash index entry").
		WithPageID(pageID).WithBucket(b).WithOperation("remove")
}

// Len reports how many entries are currently present, by arena scan. The
// buffer pool calls it from Stats for its resident count; the pin path
// does not call it.
func (idx *Index) Len() int {
	n := 0
	for i := range idx.arena {
		if idx.arena[i].inUse {
			n++
		}
	}
	return n
}
