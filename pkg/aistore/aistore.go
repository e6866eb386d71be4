// Package aistore is the public entry point for the embedded storage
// engine: a page-cache and tablespace/segment/extent on-disk layout
// modeled on a relational database's storage manager. It exposes
// tablespace lifecycle management and page-level reads and writes backed
// by a buffer pool, without committing callers to any particular record
// or index format above the page boundary.
package aistore

import (
	"context"

	"github.com/SuperDan1/aistore/internal/engine"
	"github.com/SuperDan1/aistore/internal/page"
	"github.com/SuperDan1/aistore/internal/tablespace"
	"github.com/SuperDan1/aistore/pkg/logger"
	"github.com/SuperDan1/aistore/pkg/options"
)

// SegmentType tags what kind of object a segment stores.
type SegmentType = tablespace.SegmentType

const (
	SegmentTypeData      = tablespace.SegmentTypeData
	SegmentTypeIndex     = tablespace.SegmentTypeIndex
	SegmentTypeRollback  = tablespace.SegmentTypeRollback
	SegmentTypeSystem    = tablespace.SegmentTypeSystem
	SegmentTypeTemporary = tablespace.SegmentTypeTemporary
	SegmentTypeUndo      = tablespace.SegmentTypeUndo
)

// PageType tags the kind of content a page's body holds.
type PageType = page.Type

const (
	PageTypeData     = page.TypeData
	PageTypeInternal = page.TypeInternal
	PageTypeLeaf     = page.TypeLeaf
	PageTypeSpecial  = page.TypeSpecial
)

// PageID is an opaque page identifier returned by AllocatePage and
// consumed by FreePage.
type PageID = page.ID

// Instance represents a running storage engine instance rooted at one data
// directory. It encapsulates the core engine responsible for tablespace
// and page I/O, and the configuration options applied to this instance.
//
// Instance is the primary entry point for interacting with the storage
// engine, providing methods for creating and opening tablespaces,
// creating segments within them, and allocating, reading, writing, and
// freeing pages.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// NewInstance creates and initializes a new storage engine instance,
// bootstrapping its data directory. Each tablespace gets its own buffer
// pool when it is created or opened.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	o := options.New(opts...)

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: o})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: o}, nil
}

// CreateTablespace creates a new tablespace with the given name, backed by
// one initial file sized per this instance's configured InitialFileSize.
func (i *Instance) CreateTablespace(name string) (uint64, error) {
	return i.engine.CreateTablespace(name)
}

// OpenTablespace reopens a previously created tablespace, reconstructing
// its segment directory and free-list from the on-disk extent headers.
func (i *Instance) OpenTablespace(name string) (uint64, error) {
	return i.engine.OpenTablespace(name)
}

// DropTablespace closes and deletes a tablespace's backing files.
func (i *Instance) DropTablespace(tablespaceID uint64) error {
	return i.engine.DropTablespace(tablespaceID)
}

// CreateSegment allocates a new segment of the given type within a
// tablespace.
func (i *Instance) CreateSegment(tablespaceID uint64, typ SegmentType) (uint64, error) {
	return i.engine.CreateSegment(tablespaceID, typ)
}

// AllocatePage claims the next free page within a segment.
func (i *Instance) AllocatePage(tablespaceID, segmentID uint64) (PageID, error) {
	return i.engine.AllocatePage(tablespaceID, segmentID)
}

// FreePage releases a page back to its extent's free bitmap.
func (i *Instance) FreePage(tablespaceID uint64, id PageID) error {
	return i.engine.FreePage(tablespaceID, id)
}

// ReadPage reads the k-th logical page of a segment, returning a copy of
// its full contents (header and body).
func (i *Instance) ReadPage(tablespaceID, segmentID uint64, k uint64) ([]byte, error) {
	return i.engine.ReadPage(tablespaceID, segmentID, k)
}

// WritePage writes the k-th logical page of a segment. Pass fresh=true the
// first time a logical index is written, to allocate rather than pin the
// buffer slot.
func (i *Instance) WritePage(tablespaceID, segmentID uint64, k uint64, data []byte, fresh bool, typ PageType) error {
	return i.engine.WritePage(tablespaceID, segmentID, k, data, fresh, typ)
}

// Close gracefully shuts down the instance, flushing every tablespace's
// dirty pages and closing its file handles.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
