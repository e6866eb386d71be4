// Package engine provides the core database engine implementation for the
// aistore storage system.
//
// The engine serves as the central coordinator and entry point for all
// storage operations. It owns the data directory and the tablespace
// manager, which in turn owns every open tablespace's free-list, segment
// directory, and buffer pool.
//
// The engine implements a thread-safe interface with proper lifecycle
// management, ensuring resources are properly initialized and cleaned up.
// It uses atomic operations for state management to provide consistent
// behavior across concurrent operations.
package engine

import (
	"context"
	"errors"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/SuperDan1/aistore/internal/page"
	"github.com/SuperDan1/aistore/internal/tablespace"
	aerrors "github.com/SuperDan1/aistore/pkg/errors"
	"github.com/SuperDan1/aistore/pkg/filesys"
	"github.com/SuperDan1/aistore/pkg/options"
)

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = errors.New("operation failed: cannot access closed engine")
)

// Engine represents the main storage engine that coordinates all
// subsystems. It acts as the primary interface for tablespace and page
// operations and manages the lifecycle of the tablespace manager. The
// engine is designed to be thread-safe and supports concurrent operations
// while maintaining data consistency.
type Engine struct {
	options    *options.Options   // options contains all configuration parameters for the engine and its subsystems.
	log        *zap.SugaredLogger // log provides structured logging capabilities throughout the engine.
	closed     atomic.Bool        // closed is an atomic boolean that tracks the engine's lifecycle state.
	tablespace *tablespace.Manager
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates and initializes a new Engine instance with the provided
// configuration. It ensures the configured data directory exists before
// constructing the tablespace manager, so CreateTablespace can open its
// backing files without every caller having to bootstrap the directory
// itself.
//
// Returns:
//   - *Engine: A fully initialized engine ready for use
//   - error: Any error encountered during initialization, typically from directory setup
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config.Options == nil {
		return nil, aerrors.NewRequiredFieldError("Options")
	}

	if err := filesys.CreateDir(config.Options.DataDir, os.FileMode(0o755), true); err != nil {
		return nil, aerrors.NewStorageError(err, aerrors.ErrorCodeIO, "failed to create data directory").
			WithPath(config.Options.DataDir)
	}

	tsm := tablespace.New(tablespace.Config{
		DataDir:         config.Options.DataDir,
		InitialFileSize: int64(config.Options.InitialFileSize),
		AutoExtendSize:  int64(config.Options.AutoExtendSize),
		BufferPoolSlots: config.Options.BufferPoolSlots,
		HotFraction:     config.Options.HotFraction,
		ColdFraction:    config.Options.ColdFraction,
		Logger:          config.Logger,
	})

	return &Engine{
		options:    config.Options,
		log:        config.Logger,
		tablespace: tsm,
	}, nil
}

// CreateTablespace creates a new tablespace with the given name, backed by
// one initial file sized per the engine's configured InitialFileSize.
func (e *Engine) CreateTablespace(name string) (uint64, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	return e.tablespace.CreateTablespace(name)
}

// OpenTablespace reopens a previously created tablespace, reconstructing
// its segment directory and free-list from the on-disk extent headers.
func (e *Engine) OpenTablespace(name string) (uint64, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	return e.tablespace.OpenTablespace(name)
}

// DropTablespace closes and deletes a tablespace's backing files.
func (e *Engine) DropTablespace(tablespaceID uint64) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.tablespace.DropTablespace(tablespaceID)
}

// CreateSegment allocates a new segment of the given type within a
// tablespace, claiming its first extent from the free-list.
func (e *Engine) CreateSegment(tablespaceID uint64, typ tablespace.SegmentType) (uint64, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	return e.tablespace.CreateSegment(tablespaceID, typ)
}

// AllocatePage claims the next free page within a segment, growing the
// segment with a fresh extent if none of its existing extents have room.
func (e *Engine) AllocatePage(tablespaceID, segmentID uint64) (page.ID, error) {
	if e.closed.Load() {
		return page.InvalidID, ErrEngineClosed
	}
	return e.tablespace.AllocatePage(tablespaceID, segmentID)
}

// FreePage releases a page back to its extent's free bitmap, re-inserting
// the extent into the tablespace free-list if it had no free page before
// this call.
func (e *Engine) FreePage(tablespaceID uint64, id page.ID) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.tablespace.FreePage(tablespaceID, id)
}

// ReadPage reads the k-th logical page of a segment through the buffer
// pool, pinning, reading, and unpinning it.
func (e *Engine) ReadPage(tablespaceID, segmentID uint64, k uint64) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	return e.tablespace.ReadPage(tablespaceID, segmentID, k)
}

// WritePage writes the k-th logical page of a segment through the buffer
// pool, marking it dirty rather than forcing it to disk immediately.
func (e *Engine) WritePage(tablespaceID, segmentID uint64, k uint64, data []byte, fresh bool, typ page.Type) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.tablespace.WritePage(tablespaceID, segmentID, k, data, fresh, typ)
}

// Close gracefully shuts down the engine and releases all associated
// resources. This method ensures every tablespace's dirty pages are
// flushed and its file handles closed before the engine becomes unusable.
func (e *Engine) Close() error {
	// Use atomic compare-and-swap to transition from open (false) to closed (true).
	// This operation is atomic and thread-safe, ensuring only one goroutine
	// can successfully close the engine.
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	return e.tablespace.Close()
}
