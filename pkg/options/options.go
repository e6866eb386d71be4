// Package options provides the functional-options configuration surface
// for the storage engine: where tablespace files live, how large they
// start and grow, and how big a buffer pool (and its LRU-K partitions)
// backs them. Page size and extent size are deliberately not configurable
// here — spec.md fixes them at compile time (8 KiB pages, 1 MiB extents)
// because they are baked into the on-disk format, not tunable per
// deployment — so they live as named constants in internal/tablespace and
// internal/page instead of in this struct.
package options

import "strings"

// Options holds every tunable parameter of an engine instance.
type Options struct {
	// DataDir is the base directory tablespace files and the system
	// catalog are stored under.
	DataDir string `json:"dataDir"`

	// InitialFileSize is how large a newly created tablespace's first
	// file is sized to, rounded up to a whole number of extents.
	InitialFileSize uint64 `json:"initialFileSize"`

	// AutoExtendSize is how many bytes a tablespace file grows by when
	// its free-list is exhausted and a new extent must be carved.
	AutoExtendSize uint64 `json:"autoExtendSize"`

	// BufferPoolSlots is the number of resident 8 KiB page slots in each
	// tablespace's buffer pool; every tablespace this engine instance
	// creates or opens gets its own pool of this size.
	BufferPoolSlots int `json:"bufferPoolSlots"`

	// HotFraction and ColdFraction size the LRU-K manager's hot and
	// cold partitions as a fraction of BufferPoolSlots; the remainder
	// is the free partition.
	HotFraction  float64 `json:"hotFraction"`
	ColdFraction float64 `json:"coldFraction"`
}

// OptionFunc modifies an Options value in place.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to the engine's baseline
// configuration, discarding any prior OptionFunc applications.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the base directory tablespace files are stored under.
// A blank directory is a no-op rather than an error, so callers can pass
// through an unvalidated user-supplied value directly.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithInitialFileSize sets the size a tablespace's first file is created
// at. Values outside [MinInitialFileSize, MaxInitialFileSize] are ignored.
func WithInitialFileSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinInitialFileSize && size <= MaxInitialFileSize {
			o.InitialFileSize = size
		}
	}
}

// WithAutoExtendSize sets the growth increment used when a tablespace's
// free-list runs dry. Values outside [MinAutoExtendSize,
// MaxAutoExtendSize] are ignored.
func WithAutoExtendSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinAutoExtendSize && size <= MaxAutoExtendSize {
			o.AutoExtendSize = size
		}
	}
}

// WithBufferPoolSlots sets the number of resident page slots. Values
// outside [MinBufferPoolSlots, MaxBufferPoolSlots] are ignored.
func WithBufferPoolSlots(slots int) OptionFunc {
	return func(o *Options) {
		if slots >= MinBufferPoolSlots && slots <= MaxBufferPoolSlots {
			o.BufferPoolSlots = slots
		}
	}
}

// WithLRUKPartitions sets the hot and cold partition fractions of the
// buffer pool's replacement policy. Both fractions must be positive and
// sum to no more than 1 (the remainder is the free partition); an
// invalid pair is a no-op, leaving the previous (or default) split.
func WithLRUKPartitions(hotFraction, coldFraction float64) OptionFunc {
	return func(o *Options) {
		if hotFraction > 0 && coldFraction > 0 && hotFraction+coldFraction <= 1.0 {
			o.HotFraction = hotFraction
			o.ColdFraction = coldFraction
		}
	}
}

// New builds an Options value by applying opts over the engine's baseline
// configuration in order.
func New(opts ...OptionFunc) *Options {
	o := NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}
