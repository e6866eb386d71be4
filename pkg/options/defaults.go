package options

const (
	// DefaultDataDir is the base directory the engine stores tablespace
	// files and the system catalog under, when none is configured.
	DefaultDataDir = "/var/lib/aistore"

	// DefaultInitialFileSize is how large a newly created tablespace's
	// first file is sized to (rounded up to a whole number of extents).
	DefaultInitialFileSize uint64 = 16 * 1024 * 1024

	// MinInitialFileSize and MaxInitialFileSize bound
	// WithInitialFileSize; below the minimum a tablespace could not hold
	// even one segment's first extent, above the maximum a single
	// CreateTablespace call would stall on I/O for an unreasonable time.
	MinInitialFileSize uint64 = 1 * 1024 * 1024
	MaxInitialFileSize uint64 = 64 * 1024 * 1024 * 1024

	// DefaultAutoExtendSize is how much a tablespace file grows by when
	// the free-list runs dry and no extent can satisfy an allocation.
	DefaultAutoExtendSize uint64 = 4 * 1024 * 1024

	// MinAutoExtendSize and MaxAutoExtendSize bound WithAutoExtendSize.
	MinAutoExtendSize uint64 = 1024 * 1024
	MaxAutoExtendSize uint64 = 1024 * 1024 * 1024

	// DefaultBufferPoolSlots is the number of 8 KiB page slots held
	// resident when no explicit pool size is configured.
	DefaultBufferPoolSlots = 1024

	// MinBufferPoolSlots and MaxBufferPoolSlots bound
	// WithBufferPoolSlots. Below the minimum common access patterns
	// could not keep several pages pinned concurrently; above the maximum
	// a single process is almost certainly misconfigured rather than
	// intentionally large.
	MinBufferPoolSlots = 4
	MaxBufferPoolSlots = 1 << 20

	// DefaultHotFraction and DefaultColdFraction are the LRU-K
	// partition splits spec.md §3 names as defaults (50% hot, 30%
	// cold, the remaining 20% free).
	DefaultHotFraction  = 0.50
	DefaultColdFraction = 0.30
)

// defaultOptions holds the baseline configuration every Options value
// starts from before WithXxx functions are applied.
var defaultOptions = Options{
	DataDir:         DefaultDataDir,
	InitialFileSize: DefaultInitialFileSize,
	AutoExtendSize:  DefaultAutoExtendSize,
	BufferPoolSlots: DefaultBufferPoolSlots,
	HotFraction:     DefaultHotFraction,
	ColdFraction:    DefaultColdFraction,
}

// NewDefaultOptions returns a copy of the engine's baseline configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
