package errors

// HashIndexError is a specialized error type for the buffer pool's hash-chain
// lookup index. Structural mutation of the index (insert/remove) is only
// ever performed by the buffer pool under its admission latch, so the
// conditions this type reports are precondition violations rather than
// ordinary, expected failures: inserting a page-id that already has a chain
// entry, or removing one that doesn't.
type HashIndexError struct {
	*baseError
	pageID    uint64
	bucket    uint32
	operation string
}

// NewHashIndexError creates a new hash-index-specific error.
func NewHashIndexError(err error, code ErrorCode, msg string) *HashIndexError {
	return &HashIndexError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while preserving the HashIndexError type.
func (he *HashIndexError) WithMessage(msg string) *HashIndexError {
	he.baseError.WithMessage(msg)
	return he
}

// WithCode sets the error code while preserving the HashIndexError type.
func (he *HashIndexError) WithCode(code ErrorCode) *HashIndexError {
	he.baseError.WithCode(code)
	return he
}

// WithDetail adds contextual information while preserving the HashIndexError type.
func (he *HashIndexError) WithDetail(key string, value any) *HashIndexError {
	he.baseError.WithDetail(key, value)
	return he
}

// WithPageID records which page-id was being inserted, looked up, or removed.
func (he *HashIndexError) WithPageID(id uint64) *HashIndexError {
	he.pageID = id
	return he
}

// WithBucket records which bucket chain was involved.
func (he *HashIndexError) WithBucket(bucket uint32) *HashIndexError {
	he.bucket = bucket
	return he
}

// WithOperation records which index operation was being performed
// (Lookup, Insert, Remove).
func (he *HashIndexError) WithOperation(op string) *HashIndexError {
	he.operation = op
	return he
}

// PageID returns the page-id involved in the error.
func (he *HashIndexError) PageID() uint64 {
	return he.pageID
}

// Bucket returns the bucket index involved in the error.
func (he *HashIndexError) Bucket() uint32 {
	return he.bucket
}

// Operation returns the name of the index operation that failed.
func (he *HashIndexError) Operation() string {
	return he.operation
}
