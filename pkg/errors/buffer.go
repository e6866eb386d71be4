package errors

// BufferError is a specialized error type for failures in the buffer pool's
// pin/admission/eviction path. It embeds baseError for chaining and
// structured details, adding the page identity, slot, and observed pin
// count needed to diagnose pinning pressure and admission failures.
type BufferError struct {
	*baseError
	pageID   uint64
	slot     int32
	pinCount int64
}

// NewBufferError creates a new buffer-pool-specific error.
func NewBufferError(err error, code ErrorCode, msg string) *BufferError {
	return &BufferError{baseError: NewBaseError(err, code, msg), slot: -1}
}

// WithMessage updates the error message while preserving the BufferError type.
func (be *BufferError) WithMessage(msg string) *BufferError {
	be.baseError.WithMessage(msg)
	return be
}

// WithCode sets the error code while preserving the BufferError type.
func (be *BufferError) WithCode(code ErrorCode) *BufferError {
	be.baseError.WithCode(code)
	return be
}

// WithDetail adds contextual information while preserving the BufferError type.
func (be *BufferError) WithDetail(key string, value any) *BufferError {
	be.baseError.WithDetail(key, value)
	return be
}

// WithPageID records which page was involved in the error.
func (be *BufferError) WithPageID(id uint64) *BufferError {
	be.pageID = id
	return be
}

// WithSlot records which buffer slot was involved in the error.
func (be *BufferError) WithSlot(slot int32) *BufferError {
	be.slot = slot
	return be
}

// WithPinCount records the pin count observed when the error occurred.
func (be *BufferError) WithPinCount(count int64) *BufferError {
	be.pinCount = count
	return be
}

// PageID returns the page identifier involved in the error.
func (be *BufferError) PageID() uint64 {
	return be.pageID
}

// Slot returns the buffer slot index involved in the error, or -1 if none.
func (be *BufferError) Slot() int32 {
	return be.slot
}

// PinCount returns the pin count observed when the error occurred.
func (be *BufferError) PinCount() int64 {
	return be.pinCount
}
