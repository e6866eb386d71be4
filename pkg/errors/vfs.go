package errors

// VFSError is a specialized error type for failures in the positional
// file-I/O layer: opening, creating, truncating, reading, writing, and
// syncing named files. It embeds baseError for chaining and structured
// details, adding the path and offset that located the failure.
type VFSError struct {
	*baseError
	path      string
	offset    int64
	operation string
}

// NewVFSError creates a new VFS-specific error.
func NewVFSError(err error, code ErrorCode, msg string) *VFSError {
	return &VFSError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while preserving the VFSError type.
func (ve *VFSError) WithMessage(msg string) *VFSError {
	ve.baseError.WithMessage(msg)
	return ve
}

// WithCode sets the error code while preserving the VFSError type.
func (ve *VFSError) WithCode(code ErrorCode) *VFSError {
	ve.baseError.WithCode(code)
	return ve
}

// WithDetail adds contextual information while preserving the VFSError type.
func (ve *VFSError) WithDetail(key string, value any) *VFSError {
	ve.baseError.WithDetail(key, value)
	return ve
}

// WithPath records which file path was involved in the error.
func (ve *VFSError) WithPath(path string) *VFSError {
	ve.path = path
	return ve
}

// WithOffset records the byte offset of the positional operation that failed.
func (ve *VFSError) WithOffset(offset int64) *VFSError {
	ve.offset = offset
	return ve
}

// WithOperation records which VFS operation was being performed (open,
// create, truncate, pread, pwrite, sync, close).
func (ve *VFSError) WithOperation(op string) *VFSError {
	ve.operation = op
	return ve
}

// Path returns the file path involved in the error.
func (ve *VFSError) Path() string {
	return ve.path
}

// Offset returns the byte offset of the failed positional operation.
func (ve *VFSError) Offset() int64 {
	return ve.offset
}

// Operation returns the name of the VFS operation that failed.
func (ve *VFSError) Operation() string {
	return ve.operation
}
