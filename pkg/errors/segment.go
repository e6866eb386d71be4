package errors

// SegmentError is a specialized error type for failures in the
// tablespace/segment/extent layout layer. It follows the same shape as
// StorageError but adds the identifiers specific to the segmented,
// extent-chained file layout: which tablespace, segment, and extent were
// involved, on top of the file/path/offset context StorageError already
// captures.
type SegmentError struct {
	*baseError
	tablespaceID uint64
	segmentID    uint64
	extentOffset int64
	fileID       uint32
}

// NewSegmentError creates a new segment-layer error.
func NewSegmentError(err error, code ErrorCode, msg string) *SegmentError {
	return &SegmentError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while preserving the SegmentError type.
func (se *SegmentError) WithMessage(msg string) *SegmentError {
	se.baseError.WithMessage(msg)
	return se
}

// WithCode sets the error code while preserving the SegmentError type.
func (se *SegmentError) WithCode(code ErrorCode) *SegmentError {
	se.baseError.WithCode(code)
	return se
}

// WithDetail adds contextual information while preserving the SegmentError type.
func (se *SegmentError) WithDetail(key string, value any) *SegmentError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithTablespaceID records which tablespace was involved in the error.
func (se *SegmentError) WithTablespaceID(id uint64) *SegmentError {
	se.tablespaceID = id
	return se
}

// WithSegmentID records which segment was involved in the error.
func (se *SegmentError) WithSegmentID(id uint64) *SegmentError {
	se.segmentID = id
	return se
}

// WithExtentOffset records the byte offset of the extent involved in the error.
func (se *SegmentError) WithExtentOffset(offset int64) *SegmentError {
	se.extentOffset = offset
	return se
}

// WithFileID records which file within the tablespace was involved.
func (se *SegmentError) WithFileID(id uint32) *SegmentError {
	se.fileID = id
	return se
}

// TablespaceID returns the tablespace identifier involved in the error.
func (se *SegmentError) TablespaceID() uint64 {
	return se.tablespaceID
}

// SegmentID returns the segment identifier involved in the error.
func (se *SegmentError) SegmentID() uint64 {
	return se.segmentID
}

// ExtentOffset returns the byte offset of the extent involved in the error.
func (se *SegmentError) ExtentOffset() int64 {
	return se.extentOffset
}

// FileID returns the file identifier involved in the error.
func (se *SegmentError) FileID() uint32 {
	return se.fileID
}
