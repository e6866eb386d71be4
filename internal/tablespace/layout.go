// Package tablespace implements the on-disk layout layer: files are
// divided into fixed 1 MiB extents, extents are chained into segments, and
// a tablespace aggregates one or more files behind a single free-extent
// list and segment directory. Every persistent header carries a CRC32 over
// its own bytes with the checksum field zeroed, verified on every load.
package tablespace

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/SuperDan1/aistore/internal/page"
	aerrors "github.com/SuperDan1/aistore/pkg/errors"
)

const (
	// PageSize is the fixed page size shared with the page package.
	PageSize = page.Size

	// PagesPerExtent is the number of pages spanned by one extent.
	PagesPerExtent = 128

	// ExtentSize is the byte size of one extent: 1 MiB.
	ExtentSize = PagesPerExtent * PageSize

	// UsablePagesPerExtent is the number of data pages in a regular
	// extent: every page except the leading extent-header page.
	UsablePagesPerExtent = PagesPerExtent - 1

	// UsablePagesFirstExtent is the number of data pages in the first
	// extent of a segment's chain: the extent-header page and the
	// dedicated segment-header page are both unavailable for data.
	UsablePagesFirstExtent = PagesPerExtent - 2

	// FileHeaderSize is the packed size of a data file's header: magic,
	// version, file-id, tablespace-id, file-size, extent-count,
	// free-page-count, flags and checksum, with no implicit padding.
	FileHeaderSize = 44

	// ExtentHeaderSize is the packed size of an extent header. It occupies
	// the leading bytes of the extent's first page; the rest of that page
	// is unused padding.
	ExtentHeaderSize = 56

	// SegmentHeaderSize is the packed size of a segment header. It
	// occupies the leading bytes of the dedicated segment-header page.
	SegmentHeaderSize = 36

	fileMagic uint32 = 0x41535452 // "ASTR", little-endian
)

// bitmapBytes is the size of an extent header's free-page bitmap: one bit
// per usable page, rounded up to whole bytes (127 bits -> 16 bytes).
const bitmapBytes = 16

// FileHeader is the header at offset 0 of every data file.
type FileHeader struct {
	Version       uint32
	FileID        uint32
	TablespaceID  uint64
	FileSize      uint64
	ExtentCount   uint32
	FreePageCount uint32
	Flags         uint32
}

// EncodeFileHeader serializes h, computing and storing its checksum.
func EncodeFileHeader(h FileHeader) []byte {
	buf := make([]byte, FileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], fileMagic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.FileID)
	binary.LittleEndian.PutUint64(buf[12:20], h.TablespaceID)
	binary.LittleEndian.PutUint64(buf[20:28], h.FileSize)
	binary.LittleEndian.PutUint32(buf[28:32], h.ExtentCount)
	binary.LittleEndian.PutUint32(buf[32:36], h.FreePageCount)
	binary.LittleEndian.PutUint32(buf[36:40], h.Flags)
	cksum := crc32.ChecksumIEEE(buf[:40])
	binary.LittleEndian.PutUint32(buf[40:44], cksum)
	return buf
}

// DecodeFileHeader parses and verifies a FileHeaderSize-byte buffer,
// returning an InvalidFileHeader SegmentError if the magic or checksum do
// not match.
func DecodeFileHeader(buf []byte) (FileHeader, error) {
	if len(buf) < FileHeaderSize {
		return FileHeader{}, aerrors.NewSegmentError(nil, aerrors.ErrorCodeInvalidFileHeader,
			"file header buffer too short")
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	stored := binary.LittleEndian.Uint32(buf[40:44])
	computed := crc32.ChecksumIEEE(buf[:40])
	if magic != fileMagic || stored != computed {
		return FileHeader{}, aerrors.NewSegmentError(nil, aerrors.ErrorCodeInvalidFileHeader,
			"file header failed magic or checksum validation").
			WithDetail("magicOk", magic == fileMagic).
			WithDetail("storedChecksum", stored).
			WithDetail("computedChecksum", computed)
	}
	return FileHeader{
		Version:       binary.LittleEndian.Uint32(buf[4:8]),
		FileID:        binary.LittleEndian.Uint32(buf[8:12]),
		TablespaceID:  binary.LittleEndian.Uint64(buf[12:20]),
		FileSize:      binary.LittleEndian.Uint64(buf[20:28]),
		ExtentCount:   binary.LittleEndian.Uint32(buf[28:32]),
		FreePageCount: binary.LittleEndian.Uint32(buf[32:36]),
		Flags:         binary.LittleEndian.Uint32(buf[36:40]),
	}, nil
}

// ExtentHeader is the header occupying the first page of every extent.
type ExtentHeader struct {
	FileID        uint32
	TablespaceID  uint64
	ExtentOffset  uint64 // byte offset of this extent within its file
	PageCount     uint32
	FreePageCount uint32
	Bitmap        [bitmapBytes]byte // bit=1 means the corresponding page is free
	NextExtentPtr uint64            // absolute byte offset of the next extent in the chain, or NoExtent
}

// NoExtent is the sentinel NextExtentPtr value meaning "end of chain".
const NoExtent = ^uint64(0)

// EncodeExtentHeader serializes h into a PageSize-byte buffer (the header
// occupies the leading ExtentHeaderSize bytes; the rest is zero padding).
func EncodeExtentHeader(h ExtentHeader) []byte {
	buf := make([]byte, PageSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.FileID)
	binary.LittleEndian.PutUint64(buf[4:12], h.TablespaceID)
	binary.LittleEndian.PutUint64(buf[12:20], h.ExtentOffset)
	binary.LittleEndian.PutUint32(buf[20:24], h.PageCount)
	binary.LittleEndian.PutUint32(buf[24:28], h.FreePageCount)
	copy(buf[28:28+bitmapBytes], h.Bitmap[:])
	binary.LittleEndian.PutUint64(buf[48:56], h.NextExtentPtr)
	cksum := crc32.ChecksumIEEE(buf[:44])
	// Checksum sits between the bitmap and next-extent-ptr per the wire
	// layout: bitmap ends at 44, checksum occupies 44..48, next-extent-ptr
	// occupies 48..56.
	binary.LittleEndian.PutUint32(buf[44:48], cksum)
	return buf
}

// DecodeExtentHeader parses and verifies a page's leading
// ExtentHeaderSize bytes.
func DecodeExtentHeader(buf []byte) (ExtentHeader, error) {
	if len(buf) < ExtentHeaderSize {
		return ExtentHeader{}, aerrors.NewSegmentError(nil, aerrors.ErrorCodeInvalidExtentHeader,
			"extent header buffer too short")
	}
	stored := binary.LittleEndian.Uint32(buf[44:48])
	computed := crc32.ChecksumIEEE(buf[:44])
	if stored != computed {
		return ExtentHeader{}, aerrors.NewSegmentError(nil, aerrors.ErrorCodeInvalidExtentHeader,
			"extent header checksum mismatch").
			WithDetail("storedChecksum", stored).
			WithDetail("computedChecksum", computed)
	}
	h := ExtentHeader{
		FileID:        binary.LittleEndian.Uint32(buf[0:4]),
		TablespaceID:  binary.LittleEndian.Uint64(buf[4:12]),
		ExtentOffset:  binary.LittleEndian.Uint64(buf[12:20]),
		PageCount:     binary.LittleEndian.Uint32(buf[20:24]),
		FreePageCount: binary.LittleEndian.Uint32(buf[24:28]),
		NextExtentPtr: binary.LittleEndian.Uint64(buf[48:56]),
	}
	copy(h.Bitmap[:], buf[28:28+bitmapBytes])
	return h, nil
}

// SegmentHeader is the header occupying the dedicated segment-header page
// of a segment's first extent.
type SegmentHeader struct {
	SegmentID     uint64
	SegmentType   uint8
	NextExtentPtr uint64
	TotalPages    uint64
}

// EncodeSegmentHeader serializes h into a PageSize-byte buffer.
func EncodeSegmentHeader(h SegmentHeader) []byte {
	buf := make([]byte, PageSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.SegmentID)
	buf[8] = h.SegmentType
	// buf[9:16] is reserved padding, left zero.
	binary.LittleEndian.PutUint64(buf[16:24], h.NextExtentPtr)
	binary.LittleEndian.PutUint64(buf[24:32], h.TotalPages)
	cksum := crc32.ChecksumIEEE(buf[:32])
	binary.LittleEndian.PutUint32(buf[32:36], cksum)
	return buf
}

// DecodeSegmentHeader parses and verifies a page's leading
// SegmentHeaderSize bytes.
func DecodeSegmentHeader(buf []byte) (SegmentHeader, error) {
	if len(buf) < SegmentHeaderSize {
		return SegmentHeader{}, aerrors.NewSegmentError(nil, aerrors.ErrorCodeInvalidSegmentHeader,
			"segment header buffer too short")
	}
	stored := binary.LittleEndian.Uint32(buf[32:36])
	computed := crc32.ChecksumIEEE(buf[:32])
	if stored != computed {
		return SegmentHeader{}, aerrors.NewSegmentError(nil, aerrors.ErrorCodeInvalidSegmentHeader,
			"segment header checksum mismatch").
			WithDetail("storedChecksum", stored).
			WithDetail("computedChecksum", computed)
	}
	return SegmentHeader{
		SegmentID:     binary.LittleEndian.Uint64(buf[0:8]),
		SegmentType:   buf[8],
		NextExtentPtr: binary.LittleEndian.Uint64(buf[16:24]),
		TotalPages:    binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}
