// Package page implements the fixed 8 KiB storage unit the rest of the
// engine buffers, flushes, and addresses. A Page wraps a byte slice that is
// always exactly Size bytes long and interprets the first HeaderSize bytes
// as a packed, position-stable header; everything after that belongs to the
// body, whose contents are defined entirely by the consumer (heap tuples,
// B-tree entries, catalog rows, ...).
//
// Every header field is read and written at a fixed byte offset with
// encoding/binary rather than through a Go struct overlaid on the buffer:
// the host ABI would otherwise insert padding the on-disk format cannot
// tolerate, and the layout must stay identical across platforms.
package page

import (
	"encoding/binary"
	"hash/crc32"

	aerrors "github.com/SuperDan1/aistore/pkg/errors"
)

// Size is the fixed size of every page, in bytes.
const Size = 8192

// HeaderSize is the fixed size of the packed page header, in bytes.
const HeaderSize = 48

// Field offsets within the header, matching the on-disk layout exactly.
const (
	offChecksum  = 0
	offGlobalLSN = 4
	offPageLSN   = 12
	offWALID     = 20
	offSpecial   = 28
	offFlags     = 32
	offLower     = 34
	offUpper     = 36
	offType      = 38
	offSelfID    = 40
)

// ID is an opaque 64-bit page identifier. The storage layer interprets high
// bits as file-grouping and low bits as an in-file index; every other layer
// treats it as opaque.
type ID uint64

// InvalidID is the sentinel identifier for "no page" — an empty buffer slot,
// an extent chain terminator, or a not-yet-allocated segment page.
const InvalidID ID = ^ID(0)

// Type tags the kind of content a page's body holds.
type Type uint16

const (
	TypeInvalid Type = iota
	TypeData
	TypeInternal
	TypeLeaf
	TypeSpecial
)

// String renders a Type for logging.
func (t Type) String() string {
	switch t {
	case TypeData:
		return "Data"
	case TypeInternal:
		return "Internal"
	case TypeLeaf:
		return "Leaf"
	case TypeSpecial:
		return "Special"
	default:
		return "Invalid"
	}
}

// Valid reports whether t is one of the recognized page types.
func (t Type) Valid() bool {
	return t >= TypeInvalid && t <= TypeSpecial
}

// Page is a fixed Size-byte buffer with header accessors. The zero value is
// not usable; construct one with New or Wrap.
type Page struct {
	buf []byte
}

// New allocates a zero-filled page, tags it with typ, sets self-id, and
// initializes lower/upper to an empty body (lower=HeaderSize, upper=Size).
func New(id ID, typ Type) *Page {
	p := &Page{buf: make([]byte, Size)}
	p.SetType(typ)
	p.SetSelfID(id)
	p.SetLower(HeaderSize)
	p.SetUpper(Size)
	return p
}

// Wrap adapts an existing Size-byte buffer (typically a buffer-pool slot) as
// a Page without copying. It panics if buf is not exactly Size bytes long —
// a mismatched slot buffer is a programming error, not a reported one.
func Wrap(buf []byte) *Page {
	if len(buf) != Size {
		panic(aerrors.NewFatalError("page-buffer-size", "page buffer must be exactly Size bytes").
			WithDetail("got", len(buf)).WithDetail("want", Size))
	}
	return &Page{buf: buf}
}

// Bytes returns the page's full backing buffer, header and body included.
func (p *Page) Bytes() []byte { return p.buf }

// Checksum returns the stored CRC32 checksum field.
func (p *Page) Checksum() uint32 { return binary.LittleEndian.Uint32(p.buf[offChecksum:]) }

// SetChecksum writes the CRC32 checksum field.
func (p *Page) SetChecksum(v uint32) { binary.LittleEndian.PutUint32(p.buf[offChecksum:], v) }

// GlobalLSN returns the monotonic WAL ordering tag.
func (p *Page) GlobalLSN() uint64 { return binary.LittleEndian.Uint64(p.buf[offGlobalLSN:]) }

// SetGlobalLSN sets the monotonic WAL ordering tag.
func (p *Page) SetGlobalLSN(v uint64) { binary.LittleEndian.PutUint64(p.buf[offGlobalLSN:], v) }

// PageLSN returns the LSN of the last record that modified this page.
func (p *Page) PageLSN() uint64 { return binary.LittleEndian.Uint64(p.buf[offPageLSN:]) }

// SetPageLSN sets the LSN of the last record that modified this page.
func (p *Page) SetPageLSN(v uint64) { binary.LittleEndian.PutUint64(p.buf[offPageLSN:], v) }

// WALID returns the WAL segment identifier associated with the page's last update.
func (p *Page) WALID() uint64 { return binary.LittleEndian.Uint64(p.buf[offWALID:]) }

// SetWALID sets the WAL segment identifier.
func (p *Page) SetWALID(v uint64) { binary.LittleEndian.PutUint64(p.buf[offWALID:], v) }

// Special returns the page's special offset and reserved fields, packed
// little-endian into 32 bits: the low 16 bits are the offset, the next 16
// bits are reserved (the source's literal "14-bit offset + 2-bit reserved"
// split is ambiguous; this engine treats it as two 16-bit halves per
// spec.md's open-question resolution).
func (p *Page) Special() (offset, reserved uint16) {
	v := binary.LittleEndian.Uint32(p.buf[offSpecial:])
	return uint16(v & 0xFFFF), uint16(v >> 16)
}

// SetSpecial packs the special offset and reserved fields.
func (p *Page) SetSpecial(offset, reserved uint16) {
	v := uint32(offset) | uint32(reserved)<<16
	binary.LittleEndian.PutUint32(p.buf[offSpecial:], v)
}

// Flags returns the page's flag bits.
func (p *Page) Flags() uint16 { return binary.LittleEndian.Uint16(p.buf[offFlags:]) }

// SetFlags sets the page's flag bits.
func (p *Page) SetFlags(v uint16) { binary.LittleEndian.PutUint16(p.buf[offFlags:], v) }

// Lower returns the slot-array end (the array grows up from HeaderSize).
func (p *Page) Lower() uint16 { return binary.LittleEndian.Uint16(p.buf[offLower:]) }

// SetLower sets the slot-array end.
func (p *Page) SetLower(v uint16) { binary.LittleEndian.PutUint16(p.buf[offLower:], v) }

// Upper returns the tuple-area start (the area grows down from Size).
func (p *Page) Upper() uint16 { return binary.LittleEndian.Uint16(p.buf[offUpper:]) }

// SetUpper sets the tuple-area start.
func (p *Page) SetUpper(v uint16) { binary.LittleEndian.PutUint16(p.buf[offUpper:], v) }

// Type returns the page's type tag.
func (p *Page) Type() Type { return Type(binary.LittleEndian.Uint16(p.buf[offType:])) }

// SetType sets the page's type tag.
func (p *Page) SetType(t Type) { binary.LittleEndian.PutUint16(p.buf[offType:], uint16(t)) }

// SelfID returns the page's own identifier.
func (p *Page) SelfID() ID { return ID(binary.LittleEndian.Uint64(p.buf[offSelfID:])) }

// SetSelfID sets the page's own identifier.
func (p *Page) SetSelfID(id ID) { binary.LittleEndian.PutUint64(p.buf[offSelfID:], uint64(id)) }

// FreeSpace returns the number of unused bytes between the slot array and
// the tuple area.
func (p *Page) FreeSpace() uint16 {
	lower, upper := p.Lower(), p.Upper()
	if upper < lower {
		return 0
	}
	return upper - lower
}

// CheckInvariants verifies HeaderSize <= lower <= upper <= Size.
func (p *Page) CheckInvariants() bool {
	lower, upper := p.Lower(), p.Upper()
	return lower >= HeaderSize && lower <= upper && upper <= Size
}

// ComputeChecksum computes the CRC32 checksum over bytes [4, Size) — i.e.
// every header and body byte except the checksum field itself.
func (p *Page) ComputeChecksum() uint32 {
	return crc32.ChecksumIEEE(p.buf[offGlobalLSN:])
}

// Seal recomputes and stores the page's checksum. Callers invoke this
// immediately before a page is written to disk.
func (p *Page) Seal() {
	p.SetChecksum(p.ComputeChecksum())
}

// Verify recomputes the checksum and compares it against the stored value,
// returning a PageError wrapping ErrorCodeChecksumMismatch on disagreement.
// The engine treats verification failure as fatal for the page: callers
// must refuse to hand it out.
func (p *Page) Verify() error {
	stored := p.Checksum()
	computed := p.ComputeChecksum()
	if stored != computed {
		return aerrors.NewChecksumMismatchError(uint64(p.SelfID()), stored, computed)
	}
	return nil
}

// SlotArea returns the mutable slice spanning the slot array, from
// HeaderSize to the current lower bound.
func (p *Page) SlotArea() []byte {
	return p.buf[HeaderSize:p.Lower()]
}

// TupleArea returns the mutable slice spanning the tuple area, from the
// current upper bound to the end of the page.
func (p *Page) TupleArea() []byte {
	return p.buf[p.Upper():Size]
}

// AllocateTuple carves sz bytes off the top of the free region for a new
// tuple/entry and grows the slot array by one 2-byte pointer slot, returning
// the byte offset the tuple was placed at. It is the minimal building block
// higher layers (heap files, B-tree nodes) use to lay out variable-length
// records within a page; it does not itself interpret tuple contents.
func (p *Page) AllocateTuple(sz int) (uint16, error) {
	lower, upper := p.Lower(), p.Upper()
	need := uint16(sz) + 2 // slot pointer plus the tuple bytes
	if upper < lower || upper-lower < need {
		return 0, aerrors.NewPageError(nil, aerrors.ErrorCodeInvalidPageType, "insufficient free space for tuple").
			WithPageID(uint64(p.SelfID())).
			WithDetail("requested", sz).
			WithDetail("free", p.FreeSpace())
	}
	newUpper := upper - uint16(sz)
	binary.LittleEndian.PutUint16(p.buf[lower:], newUpper)
	p.SetLower(lower + 2)
	p.SetUpper(newUpper)
	return newUpper, nil
}
