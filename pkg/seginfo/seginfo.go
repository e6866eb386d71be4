// Package seginfo supports reconstructing a tablespace's in-memory segment
// directory from on-disk extent headers after an unclean shutdown. The
// persistent format carries no standalone directory (internal/tablespace's
// design notes call this out explicitly): OpenTablespace rebuilds it by
// scanning every extent header in a file, and this package gives that scan
// a cheap way to notice when two extent headers fingerprint identically —
// the signature of a torn write that left a stale copy of another extent's
// header lying around, or a file that was truncated and re-grown without
// a full zero-fill.
//
// This intentionally does not use FNV-1a: that hash is reserved for the
// buffer pool's page-id bucket lookup (spec.md §4.3 names it specifically
// for that role). xxhash is a different, faster general-purpose hash with
// no such constraint, so it is used here instead to keep the two concerns
// on separate algorithms.
package seginfo

import "github.com/cespare/xxhash/v2"

// Fingerprint hashes the raw bytes of an on-disk extent header (before the
// trailing page-padding) so a directory-reconstruction scan can compare
// extents cheaply without holding every header in memory for byte-by-byte
// comparison.
type Fingerprint struct {
	Offset uint64
	Hash   uint64
}

// FingerprintHeader computes a Fingerprint for the extent header occupying
// headerBytes, recorded at the given byte offset within its file.
func FingerprintHeader(offset uint64, headerBytes []byte) Fingerprint {
	return Fingerprint{Offset: offset, Hash: xxhash.Sum64(headerBytes)}
}

// FindDuplicates scans fingerprints for hash collisions between distinct
// offsets and returns the offset pairs involved. A non-empty result does
// not itself prove corruption — two genuinely distinct, genuinely empty
// extents can hash identically — but it flags exactly the cases worth a
// closer look (e.g. with a full checksum comparison). OpenTablespace calls
// it during directory reconstruction and logs any pairs it returns.
func FindDuplicates(fingerprints []Fingerprint) [][2]uint64 {
	seen := make(map[uint64]uint64, len(fingerprints))
	var dupes [][2]uint64
	for _, fp := range fingerprints {
		if prevOffset, ok := seen[fp.Hash]; ok {
			dupes = append(dupes, [2]uint64{prevOffset, fp.Offset})
			continue
		}
		seen[fp.Hash] = fp.Offset
	}
	return dupes
}
