package seginfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintHeaderIsDeterministic(t *testing.T) {
	header := []byte("extent-header-bytes-for-testing")

	a := FingerprintHeader(128, header)
	b := FingerprintHeader(128, header)

	assert.Equal(t, a, b)
}

func TestFindDuplicatesFlagsMatchingHashes(t *testing.T) {
	same := []byte("identical-extent-header-contents")

	fps := []Fingerprint{
		FingerprintHeader(0, same),
		FingerprintHeader(1<<20, same),
		FingerprintHeader(2<<20, []byte("distinct-extent-header-contents")),
	}

	dupes := FindDuplicates(fps)
	assert.Equal(t, [][2]uint64{{0, 1 << 20}}, dupes)
}

func TestFindDuplicatesReturnsNilWhenAllDistinct(t *testing.T) {
	fps := []Fingerprint{
		FingerprintHeader(0, []byte("first-extent-header")),
		FingerprintHeader(1<<20, []byte("second-extent-header")),
	}

	assert.Nil(t, FindDuplicates(fps))
}
