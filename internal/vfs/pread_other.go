//go:build !linux

package vfs

import "os"

// On non-Linux platforms we fall back to the stdlib's ReadAt/WriteAt, which
// the os package implements with pread/pwrite (or the platform equivalent)
// under the hood. Only Linux gets the unix.Pread/Pwrite fast path, since
// that is the platform this engine is tuned and tested for.
func preadAt(f *os.File, buf []byte, offset int64) (int, error) {
	n, err := f.ReadAt(buf, offset)
	if n == 0 && err == nil {
		return 0, errEOF
	}
	return n, err
}

func pwriteAt(f *os.File, buf []byte, offset int64) (int, error) {
	return f.WriteAt(buf, offset)
}

func fdatasync(f *os.File) error {
	return f.Sync()
}
