//go:build linux

package vfs

import (
	"os"

	"golang.org/x/sys/unix"
)

func preadAt(f *os.File, buf []byte, offset int64) (int, error) {
	n, err := unix.Pread(int(f.Fd()), buf, offset)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, errEOF
	}
	return n, nil
}

func pwriteAt(f *os.File, buf []byte, offset int64) (int, error) {
	return unix.Pwrite(int(f.Fd()), buf, offset)
}

func fdatasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
