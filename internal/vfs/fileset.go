package vfs

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// FileSet lazily opens and caches Handles for a tablespace's numbered data
// files, keyed by file id. The tablespace manager and buffer pool share one
// FileSet per open tablespace so a given file is only ever opened once.
type FileSet struct {
	vfs     *VFS
	dir     string
	pattern string
	fileSz  int64

	mu      sync.RWMutex
	handles map[uint32]*Handle
}

// NewFileSet creates a FileSet rooted at dir, naming files with pattern (a
// fmt verb such as "%08d.dat"). fileSz is stored on the FileSet but not
// read by it: Create sizes each new file from its own size argument.
func NewFileSet(v *VFS, dir, pattern string, fileSz int64) *FileSet {
	return &FileSet{
		vfs:     v,
		dir:     dir,
		pattern: pattern,
		fileSz:  fileSz,
		handles: make(map[uint32]*Handle),
	}
}

// path resolves fileID to a filename. A pattern with no '%' verb names a
// single fixed file (fileID is always 0, e.g. a tablespace's primary
// file); otherwise the pattern is treated as an fmt verb over fileID.
func (fs *FileSet) path(fileID uint32) string {
	name := fs.pattern
	if strings.Contains(fs.pattern, "%") {
		name = fmt.Sprintf(fs.pattern, fileID)
	}
	return filepath.Join(fs.dir, name)
}

// Get returns the open Handle for fileID, opening it (but not creating it)
// on first access.
func (fs *FileSet) Get(fileID uint32) (*Handle, error) {
	fs.mu.RLock()
	h, ok := fs.handles[fileID]
	fs.mu.RUnlock()
	if ok {
		return h, nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if h, ok := fs.handles[fileID]; ok {
		return h, nil
	}
	h, err := fs.vfs.Open(fs.path(fileID))
	if err != nil {
		return nil, err
	}
	fs.handles[fileID] = h
	return h, nil
}

// Create creates a new file for fileID at the given size and registers it.
func (fs *FileSet) Create(fileID uint32, size int64) (*Handle, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if h, ok := fs.handles[fileID]; ok {
		return h, nil
	}
	h, err := fs.vfs.Create(fs.path(fileID), size)
	if err != nil {
		return nil, err
	}
	fs.handles[fileID] = h
	return h, nil
}

// CloseAll closes every cached handle, continuing past per-file errors and
// returning the first one.
func (fs *FileSet) CloseAll() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var firstErr error
	for id, h := range fs.handles {
		if err := fs.vfs.Close(h); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(fs.handles, id)
	}
	return firstErr
}
