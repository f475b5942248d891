// Package filelocator resolves extent filenames relative to some
// directory and opens or creates them.
package filelocator

import (
	"path/filepath"

	"github.com/vmdkcore/vmdkcore/internal/vio"
)

// FileLocator resolves extent filenames relative to a search root and
// opens or creates them as Streams.
type FileLocator interface {
	Open(relativeName string, share vio.ShareMode) (vio.Stream, error)
	Create(relativeName string) (vio.Stream, error)
	Resolve(relativeName string) string
}

// DirLocator resolves names against a directory on the local filesystem.
type DirLocator struct {
	Root string
}

// NewDirLocator returns a FileLocator rooted at dir.
func NewDirLocator(dir string) *DirLocator {
	return &DirLocator{Root: dir}
}

func (d *DirLocator) Resolve(relativeName string) string {
	return filepath.Join(d.Root, relativeName)
}

func (d *DirLocator) Open(relativeName string, share vio.ShareMode) (vio.Stream, error) {
	return vio.OpenFile(d.Resolve(relativeName), share)
}

func (d *DirLocator) Create(relativeName string) (vio.Stream, error) {
	return vio.CreateFile(d.Resolve(relativeName))
}
