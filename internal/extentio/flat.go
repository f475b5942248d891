package extentio

import "github.com/vmdkcore/vmdkcore/internal/vio"

// FlatExtentStream adapts a vio.Stream (an ordinary file: a Flat, Vmfs,
// VmfsRdm, or VmfsRaw extent) into a sparsestream.Stream of a fixed,
// already-known size. There is no grain indirection: offsets pass through
// to the file unchanged.
type FlatExtentStream struct {
	file vio.Stream
	size int64
}

// NewFlatExtentStream wraps file, whose logical size is sizeBytes.
func NewFlatExtentStream(file vio.Stream, sizeBytes int64) *FlatExtentStream {
	return &FlatExtentStream{file: file, size: sizeBytes}
}

func (f *FlatExtentStream) Size() int64 { return f.size }

func (f *FlatExtentStream) Close() error { return f.file.Close() }

func (f *FlatExtentStream) ReadAt(p []byte, off int64) (int, error) {
	return f.file.ReadAt(p, off)
}
