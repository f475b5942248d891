// Package vio defines the byte-stream abstraction the rest of vmdkcore is
// built against, and a local-file-backed implementation of it. Read and
// write access are merged into a single random-access interface since
// VMDK extents need both directions depending on the disk's access mode.
package vio

import (
	"io"
	"os"
)

// Stream is a random-access byte stream: a file, or anything shaped like
// one (an in-memory buffer in tests, a monolithic embedded-descriptor
// stream, etc).
type Stream interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Size() (int64, error)
	Truncate(size int64) error
}

// ShareMode governs how concurrent openers of the same file are expected
// to coordinate. vmdkcore does not take OS-level locks; ShareMode only
// selects the underlying open flags.
type ShareMode int

const (
	ShareRead ShareMode = iota
	ShareExclusive
)

// FileStream wraps an *os.File as a Stream.
type FileStream struct {
	f *os.File
}

// OpenFile opens path for the given share mode. ShareExclusive opens
// read-write; ShareRead opens read-only.
func OpenFile(path string, share ShareMode) (*FileStream, error) {
	flag := os.O_RDONLY
	if share == ShareExclusive {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileStream{f: f}, nil
}

// CreateFile creates (or truncates) path for read-write access.
func CreateFile(path string) (*FileStream, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileStream{f: f}, nil
}

func (s *FileStream) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *FileStream) WriteAt(p []byte, off int64) (int, error) {
	return s.f.WriteAt(p, off)
}

func (s *FileStream) Close() error {
	return s.f.Close()
}

func (s *FileStream) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (s *FileStream) Truncate(size int64) error {
	return s.f.Truncate(size)
}

// MemStream is an in-memory Stream, used by tests and by
// open-from-embedded-descriptor flows.
type MemStream struct {
	buf []byte
}

// NewMemStream wraps an existing byte slice (copied) as a Stream.
func NewMemStream(data []byte) *MemStream {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &MemStream{buf: buf}
}

func (s *MemStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, os.ErrInvalid
	}
	if off >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *MemStream) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	return copy(s.buf[off:], p), nil
}

func (s *MemStream) Close() error { return nil }

func (s *MemStream) Size() (int64, error) { return int64(len(s.buf)), nil }

func (s *MemStream) Truncate(size int64) error {
	if size <= int64(len(s.buf)) {
		s.buf = s.buf[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, s.buf)
	s.buf = grown
	return nil
}

// Bytes returns the current contents of the MemStream.
func (s *MemStream) Bytes() []byte {
	return s.buf
}
