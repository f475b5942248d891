// Package concatstream composes an ordered sequence of sparsestream.Stream
// ranges into one logical stream, the way a multi-extent disk's per-extent
// streams are stitched into a single addressable content stream.
package concatstream

import (
	"fmt"
	"io"

	"github.com/vmdkcore/vmdkcore/internal/sparsestream"
)

// Range is one member of the composed sequence: a stream occupying
// [Offset, Offset+stream.Size()) of the logical address space.
type Range struct {
	Offset int64
	Stream sparsestream.Stream
}

// Stream concatenates a fixed, ordered list of Ranges. Ranges must be
// contiguous and gapless; Compose validates this.
type Stream struct {
	ranges []Range
	size   int64
}

// Compose builds a Stream from ranges, which must already be sorted by
// Offset, contiguous, and non-overlapping.
func Compose(ranges []Range) (*Stream, error) {
	if len(ranges) == 0 {
		return &Stream{}, nil
	}
	var want int64
	for i, r := range ranges {
		if r.Offset != want {
			return nil, fmt.Errorf("concatstream: range %d starts at %d, want %d", i, r.Offset, want)
		}
		want += r.Stream.Size()
	}
	return &Stream{ranges: ranges, size: want}, nil
}

func (s *Stream) Size() int64 { return s.size }

// Close closes every underlying range stream, returning the first error
// encountered (if any) after attempting all of them.
func (s *Stream) Close() error {
	var first error
	for _, r := range s.ranges {
		if err := r.Stream.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// indexFor returns the index of the range containing logical offset off.
func (s *Stream) indexFor(off int64) int {
	lo, hi := 0, len(s.ranges)
	for lo < hi {
		mid := (lo + hi) / 2
		r := s.ranges[mid]
		if off < r.Offset {
			hi = mid
		} else if off >= r.Offset+r.Stream.Size() {
			lo = mid + 1
		} else {
			return mid
		}
	}
	return -1
}

// ReadAt implements io.ReaderAt across the composed ranges, splitting a
// read at range boundaries as needed.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) {
	if off >= s.size {
		return 0, io.EOF
	}
	if off+int64(len(p)) > s.size {
		p = p[:s.size-off]
	}

	n := 0
	for n < len(p) {
		idx := s.indexFor(off + int64(n))
		if idx < 0 {
			return n, fmt.Errorf("concatstream: no range covers offset %d", off+int64(n))
		}
		r := s.ranges[idx]
		rangeOff := off + int64(n) - r.Offset
		toRead := r.Stream.Size() - rangeOff
		if toRead > int64(len(p)-n) {
			toRead = int64(len(p) - n)
		}

		rn, err := r.Stream.ReadAt(p[n:n+int(toRead)], rangeOff)
		n += rn
		if err != nil && err != io.EOF {
			return n, err
		}
		if rn < int(toRead) {
			return n, fmt.Errorf("concatstream: short read from range %d", idx)
		}
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
