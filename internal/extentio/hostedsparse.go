package extentio

import (
	"fmt"
	"io"

	"github.com/goburrow/cache"

	"github.com/vmdkcore/vmdkcore/internal/hostedheader"
	"github.com/vmdkcore/vmdkcore/internal/ownership"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/vio"
)

// HostedSparseExtentStream reads the logical content of a single
// hosted-sparse extent, walking its grain directory and grain tables and
// falling through to a parent stream (or zeros, if there is none) for
// unallocated grains.
type HostedSparseExtentStream struct {
	file      vio.Stream
	header    hostedheader.Header
	gd        []uint32
	gtCache   cache.LoadingCache
	grainSize int64 // bytes
	parent    ownership.Parent
}

// OpenHostedSparseExtentStream loads the grain directory of the extent
// backed by file (already positioned at its header start, i.e. relative
// offsets are from the start of this extent) and returns a stream over it.
// parent, if non-zero, is consulted for grains the directory marks
// unallocated.
func OpenHostedSparseExtentStream(file vio.Stream, header hostedheader.Header, parent ownership.Parent) (*HostedSparseExtentStream, error) {
	numGrainTables := sectormath.Ceil(header.Capacity, header.GrainSize*uint64(header.NumGTEsPerGT))
	// The primary grain directory is authoritative for reads; the
	// redundant directory exists for self-repair and is never consulted
	// here.
	gdOffset := header.GdOffset

	gdBuf := make([]byte, numGrainTables*4)
	if _, err := file.ReadAt(gdBuf, int64(gdOffset*sectormath.Sector)); err != nil {
		return nil, fmt.Errorf("extentio: failed to read grain directory: %w", err)
	}
	gd := make([]uint32, numGrainTables)
	for i := range gd {
		gd[i] = sectormath.ReadUint32(gdBuf, i*4)
	}

	return &HostedSparseExtentStream{
		file:      file,
		header:    header,
		gd:        gd,
		gtCache:   newTableCache(),
		grainSize: int64(header.GrainSize * sectormath.Sector),
		parent:    parent,
	}, nil
}

// Size returns the logical capacity of the extent in bytes.
func (s *HostedSparseExtentStream) Size() int64 {
	return int64(s.header.Capacity * sectormath.Sector)
}

// Close releases the backing file and, if owned, the parent stream.
func (s *HostedSparseExtentStream) Close() error {
	err := s.file.Close()
	if perr := s.parent.Dispose(); perr != nil && err == nil {
		err = perr
	}
	return err
}

func (s *HostedSparseExtentStream) grainSectorFor(grainIndex uint64) (uint64, error) {
	gtesPerGT := uint64(s.header.NumGTEsPerGT)
	gdIndex := grainIndex / gtesPerGT
	gtIndex := grainIndex % gtesPerGT
	if gdIndex >= uint64(len(s.gd)) {
		return 0, fmt.Errorf("extentio: grain index %d out of range", grainIndex)
	}
	gtSector := uint64(s.gd[gdIndex])
	if gtSector == 0 {
		return 0, nil
	}
	gt, err := readTable(s.gtCache, s.file, sectormath.Sector, gtSector, s.header.NumGTEsPerGT)
	if err != nil {
		return 0, err
	}
	return uint64(gt[gtIndex]), nil
}

// ReadAt implements io.ReaderAt over the logical, degapped content of the
// extent: allocated grains are read from this extent's data region,
// unallocated grains fall through to the parent (or read as zero).
func (s *HostedSparseExtentStream) ReadAt(p []byte, off int64) (int, error) {
	size := s.Size()
	if off >= size {
		return 0, io.EOF
	}
	if off+int64(len(p)) > size {
		p = p[:size-off]
	}

	n := 0
	for n < len(p) {
		grainIndex := uint64(off+int64(n)) / uint64(s.grainSize)
		grainOffsetInGrain := uint64(off+int64(n)) % uint64(s.grainSize)
		toRead := s.grainSize - int64(grainOffsetInGrain)
		if toRead > int64(len(p)-n) {
			toRead = int64(len(p) - n)
		}

		grainSector, err := s.grainSectorFor(grainIndex)
		if err != nil {
			return n, err
		}

		dst := p[n : n+int(toRead)]
		if grainSector == 0 {
			if err := s.readFallthrough(dst, off+int64(n)); err != nil {
				return n, err
			}
		} else {
			physOff := int64(grainSector*sectormath.Sector) + int64(grainOffsetInGrain)
			if _, err := s.file.ReadAt(dst, physOff); err != nil {
				return n, fmt.Errorf("extentio: failed to read grain: %w", err)
			}
		}

		n += int(toRead)
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *HostedSparseExtentStream) readFallthrough(dst []byte, logicalOff int64) error {
	parent := s.parent.Stream()
	if parent == nil {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}
	_, err := parent.ReadAt(dst, logicalOff)
	if err == io.EOF {
		err = nil
	}
	return err
}
