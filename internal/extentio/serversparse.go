package extentio

import (
	"fmt"
	"io"

	"github.com/goburrow/cache"

	"github.com/vmdkcore/vmdkcore/internal/ownership"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/serverheader"
	"github.com/vmdkcore/vmdkcore/internal/vio"
)

// serverGTEsPerGT is the fixed grain-table fan-out for server-sparse
// (COWD) extents.
const serverGTEsPerGT = 4096

// ServerSparseExtentStream is the server-sparse analogue of
// HostedSparseExtentStream: it walks a single grain directory whose
// entries point at fixed-size grain tables, each grain covering
// header.GrainSize sectors.
type ServerSparseExtentStream struct {
	file      vio.Stream
	header    serverheader.Header
	gd        []uint32
	gtCache   cache.LoadingCache
	grainSize int64 // bytes
	parent    ownership.Parent
}

// OpenServerSparseExtentStream loads the grain directory of a server-sparse
// extent and returns a stream over its logical content.
func OpenServerSparseExtentStream(file vio.Stream, header serverheader.Header, parent ownership.Parent) (*ServerSparseExtentStream, error) {
	gdBuf := make([]byte, header.NumGDEntries*4)
	if _, err := file.ReadAt(gdBuf, int64(header.GdOffset*sectormath.Sector)); err != nil {
		return nil, fmt.Errorf("extentio: failed to read grain directory: %w", err)
	}
	gd := make([]uint32, header.NumGDEntries)
	for i := range gd {
		gd[i] = sectormath.ReadUint32(gdBuf, i*4)
	}

	return &ServerSparseExtentStream{
		file:      file,
		header:    header,
		gd:        gd,
		gtCache:   newTableCache(),
		grainSize: int64(header.GrainSize * sectormath.Sector),
		parent:    parent,
	}, nil
}

// Size returns the logical capacity of the extent in bytes.
func (s *ServerSparseExtentStream) Size() int64 {
	return int64(s.header.Capacity * sectormath.Sector)
}

// Close releases the backing file and, if owned, the parent stream.
func (s *ServerSparseExtentStream) Close() error {
	err := s.file.Close()
	if perr := s.parent.Dispose(); perr != nil && err == nil {
		err = perr
	}
	return err
}

func (s *ServerSparseExtentStream) grainSectorFor(grainIndex uint64) (uint64, error) {
	gdIndex := grainIndex / serverGTEsPerGT
	gtIndex := grainIndex % serverGTEsPerGT
	if gdIndex >= uint64(len(s.gd)) {
		return 0, fmt.Errorf("extentio: grain index %d out of range", grainIndex)
	}
	gtSector := uint64(s.gd[gdIndex])
	if gtSector == 0 {
		return 0, nil
	}
	gt, err := readTable(s.gtCache, s.file, sectormath.Sector, gtSector, serverGTEsPerGT)
	if err != nil {
		return 0, err
	}
	return uint64(gt[gtIndex]), nil
}

// ReadAt implements io.ReaderAt over the logical content of the extent.
func (s *ServerSparseExtentStream) ReadAt(p []byte, off int64) (int, error) {
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

func (s *ServerSparseExtentStream) readFallthrough(dst []byte, logicalOff int64) error {
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
