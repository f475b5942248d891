// Package serverheader implements the fixed on-disk header for "server
// sparse" (VMFS-sparse / COWD-style) extents, serialized into the first 4
// sectors of the extent file.
package serverheader

import (
	"fmt"

	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// Magic is the little-endian magic number for server-sparse (COWD) extents.
const Magic = 0x44574f43 // "COWD"

// HeaderSize is the total on-disk size of the header: 4 sectors.
const HeaderSize = 4 * sectormath.Sector

const (
	offMagic        = 0
	offVersion      = 4
	offFlags        = 8
	offCapacity     = 12
	offGrainSize    = 20
	offGdOffset     = 28
	offNumGDEntries = 36
	offFreeSector   = 44
)

// Header is the parsed form of a server-sparse extent header.
type Header struct {
	Version      uint32
	Flags        uint32
	Capacity     uint64 // sectors
	GrainSize    uint64 // sectors, always 1
	GdOffset     uint64 // sectors, fixed at 4
	NumGDEntries uint64 // = ceil(capacity_bytes / 2MiB)
	FreeSector   uint64 // = gd_offset + ceil(num_gd_entries*4 / 512)
}

// NewHeader computes a Header for a new server-sparse extent of the given
// capacity in bytes.
func NewHeader(capacityBytes uint64) Header {
	capacitySectors := sectormath.Ceil(capacityBytes, sectormath.Sector)
	numGDEntries := sectormath.Ceil(capacityBytes, 2*sectormath.OneMiB)
	gdOffset := uint64(4)
	freeSector := gdOffset + sectormath.Ceil(numGDEntries*4, sectormath.Sector)
	return Header{
		Version:      1,
		GrainSize:    1,
		Capacity:     capacitySectors,
		GdOffset:     gdOffset,
		NumGDEntries: numGDEntries,
		FreeSector:   freeSector,
	}
}

// Parse reads a Header from the first HeaderSize bytes of b.
func Parse(b []byte) (Header, error) {
	if len(b) < offFreeSector+8 {
		return Header{}, fmt.Errorf("serverheader: short buffer: %w", vmdkerr.ErrCorrupt)
	}
	magic := sectormath.ReadUint32(b, offMagic)
	if magic != Magic {
		return Header{}, fmt.Errorf("serverheader: bad magic %#x: %w", magic, vmdkerr.ErrNotAVmdk)
	}
	return Header{
		Version:      sectormath.ReadUint32(b, offVersion),
		Flags:        sectormath.ReadUint32(b, offFlags),
		Capacity:     sectormath.ReadUint64(b, offCapacity),
		GrainSize:    sectormath.ReadUint64(b, offGrainSize),
		GdOffset:     sectormath.ReadUint64(b, offGdOffset),
		NumGDEntries: sectormath.ReadUint64(b, offNumGDEntries),
		FreeSector:   sectormath.ReadUint64(b, offFreeSector),
	}, nil
}

// Serialize produces exactly HeaderSize bytes: magic, the fields of h at
// their fixed offsets, and zero padding for the remainder.
func (h Header) Serialize() []byte {
	buf := make([]byte, HeaderSize)
	sectormath.PutUint32(buf, offMagic, Magic)
	sectormath.PutUint32(buf, offVersion, h.Version)
	sectormath.PutUint32(buf, offFlags, h.Flags)
	sectormath.PutUint64(buf, offCapacity, h.Capacity)
	sectormath.PutUint64(buf, offGrainSize, h.GrainSize)
	sectormath.PutUint64(buf, offGdOffset, h.GdOffset)
	sectormath.PutUint64(buf, offNumGDEntries, h.NumGDEntries)
	sectormath.PutUint64(buf, offFreeSector, h.FreeSector)
	return buf
}
