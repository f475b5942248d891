// Package hostedheader implements the fixed 512-byte on-disk header for
// "hosted sparse" VMDK extents: magic detection and byte-exact
// serialize/parse.
package hostedheader

import (
	"fmt"

	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// Magic is the little-endian "KDMV" magic number for hosted-sparse extents.
const Magic = 0x564d444b

// HeaderSize is the total on-disk size of the header, sector-aligned.
const HeaderSize = sectormath.Sector

// Flags bits.
const (
	FlagValidLineDetectionTest uint32 = 1 << 0
	FlagRedundantGrainTable    uint32 = 1 << 1
	FlagCompressed             uint32 = 1 << 16
	FlagMarkers                uint32 = 1 << 17
)

const (
	singleEndLineChar  = '\n'
	nonEndLineChar     = ' '
	doubleEndLineChar1 = '\r'
	doubleEndLineChar2 = '\n'
)

// Header is the parsed form of a hosted-sparse extent header.
type Header struct {
	Version          uint32
	Flags            uint32
	Capacity         uint64 // sectors
	GrainSize        uint64 // sectors
	DescriptorOffset uint64 // sectors
	DescriptorSize   uint64 // sectors
	NumGTEsPerGT     uint32
	RgdOffset        uint64 // sectors
	GdOffset         uint64 // sectors
	Overhead         uint64 // sectors
}

// Byte offsets within the 512-byte header, matching the on-disk VMware
// layout this corpus reads and writes against.
const (
	offMagic              = 0
	offVersion            = 4
	offFlags              = 8
	offCapacity           = 12
	offGrainSize          = 20
	offDescriptorOffset   = 28
	offDescriptorSize     = 36
	offNumGTEsPerGT       = 44
	offRgdOffset          = 48
	offGdOffset           = 56
	offOverhead           = 64
	offUncleanShutdown    = 72
	offSingleEndLineChar  = 73
	offNonEndLineChar     = 74
	offDoubleEndLineChar1 = 75
	offDoubleEndLineChar2 = 76
)

// Parse reads a Header from the first HeaderSize bytes of b. Returns
// vmdkerr.ErrNotAVmdk if the magic does not match.
func Parse(b []byte) (Header, error) {
	if len(b) < offDoubleEndLineChar2+1 {
		return Header{}, fmt.Errorf("hostedheader: short buffer: %w", vmdkerr.ErrCorrupt)
	}
	magic := sectormath.ReadUint32(b, offMagic)
	if magic != Magic {
		return Header{}, fmt.Errorf("hostedheader: bad magic %#x: %w", magic, vmdkerr.ErrNotAVmdk)
	}
	h := Header{
		Version:          sectormath.ReadUint32(b, offVersion),
		Flags:            sectormath.ReadUint32(b, offFlags),
		Capacity:         sectormath.ReadUint64(b, offCapacity),
		GrainSize:        sectormath.ReadUint64(b, offGrainSize),
		DescriptorOffset: sectormath.ReadUint64(b, offDescriptorOffset),
		DescriptorSize:   sectormath.ReadUint64(b, offDescriptorSize),
		NumGTEsPerGT:     sectormath.ReadUint32(b, offNumGTEsPerGT),
		RgdOffset:        sectormath.ReadUint64(b, offRgdOffset),
		GdOffset:         sectormath.ReadUint64(b, offGdOffset),
		Overhead:         sectormath.ReadUint64(b, offOverhead),
	}
	return h, nil
}

// Serialize produces exactly HeaderSize bytes: magic, the fields of h at
// their fixed offsets, the newline-detector bytes, and zero padding for the
// remainder.
func (h Header) Serialize() []byte {
	buf := make([]byte, HeaderSize)
	sectormath.PutUint32(buf, offMagic, Magic)
	sectormath.PutUint32(buf, offVersion, h.Version)
	sectormath.PutUint32(buf, offFlags, h.Flags)
	sectormath.PutUint64(buf, offCapacity, h.Capacity)
	sectormath.PutUint64(buf, offGrainSize, h.GrainSize)
	sectormath.PutUint64(buf, offDescriptorOffset, h.DescriptorOffset)
	sectormath.PutUint64(buf, offDescriptorSize, h.DescriptorSize)
	sectormath.PutUint32(buf, offNumGTEsPerGT, h.NumGTEsPerGT)
	sectormath.PutUint64(buf, offRgdOffset, h.RgdOffset)
	sectormath.PutUint64(buf, offGdOffset, h.GdOffset)
	sectormath.PutUint64(buf, offOverhead, h.Overhead)
	buf[offUncleanShutdown] = 0
	buf[offSingleEndLineChar] = singleEndLineChar
	buf[offNonEndLineChar] = nonEndLineChar
	buf[offDoubleEndLineChar1] = doubleEndLineChar1
	buf[offDoubleEndLineChar2] = doubleEndLineChar2
	return buf
}

// HasRedundantGrainTable reports whether h declares a redundant grain
// directory/table region.
func (h Header) HasRedundantGrainTable() bool {
	return h.Flags&FlagRedundantGrainTable != 0
}
