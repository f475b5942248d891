// Package sectormath provides the sector-granular integer math and
// little-endian codecs shared by every on-disk VMDK layout computation.
package sectormath

import "encoding/binary"

// Sector-granular size constants used throughout the hosted-sparse and
// server-sparse layouts.
const (
	Sector = 512
	OneKiB = 1024
	OneMiB = 1 << 20
	OneGiB = 1 << 30
)

// Ceil returns ceil(a/b) for non-negative a and positive b.
func Ceil(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// RoundUp rounds a up to the next multiple of b.
func RoundUp(a, b uint64) uint64 {
	return Ceil(a, b) * b
}

// ReadUint16 reads a little-endian uint16 at the given offset.
func ReadUint16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// ReadUint32 reads a little-endian uint32 at the given offset.
func ReadUint32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadUint64 reads a little-endian uint64 at the given offset.
func ReadUint64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// PutUint16 writes v as little-endian at the given offset.
func PutUint16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// PutUint32 writes v as little-endian at the given offset.
func PutUint32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutUint64 writes v as little-endian at the given offset.
func PutUint64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}
