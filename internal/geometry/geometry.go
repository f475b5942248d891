// Package geometry computes the CHS disk geometry VMDK descriptors embed,
// and models the geometry type itself. Partition-level geometry discovery
// is out of scope; this package supplies only the default capacity-based
// heuristic used when creating a new disk.
package geometry

import "github.com/vmdkcore/vmdkcore/internal/sectormath"

// CHS is a cylinders/heads/sectors-per-track disk geometry.
type CHS struct {
	Cylinders uint32
	Heads     uint32
	Sectors   uint32
}

// Heuristic computes a default CHS geometry for a disk of the given
// capacity in bytes.
func Heuristic(capacityBytes uint64) CHS {
	var heads, sectorsPerTrack uint32
	switch {
	case capacityBytes < sectormath.OneGiB:
		heads, sectorsPerTrack = 64, 32
	case capacityBytes < 2*sectormath.OneGiB:
		heads, sectorsPerTrack = 128, 32
	default:
		heads, sectorsPerTrack = 255, 63
	}
	cylinders := uint32(capacityBytes / (uint64(heads) * uint64(sectorsPerTrack) * sectormath.Sector))
	return CHS{Cylinders: cylinders, Heads: heads, Sectors: sectorsPerTrack}
}
