// Package layout computes the on-disk placement of a new hosted-sparse
// extent's metadata regions: grain size, RGD/GD/GT offsets, overhead, and
// data start.
package layout

import "github.com/vmdkcore/vmdkcore/internal/sectormath"

// TargetGrainTables and GTEsPerGT are the fixed planning constants used
// when sizing grain tables for a new extent.
const (
	TargetGrainTables = 256
	GTEsPerGT         = 512
)

// Plan is the computed layout of a new hosted-sparse extent, all fields in
// sectors except NumGrainTables, which is a count of tables.
type Plan struct {
	GrainSizeSectors                uint64
	NumGrainTables                  uint64
	DescriptorStartSector           uint64
	RgdStartSector                  uint64
	RedundantGrainTablesStartSector uint64
	GdStartSector                   uint64
	GrainTablesStartSector          uint64
	DataStartSector                 uint64 // == header "overhead"
	CapacitySectors                 uint64
}

// Compute computes the hosted-sparse layout for a new extent of sizeBytes,
// with an embedded descriptor of descriptorLengthBytes (0 if not embedded).
// Reproduces the source's layout math byte-exactly: grain size is NOT
// rounded to a power of two.
func Compute(sizeBytes, descriptorLengthBytes uint64) Plan {
	grainSize := sizeBytes / (TargetGrainTables * GTEsPerGT * sectormath.Sector)
	if grainSize < 8 {
		grainSize = 8
	}

	numGrainTables := sectormath.Ceil(sizeBytes, grainSize*GTEsPerGT*sectormath.Sector)

	descriptorLength := sectormath.RoundUp(descriptorLengthBytes, sectormath.Sector)

	var descriptorStart uint64
	if descriptorLength != 0 {
		descriptorStart = 1
	}

	rgdStart := descriptorStart
	if rgdStart < 1 {
		rgdStart = 1
	}
	rgdStart += sectormath.Ceil(descriptorLength, sectormath.Sector)

	rgdLength := numGrainTables * 4
	redundantGTStart := rgdStart + sectormath.Ceil(rgdLength, sectormath.Sector)

	redundantGTLength := numGrainTables * sectormath.RoundUp(GTEsPerGT*4, sectormath.Sector)
	gdStart := redundantGTStart + sectormath.Ceil(redundantGTLength, sectormath.Sector)

	gdLength := numGrainTables * 4
	gtStart := gdStart + sectormath.Ceil(gdLength, sectormath.Sector)

	gtLength := numGrainTables * sectormath.RoundUp(GTEsPerGT*4, sectormath.Sector)
	dataStart := sectormath.RoundUp(gtStart+sectormath.Ceil(gtLength, sectormath.Sector), grainSize)

	capacity := sectormath.RoundUp(sizeBytes, grainSize*sectormath.Sector) / sectormath.Sector

	return Plan{
		GrainSizeSectors:                grainSize,
		NumGrainTables:                  numGrainTables,
		DescriptorStartSector:           descriptorStart,
		RgdStartSector:                  rgdStart,
		RedundantGrainTablesStartSector: redundantGTStart,
		GdStartSector:                   gdStart,
		GrainTablesStartSector:          gtStart,
		DataStartSector:                 dataStart,
		CapacitySectors:                 capacity,
	}
}
