package extentio

import (
	"fmt"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/hostedheader"
	"github.com/vmdkcore/vmdkcore/internal/layout"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/serverheader"
	"github.com/vmdkcore/vmdkcore/internal/vio"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// Initialize writes the fresh on-disk structures for a newly created
// extent of the given type and capacity (in sectors) into file, which must
// already be open for writing and empty.
//
// Flat and Vmfs extents have no metadata: the file is simply sized.
// Sparse extents get a full hosted-sparse header, primary and redundant
// grain directories, and zeroed grain tables. VmfsSparse extents get a
// server-sparse header and a zeroed grain directory. VmfsRdm and VmfsRaw
// extents describe raw device mappings vmdkcore does not create content
// for, and Zero is never backed by a file; both report
// ErrUnsupportedExtentType.
func Initialize(file vio.Stream, extentType descriptor.ExtentType, capacitySectors uint64) error {
	switch extentType {
	case descriptor.Flat, descriptor.Vmfs:
		return file.Truncate(int64(capacitySectors * sectormath.Sector))
	case descriptor.Sparse:
		_, err := InitializeHostedSparse(file, capacitySectors, 0)
		return err
	case descriptor.VmfsSparse:
		return initializeServerSparse(file, capacitySectors)
	default:
		return fmt.Errorf("extentio: cannot initialize extent type %s: %w", extentType, vmdkerr.ErrUnsupportedExtentType)
	}
}

// InitializeHostedSparse writes a fresh hosted-sparse extent of
// capacitySectors, optionally reserving descriptorLengthBytes of
// embedded-descriptor space right after the header (0 when the
// descriptor lives in a separate file). It returns the computed layout
// plan so the caller can locate the descriptor window.
func InitializeHostedSparse(file vio.Stream, capacitySectors, descriptorLengthBytes uint64) (layout.Plan, error) {
	sizeBytes := capacitySectors * sectormath.Sector
	plan := layout.Compute(sizeBytes, descriptorLengthBytes)

	header := hostedheader.Header{
		Version:          1,
		Flags:            hostedheader.FlagValidLineDetectionTest | hostedheader.FlagRedundantGrainTable,
		Capacity:         plan.CapacitySectors,
		GrainSize:        plan.GrainSizeSectors,
		DescriptorOffset: plan.DescriptorStartSector,
		DescriptorSize:   sectormath.Ceil(descriptorLengthBytes, sectormath.Sector),
		NumGTEsPerGT:     layout.GTEsPerGT,
		RgdOffset:        plan.RgdStartSector,
		GdOffset:         plan.GdStartSector,
		Overhead:         plan.DataStartSector,
	}

	if err := file.Truncate(int64(plan.DataStartSector * sectormath.Sector)); err != nil {
		return layout.Plan{}, fmt.Errorf("extentio: failed to size sparse extent: %w", err)
	}
	if _, err := file.WriteAt(header.Serialize(), 0); err != nil {
		return layout.Plan{}, fmt.Errorf("extentio: failed to write header: %w", err)
	}

	gtLengthSectors := sectormath.RoundUp(layout.GTEsPerGT*4, sectormath.Sector) / sectormath.Sector
	gtStart := plan.GrainTablesStartSector
	rgtStart := plan.RedundantGrainTablesStartSector
	zeroGT := make([]byte, layout.GTEsPerGT*4)

	gdEntries := make([]byte, plan.NumGrainTables*4)
	rgdEntries := make([]byte, plan.NumGrainTables*4)
	for i := uint64(0); i < plan.NumGrainTables; i++ {
		sectormath.PutUint32(gdEntries, int(i*4), uint32(gtStart+i*gtLengthSectors))
		if _, err := file.WriteAt(zeroGT, int64((gtStart+i*gtLengthSectors)*sectormath.Sector)); err != nil {
			return layout.Plan{}, fmt.Errorf("extentio: failed to zero grain table %d: %w", i, err)
		}

		sectormath.PutUint32(rgdEntries, int(i*4), uint32(rgtStart+i*gtLengthSectors))
		if _, err := file.WriteAt(zeroGT, int64((rgtStart+i*gtLengthSectors)*sectormath.Sector)); err != nil {
			return layout.Plan{}, fmt.Errorf("extentio: failed to zero redundant grain table %d: %w", i, err)
		}
	}

	if _, err := file.WriteAt(gdEntries, int64(plan.GdStartSector*sectormath.Sector)); err != nil {
		return layout.Plan{}, fmt.Errorf("extentio: failed to write grain directory: %w", err)
	}
	if _, err := file.WriteAt(rgdEntries, int64(plan.RgdStartSector*sectormath.Sector)); err != nil {
		return layout.Plan{}, fmt.Errorf("extentio: failed to write redundant grain directory: %w", err)
	}

	return plan, nil
}

func initializeServerSparse(file vio.Stream, capacitySectors uint64) error {
	header := serverheader.NewHeader(capacitySectors * sectormath.Sector)

	dataStart := header.FreeSector
	if err := file.Truncate(int64(dataStart * sectormath.Sector)); err != nil {
		return fmt.Errorf("extentio: failed to size server-sparse extent: %w", err)
	}
	if _, err := file.WriteAt(header.Serialize(), 0); err != nil {
		return fmt.Errorf("extentio: failed to write header: %w", err)
	}

	zeroGD := make([]byte, header.NumGDEntries*4)
	if _, err := file.WriteAt(zeroGD, int64(header.GdOffset*sectormath.Sector)); err != nil {
		return fmt.Errorf("extentio: failed to zero grain directory: %w", err)
	}

	return nil
}
