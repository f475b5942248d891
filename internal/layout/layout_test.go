package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
)

func TestComputeOrderingInvariant(t *testing.T) {
	sizes := []uint64{
		1 * sectormath.OneMiB,
		100 * sectormath.OneMiB,
		1 * sectormath.OneGiB,
		50 * sectormath.OneGiB,
	}
	for _, size := range sizes {
		p := Compute(size, 10*sectormath.OneKiB)
		require.Less(t, p.RgdStartSector, p.RedundantGrainTablesStartSector)
		require.Less(t, p.RedundantGrainTablesStartSector, p.GdStartSector)
		require.Less(t, p.GdStartSector, p.GrainTablesStartSector)
		require.Less(t, p.GrainTablesStartSector, p.DataStartSector)

		dataStartBytes := p.DataStartSector * sectormath.Sector
		grainBytes := p.GrainSizeSectors * sectormath.Sector
		require.Zero(t, dataStartBytes%grainBytes, "data start must be grain-aligned for size %d", size)
	}
}

func TestComputeGrainSizeMinimum(t *testing.T) {
	p := Compute(1*sectormath.OneMiB, 0)
	require.GreaterOrEqual(t, p.GrainSizeSectors, uint64(8))
}

func TestComputeNoDescriptorStartsAtZero(t *testing.T) {
	p := Compute(100*sectormath.OneMiB, 0)
	require.Zero(t, p.DescriptorStartSector)
}

func TestComputeWithDescriptorStartsAtOne(t *testing.T) {
	p := Compute(100*sectormath.OneMiB, 10*sectormath.OneKiB)
	require.Equal(t, uint64(1), p.DescriptorStartSector)
}
