package vmdk

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/vlog"
)

func TestInitializeVmfsCreatesFlatExtentAndBareDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.vmdk")

	d, err := Initialize(path, 512<<20, descriptor.VmfsCreate, vlog.Discard)
	require.NoError(t, err)
	defer d.Close()

	require.EqualValues(t, 512<<20, d.Capacity())
	require.Len(t, d.descriptor.Extents, 1)
	require.Equal(t, "c-flat.vmdk", d.descriptor.Extents[0].Filename)
	require.Equal(t, descriptor.Vmfs, d.descriptor.Extents[0].Type)
	require.FileExists(t, filepath.Join(dir, "c-flat.vmdk"))
}

func TestInitializeVmfsSparseAdornsSparseSuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d.vmdk")

	d, err := Initialize(path, 64<<20, descriptor.VmfsSparseCreate, vlog.Discard)
	require.NoError(t, err)
	defer d.Close()

	require.Len(t, d.descriptor.Extents, 1)
	require.Equal(t, "d-sparse.vmdk", d.descriptor.Extents[0].Filename)
	require.Equal(t, descriptor.VmfsSparse, d.descriptor.Extents[0].Type)
}

func TestInitializeTwoGbMaxExtentFlatSplitsExtents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.vmdk")

	capacity := uint64(maxSplitExtentBytes + sectormath.OneMiB)
	d, err := Initialize(path, capacity, descriptor.TwoGbMaxExtentFlat, vlog.Discard)
	require.NoError(t, err)
	defer d.Close()

	require.Equal(t, capacity, d.Capacity())
	require.Len(t, d.descriptor.Extents, 2)
	require.Equal(t, "big-000001.vmdk", d.descriptor.Extents[0].Filename)
	require.Equal(t, "big-000002.vmdk", d.descriptor.Extents[1].Filename)
	require.EqualValues(t, maxSplitExtentBytes/sectormath.Sector, d.descriptor.Extents[0].SizeSectors)
	require.EqualValues(t, sectormath.OneMiB/sectormath.Sector, d.descriptor.Extents[1].SizeSectors)
}

func TestInitializeTwoGbMaxExtentSparseUsesSAdornment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sp.vmdk")

	capacity := uint64(maxSplitExtentBytes + sectormath.OneMiB)
	d, err := Initialize(path, capacity, descriptor.TwoGbMaxExtentSparse, vlog.Discard)
	require.NoError(t, err)
	defer d.Close()

	require.Len(t, d.descriptor.Extents, 2)
	require.Equal(t, "sp-s001.vmdk", d.descriptor.Extents[0].Filename)
	require.Equal(t, "sp-s002.vmdk", d.descriptor.Extents[1].Filename)
}

func TestInitializeUnsupportedCreateType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "e.vmdk")

	_, err := Initialize(path, 1<<20, descriptor.FullDevice, vlog.Discard)
	require.Error(t, err)
}

func TestInitializeSetsFreshUniqueIDAndGeometry(t *testing.T) {
	dir := t.TempDir()

	first, err := Initialize(filepath.Join(dir, "a.vmdk"), 8<<20, descriptor.MonolithicFlat, vlog.Discard)
	require.NoError(t, err)
	defer first.Close()

	second, err := Initialize(filepath.Join(dir, "b.vmdk"), 8<<20, descriptor.MonolithicFlat, vlog.Discard)
	require.NoError(t, err)
	defer second.Close()

	require.NotEqual(t, first.descriptor.UniqueID, second.descriptor.UniqueID)
	require.NotZero(t, first.Geometry().Cylinders)
}
