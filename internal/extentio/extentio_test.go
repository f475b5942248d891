package extentio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/ownership"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/vio"
)

// memLocator is an in-memory filelocator.FileLocator fixture for tests.
type memLocator struct {
	files map[string]*vio.MemStream
}

func newMemLocator() *memLocator {
	return &memLocator{files: map[string]*vio.MemStream{}}
}

func (m *memLocator) Open(name string, _ vio.ShareMode) (vio.Stream, error) {
	f, ok := m.files[name]
	if !ok {
		f = vio.NewMemStream(nil)
		m.files[name] = f
	}
	return f, nil
}

func (m *memLocator) Create(name string) (vio.Stream, error) {
	f := vio.NewMemStream(nil)
	m.files[name] = f
	return f, nil
}

func (m *memLocator) Resolve(name string) string { return name }

func TestInitializeAndOpenHostedSparseRoundTrip(t *testing.T) {
	loc := newMemLocator()
	file, err := loc.Create("disk-s001.vmdk")
	require.NoError(t, err)

	capacitySectors := uint64(2048) // 1MiB
	require.NoError(t, Initialize(file, descriptor.Sparse, capacitySectors))

	ext := descriptor.ExtentDescriptor{
		Access:      descriptor.ReadWrite,
		SizeSectors: capacitySectors,
		Type:        descriptor.Sparse,
		Filename:    "disk-s001.vmdk",
	}

	stream, err := Open(loc, ext, vio.ShareRead, ownership.None)
	require.NoError(t, err)
	defer stream.Close()

	require.EqualValues(t, capacitySectors*sectormath.Sector, stream.Size())

	buf := make([]byte, 4096)
	n, err := stream.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	for _, b := range buf {
		require.Zero(t, b, "freshly initialized sparse extent must read as zero")
	}
}

func TestOpenZeroExtentNeedsNoFile(t *testing.T) {
	loc := newMemLocator()
	ext := descriptor.ExtentDescriptor{
		Access:      descriptor.ReadWrite,
		SizeSectors: 16,
		Type:        descriptor.Zero,
	}
	stream, err := Open(loc, ext, vio.ShareRead, ownership.None)
	require.NoError(t, err)
	require.EqualValues(t, 16*sectormath.Sector, stream.Size())
}

func TestOpenFlatExtentPassesThrough(t *testing.T) {
	loc := newMemLocator()
	file, _ := loc.Create("disk-f001.vmdk")
	payload := make([]byte, sectormath.Sector)
	for i := range payload {
		payload[i] = byte(i)
	}
	_, err := file.WriteAt(payload, 0)
	require.NoError(t, err)

	ext := descriptor.ExtentDescriptor{
		Access:      descriptor.ReadWrite,
		SizeSectors: 1,
		Type:        descriptor.Flat,
		Filename:    "disk-f001.vmdk",
	}
	stream, err := Open(loc, ext, vio.ShareExclusive, ownership.None)
	require.NoError(t, err)
	defer stream.Close()

	buf := make([]byte, sectormath.Sector)
	_, err = stream.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, payload, buf)
}

func TestInitializeUnsupportedExtentType(t *testing.T) {
	file := vio.NewMemStream(nil)
	err := Initialize(file, descriptor.VmfsRaw, 16)
	require.Error(t, err)
}
