package probe

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/hostedheader"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/vio"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

func bareDescriptorBytes() []byte {
	d := descriptor.Descriptor{
		ContentID:       0x11223344,
		ParentContentID: descriptor.NoParent,
		CreateType:      descriptor.MonolithicFlat,
		Extents: []descriptor.ExtentDescriptor{
			{Access: descriptor.ReadWrite, SizeSectors: 2048, Type: descriptor.Flat, Filename: "disk-flat.vmdk"},
		},
	}
	return d.Serialize()
}

func TestDetectBareDescriptor(t *testing.T) {
	file := vio.NewMemStream(bareDescriptorBytes())
	p, err := Detect(file)
	require.NoError(t, err)
	require.Equal(t, BareDescriptor, p.Kind)
	require.Equal(t, uint32(0x11223344), p.Descriptor.ContentID)
	require.Len(t, p.Descriptor.Extents, 1)
}

func TestDetectEmbeddedDescriptor(t *testing.T) {
	descBytes := bareDescriptorBytes()
	descSectors := sectormath.Ceil(uint64(len(descBytes)), sectormath.Sector)

	header := hostedheader.Header{
		Version:          1,
		Flags:            hostedheader.FlagValidLineDetectionTest,
		Capacity:         2048,
		GrainSize:        8,
		DescriptorOffset: 1,
		DescriptorSize:   descSectors,
		NumGTEsPerGT:     512,
		RgdOffset:        0,
		GdOffset:         1 + descSectors,
		Overhead:         2 + descSectors,
	}

	buf := make([]byte, (2+descSectors)*sectormath.Sector)
	copy(buf, header.Serialize())
	copy(buf[sectormath.Sector:], descBytes)

	file := vio.NewMemStream(buf)
	p, err := Detect(file)
	require.NoError(t, err)
	require.Equal(t, EmbeddedDescriptor, p.Kind)
	require.Equal(t, uint32(0x11223344), p.Descriptor.ContentID)
	require.EqualValues(t, 2048, p.Header.Capacity)
}

func TestRewriteOnOpenBareDescriptorChangesContentID(t *testing.T) {
	file := vio.NewMemStream(bareDescriptorBytes())
	p, err := Detect(file)
	require.NoError(t, err)

	originalCID := p.Descriptor.ContentID
	require.NoError(t, RewriteOnOpen(file, &p))
	require.NotEqual(t, originalCID, p.Descriptor.ContentID)

	reparsed, err := Detect(file)
	require.NoError(t, err)
	require.Equal(t, p.Descriptor.ContentID, reparsed.Descriptor.ContentID)
}

func TestDetectNeitherHeaderNorDescriptorIsNotAVmdk(t *testing.T) {
	file := vio.NewMemStream([]byte("this is just some random garbage, not a disk at all"))
	_, err := Detect(file)
	require.Error(t, err)
	require.True(t, errors.Is(err, vmdkerr.ErrNotAVmdk))
}

func TestRewriteOnOpenEmbeddedTooLargeIsCorrupt(t *testing.T) {
	header := hostedheader.Header{
		Version:          1,
		DescriptorOffset: 1,
		DescriptorSize:   1, // one sector, too small for the descriptor below once rewritten
		GdOffset:         2,
		Overhead:         3,
		Capacity:         2048,
		GrainSize:        8,
		NumGTEsPerGT:     512,
	}
	buf := make([]byte, 3*sectormath.Sector)
	copy(buf, header.Serialize())

	file := vio.NewMemStream(buf)
	p := Probed{
		Kind:   EmbeddedDescriptor,
		Header: header,
		Descriptor: descriptor.Descriptor{
			ParentContentID: descriptor.NoParent,
			CreateType:      descriptor.MonolithicSparse,
			Extents: []descriptor.ExtentDescriptor{
				{Access: descriptor.ReadWrite, SizeSectors: 2048, Type: descriptor.Sparse, Filename: "disk.vmdk"},
			},
			// Long enough that the serialized text exceeds one sector.
			UniqueID: strings.Repeat("u", sectormath.Sector),
		},
	}
	err := RewriteOnOpen(file, &p)
	require.Error(t, err)
}
