package vmdk

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/extentio"
	"github.com/vmdkcore/vmdkcore/internal/filelocator"
	"github.com/vmdkcore/vmdkcore/internal/geometry"
	"github.com/vmdkcore/vmdkcore/internal/probe"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/vlog"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// monolithicDescriptorReserve is the embedded-descriptor window carved out
// of a fresh monolithic sparse extent, ahead of the grain directory.
const monolithicDescriptorReserve = 10 * sectormath.OneKiB

// maxSplitExtentBytes is the largest extent size used when splitting a
// disk across the legacy 2 GiB-per-extent layouts.
const maxSplitExtentBytes = 2*sectormath.OneGiB - sectormath.OneMiB

// Initialize creates a fresh disk of capacityBytes at path, laid out per
// createType, and opens it read-write for immediate use. Initialize is not
// atomic: a failure partway through a multi-extent layout may leave some
// extent files already written on disk; the caller is responsible for
// cleanup.
func Initialize(path string, capacityBytes uint64, createType descriptor.CreateType, log vlog.Logger) (*DiskImageFile, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	loc := filelocator.NewDirLocator(dir)

	desc := descriptor.Descriptor{
		Geometry:        geometry.Heuristic(capacityBytes),
		ContentID:       probe.NewContentID(),
		ParentContentID: descriptor.NoParent,
		CreateType:      createType,
		UniqueID:        uuid.New().String(),
	}

	switch createType {
	case descriptor.MonolithicSparse:
		if err := initializeMonolithicSparse(loc, base, capacityBytes, &desc); err != nil {
			return nil, err
		}

	case descriptor.MonolithicFlat, descriptor.VmfsCreate, descriptor.VmfsSparseCreate:
		if err := initializeSingleExtent(loc, base, capacityBytes, createType, &desc); err != nil {
			return nil, err
		}

	case descriptor.TwoGbMaxExtentFlat, descriptor.TwoGbMaxExtentSparse:
		if err := initializeSplitExtents(loc, base, capacityBytes, createType, &desc); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("vmdk: cannot initialize create type %q: %w", createType, vmdkerr.ErrUnsupportedCreateType)
	}

	return Open(path, descriptor.ReadWrite, log)
}

func initializeMonolithicSparse(loc filelocator.FileLocator, base string, capacityBytes uint64, desc *descriptor.Descriptor) error {
	file, err := loc.Create(base)
	if err != nil {
		return fmt.Errorf("vmdk: failed to create %q: %w", base, err)
	}
	defer file.Close()

	capacitySectors := sectormath.Ceil(capacityBytes, sectormath.Sector)
	plan, err := extentio.InitializeHostedSparse(file, capacitySectors, monolithicDescriptorReserve)
	if err != nil {
		return fmt.Errorf("vmdk: failed to initialize %q: %w", base, err)
	}

	desc.Extents = []descriptor.ExtentDescriptor{{
		Access:      descriptor.ReadWrite,
		SizeSectors: plan.CapacitySectors,
		Type:        descriptor.Sparse,
		Filename:    base,
	}}

	data := desc.Serialize()
	if uint64(len(data)) > monolithicDescriptorReserve {
		return fmt.Errorf("vmdk: descriptor of %d bytes overruns the %d-byte reservation: %w",
			len(data), monolithicDescriptorReserve, vmdkerr.ErrCorrupt)
	}
	if _, err := file.WriteAt(data, int64(plan.DescriptorStartSector*sectormath.Sector)); err != nil {
		return fmt.Errorf("vmdk: failed to write descriptor into %q: %w", base, err)
	}
	return nil
}

func initializeSingleExtent(loc filelocator.FileLocator, base string, capacityBytes uint64, createType descriptor.CreateType, desc *descriptor.Descriptor) error {
	extType, err := ExtentTypeFor(createType)
	if err != nil {
		return err
	}

	adornment := "flat"
	if extType == descriptor.VmfsSparse {
		adornment = "sparse"
	}
	extentName, err := Adorn(base, adornment)
	if err != nil {
		return err
	}

	file, err := loc.Create(extentName)
	if err != nil {
		return fmt.Errorf("vmdk: failed to create extent %q: %w", extentName, err)
	}

	capacitySectors := sectormath.Ceil(capacityBytes, sectormath.Sector)
	err = extentio.Initialize(file, extType, capacitySectors)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("vmdk: failed to initialize extent %q: %w", extentName, err)
	}

	desc.Extents = []descriptor.ExtentDescriptor{{
		Access:      descriptor.ReadWrite,
		SizeSectors: capacitySectors,
		Type:        extType,
		Filename:    extentName,
	}}

	return writeBareDescriptor(loc, base, *desc)
}

func initializeSplitExtents(loc filelocator.FileLocator, base string, capacityBytes uint64, createType descriptor.CreateType, desc *descriptor.Descriptor) error {
	extType, err := ExtentTypeFor(createType)
	if err != nil {
		return err
	}

	var extents []descriptor.ExtentDescriptor
	remaining := capacityBytes
	for i := 1; remaining > 0; i++ {
		size := remaining
		if size > maxSplitExtentBytes {
			size = maxSplitExtentBytes
		}
		remaining -= size

		var adornment string
		if extType == descriptor.Flat {
			adornment = fmt.Sprintf("%06x", i)
		} else {
			adornment = fmt.Sprintf("s%03x", i)
		}
		extentName, err := Adorn(base, adornment)
		if err != nil {
			return err
		}

		file, err := loc.Create(extentName)
		if err != nil {
			return fmt.Errorf("vmdk: failed to create extent %q: %w", extentName, err)
		}

		sizeSectors := sectormath.Ceil(size, sectormath.Sector)
		err = extentio.Initialize(file, extType, sizeSectors)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("vmdk: failed to initialize extent %q: %w", extentName, err)
		}

		extents = append(extents, descriptor.ExtentDescriptor{
			Access:      descriptor.ReadWrite,
			SizeSectors: sizeSectors,
			Type:        extType,
			Filename:    extentName,
		})
	}

	desc.Extents = extents
	return writeBareDescriptor(loc, base, *desc)
}

func writeBareDescriptor(loc filelocator.FileLocator, base string, desc descriptor.Descriptor) error {
	file, err := loc.Create(base)
	if err != nil {
		return fmt.Errorf("vmdk: failed to create descriptor %q: %w", base, err)
	}
	defer file.Close()
	if _, err := file.WriteAt(desc.Serialize(), 0); err != nil {
		return fmt.Errorf("vmdk: failed to write descriptor %q: %w", base, err)
	}
	return nil
}
