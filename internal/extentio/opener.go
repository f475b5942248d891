package extentio

import (
	"fmt"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/filelocator"
	"github.com/vmdkcore/vmdkcore/internal/hostedheader"
	"github.com/vmdkcore/vmdkcore/internal/ownership"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/serverheader"
	"github.com/vmdkcore/vmdkcore/internal/sparsestream"
	"github.com/vmdkcore/vmdkcore/internal/vio"
	"github.com/vmdkcore/vmdkcore/internal/zerostream"
)

// Open opens the content of ext, resolved against locator, as a
// sparsestream.Stream. share governs whether the backing file (if any) is
// opened read-only or read-write; parent supplies the fallthrough stream
// for sparse extent types and is ignored by the others.
//
// Zero extents have no backing file and never need a parent: they are
// always fully unallocated. VmfsRdm and VmfsRaw name raw device mappings;
// vmdkcore treats the named file as an ordinary flat passthrough, since it
// has no means to address the underlying device directly.
func Open(locator filelocator.FileLocator, ext descriptor.ExtentDescriptor, share vio.ShareMode, parent ownership.Parent) (sparsestream.Stream, error) {
	switch ext.Type {
	case descriptor.Zero:
		return zerostream.New(int64(ext.SizeSectors * sectormath.Sector)), nil

	case descriptor.Flat, descriptor.Vmfs, descriptor.VmfsRdm, descriptor.VmfsRaw:
		file, err := locator.Open(ext.Filename, share)
		if err != nil {
			return nil, fmt.Errorf("extentio: failed to open extent %q: %w", ext.Filename, err)
		}
		return NewFlatExtentStream(file, int64(ext.SizeSectors*sectormath.Sector)), nil

	case descriptor.Sparse:
		file, err := locator.Open(ext.Filename, share)
		if err != nil {
			return nil, fmt.Errorf("extentio: failed to open extent %q: %w", ext.Filename, err)
		}
		hdrBuf := make([]byte, hostedheader.HeaderSize)
		if _, err := file.ReadAt(hdrBuf, 0); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("extentio: failed to read header of %q: %w", ext.Filename, err)
		}
		header, err := hostedheader.Parse(hdrBuf)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("extentio: %q: %w", ext.Filename, err)
		}
		stream, err := OpenHostedSparseExtentStream(file, header, parent)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		return stream, nil

	case descriptor.VmfsSparse:
		file, err := locator.Open(ext.Filename, share)
		if err != nil {
			return nil, fmt.Errorf("extentio: failed to open extent %q: %w", ext.Filename, err)
		}
		hdrBuf := make([]byte, serverheader.HeaderSize)
		if _, err := file.ReadAt(hdrBuf, 0); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("extentio: failed to read header of %q: %w", ext.Filename, err)
		}
		header, err := serverheader.Parse(hdrBuf)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("extentio: %q: %w", ext.Filename, err)
		}
		stream, err := OpenServerSparseExtentStream(file, header, parent)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		return stream, nil

	default:
		return nil, fmt.Errorf("extentio: extent %q has unsupported type %s", ext.Filename, ext.Type)
	}
}
