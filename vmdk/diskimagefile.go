// Package vmdk exposes the top-level DiskImageFile API: opening,
// creating, and reading the logical content of a VMDK image as a single
// random-access sparse stream, composed from whatever mix of flat,
// hosted-sparse, server-sparse, and zero extents its descriptor names.
package vmdk

import (
	"fmt"
	"path/filepath"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/filelocator"
	"github.com/vmdkcore/vmdkcore/internal/geometry"
	"github.com/vmdkcore/vmdkcore/internal/probe"
	"github.com/vmdkcore/vmdkcore/internal/vio"
	"github.com/vmdkcore/vmdkcore/internal/vlog"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// DiskImageFile is one logical VMDK image: a parsed descriptor, the
// locator used to resolve its extents, the access mode it was opened
// with, and — only when the descriptor was embedded in a sparse extent
// opened from a path or stream — the monolithic backing stream that both
// holds the descriptor and serves as that extent's content.
type DiskImageFile struct {
	descriptor descriptor.Descriptor
	header     probe.Probed // Kind + Header, for the monolithic fast path
	locator    filelocator.FileLocator
	access     descriptor.AccessMode
	share      vio.ShareMode

	monolithicStream vio.Stream // non-nil iff opened from an embedded-descriptor source
	ownsMonolithic   bool

	log vlog.Logger
}

// Open opens the VMDK descriptor at path (a bare descriptor file or a
// monolithic sparse extent with an embedded one), with the given access
// mode. The extent locator's search root becomes path's parent directory.
func Open(path string, access descriptor.AccessMode, log vlog.Logger) (*DiskImageFile, error) {
	dir := filepath.Dir(path)
	loc := filelocator.NewDirLocator(dir)

	share := shareFor(access)
	file, err := vio.OpenFile(path, share)
	if err != nil {
		return nil, fmt.Errorf("vmdk: failed to open %q: %w", path, err)
	}

	p, err := probe.Detect(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("vmdk: %q: %w", path, err)
	}

	d := &DiskImageFile{
		descriptor: p.Descriptor,
		header:     p,
		locator:    loc,
		access:     access,
		share:      share,
		log:        log,
	}

	if access == descriptor.ReadWrite {
		before := p.Descriptor.ContentID
		if err := probe.RewriteOnOpen(file, &p); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("vmdk: failed to rewrite descriptor of %q: %w", path, err)
		}
		d.descriptor = p.Descriptor
		d.header = p
		log.Info(fmt.Sprintf("vmdk: rewrote content_id of %q: %08x -> %08x", path, before, p.Descriptor.ContentID))
	}

	if p.Kind == probe.EmbeddedDescriptor {
		d.monolithicStream = file
		d.ownsMonolithic = true
	} else {
		if err := file.Close(); err != nil {
			return nil, fmt.Errorf("vmdk: failed to close %q: %w", path, err)
		}
	}

	return d, nil
}

// OpenStream opens a single in-memory (or otherwise stream-backed) source
// as a monolithic sparse disk. The descriptor must name exactly one
// Sparse extent, create_type MonolithicSparse, and no parent; any other
// shape is ErrInvalidArgument. owned controls whether Close disposes
// stream.
func OpenStream(stream vio.Stream, owned bool, log vlog.Logger) (*DiskImageFile, error) {
	p, err := probe.Detect(stream)
	if err != nil {
		return nil, err
	}
	if p.Kind != probe.EmbeddedDescriptor ||
		p.Descriptor.CreateType != descriptor.MonolithicSparse ||
		len(p.Descriptor.Extents) != 1 ||
		p.Descriptor.Extents[0].Type != descriptor.Sparse ||
		p.Descriptor.NeedsParent() {
		return nil, fmt.Errorf("vmdk: stream is not a standalone monolithic sparse disk: %w", vmdkerr.ErrInvalidArgument)
	}

	return &DiskImageFile{
		descriptor:       p.Descriptor,
		header:           p,
		access:           descriptor.Read,
		share:            vio.ShareRead,
		monolithicStream: stream,
		ownsMonolithic:   owned,
		log:              log,
	}, nil
}

// shareForExtent implements the per-extent share rule: writable only when
// both the disk and the extent itself were opened/declared ReadWrite.
func (d *DiskImageFile) shareForExtent(ext descriptor.ExtentDescriptor) vio.ShareMode {
	if d.access == descriptor.ReadWrite && ext.Access == descriptor.ReadWrite {
		return vio.ShareExclusive
	}
	return vio.ShareRead
}

func shareFor(access descriptor.AccessMode) vio.ShareMode {
	if access == descriptor.ReadWrite {
		return vio.ShareExclusive
	}
	return vio.ShareRead
}

// Capacity returns the disk's declared capacity in bytes.
func (d *DiskImageFile) Capacity() uint64 {
	return d.descriptor.CapacitySectors() * 512
}

// IsSparse reports whether the disk's create_type is one of the sparse
// variants this subsystem supports.
func (d *DiskImageFile) IsSparse() bool {
	switch d.descriptor.CreateType {
	case descriptor.MonolithicSparse, descriptor.TwoGbMaxExtentSparse, descriptor.VmfsSparseCreate:
		return true
	default:
		return false
	}
}

// NeedsParent reports whether the disk is a differencing disk.
func (d *DiskImageFile) NeedsParent() bool {
	return d.descriptor.NeedsParent()
}

// ParentLocation returns the descriptor's parent file name hint, or ""
// if the disk has no parent.
func (d *DiskImageFile) ParentLocation() string {
	return d.descriptor.ParentFileNameHint
}

// Geometry returns the disk's CHS geometry as recorded in its descriptor.
func (d *DiskImageFile) Geometry() geometry.CHS {
	return d.descriptor.Geometry
}

// ContentID returns the descriptor's current content ID.
func (d *DiskImageFile) ContentID() uint32 {
	return d.descriptor.ContentID
}

// Close releases the monolithic backing stream, if this DiskImageFile
// owns one.
func (d *DiskImageFile) Close() error {
	if d.monolithicStream != nil && d.ownsMonolithic {
		return d.monolithicStream.Close()
	}
	return nil
}
