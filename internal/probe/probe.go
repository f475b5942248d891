// Package probe detects whether a disk's primary file is a bare textual
// descriptor or a sparse extent with the descriptor embedded in its first
// sectors, and performs the content-ID rewrite on writable open.
package probe

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/hostedheader"
	"github.com/vmdkcore/vmdkcore/internal/sectormath"
	"github.com/vmdkcore/vmdkcore/internal/vio"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// Kind distinguishes how the descriptor is stored.
type Kind int

const (
	// BareDescriptor means the entire file is the textual descriptor
	// (the common case for a multi-extent disk's .vmdk file).
	BareDescriptor Kind = iota
	// EmbeddedDescriptor means the file is itself a hosted-sparse extent
	// with the descriptor text living in its DescriptorOffset/
	// DescriptorSize window (the monolithicSparse / streamOptimized case).
	EmbeddedDescriptor
)

// Probed is the result of detecting and parsing a disk's primary file.
type Probed struct {
	Kind       Kind
	Descriptor descriptor.Descriptor
	Header     hostedheader.Header // zero value when Kind == BareDescriptor
}

// Detect reads file's content and classifies + parses it.
func Detect(file vio.Stream) (Probed, error) {
	size, err := file.Size()
	if err != nil {
		return Probed{}, err
	}

	headLen := int64(hostedheader.HeaderSize)
	if headLen > size {
		headLen = size
	}
	head := make([]byte, headLen)
	if _, err := file.ReadAt(head, 0); err != nil && err != io.EOF {
		return Probed{}, err
	}

	if header, herr := hostedheader.Parse(head); herr == nil {
		if (header.DescriptorOffset+header.DescriptorSize)*sectormath.Sector > uint64(size) {
			return Probed{}, fmt.Errorf("probe: descriptor window overruns the file: %w", vmdkerr.ErrCorrupt)
		}
		descBuf := make([]byte, header.DescriptorSize*sectormath.Sector)
		if header.DescriptorSize > 0 {
			if _, err := file.ReadAt(descBuf, int64(header.DescriptorOffset*sectormath.Sector)); err != nil {
				return Probed{}, err
			}
		}
		d, err := descriptor.Parse(trimTrailingZeros(descBuf))
		if err != nil {
			return Probed{}, err
		}
		return Probed{Kind: EmbeddedDescriptor, Descriptor: d, Header: header}, nil
	}

	full := make([]byte, size)
	if _, err := file.ReadAt(full, 0); err != nil {
		return Probed{}, err
	}
	d, err := descriptor.Parse(full)
	if err != nil {
		return Probed{}, fmt.Errorf("probe: neither a hosted-sparse header nor a textual descriptor: %w", vmdkerr.ErrNotAVmdk)
	}
	return Probed{Kind: BareDescriptor, Descriptor: d}, nil
}

func trimTrailingZeros(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}

// NewContentID mints a fresh content ID, avoiding the two reserved
// sentinel values some tooling treats specially ("no parent"/"disk full
// of zeroes").
func NewContentID() uint32 {
	for {
		cid := rand.Uint32()
		if cid != 0xFFFFFFFF && cid != 0xFFFFFFFE {
			return cid
		}
	}
}

// RewriteOnOpen stamps p.Descriptor with a fresh content ID and writes the
// serialized descriptor back to file. The new bytes are fully built in
// memory before any write touches disk, so a serialize failure never
// leaves a partially written file.
//
// For an embedded descriptor, the rewritten text must fit within the
// extent's existing DescriptorSize window (the window is not relocatable
// without rewriting the whole extent); ErrCorrupt is returned if it does
// not, and the window is zero-padded on success. For a bare descriptor,
// the file is truncated to the new length.
func RewriteOnOpen(file vio.Stream, p *Probed) error {
	p.Descriptor.ContentID = NewContentID()
	serialized := p.Descriptor.Serialize()

	switch p.Kind {
	case EmbeddedDescriptor:
		window := p.Header.DescriptorSize * sectormath.Sector
		if uint64(len(serialized)) > window {
			return vmdkerr.ErrCorrupt
		}
		padded := make([]byte, window)
		copy(padded, serialized)
		_, err := file.WriteAt(padded, int64(p.Header.DescriptorOffset*sectormath.Sector))
		return err

	case BareDescriptor:
		if err := file.Truncate(int64(len(serialized))); err != nil {
			return err
		}
		_, err := file.WriteAt(serialized, 0)
		return err

	default:
		return vmdkerr.ErrInvalidArgument
	}
}
