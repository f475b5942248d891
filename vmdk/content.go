package vmdk

import (
	"fmt"

	"github.com/vmdkcore/vmdkcore/internal/concatstream"
	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/extentio"
	"github.com/vmdkcore/vmdkcore/internal/ownership"
	"github.com/vmdkcore/vmdkcore/internal/sparsestream"
	"github.com/vmdkcore/vmdkcore/internal/vio"
	"github.com/vmdkcore/vmdkcore/internal/zerostream"
)

// ownedContentStream wraps the composed content stream together with the
// single ownership.Parent this disk's open_content call is responsible
// for disposing, so disposal happens exactly once regardless of how many
// extents fell through to it.
type ownedContentStream struct {
	sparsestream.Stream
	parent ownership.Parent
}

func (s *ownedContentStream) Close() error {
	err := s.Stream.Close()
	if perr := s.parent.Dispose(); perr != nil && err == nil {
		err = perr
	}
	return err
}

// unclosedStream hands the monolithic backing stream to the extent reader
// without letting the reader's Close release it: DiskImageFile.Close does
// that, according to ownsMonolithic.
type unclosedStream struct{ vio.Stream }

func (unclosedStream) Close() error { return nil }

// OpenContent returns the disk's logical content as one composed,
// random-access sparse stream. parent supplies the fallthrough content for
// a differencing disk's unallocated grains; if the descriptor has no
// parent, parent is disposed immediately (per its ownership) and a
// zero-stream is substituted instead.
func (d *DiskImageFile) OpenContent(parent ownership.Parent) (sparsestream.Stream, error) {
	var effectiveParent ownership.Parent
	if !d.descriptor.NeedsParent() {
		_ = parent.Dispose()
		effectiveParent = ownership.Owned(zerostream.New(int64(d.Capacity())))
	} else {
		effectiveParent = parent
	}

	extents := d.descriptor.Extents

	var content sparsestream.Stream
	var err error
	switch {
	case len(extents) == 1 && d.monolithicStream != nil:
		content, err = extentio.OpenHostedSparseExtentStream(
			unclosedStream{d.monolithicStream}, d.header.Header, ownership.Borrowed(effectiveParent.Stream()))

	case len(extents) == 1:
		content, err = extentio.Open(d.locator, extents[0], d.shareForExtent(extents[0]), ownership.Borrowed(effectiveParent.Stream()))

	default:
		content, err = d.openConcatenated(extents, effectiveParent)
	}

	if err != nil {
		_ = effectiveParent.Dispose()
		return nil, err
	}

	return &ownedContentStream{Stream: content, parent: effectiveParent}, nil
}

func (d *DiskImageFile) openConcatenated(extents []descriptor.ExtentDescriptor, parent ownership.Parent) (sparsestream.Stream, error) {
	ranges := make([]concatstream.Range, 0, len(extents))
	var offset int64
	for _, ext := range extents {
		size := int64(ext.SizeSectors * 512)
		window := sparsestream.Window(parent.Stream(), offset, size)

		stream, err := extentio.Open(d.locator, ext, d.shareForExtent(ext), ownership.Borrowed(window))
		if err != nil {
			for _, r := range ranges {
				_ = r.Stream.Close()
			}
			return nil, fmt.Errorf("vmdk: failed to open extent %q: %w", ext.Filename, err)
		}

		ranges = append(ranges, concatstream.Range{Offset: offset, Stream: stream})
		offset += size
	}
	return concatstream.Compose(ranges)
}
