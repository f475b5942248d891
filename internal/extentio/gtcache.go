// Package extentio adapts the on-disk extent formats (hosted-sparse,
// server-sparse, and the flat/Vmfs passthrough) into sparsestream.Stream,
// and writes the fresh on-disk structures for newly initialized extents.
//
// A goburrow/cache.LoadingCache keyed by table location backs repeated
// grain table lookups, so repeated small reads during composed-stream
// traversal become amortized O(1) lookups instead of re-reading the same
// grain table from disk on every access.
package extentio

import (
	"encoding/binary"
	"fmt"

	"github.com/goburrow/cache"

	"github.com/vmdkcore/vmdkcore/internal/vio"
)

// maxCachedTables bounds how many decoded grain/directory tables stay
// resident at once.
const maxCachedTables = 512

// tableKey identifies a table-sized region of an extent file: a sector
// offset plus an entry count.
type tableKey struct {
	reader     vio.Stream
	sectorSize uint64
	sectorAt   uint64
	entryCount uint32
}

// newTableCache returns a LoadingCache whose loader decodes a little-endian
// uint32 table from a vio.Stream at the key's location.
func newTableCache() cache.LoadingCache {
	return cache.NewLoadingCache(loadTable, cache.WithMaximumSize(maxCachedTables))
}

func loadTable(key cache.Key) (cache.Value, error) {
	k := key.(tableKey)
	buf := make([]byte, uint64(k.entryCount)*4)
	off := int64(k.sectorAt * k.sectorSize)
	if _, err := k.reader.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("extentio: failed to read table at sector %d: %w", k.sectorAt, err)
	}
	entries := make([]uint32, k.entryCount)
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return entries, nil
}

// readTable fetches the decoded entries for the table located at sectorAt
// sectors into reader, consulting c first.
func readTable(c cache.LoadingCache, reader vio.Stream, sectorSize, sectorAt uint64, entryCount uint32) ([]uint32, error) {
	v, err := c.Get(tableKey{reader: reader, sectorSize: sectorSize, sectorAt: sectorAt, entryCount: entryCount})
	if err != nil {
		return nil, err
	}
	return v.([]uint32), nil
}
