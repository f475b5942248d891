package vmdk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/internal/ownership"
	"github.com/vmdkcore/vmdkcore/internal/vio"
	"github.com/vmdkcore/vmdkcore/internal/vlog"
)

func TestOpenMonolithicFlatRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.vmdk")

	created, err := Initialize(path, 1<<20, descriptor.MonolithicFlat, vlog.Discard)
	require.NoError(t, err)
	require.NoError(t, created.Close())

	opened, err := Open(path, descriptor.Read, vlog.Discard)
	require.NoError(t, err)
	defer opened.Close()

	require.EqualValues(t, 1<<20, opened.Capacity())
	require.False(t, opened.IsSparse())
	require.False(t, opened.NeedsParent())
}

func TestOpenWritableRewritesContentID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.vmdk")

	created, err := Initialize(path, 1<<20, descriptor.MonolithicFlat, vlog.Discard)
	require.NoError(t, err)
	originalCID := created.ContentID()
	require.NoError(t, created.Close())

	opened, err := Open(path, descriptor.ReadWrite, vlog.Discard)
	require.NoError(t, err)
	defer opened.Close()

	require.NotEqual(t, originalCID, opened.ContentID())
}

func TestOpenMonolithicSparseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.vmdk")

	created, err := Initialize(path, 4<<20, descriptor.MonolithicSparse, vlog.Discard)
	require.NoError(t, err)
	require.NoError(t, created.Close())

	opened, err := Open(path, descriptor.Read, vlog.Discard)
	require.NoError(t, err)
	defer opened.Close()

	require.True(t, opened.IsSparse())
	require.EqualValues(t, 4<<20, opened.Capacity())

	content, err := opened.OpenContent(ownership.None)
	require.NoError(t, err)
	defer content.Close()

	buf := make([]byte, 512)
	n, err := content.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
}

func TestOpenStreamRequiresStandaloneMonolithicSparse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.vmdk")

	created, err := Initialize(path, 1<<20, descriptor.MonolithicFlat, vlog.Discard)
	require.NoError(t, err)
	require.NoError(t, created.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = OpenStream(vio.NewMemStream(data), true, vlog.Discard)
	require.Error(t, err)
}
