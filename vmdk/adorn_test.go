package vmdk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdornAppendsSuffix(t *testing.T) {
	name, err := Adorn("disk.vmdk", "flat")
	require.NoError(t, err)
	require.Equal(t, "disk-flat.vmdk", name)
}

func TestAdornCaseInsensitiveSuffix(t *testing.T) {
	name, err := Adorn("disk.VMDK", "000001")
	require.NoError(t, err)
	require.Equal(t, "disk-000001.vmdk", name)
}

func TestAdornRejectsMissingSuffix(t *testing.T) {
	_, err := Adorn("disk.raw", "flat")
	require.Error(t, err)
}

func TestAdornRejectsTooShortName(t *testing.T) {
	_, err := Adorn("abcd", "flat")
	require.Error(t, err)
}
