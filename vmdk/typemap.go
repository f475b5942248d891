package vmdk

import (
	"fmt"

	"github.com/vmdkcore/vmdkcore/internal/descriptor"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// ExtentTypeFor maps a create_type to the extent type used for the files
// it creates.
func ExtentTypeFor(t descriptor.CreateType) (descriptor.ExtentType, error) {
	switch t {
	case descriptor.FullDevice, descriptor.MonolithicFlat, descriptor.PartitionedDevice, descriptor.TwoGbMaxExtentFlat:
		return descriptor.Flat, nil
	case descriptor.MonolithicSparse, descriptor.StreamOptimized, descriptor.TwoGbMaxExtentSparse:
		return descriptor.Sparse, nil
	case descriptor.VmfsCreate:
		return descriptor.Vmfs, nil
	case descriptor.VmfsPassthroughRawDeviceMap:
		return descriptor.VmfsRdm, nil
	case descriptor.VmfsRawCreate, descriptor.VmfsRawDeviceMap:
		return descriptor.VmfsRaw, nil
	case descriptor.VmfsSparseCreate:
		return descriptor.VmfsSparse, nil
	default:
		return 0, fmt.Errorf("vmdk: unknown create type %q: %w", t, vmdkerr.ErrInvalidArgument)
	}
}
