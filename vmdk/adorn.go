package vmdk

import (
	"fmt"
	"strings"

	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// Adorn produces "<basename>-<adornment>.vmdk" from name, which must end
// in ".vmdk" (case-insensitive).
func Adorn(name, adornment string) (string, error) {
	if len(name) < 5 || !strings.EqualFold(name[len(name)-5:], ".vmdk") {
		return "", fmt.Errorf("vmdk: %q does not end in .vmdk: %w", name, vmdkerr.ErrInvalidArgument)
	}
	base := name[:len(name)-5]
	return fmt.Sprintf("%s-%s.vmdk", base, adornment), nil
}
