// Package descriptor implements the textual VMDK descriptor codec:
// parsing and serializing the structured key/value and extent-line record
// embedded in or alongside a VMDK.
package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vmdkcore/vmdkcore/internal/geometry"
	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

// NoParent is the sentinel ParentContentID meaning "no parent disk".
const NoParent uint32 = 0xFFFFFFFF

// AccessMode is an extent's (or the whole disk's) access permission.
type AccessMode int

const (
	Read AccessMode = iota
	ReadWrite
)

func (a AccessMode) String() string {
	if a == ReadWrite {
		return "RW"
	}
	return "RDONLY"
}

func parseAccessMode(s string) (AccessMode, error) {
	switch s {
	case "RW":
		return ReadWrite, nil
	case "RDONLY", "NOACCESS":
		return Read, nil
	default:
		return 0, fmt.Errorf("descriptor: unknown access mode %q: %w", s, vmdkerr.ErrInvalidArgument)
	}
}

// ExtentType identifies the on-disk representation of one extent.
type ExtentType int

const (
	Flat ExtentType = iota
	Sparse
	Zero
	Vmfs
	VmfsSparse
	VmfsRdm
	VmfsRaw
)

func (t ExtentType) String() string {
	switch t {
	case Flat:
		return "FLAT"
	case Sparse:
		return "SPARSE"
	case Zero:
		return "ZERO"
	case Vmfs:
		return "VMFS"
	case VmfsSparse:
		return "VMFSSPARSE"
	case VmfsRdm:
		return "VMFSRDM"
	case VmfsRaw:
		return "VMFSRAW"
	default:
		return "UNKNOWN"
	}
}

func parseExtentType(s string) (ExtentType, error) {
	switch s {
	case "FLAT":
		return Flat, nil
	case "SPARSE":
		return Sparse, nil
	case "ZERO":
		return Zero, nil
	case "VMFS":
		return Vmfs, nil
	case "VMFSSPARSE":
		return VmfsSparse, nil
	case "VMFSRDM":
		return VmfsRdm, nil
	case "VMFSRAW":
		return VmfsRaw, nil
	default:
		return 0, fmt.Errorf("descriptor: unknown extent type %q: %w", s, vmdkerr.ErrInvalidArgument)
	}
}

// CreateType enumerates the named VMDK createType values.
type CreateType string

const (
	MonolithicSparse            CreateType = "monolithicSparse"
	MonolithicFlat              CreateType = "monolithicFlat"
	TwoGbMaxExtentSparse        CreateType = "twoGbMaxExtentSparse"
	TwoGbMaxExtentFlat          CreateType = "twoGbMaxExtentFlat"
	FullDevice                  CreateType = "fullDevice"
	PartitionedDevice           CreateType = "partitionedDevice"
	StreamOptimized             CreateType = "streamOptimized"
	VmfsCreate                  CreateType = "vmfs"
	VmfsSparseCreate            CreateType = "vmfsSparse"
	VmfsRawCreate               CreateType = "vmfsRaw"
	VmfsRawDeviceMap            CreateType = "vmfsRawDeviceMap"
	VmfsPassthroughRawDeviceMap CreateType = "vmfsPassthroughRawDeviceMap"
)

// ExtentDescriptor is one line of a VMDK "# Extent description" section.
type ExtentDescriptor struct {
	Access        AccessMode
	SizeSectors   uint64
	Type          ExtentType
	Filename      string
	OffsetSectors uint64 // only meaningful for raw/flat sharing a backing file
}

// Descriptor is the parsed structured record of a VMDK textual descriptor.
type Descriptor struct {
	Geometry           geometry.CHS
	ContentID          uint32
	ParentContentID    uint32
	CreateType         CreateType
	Extents            []ExtentDescriptor
	ParentFileNameHint string
	UniqueID           string
}

// NeedsParent reports whether the descriptor names a parent disk.
func (d Descriptor) NeedsParent() bool {
	return d.ParentContentID != NoParent
}

// CapacitySectors returns the sum of all extents' declared sizes.
func (d Descriptor) CapacitySectors() uint64 {
	var total uint64
	for _, e := range d.Extents {
		total += e.SizeSectors
	}
	return total
}

const headerSignature = "# Disk DescriptorFile"

// Parse decodes a textual VMDK descriptor.
func Parse(data []byte) (Descriptor, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != headerSignature {
		return Descriptor{}, fmt.Errorf("descriptor: missing signature line: %w", vmdkerr.ErrCorrupt)
	}

	attrs := make(map[string]string)
	ddb := make(map[string]string)
	var extents []ExtentDescriptor

	for _, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "RW ") || strings.HasPrefix(line, "RDONLY ") || strings.HasPrefix(line, "NOACCESS ") {
			ext, err := parseExtentLine(line)
			if err != nil {
				return Descriptor{}, err
			}
			extents = append(extents, ext)
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		if strings.HasPrefix(key, "ddb.") {
			ddb[key] = val
		} else {
			attrs[key] = val
		}
	}

	d := Descriptor{Extents: extents}
	d.CreateType = CreateType(attrs["createType"])
	if cid, ok := attrs["CID"]; ok {
		v, err := strconv.ParseUint(cid, 16, 32)
		if err != nil {
			return Descriptor{}, fmt.Errorf("descriptor: bad CID %q: %w", cid, vmdkerr.ErrCorrupt)
		}
		d.ContentID = uint32(v)
	}
	d.ParentContentID = NoParent
	if pcid, ok := attrs["parentCID"]; ok {
		v, err := strconv.ParseUint(pcid, 16, 32)
		if err != nil {
			return Descriptor{}, fmt.Errorf("descriptor: bad parentCID %q: %w", pcid, vmdkerr.ErrCorrupt)
		}
		d.ParentContentID = uint32(v)
	}
	d.ParentFileNameHint = attrs["parentFileNameHint"]
	d.UniqueID = ddb["ddb.uuid.image"]

	var cyl, heads, sectors uint64
	if v, ok := ddb["ddb.geometry.cylinders"]; ok {
		cyl, _ = strconv.ParseUint(v, 10, 32)
	}
	if v, ok := ddb["ddb.geometry.heads"]; ok {
		heads, _ = strconv.ParseUint(v, 10, 32)
	}
	if v, ok := ddb["ddb.geometry.sectors"]; ok {
		sectors, _ = strconv.ParseUint(v, 10, 32)
	}
	d.Geometry = geometry.CHS{Cylinders: uint32(cyl), Heads: uint32(heads), Sectors: uint32(sectors)}

	return d, nil
}

func parseExtentLine(line string) (ExtentDescriptor, error) {
	parts := strings.SplitN(line, " ", 4)
	if len(parts) < 4 {
		return ExtentDescriptor{}, fmt.Errorf("descriptor: malformed extent line %q: %w", line, vmdkerr.ErrCorrupt)
	}
	access, err := parseAccessMode(parts[0])
	if err != nil {
		return ExtentDescriptor{}, err
	}
	size, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return ExtentDescriptor{}, fmt.Errorf("descriptor: bad extent size %q: %w", parts[1], vmdkerr.ErrCorrupt)
	}
	extType, err := parseExtentType(parts[2])
	if err != nil {
		return ExtentDescriptor{}, err
	}
	rest := strings.TrimSpace(parts[3])
	filename := rest
	var offset uint64
	if i := strings.Index(rest, `"`); i == 0 {
		end := strings.Index(rest[1:], `"`)
		if end < 0 {
			return ExtentDescriptor{}, fmt.Errorf("descriptor: unterminated filename in %q: %w", line, vmdkerr.ErrCorrupt)
		}
		filename = rest[1 : 1+end]
		tail := strings.TrimSpace(rest[1+end+1:])
		if tail != "" {
			if v, err := strconv.ParseUint(tail, 10, 64); err == nil {
				offset = v
			}
		}
	}
	return ExtentDescriptor{
		Access:        access,
		SizeSectors:   size,
		Type:          extType,
		Filename:      filename,
		OffsetSectors: offset,
	}, nil
}

// Serialize encodes d as a textual VMDK descriptor.
func (d Descriptor) Serialize() []byte {
	var b strings.Builder
	b.WriteString(headerSignature + "\n")
	b.WriteString("version=1\n")
	b.WriteString(`encoding="UTF-8"` + "\n")
	fmt.Fprintf(&b, "CID=%08x\n", d.ContentID)
	fmt.Fprintf(&b, "parentCID=%08x\n", d.ParentContentID)
	fmt.Fprintf(&b, "createType=%q\n", string(d.CreateType))
	if d.ParentFileNameHint != "" {
		fmt.Fprintf(&b, "parentFileNameHint=%q\n", d.ParentFileNameHint)
	}
	b.WriteString("\n# Extent description\n")
	for _, e := range d.Extents {
		if e.OffsetSectors != 0 {
			fmt.Fprintf(&b, "%s %d %s %q %d\n", e.Access, e.SizeSectors, e.Type, e.Filename, e.OffsetSectors)
		} else {
			fmt.Fprintf(&b, "%s %d %s %q\n", e.Access, e.SizeSectors, e.Type, e.Filename)
		}
	}
	b.WriteString("\n# The Disk Data Base\n#DDB\n\n")
	if d.UniqueID != "" {
		fmt.Fprintf(&b, "ddb.uuid.image = %q\n", d.UniqueID)
	}
	fmt.Fprintf(&b, "ddb.geometry.cylinders = %q\n", strconv.FormatUint(uint64(d.Geometry.Cylinders), 10))
	fmt.Fprintf(&b, "ddb.geometry.heads = %q\n", strconv.FormatUint(uint64(d.Geometry.Heads), 10))
	fmt.Fprintf(&b, "ddb.geometry.sectors = %q\n", strconv.FormatUint(uint64(d.Geometry.Sectors), 10))
	b.WriteString(`ddb.adapterType = "lsilogic"` + "\n")
	return []byte(b.String())
}
