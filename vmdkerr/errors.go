// Package vmdkerr defines the error kinds surfaced by the vmdkcore subsystem.
package vmdkerr

import "errors"

var (
	// ErrNotAVmdk is returned when an input stream has neither a textual
	// descriptor nor a valid hosted-sparse header.
	ErrNotAVmdk = errors.New("vmdkcore: not a vmdk")

	// ErrInvalidArgument is returned for API misuse: a non-monolithic
	// descriptor passed to OpenStream, a filename missing the .vmdk suffix,
	// an unknown create-type, and similar caller errors.
	ErrInvalidArgument = errors.New("vmdkcore: invalid argument")

	// ErrUnsupportedExtentType is returned for a recognized but
	// unimplemented extent type.
	ErrUnsupportedExtentType = errors.New("vmdkcore: unsupported extent type")

	// ErrUnsupportedCreateType is returned for a recognized but
	// unimplemented create-type.
	ErrUnsupportedCreateType = errors.New("vmdkcore: unsupported create type")

	// ErrIO names the I/O failure kind. Failures of the underlying byte
	// stream are returned as the stream reported them (with added context),
	// not wrapped in ErrIO.
	ErrIO = errors.New("vmdkcore: i/o error")

	// ErrCorrupt indicates self-inconsistent header or descriptor fields,
	// e.g. a descriptor window that overruns the file length.
	ErrCorrupt = errors.New("vmdkcore: corrupt image")
)
