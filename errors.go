package blendfile

import "errors"

// Package-specific error variables, usable with errors.Is().
var (
	// ErrBadHeader is returned when the 12-byte file header fails magic,
	// pointer-width or endianness validation.
	ErrBadHeader = errors.New("blendfile: bad file header")

	// ErrTruncated is returned when the file ends before a header, block
	// or payload that was declared to follow is fully read.
	ErrTruncated = errors.New("blendfile: truncated file")

	// ErrNoSchema is returned when no DNA1 block was found while walking
	// the block directory.
	ErrNoSchema = errors.New("blendfile: no DNA1 schema block found")

	// ErrBadSchema is returned when the SDNA payload has a tag mismatch
	// or an internally inconsistent count.
	ErrBadSchema = errors.New("blendfile: malformed SDNA schema")

	// ErrNotAStruct is returned when a requested type name does not name
	// a struct in the SDNA (it may be primitive, or absent entirely).
	ErrNotAStruct = errors.New("blendfile: type is not a struct")

	// ErrUnnameable is returned by FindByName when the factory's struct
	// has no leading ID field.
	ErrUnnameable = errors.New("blendfile: struct has no name field")

	// ErrNotFound is returned by FindByName when no record matches.
	ErrNotFound = errors.New("blendfile: no record with that name")

	// ErrDanglingPointer is returned when a pointer value does not match
	// any block's original address.
	ErrDanglingPointer = errors.New("blendfile: pointer address not present in file")

	// ErrParentClosed is returned by any operation on a Factory or Record
	// once the owning File has been closed.
	ErrParentClosed = errors.New("blendfile: parent file was closed")

	// ErrFieldDecode is returned when a block's payload is too short for
	// the declared record layout.
	ErrFieldDecode = errors.New("blendfile: field decode failed, corrupt block")

	// ErrUnknownField is returned when a field name is not present on a
	// decoder's field list.
	ErrUnknownField = errors.New("blendfile: unknown field")
)
