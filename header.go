package blendfile

import (
	"encoding/binary"
	"fmt"
)

const headerSize = 12

var magic = [7]byte{'B', 'L', 'E', 'N', 'D', 'E', 'R'}

// Header describes the producer build that wrote a .blend file: its
// pointer width, byte order and version triple. It is immutable for the
// lifetime of the File it was parsed from.
type Header struct {
	PointerSize int // 4 or 8
	Order       binary.ByteOrder
	Version     [3]uint8 // major, minor, rev
}

// parseHeader validates and decodes the fixed 12-byte .blend header:
//
//	bytes 0..6  "BLENDER"
//	byte  7     '_' => 32-bit pointers, '-' => 64-bit pointers
//	byte  8     'v' => little endian, 'V' => big endian
//	bytes 9..11 ASCII decimal digits for major/minor/rev
func parseHeader(raw []byte) (Header, error) {
	if len(raw) != headerSize {
		return Header{}, fmt.Errorf("%w: header must be %d bytes", ErrTruncated, headerSize)
	}
	for i, m := range magic {
		if raw[i] != m {
			return Header{}, fmt.Errorf("%w: missing BLENDER magic", ErrBadHeader)
		}
	}

	var ptrSize int
	switch raw[7] {
	case '_':
		ptrSize = 4
	case '-':
		ptrSize = 8
	default:
		return Header{}, fmt.Errorf("%w: unknown pointer size byte %q", ErrBadHeader, raw[7])
	}

	var order binary.ByteOrder
	switch raw[8] {
	case 'v':
		order = binary.LittleEndian
	case 'V':
		order = binary.BigEndian
	default:
		return Header{}, fmt.Errorf("%w: unknown endianness byte %q", ErrBadHeader, raw[8])
	}

	var version [3]uint8
	for i := 0; i < 3; i++ {
		d := raw[9+i]
		if d < '0' || d > '9' {
			return Header{}, fmt.Errorf("%w: non-digit version byte %q", ErrBadHeader, d)
		}
		version[i] = d - '0'
	}

	return Header{PointerSize: ptrSize, Order: order, Version: version}, nil
}
