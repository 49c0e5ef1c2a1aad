package blendfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// FieldDNA names a single struct field: the SDNA index of its type and
// of its raw (possibly pointer/array-decorated) declarator string.
type FieldDNA struct {
	TypeIndex uint16
	NameIndex uint16
}

// StructDNA is one structure definition: which type it names, and its
// ordered field list.
type StructDNA struct {
	TypeIndex uint16
	Fields    []FieldDNA
}

// SDNA holds the four parallel tables the schema section decodes into.
// All four are immutable once parsed.
type SDNA struct {
	Names     []string
	Types     []string
	TypeSizes []uint16
	Structs   []StructDNA
}

// structForType returns the struct definition whose TypeIndex equals
// typeIndex, or ErrNotAStruct if the type is primitive or unknown.
func (s *SDNA) structForType(typeIndex int) (*StructDNA, error) {
	for i := range s.Structs {
		if int(s.Structs[i].TypeIndex) == typeIndex {
			return &s.Structs[i], nil
		}
	}
	return nil, ErrNotAStruct
}

// typeIndexByName looks up a type name's index, or -1 if absent.
func (s *SDNA) typeIndexByName(name string) int {
	for i, n := range s.Types {
		if n == name {
			return i
		}
	}
	return -1
}

type sdnaCursor struct {
	buf []byte
	pos int
	ord binary.ByteOrder
}

func (c *sdnaCursor) align4() {
	if rem := c.pos % 4; rem != 0 {
		c.pos += 4 - rem
	}
}

func (c *sdnaCursor) expectTag(tag string) error {
	if c.pos+4 > len(c.buf) || string(c.buf[c.pos:c.pos+4]) != tag {
		return fmt.Errorf("%w: expected tag %q at offset %d", ErrBadSchema, tag, c.pos)
	}
	c.pos += 4
	return nil
}

func (c *sdnaCursor) u32() (uint32, error) {
	if c.pos+4 > len(c.buf) {
		return 0, fmt.Errorf("%w: truncated while reading u32", ErrBadSchema)
	}
	v := c.ord.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

func (c *sdnaCursor) u16() (uint16, error) {
	if c.pos+2 > len(c.buf) {
		return 0, fmt.Errorf("%w: truncated while reading u16", ErrBadSchema)
	}
	v := c.ord.Uint16(c.buf[c.pos : c.pos+2])
	c.pos += 2
	return v, nil
}

// strings reads n consecutive NUL-terminated strings starting at the
// cursor and leaves the cursor positioned just past the final NUL.
func (c *sdnaCursor) strings(n uint32) ([]string, error) {
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		rest := c.buf[c.pos:]
		idx := bytes.IndexByte(rest, 0)
		if idx < 0 {
			return nil, fmt.Errorf("%w: unterminated name string", ErrBadSchema)
		}
		out = append(out, string(rest[:idx]))
		c.pos += idx + 1
	}
	return out, nil
}

// parseSDNA decodes the SDNA payload of the DNA1 block into its four
// parallel tables. Section order is fixed: SDNA/NAME, TYPE, TLEN, STRC,
// each aligned to a 4-byte boundary before the next tag.
func parseSDNA(payload []byte, order binary.ByteOrder) (*SDNA, error) {
	c := &sdnaCursor{buf: payload, ord: order}

	if err := c.expectTag("SDNA"); err != nil {
		return nil, err
	}
	if err := c.expectTag("NAME"); err != nil {
		return nil, err
	}
	nameCount, err := c.u32()
	if err != nil {
		return nil, err
	}
	names, err := c.strings(nameCount)
	if err != nil {
		return nil, err
	}
	c.align4()

	if err := c.expectTag("TYPE"); err != nil {
		return nil, err
	}
	typeCount, err := c.u32()
	if err != nil {
		return nil, err
	}
	types, err := c.strings(typeCount)
	if err != nil {
		return nil, err
	}
	c.align4()

	if err := c.expectTag("TLEN"); err != nil {
		return nil, err
	}
	typeSizes := make([]uint16, typeCount)
	for i := range typeSizes {
		v, err := c.u16()
		if err != nil {
			return nil, err
		}
		typeSizes[i] = v
	}
	c.align4()

	if err := c.expectTag("STRC"); err != nil {
		return nil, err
	}
	structCount, err := c.u32()
	if err != nil {
		return nil, err
	}
	structs := make([]StructDNA, structCount)
	for i := range structs {
		typeIndex, err := c.u16()
		if err != nil {
			return nil, err
		}
		fieldCount, err := c.u16()
		if err != nil {
			return nil, err
		}
		fields := make([]FieldDNA, fieldCount)
		for j := range fields {
			ftype, err := c.u16()
			if err != nil {
				return nil, err
			}
			fname, err := c.u16()
			if err != nil {
				return nil, err
			}
			fields[j] = FieldDNA{TypeIndex: ftype, NameIndex: fname}
		}
		structs[i] = StructDNA{TypeIndex: typeIndex, Fields: fields}
	}

	return &SDNA{Names: names, Types: types, TypeSizes: typeSizes, Structs: structs}, nil
}
