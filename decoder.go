package blendfile

import (
	"encoding/binary"
	"fmt"
)

// FieldDescriptor is the decoded, semantic form of one raw SDNA field:
// its name, declared type, byte size and layout offset within the
// parent record, plus the pointer/array/function-pointer flags C5
// extracts from the raw declarator.
type FieldDescriptor struct {
	BaseName         string
	TypeName         string
	Size             uint32
	Offset           uint32
	IsPointer        bool
	IsFuncPointer    bool
	PointerDepth     int
	ArrayDims        []uint32
	IsEmbeddedStruct bool
}

// Decoder is a cached, version-specific compiled layout translating the
// raw bytes of one block into a Record. Decoders are interned per
// (version, struct name) pair: synthesizing one twice for the same key
// returns the identical *Decoder.
type Decoder struct {
	Name     string
	Version  [3]uint8
	Size     uint32
	Fields   []FieldDescriptor
	Embedded map[int]*Decoder // field index -> decoder for embedded (non-pointer) struct fields

	order      binary.ByteOrder
	ptrSize    int
	fieldIndex map[string]int
}

func (d *Decoder) field(name string) (*FieldDescriptor, int, bool) {
	idx, ok := d.fieldIndex[name]
	if !ok {
		return nil, 0, false
	}
	return &d.Fields[idx], idx, true
}

// decoderCache interns synthesized decoders keyed by producer version
// and struct name, scoped to a single File (no process-wide state).
type decoderCache struct {
	byVersion map[[3]uint8]map[string]*Decoder
}

func newDecoderCache() *decoderCache {
	return &decoderCache{byVersion: make(map[[3]uint8]map[string]*Decoder)}
}

// get returns the cached decoder for (version, name), if any.
func (c *decoderCache) get(version [3]uint8, name string) (*Decoder, bool) {
	byName, ok := c.byVersion[version]
	if !ok {
		return nil, false
	}
	d, ok := byName[name]
	return d, ok
}

func (c *decoderCache) put(version [3]uint8, name string, d *Decoder) {
	byName, ok := c.byVersion[version]
	if !ok {
		byName = make(map[string]*Decoder)
		c.byVersion[version] = byName
	}
	byName[name] = d
}

// base types known by the SDNA and their fixed storage size, mirroring
// tinyblend's _BASE_TYPES table.
var baseTypeSizes = map[string]uint32{
	"char":     1,
	"short":    2,
	"int":      4,
	"float":    4,
	"double":   8,
	"uint64_t": 8,
}

func isBaseType(name string) bool {
	_, ok := baseTypeSizes[name]
	return ok
}

// synthesizeDecoder computes, for the struct at sdna.Structs[structIdx],
// its flat field list with per-field offsets, recursive decoders for
// embedded non-pointer struct fields, and interns the result under
// (version, name). The cache entry is inserted before recursing into
// embedded fields so a struct that (incorrectly) referenced itself by
// value would terminate instead of looping; producers never emit such
// cycles, only pointer-mediated ones.
func synthesizeDecoder(sdna *SDNA, order binary.ByteOrder, ptrSize int, version [3]uint8, structIdx int, cache *decoderCache) (*Decoder, error) {
	strct := &sdna.Structs[structIdx]
	name := sdna.Types[strct.TypeIndex]

	if cached, ok := cache.get(version, name); ok {
		return cached, nil
	}

	d := &Decoder{
		Name:       name,
		Version:    version,
		order:      order,
		ptrSize:    ptrSize,
		fieldIndex: make(map[string]int),
		Embedded:   make(map[int]*Decoder),
	}
	cache.put(version, name, d)

	var offset uint32
	for fi, f := range strct.Fields {
		if int(f.NameIndex) >= len(sdna.Names) || int(f.TypeIndex) >= len(sdna.Types) {
			return nil, fmt.Errorf("%w: field index out of range in struct %q", ErrBadSchema, name)
		}
		raw := sdna.Names[f.NameIndex]
		typeName := sdna.Types[f.TypeIndex]
		attrs := parseFieldName(raw)

		var size uint32
		switch {
		case attrs.isPointer():
			size = uint32(ptrSize) * attrs.arrayCount()
		default:
			size = uint32(sdna.TypeSizes[f.TypeIndex]) * attrs.arrayCount()
		}

		desc := FieldDescriptor{
			BaseName:      attrs.baseName,
			TypeName:      typeName,
			Size:          size,
			Offset:        offset,
			IsPointer:     attrs.isPointer(),
			IsFuncPointer: attrs.isFuncPtr,
			PointerDepth:  attrs.pointerDepth,
			ArrayDims:     attrs.arrayDims,
		}

		if !attrs.isPointer() && !isBaseType(typeName) {
			desc.IsEmbeddedStruct = true
			childIdx := sdna.typeIndexByName(typeName)
			if childIdx < 0 {
				return nil, fmt.Errorf("%w: unknown embedded type %q", ErrBadSchema, typeName)
			}
			childStruct, err := sdna.structForType(childIdx)
			if err != nil {
				return nil, fmt.Errorf("%w: embedded type %q is not a struct", ErrBadSchema, typeName)
			}
			// Find the struct's index within sdna.Structs (not its type index).
			structPos := -1
			for si := range sdna.Structs {
				if &sdna.Structs[si] == childStruct {
					structPos = si
					break
				}
			}
			child, err := synthesizeDecoder(sdna, order, ptrSize, version, structPos, cache)
			if err != nil {
				return nil, err
			}
			d.Embedded[fi] = child
		}

		d.fieldIndex[attrs.baseName] = len(d.Fields)
		d.Fields = append(d.Fields, desc)
		offset += size
	}

	d.Size = offset
	return d, nil
}
