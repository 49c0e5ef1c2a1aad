package blendfile

import (
	"bytes"
	"encoding/binary"
)

// This file builds small, fully synthetic .blend-shaped byte buffers for
// tests, the way squashfs's writer_test.go assembles synthetic squashfs
// images by hand rather than shipping a binary fixture. The schema below
// models a handful of Blender-like structs (ID, World, MTex, Scene,
// MeshLike, MVertLike, Object, rctf, Curve) exercising embedded structs,
// pointer fields, pointer-array fields, multi-element target blocks and
// an embedded-struct-array field (Curve.bounds).

type fixtureField struct {
	typeName string
	rawName  string
}

type fixtureStruct struct {
	typeName string
	fields   []fixtureField
}

// fixtureStructs is shared across tests: the struct list below is
// topologically ordered so that by the time a struct references
// another by name as a field type, that struct has already been
// declared (mirroring how real SDNA struct order works).
var fixtureStructs = []fixtureStruct{
	{typeName: "ID", fields: []fixtureField{
		{"char", "name[12]"},
		{"ID", "*next"},
		{"ID", "*prev"},
	}},
	{typeName: "MTex", fields: nil},
	{typeName: "World", fields: []fixtureField{
		{"ID", "id"},
		{"float", "aodist"},
		{"MTex", "*mtex[3]"},
	}},
	{typeName: "Scene", fields: []fixtureField{
		{"ID", "id"},
		{"World", "*world"},
	}},
	{typeName: "MVertLike", fields: []fixtureField{
		{"float", "co[3]"},
	}},
	{typeName: "MeshLike", fields: []fixtureField{
		{"ID", "id"},
		{"int", "totvert"},
		{"MVertLike", "*verts"},
	}},
	{typeName: "Object", fields: []fixtureField{
		{"ID", "id"},
		{"MeshLike", "*data"},
	}},
	{typeName: "rctf", fields: []fixtureField{
		{"float", "xmin"},
		{"float", "xmax"},
	}},
	{typeName: "Curve", fields: []fixtureField{
		{"ID", "id"},
		{"rctf", "bounds[2]"},
	}},
}

var fixtureBaseTypes = []string{"char", "int", "float", "short", "double", "uint64_t"}

type fixtureSchemaBuilder struct {
	ptrSize int
	order   binary.ByteOrder

	typeIndex map[string]int
	types     []string
	typeSizes []uint16
	nameIndex map[string]int
	names     []string
}

func newFixtureSchemaBuilder(order binary.ByteOrder, ptrSize int) *fixtureSchemaBuilder {
	b := &fixtureSchemaBuilder{
		ptrSize:   ptrSize,
		order:     order,
		typeIndex: make(map[string]int),
		nameIndex: make(map[string]int),
	}
	for _, t := range fixtureBaseTypes {
		b.addType(t, uint16(baseTypeSizes[t]))
	}
	return b
}

func (b *fixtureSchemaBuilder) addType(name string, size uint16) int {
	if idx, ok := b.typeIndex[name]; ok {
		return idx
	}
	idx := len(b.types)
	b.typeIndex[name] = idx
	b.types = append(b.types, name)
	b.typeSizes = append(b.typeSizes, size)
	return idx
}

func (b *fixtureSchemaBuilder) addName(name string) int {
	if idx, ok := b.nameIndex[name]; ok {
		return idx
	}
	idx := len(b.names)
	b.nameIndex[name] = idx
	b.names = append(b.names, name)
	return idx
}

// build computes every struct's size from its fields (pointer fields
// cost ptrSize, embedded struct fields cost the embedded struct's own
// already-computed size) and returns the encoded SDNA payload plus a
// lookup from struct type name to its index within sdna.Structs.
func (b *fixtureSchemaBuilder) build() (payload []byte, structIndexByName map[string]int) {
	structIndexByName = make(map[string]int)
	type rawStruct struct {
		typeIdx int
		fields  []FieldDNA
	}
	var rawStructs []rawStruct

	// Register every struct's type name up front (placeholder size 0) so
	// self- and forward-referencing pointer fields (ID.next/prev -> ID)
	// resolve to a type index before that struct's own size is known.
	for _, s := range fixtureStructs {
		b.addType(s.typeName, 0)
	}

	for si, s := range fixtureStructs {
		var fields []FieldDNA
		var size uint32
		for _, f := range s.fields {
			attrs := parseFieldName(f.rawName)
			fieldTypeIdx := b.typeIndex[f.typeName]
			var fieldSize uint32
			if attrs.isPointer() {
				fieldSize = uint32(b.ptrSize) * attrs.arrayCount()
			} else if sz, ok := baseTypeSizes[f.typeName]; ok {
				fieldSize = sz * attrs.arrayCount()
			} else {
				fieldSize = uint32(b.typeSizes[fieldTypeIdx]) * attrs.arrayCount()
			}
			size += fieldSize
			fields = append(fields, FieldDNA{TypeIndex: uint16(fieldTypeIdx), NameIndex: uint16(b.addName(f.rawName))})
		}
		typeIdx := b.typeIndex[s.typeName]
		b.typeSizes[typeIdx] = uint16(size)
		structIndexByName[s.typeName] = si
		rawStructs = append(rawStructs, rawStruct{typeIdx: typeIdx, fields: fields})
	}

	var buf bytes.Buffer
	buf.WriteString("SDNA")
	buf.WriteString("NAME")
	writeU32(&buf, b.order, uint32(len(b.names)))
	for _, n := range b.names {
		buf.WriteString(n)
		buf.WriteByte(0)
	}
	align4(&buf)

	buf.WriteString("TYPE")
	writeU32(&buf, b.order, uint32(len(b.types)))
	for _, t := range b.types {
		buf.WriteString(t)
		buf.WriteByte(0)
	}
	align4(&buf)

	buf.WriteString("TLEN")
	for _, sz := range b.typeSizes {
		writeU16(&buf, b.order, sz)
	}
	align4(&buf)

	buf.WriteString("STRC")
	writeU32(&buf, b.order, uint32(len(rawStructs)))
	for _, rs := range rawStructs {
		writeU16(&buf, b.order, uint16(rs.typeIdx))
		writeU16(&buf, b.order, uint16(len(rs.fields)))
		for _, f := range rs.fields {
			writeU16(&buf, b.order, f.TypeIndex)
			writeU16(&buf, b.order, f.NameIndex)
		}
	}

	return buf.Bytes(), structIndexByName
}

func writeU32(buf *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU16(buf *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var tmp [2]byte
	order.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU64(buf *bytes.Buffer, order binary.ByteOrder, v uint64) {
	var tmp [8]byte
	order.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func align4(buf *bytes.Buffer) {
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
}

// blockSpec is one directory-bound block to embed in a fixture file.
type blockSpec struct {
	code      string
	addr      uint64
	structIdx uint32
	count     uint32
	payload   []byte
}

// buildFixtureFile assembles a full .blend-shaped byte buffer: header,
// DNA1 block, the given data blocks in order, and an ENDB terminator.
func buildFixtureFile(order binary.ByteOrder, ptrSize int, version [3]byte, blocks []blockSpec) []byte {
	schema := newFixtureSchemaBuilder(order, ptrSize)
	sdnaPayload, _ := schema.build()

	var buf bytes.Buffer
	buf.WriteString("BLENDER")
	if ptrSize == 8 {
		buf.WriteByte('-')
	} else {
		buf.WriteByte('_')
	}
	if order == binary.LittleEndian {
		buf.WriteByte('v')
	} else {
		buf.WriteByte('V')
	}
	for _, v := range version {
		buf.WriteByte('0' + v)
	}

	writeBlockHeader(&buf, order, ptrSize, "DNA1", 0, uint32(len(sdnaPayload)), 0, 0)
	buf.Write(sdnaPayload)

	for _, b := range blocks {
		writeBlockHeader(&buf, order, ptrSize, b.code, b.addr, uint32(len(b.payload)), b.structIdx, b.count)
		buf.Write(b.payload)
	}

	writeBlockHeader(&buf, order, ptrSize, "ENDB", 0, 0, 0, 0)

	return buf.Bytes()
}

func writeBlockHeader(buf *bytes.Buffer, order binary.ByteOrder, ptrSize int, code string, addr uint64, size, sdnaIndex, count uint32) {
	var c [4]byte
	copy(c[:], code)
	buf.Write(c[:])
	writeU32(buf, order, size)
	if ptrSize == 4 {
		writeU32(buf, order, uint32(addr))
	} else {
		writeU64(buf, order, addr)
	}
	writeU32(buf, order, sdnaIndex)
	writeU32(buf, order, count)
}

// fixtureSchemaIndices returns the struct-index-within-sdna.Structs for
// every fixture struct name, for use by tests building block payloads
// (block.SDNAIndex must match a struct's position in sdna.Structs, not
// its type index).
func fixtureSchemaIndices(order binary.ByteOrder, ptrSize int) map[string]int {
	schema := newFixtureSchemaBuilder(order, ptrSize)
	_, idxByName := schema.build()
	return idxByName
}
