package blendfile

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// collectRecords drains a Factory's lazy Iter() sequence into a slice,
// failing the test immediately on any per-record error. Tests that need
// to assert on Iter()'s own laziness or error-isolation behavior range
// over Iter() directly instead of using this helper.
func collectRecords(t *testing.T, factory *Factory) []*Record {
	t.Helper()
	var out []*Record
	for rec, err := range factory.Iter() {
		if err != nil {
			t.Fatalf("Iter: %v", err)
		}
		out = append(out, rec)
	}
	return out
}

// This file assembles one representative synthetic .blend-shaped buffer,
// reused across record_test.go, factory_test.go, pointer_test.go and
// file_test.go, so every test exercises the same fixed set of addresses
// and record shapes instead of repeating the byte-layout bookkeeping.

const (
	addrWorld = 0x1000
	addrScene = 0x2000
	addrMesh  = 0x3000
	addrVerts = 0x4000
	addrObj   = 0x5000
	addrRctf  = 0x6000
	addrCurve = 0x7000
)

func idPayload(code2 string, name string, next, prev uint64, order binary.ByteOrder) []byte {
	buf := make([]byte, 12)
	copy(buf, code2)
	copy(buf[2:], name)
	var ptrs [16]byte
	order.PutUint64(ptrs[0:8], next)
	order.PutUint64(ptrs[8:16], prev)
	return append(buf, ptrs[:]...)
}

func f32(v float32, order binary.ByteOrder) []byte {
	var b [4]byte
	order.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}

func i32(v int32, order binary.ByteOrder) []byte {
	var b [4]byte
	order.PutUint32(b[:], uint32(v))
	return b[:]
}

func ptr64(addr uint64, order binary.ByteOrder) []byte {
	var b [8]byte
	order.PutUint64(b[:], addr)
	return b[:]
}

// buildSampleFile returns a complete in-memory .blend-shaped buffer with
// one record of each fixture struct type, wired together the way a
// Scene -> World and an Object -> MeshLike -> MVertLike[] graph would be:
//
//	World  (0x1000): id="WOSun",  aodist=1.5, mtex=[0,0,0]
//	Scene  (0x2000): id="SCScene", world -> 0x1000
//	verts  (0x4000): 2x MVertLike, co=[1,2,3] and [4,5,6]
//	Mesh   (0x3000): id="MEMesh", totvert=2, verts -> 0x4000 (count=2)
//	Object (0x5000): id="OBCube", data -> 0x3000
//	rctf   (0x6000): xmin=0, xmax=1 (no ID field)
//	Curve  (0x7000): id="CUPath", bounds=[{xmin=0,xmax=1},{xmin=2,xmax=3}]
func buildSampleFile(order binary.ByteOrder) []byte {
	idx := fixtureSchemaIndices(order, 8)

	world := append(idPayload("WO", "Sun", 0, 0, order), f32(1.5, order)...)
	world = append(world, ptr64(0, order)...)
	world = append(world, ptr64(0, order)...)
	world = append(world, ptr64(0, order)...)

	scene := append(idPayload("SC", "Scene", 0, 0, order), ptr64(addrWorld, order)...)

	var verts bytes.Buffer
	verts.Write(f32(1, order))
	verts.Write(f32(2, order))
	verts.Write(f32(3, order))
	verts.Write(f32(4, order))
	verts.Write(f32(5, order))
	verts.Write(f32(6, order))

	mesh := append(idPayload("ME", "Mesh", 0, 0, order), i32(2, order)...)
	mesh = append(mesh, ptr64(addrVerts, order)...)

	object := append(idPayload("OB", "Cube", 0, 0, order), ptr64(addrMesh, order)...)

	rctf := append(f32(0, order), f32(1, order)...)

	curve := idPayload("CU", "Path", 0, 0, order)
	curve = append(curve, f32(0, order)...)
	curve = append(curve, f32(1, order)...)
	curve = append(curve, f32(2, order)...)
	curve = append(curve, f32(3, order)...)

	blocks := []blockSpec{
		{code: "WO", addr: addrWorld, structIdx: uint32(idx["World"]), count: 1, payload: world},
		{code: "SC", addr: addrScene, structIdx: uint32(idx["Scene"]), count: 1, payload: scene},
		{code: "MV", addr: addrVerts, structIdx: uint32(idx["MVertLike"]), count: 2, payload: verts.Bytes()},
		{code: "ME", addr: addrMesh, structIdx: uint32(idx["MeshLike"]), count: 1, payload: mesh},
		{code: "OB", addr: addrObj, structIdx: uint32(idx["Object"]), count: 1, payload: object},
		{code: "RC", addr: addrRctf, structIdx: uint32(idx["rctf"]), count: 1, payload: rctf},
		{code: "CU", addr: addrCurve, structIdx: uint32(idx["Curve"]), count: 1, payload: curve},
	}

	return buildFixtureFile(order, 8, [3]byte{2, 7, 9}, blocks)
}
