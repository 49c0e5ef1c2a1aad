package blendfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Record is a decoded view over one block's raw bytes (or one element
// of a multi-element block). Field access goes through the owning
// Decoder's field list; pointer-field dereferences are memoized on
// first access. A Record keeps an ordinary pointer to its File, used for
// pointer resolution and to fail with ErrParentClosed once that File has
// been closed.
type Record struct {
	decoder *Decoder
	data    []byte
	file    *File

	pointerCache map[int]any
}

func newRecord(decoder *Decoder, data []byte, file *File) *Record {
	return &Record{decoder: decoder, data: data, file: file}
}

// TypeName returns the struct name this record was decoded as.
func (r *Record) TypeName() string {
	return r.decoder.Name
}

// Signature returns the record's flat field list, for introspection.
func (r *Record) Signature() []FieldDescriptor {
	return r.decoder.Fields
}

func (r *Record) checkOpen() error {
	if r.file != nil && r.file.closed {
		return ErrParentClosed
	}
	return nil
}

// Field returns the decoded value of the named field:
//   - base-type scalars decode to float32/float64/int32/int16/uint64/byte
//   - char arrays decode to a fixed-length []byte
//   - other arrays decode to a []any slice of the element's scalar type
//   - embedded (non-pointer) struct fields decode to a *Record, or to a
//     []*Record when the field itself carries array dimensions (one
//     Record per element, sliced out of the field's combined byte range)
//   - single pointer fields resolve to a *Record, a []*Record (when the
//     target block holds more than one element), or nil for a null pointer
//   - pointer arrays and pointer-to-pointer fields resolve to a []any with
//     one entry per stored address, each nil or the resolved value
func (r *Record) Field(name string) (any, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	desc, idx, ok := r.decoder.field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	fieldBytes, err := r.fieldBytes(*desc)
	if err != nil {
		return nil, err
	}

	switch {
	case desc.IsPointer:
		return r.resolvePointer(idx, *desc, fieldBytes)
	case desc.IsEmbeddedStruct:
		child := r.decoder.Embedded[idx]
		if child == nil {
			return nil, fmt.Errorf("%w: missing embedded decoder for %q", ErrFieldDecode, name)
		}
		if len(desc.ArrayDims) == 0 {
			return newRecord(child, fieldBytes, r.file), nil
		}
		return r.embeddedRecordSlice(child, fieldBytes, *desc)
	default:
		return decodeScalarField(*desc, fieldBytes, r.decoder.order)
	}
}

// embeddedRecordSlice splits a multi-element embedded struct field's
// combined byte range into one Record per element, stepping by the
// child decoder's own (single-element) size.
func (r *Record) embeddedRecordSlice(child *Decoder, raw []byte, desc FieldDescriptor) ([]*Record, error) {
	if child.Size == 0 {
		return nil, fmt.Errorf("%w: embedded struct %q has zero size", ErrFieldDecode, desc.BaseName)
	}
	n := len(raw) / int(child.Size)
	out := make([]*Record, n)
	for i := 0; i < n; i++ {
		start := i * int(child.Size)
		out[i] = newRecord(child, raw[start:start+int(child.Size)], r.file)
	}
	return out, nil
}

// Sub is a typed convenience wrapper over Field for embedded struct
// fields.
func (r *Record) Sub(name string) (*Record, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an embedded struct field", ErrUnknownField, name)
	}
	return rec, nil
}

// SubSlice is a typed convenience wrapper over Field for embedded
// struct fields that carry array dimensions (e.g. a fixed-size array of
// embedded structs rather than a single one).
func (r *Record) SubSlice(name string) ([]*Record, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	recs, ok := v.([]*Record)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an embedded struct array field", ErrUnknownField, name)
	}
	return recs, nil
}

// Pointer is a typed convenience wrapper over Field for single-pointer
// fields; it returns nil for a null pointer.
func (r *Record) Pointer(name string) (*Record, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("%w: %q does not resolve to a single record", ErrUnknownField, name)
	}
	return rec, nil
}

// PointerSlice is a typed convenience wrapper for pointer-to-pointer and
// array-of-pointer fields (each element independently null-or-record),
// and for single-pointer fields whose target block holds more than one
// element (e.g. a *MVert field addressing a whole vertex array block).
func (r *Record) PointerSlice(name string) ([]any, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	switch recs := v.(type) {
	case []any:
		return recs, nil
	case []*Record:
		out := make([]any, len(recs))
		for i, rec := range recs {
			out[i] = rec
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q does not resolve to a record sequence", ErrUnknownField, name)
	}
}

// Equal compares two records field-by-field over their non-pointer
// scalar and embedded-struct bytes, ignoring pointer fields (whose raw
// address is an implementation detail, not part of record identity).
func (r *Record) Equal(other *Record) bool {
	if other == nil || r.decoder.Name != other.decoder.Name || r.decoder.Version != other.decoder.Version {
		return false
	}
	for _, f := range r.decoder.Fields {
		if f.IsPointer {
			continue
		}
		end := int(f.Offset + f.Size)
		if end > len(r.data) || end > len(other.data) {
			return false
		}
		if !bytes.Equal(r.data[f.Offset:end], other.data[f.Offset:end]) {
			return false
		}
	}
	return true
}

func (r *Record) fieldBytes(desc FieldDescriptor) ([]byte, error) {
	end := int(desc.Offset + desc.Size)
	if end > len(r.data) {
		return nil, fmt.Errorf("%w: field %q needs %d bytes, record has %d", ErrFieldDecode, desc.BaseName, end, len(r.data))
	}
	return r.data[desc.Offset:end], nil
}

// resolvePointer dereferences a pointer field's raw address(es) against
// the owning file's block directory, memoizing the result.
func (r *Record) resolvePointer(fieldIdx int, desc FieldDescriptor, raw []byte) (any, error) {
	if r.pointerCache == nil {
		r.pointerCache = make(map[int]any)
	}
	if v, ok := r.pointerCache[fieldIdx]; ok {
		return v, nil
	}
	if r.file == nil {
		return nil, ErrParentClosed
	}

	count := desc.arrayCountOrOne()
	ptrSize := r.decoder.ptrSize
	order := r.decoder.order

	if count <= 1 && desc.PointerDepth <= 1 {
		addr := readAddress(raw, order, ptrSize)
		rec, err := r.file.resolveAddress(addr)
		if err != nil {
			return nil, err
		}
		r.pointerCache[fieldIdx] = rec
		return rec, nil
	}

	n := len(raw) / ptrSize
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		addr := readAddress(raw[i*ptrSize:(i+1)*ptrSize], order, ptrSize)
		if addr == 0 {
			out = append(out, nil)
			continue
		}
		rec, err := r.file.resolveAddress(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	r.pointerCache[fieldIdx] = out
	return out, nil
}

func (d FieldDescriptor) arrayCountOrOne() uint32 {
	count := uint32(1)
	for _, dim := range d.ArrayDims {
		count *= dim
	}
	return count
}

func readAddress(raw []byte, order binary.ByteOrder, ptrSize int) uint64 {
	if ptrSize == 4 {
		return uint64(order.Uint32(raw))
	}
	return order.Uint64(raw)
}

// decodeScalarField decodes a base-type field (possibly an array) into
// a Go value: a bare scalar when there is no array dimension, a fixed-
// length []byte for char arrays, or a []any slice of decoded elements
// for other arrays.
func decodeScalarField(desc FieldDescriptor, raw []byte, order binary.ByteOrder) (any, error) {
	elemSize, ok := baseTypeSizes[desc.TypeName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown base type %q", ErrFieldDecode, desc.TypeName)
	}

	if desc.TypeName == "char" {
		if len(desc.ArrayDims) == 0 {
			if len(raw) < 1 {
				return nil, fmt.Errorf("%w: empty char field", ErrFieldDecode)
			}
			return raw[0], nil
		}
		return raw, nil
	}

	count := len(desc.ArrayDims)
	if count == 0 {
		v, err := decodeOneScalar(desc.TypeName, raw, order)
		return v, err
	}

	n := len(raw) / int(elemSize)
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := decodeOneScalar(desc.TypeName, raw[i*int(elemSize):(i+1)*int(elemSize)], order)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOneScalar(typeName string, b []byte, order binary.ByteOrder) (any, error) {
	switch typeName {
	case "float":
		return math.Float32frombits(order.Uint32(b)), nil
	case "double":
		return math.Float64frombits(order.Uint64(b)), nil
	case "int":
		return int32(order.Uint32(b)), nil
	case "short":
		return int16(order.Uint16(b)), nil
	case "char":
		return b[0], nil
	case "uint64_t":
		return order.Uint64(b), nil
	default:
		return nil, fmt.Errorf("%w: unsupported base type %q", ErrFieldDecode, typeName)
	}
}
