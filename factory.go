package blendfile

import (
	"bytes"
	"iter"
)

// Factory is a handle bound to one struct type: it enumerates the
// blocks whose schema index names that struct and supports name-based
// lookup for nameable (ID-bearing) types.
type Factory struct {
	file       *File
	decoder    *Decoder
	structIdx  int // index into file.sdna.Structs, == BlockHeader.SDNAIndex
	typeName   string
	hasIDField bool
}

func newFactory(f *File, structIdx int) (*Factory, error) {
	strct := &f.sdna.Structs[structIdx]
	typeName := f.sdna.Types[strct.TypeIndex]

	decoder, err := f.decoderFor(structIdx)
	if err != nil {
		return nil, err
	}

	hasID := false
	if len(strct.Fields) > 0 {
		firstType := f.sdna.Types[strct.Fields[0].TypeIndex]
		hasID = firstType == "ID"
	}

	return &Factory{file: f, decoder: decoder, structIdx: structIdx, typeName: typeName, hasIDField: hasID}, nil
}

func (fa *Factory) checkOpen() error {
	if fa.file == nil || fa.file.closed {
		return ErrParentClosed
	}
	return nil
}

// Len returns the number of blocks whose schema index matches this
// factory's struct.
func (fa *Factory) Len() (int, error) {
	if err := fa.checkOpen(); err != nil {
		return 0, err
	}
	count := 0
	for _, b := range fa.file.directory {
		if int(b.SDNAIndex) == fa.structIdx {
			count++
		}
	}
	return count, nil
}

// Iter returns a lazy, directory-order sequence of every record whose
// block matches this factory's struct. Each matching block's payload is
// read and decoded only as the sequence is pulled past it; a bad
// block's error is attached to that single (nil, err) pair rather than
// aborting the rest of the sequence, so a caller can stop at an earlier
// match (as FindByName does) without ever touching a later corrupt
// block, and one corrupt record never hides the records around it.
func (fa *Factory) Iter() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		if err := fa.checkOpen(); err != nil {
			yield(nil, err)
			return
		}
		for _, b := range fa.file.directory {
			if int(b.SDNAIndex) != fa.structIdx {
				continue
			}
			if err := fa.checkOpen(); err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			data, err := fa.file.readBlockPayload(b)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(newRecord(fa.decoder, data, fa.file), nil) {
				return
			}
		}
	}
}

// FindByName returns the first record whose ID name (bytes 2..NUL of
// the id.name field) matches name. Requires the struct to carry a
// leading ID field. Iteration stops as soon as a match is found, so an
// earlier match is returned even if a later block in the directory is
// corrupt; per spec policy a per-record decode error aborts only that
// record, so FindByName skips it and keeps searching rather than
// failing the whole lookup.
func (fa *Factory) FindByName(name string) (*Record, error) {
	if err := fa.checkOpen(); err != nil {
		return nil, err
	}
	if !fa.hasIDField {
		return nil, ErrUnnameable
	}

	target := []byte(name)
	for rec, err := range fa.Iter() {
		if err != nil {
			continue
		}
		id, err := rec.Sub("id")
		if err != nil {
			continue
		}
		raw, err := id.Field("name")
		if err != nil {
			continue
		}
		nameBytes, ok := raw.([]byte)
		if !ok {
			continue
		}
		nul := bytes.IndexByte(nameBytes, 0)
		if nul < 0 || nul < 2 {
			continue
		}
		if bytes.Equal(nameBytes[2:nul], target) {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

// Signature returns the factory's decoder's flat field list.
func (fa *Factory) Signature() []FieldDescriptor {
	return fa.decoder.Fields
}
