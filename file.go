package blendfile

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
)

// File is the top-level handle on an opened .blend container. It owns
// the byte source, the parsed block directory and SDNA, and caches
// synthesized decoders and factories for the life of the handle.
// Closing it invalidates every Factory and Record produced from it.
type File struct {
	src    io.ReaderAt
	header Header
	sdna   *SDNA

	directory []BlockHeader
	addrIndex map[uint64]BlockHeader

	decoders  *decoderCache
	factories map[string]*Factory

	closed bool
}

// Option configures a File at Open time, applied after the header is
// parsed and before the block directory is read.
type Option func(*File) error

// WithPointerSizeOverride forces the pointer width used to decode
// addresses and pointer fields, overriding the value declared by the
// header's pointer-size byte. Use this only against a producer known to
// mis-declare that byte; every other file should rely on auto-detection.
func WithPointerSizeOverride(size int) Option {
	return func(f *File) error {
		if size != 4 && size != 8 {
			return fmt.Errorf("%w: pointer size override must be 4 or 8, got %d", ErrBadHeader, size)
		}
		f.header.PointerSize = size
		return nil
	}
}

// Open parses the header, applies any Options, then reads the block
// directory and SDNA of a .blend container read from src, returning a
// ready-to-use File.
func Open(src io.ReaderAt, opts ...Option) (*File, error) {
	raw := make([]byte, headerSize)
	n, err := src.ReadAt(raw, 0)
	if err != nil && !(err == io.EOF && n == headerSize) {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if n != headerSize {
		return nil, fmt.Errorf("%w: short header read", ErrTruncated)
	}

	header, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	f := &File{
		src:       src,
		header:    header,
		decoders:  newDecoderCache(),
		factories: make(map[string]*Factory),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	log.Printf("blendfile: opened header version=%d.%d.%d pointerSize=%d", f.header.Version[0], f.header.Version[1], f.header.Version[2], f.header.PointerSize)

	r := newByteReader(src)
	r.order = f.header.Order

	directory, sdna, err := readBlockDirectory(r, f.header.PointerSize)
	if err != nil {
		return nil, err
	}
	f.sdna = sdna
	f.directory = directory

	f.addrIndex = make(map[uint64]BlockHeader, len(directory))
	for _, b := range directory {
		f.addrIndex[b.Addr] = b
	}

	log.Printf("blendfile: parsed %d blocks, %d struct definitions", len(directory), len(sdna.Structs))

	return f, nil
}

// Header returns the parsed file header.
func (f *File) Header() Header {
	return f.header
}

func (f *File) checkOpen() error {
	if f.closed {
		return ErrParentClosed
	}
	return nil
}

// decoderFor returns the cached (or newly synthesized) decoder for the
// struct at sdna.Structs[structIdx], keyed by the file's version.
func (f *File) decoderFor(structIdx int) (*Decoder, error) {
	if structIdx < 0 || structIdx >= len(f.sdna.Structs) {
		return nil, fmt.Errorf("%w: struct index %d out of range", ErrBadSchema, structIdx)
	}
	name := f.sdna.Types[f.sdna.Structs[structIdx].TypeIndex]
	if d, ok := f.decoders.get(f.header.Version, name); ok {
		return d, nil
	}
	return synthesizeDecoder(f.sdna, f.header.Order, f.header.PointerSize, f.header.Version, structIdx, f.decoders)
}

func (f *File) readBlockPayload(b BlockHeader) ([]byte, error) {
	buf := make([]byte, b.Size)
	n, err := f.src.ReadAt(buf, b.PayloadOffset)
	if err != nil && !(err == io.EOF && n == int(b.Size)) {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if n != int(b.Size) {
		return nil, fmt.Errorf("%w: short block payload read", ErrTruncated)
	}
	return buf, nil
}

// structIndexForTypeName finds the sdna.Structs entry whose TypeIndex
// names the given type, or -1 if the name is primitive or unknown.
func (f *File) structIndexForTypeName(name string) int {
	typeIdx := f.sdna.typeIndexByName(name)
	if typeIdx < 0 {
		return -1
	}
	for i := range f.sdna.Structs {
		if int(f.sdna.Structs[i].TypeIndex) == typeIdx {
			return i
		}
	}
	return -1
}

// List returns the (cached) Factory for the given struct type name.
func (f *File) List(name string) (*Factory, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if fa, ok := f.factories[name]; ok {
		return fa, nil
	}

	structIdx := f.structIndexForTypeName(name)
	if structIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotAStruct, name)
	}

	fa, err := newFactory(f, structIdx)
	if err != nil {
		return nil, err
	}
	f.factories[name] = fa
	return fa, nil
}

// Find is an alias of List.
func (f *File) Find(name string) (*Factory, error) {
	return f.List(name)
}

// ListStructures returns the sorted names of every struct-typed entry
// in the SDNA.
func (f *File) ListStructures() ([]string, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(f.sdna.Structs))
	for _, s := range f.sdna.Structs {
		names = append(names, f.sdna.Types[s.TypeIndex])
	}
	sort.Strings(names)
	return names, nil
}

// Tree renders a textual tree of a struct's fields, walking nested
// struct fields up to maxDepth when recursive is true. It never follows
// pointer fields, matching tinyblend's field_lookup: pointers name their
// target type but are not expanded in place.
func (f *File) Tree(name string, recursive bool, maxDepth int) (string, error) {
	if err := f.checkOpen(); err != nil {
		return "", err
	}
	structIdx := f.structIndexForTypeName(name)
	if structIdx < 0 {
		return "", fmt.Errorf("%w: %q", ErrNotAStruct, name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d.%d.%d)\n", name, f.header.Version[0], f.header.Version[1], f.header.Version[2])
	f.writeFieldTree(&b, structIdx, 0, recursive, maxDepth)
	return b.String(), nil
}

func (f *File) writeFieldTree(b *strings.Builder, structIdx, depth int, recursive bool, maxDepth int) {
	strct := f.sdna.Structs[structIdx]
	indent := strings.Repeat("    ", depth)
	for _, field := range strct.Fields {
		typeName := f.sdna.Types[field.TypeIndex]
		rawName := f.sdna.Names[field.NameIndex]
		fmt.Fprintf(b, "%s|-- %s %s\n", indent, typeName, rawName)

		if !recursive || depth >= maxDepth || strings.Contains(rawName, "*") {
			continue
		}
		childIdx := f.structIndexForTypeName(typeName)
		if childIdx >= 0 {
			f.writeFieldTree(b, childIdx, depth+1, recursive, maxDepth)
		}
	}
}

// Close releases the underlying source. The data-access methods of every
// outstanding Factory (Len, Iter, FindByName) and Record (Field and its
// wrappers) produced by this File subsequently fail with ErrParentClosed;
// TypeName and Signature keep returning schema information.
func (f *File) Close() error {
	f.closed = true
	f.src = nil
	return nil
}
