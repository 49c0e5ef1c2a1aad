package blendfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// byteReader provides endian- and pointer-width-aware primitive decoding
// over a seekable byte source. It never buffers more than the current
// read requires; block payloads are read on demand by the caller.
type byteReader struct {
	src     io.ReaderAt
	order   binary.ByteOrder
	ptrSize int // 4 or 8, set once the file header has been parsed
	pos     int64
}

func newByteReader(src io.ReaderAt) *byteReader {
	return &byteReader{src: src, order: binary.LittleEndian, ptrSize: 8}
}

func (r *byteReader) seek(off int64) {
	r.pos = off
}

func (r *byteReader) tell() int64 {
	return r.pos
}

// readExact reads n bytes at the current position and advances it.
func (r *byteReader) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := r.src.ReadAt(buf, r.pos)
	if err != nil && !(err == io.EOF && read == n) {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if read != n {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrTruncated, n, read)
	}
	r.pos += int64(read)
	return buf, nil
}

func (r *byteReader) readUint16() (uint16, error) {
	b, err := r.readExact(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *byteReader) readUint32() (uint32, error) {
	b, err := r.readExact(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *byteReader) readUint64() (uint64, error) {
	b, err := r.readExact(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

// readPointer reads a pointer-width-sized address, zero-extended to
// uint64 regardless of the file's native pointer width.
func (r *byteReader) readPointer() (uint64, error) {
	if r.ptrSize == 4 {
		v, err := r.readUint32()
		return uint64(v), err
	}
	return r.readUint64()
}
