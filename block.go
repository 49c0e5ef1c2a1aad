package blendfile

import "fmt"

// BlockHeader is the packed header preceding every block payload:
// 4-byte code, payload size, original in-memory address (pointer-width
// sized), schema index and element count, with no inter-field padding.
type BlockHeader struct {
	Code          [4]byte
	Size          uint32
	Addr          uint64
	SDNAIndex     uint32
	Count         uint32
	PayloadOffset int64
}

func (h BlockHeader) codeString() string {
	n := 4
	for n > 0 && h.Code[n-1] == 0 {
		n--
	}
	return string(h.Code[:n])
}

const (
	codeDNA1 = "DNA1"
	codeENDB = "ENDB"
)

// readBlockDirectory walks the block stream starting at offset 12,
// peeling off one header+payload pair at a time. It hands the DNA1
// payload to parseSDNA, stops at ENDB, and returns every other block in
// on-disk order.
func readBlockDirectory(r *byteReader, ptrSize int) ([]BlockHeader, *SDNA, error) {
	r.ptrSize = ptrSize
	r.seek(headerSize)

	var directory []BlockHeader
	var sdna *SDNA
	sawEnd := false

	for {
		var code [4]byte
		raw, err := r.readExact(4)
		if err != nil {
			break // short read here means we never found ENDB
		}
		copy(code[:], raw)

		size, err := r.readUint32()
		if err != nil {
			return nil, nil, err
		}
		addr, err := r.readPointer()
		if err != nil {
			return nil, nil, err
		}
		sdnaIndex, err := r.readUint32()
		if err != nil {
			return nil, nil, err
		}
		count, err := r.readUint32()
		if err != nil {
			return nil, nil, err
		}

		payloadOffset := r.tell()
		head := BlockHeader{Code: code, Size: size, Addr: addr, SDNAIndex: sdnaIndex, Count: count, PayloadOffset: payloadOffset}

		switch head.codeString() {
		case codeDNA1:
			payload, err := r.readExact(int(size))
			if err != nil {
				return nil, nil, err
			}
			sdna, err = parseSDNA(payload, r.order)
			if err != nil {
				return nil, nil, err
			}
			continue
		case codeENDB:
			sawEnd = true
		default:
			directory = append(directory, head)
		}

		if sawEnd {
			break
		}
		r.seek(payloadOffset + int64(size))
	}

	if !sawEnd {
		return nil, nil, fmt.Errorf("%w: missing ENDB terminator", ErrTruncated)
	}
	if sdna == nil {
		return nil, nil, ErrNoSchema
	}

	return directory, sdna, nil
}
