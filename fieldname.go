package blendfile

import (
	"strconv"
	"strings"
)

// nameAttrs is what a raw SDNA field declarator ("*next", "co[3]",
// "(*callback)()", "**mat") decodes into.
type nameAttrs struct {
	baseName     string
	pointerDepth int
	isFuncPtr    bool
	arrayDims    []uint32
}

// parseFieldName interprets a raw declarator string into its semantic
// attributes: base name, pointer depth, array dimensions and function-
// pointer flag. It never fails — any declarator the SDNA emits is
// well-formed by construction of the producer that wrote it.
func parseFieldName(raw string) nameAttrs {
	if strings.HasPrefix(raw, "(*") && strings.Contains(raw, ")()") {
		// Function pointer: "(*name)()" -- treated as a single pointer
		// field, never recursed into as an array.
		name := raw[2:]
		if idx := strings.IndexByte(name, ')'); idx >= 0 {
			name = name[:idx]
		}
		return nameAttrs{baseName: name, pointerDepth: 1, isFuncPtr: true}
	}

	depth := 0
	for depth < len(raw) && raw[depth] == '*' {
		depth++
	}
	rest := raw[depth:]

	base := rest
	var dims []uint32
	if idx := strings.IndexByte(rest, '['); idx >= 0 {
		base = rest[:idx]
		for _, seg := range strings.Split(rest[idx:], "[") {
			if seg == "" {
				continue
			}
			end := strings.IndexByte(seg, ']')
			if end < 0 {
				continue
			}
			n, err := strconv.ParseUint(seg[:end], 10, 32)
			if err != nil {
				continue
			}
			dims = append(dims, uint32(n))
		}
	}

	return nameAttrs{baseName: base, pointerDepth: depth, arrayDims: dims}
}

// arrayCount returns the product of arrayDims, with an empty product
// equal to 1.
func (n nameAttrs) arrayCount() uint32 {
	count := uint32(1)
	for _, d := range n.arrayDims {
		count *= d
	}
	return count
}

func (n nameAttrs) isPointer() bool {
	return n.pointerDepth > 0
}
