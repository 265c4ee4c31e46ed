package glyphcache

// VarCoord is a normalized variation axis coordinate in F2Dot14 format,
// the representation go-text/typesetting uses for tables.Coord.
type VarCoord int16

// inlineCoords is the number of axes stored without allocation.
const inlineCoords = 4

type coordsKind uint8

const (
	coordsNone coordsKind = iota
	coordsInline
	coordsHeap
	coordsBorrowed
)

// Coords is a variation coordinate sequence used as part of a font key.
//
// Storage is one of: empty, an inline array (up to 4 axes), an owned heap
// copy, or a borrowed view of a caller slice. Equality and hashing are
// defined over the logical sequence, so a borrowed view compares equal to
// the owned key it was copied into. Borrowed values are only used to probe
// the font map and are never stored.
type Coords struct {
	kind   coordsKind
	n      uint8
	inline [inlineCoords]VarCoord
	ext    []VarCoord // heap or borrowed
}

// BorrowCoords wraps c without copying. The result must not outlive c.
func BorrowCoords(c []VarCoord) Coords {
	if len(c) == 0 {
		return Coords{}
	}
	return Coords{kind: coordsBorrowed, ext: c}
}

// OwnCoords copies c into a key that may be stored.
func OwnCoords(c []VarCoord) Coords {
	switch {
	case len(c) == 0:
		return Coords{}
	case len(c) <= inlineCoords:
		k := Coords{kind: coordsInline, n: uint8(len(c))} //nolint:gosec // len <= inlineCoords
		copy(k.inline[:], c)
		return k
	default:
		return Coords{kind: coordsHeap, ext: append([]VarCoord(nil), c...)}
	}
}

// Own returns a storable copy of a borrowed key, or the key itself.
func (c Coords) Own() Coords {
	if c.kind == coordsBorrowed {
		return OwnCoords(c.ext)
	}
	return c
}

// Len returns the number of axes.
func (c *Coords) Len() int {
	if c.kind == coordsInline {
		return int(c.n)
	}
	return len(c.ext)
}

// Slice returns the coordinates. The slice aliases c and must not be modified.
func (c *Coords) Slice() []VarCoord {
	switch c.kind {
	case coordsNone:
		return nil
	case coordsInline:
		return c.inline[:c.n]
	default:
		return c.ext
	}
}

// Equal reports whether c and o hold the same coordinate sequence.
func (c *Coords) Equal(o *Coords) bool {
	a, b := c.Slice(), o.Slice()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FNV-1a parameters.
const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// fontHash hashes a font id together with a coordinate sequence.
func fontHash(font uint64, c *Coords) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < 64; i += 8 {
		h ^= (font >> i) & 0xff
		h *= fnvPrime64
	}
	for _, v := range c.Slice() {
		u := uint16(v) //nolint:gosec // bit reinterpretation
		h ^= uint64(u & 0xff)
		h *= fnvPrime64
		h ^= uint64(u >> 8)
		h *= fnvPrime64
	}
	return h
}
