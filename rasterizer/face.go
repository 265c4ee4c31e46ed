package rasterizer

import (
	"bytes"
	"fmt"

	"github.com/go-text/typesetting/font"
	"github.com/gogpu/compositor/glyphcache"
)

// Face is a parsed font. It implements glyphcache.Font.
//
// A Face is immutable and safe for concurrent use; per-size and
// per-variation state lives in the Rasterizer.
type Face struct {
	id   uint64
	font *font.Font
}

// NewFace wraps an already parsed font under the given id.
// Faces with equal ids must wrap the same font.
func NewFace(id uint64, f *font.Font) *Face {
	return &Face{id: id, font: f}
}

// ParseFace parses an OpenType or TrueType font file.
func ParseFace(id uint64, data []byte) (*Face, error) {
	ff, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("rasterizer: parsing font %d: %w", id, err)
	}
	return NewFace(id, ff.Font), nil
}

// FontID implements glyphcache.Font.
func (f *Face) FontID() uint64 { return f.id }

// Font returns the underlying go-text font, e.g. for shaping.
func (f *Face) Font() *font.Font { return f.font }

// Upem returns the font units per em.
func (f *Face) Upem() uint16 { return f.font.Upem() }

// Glyph returns the nominal glyph for r.
func (f *Face) Glyph(r rune) (glyphcache.GlyphID, bool) {
	gid, ok := f.font.NominalGlyph(r)
	return glyphcache.GlyphID(gid), ok
}

// Variations converts user-space axis values (in fvar axis order) to the
// normalized coordinates used as a glyph cache key. A font without
// variation axes yields nil.
func (f *Face) Variations(design []float32) []glyphcache.VarCoord {
	norm := f.font.NormalizeVariations(design)
	if len(norm) == 0 {
		return nil
	}
	out := make([]glyphcache.VarCoord, len(norm))
	for i, c := range norm {
		out[i] = glyphcache.VarCoord(c)
	}
	return out
}
