package glyphcache

import (
	"fmt"

	"github.com/gogpu/compositor/imagecache"
	"golang.org/x/image/math/fixed"
)

// GlyphID is a glyph index within a font.
type GlyphID uint32

// Font identifies a font face. Two fonts with the same FontID are the same
// face; variation coordinates are keyed separately.
type Font interface {
	FontID() uint64
}

// ContentKind describes the pixel content of a rasterized glyph.
type ContentKind uint8

const (
	// ContentMask is an 8-bit coverage mask, one byte per pixel.
	ContentMask ContentKind = iota

	// ContentColor is premultiplied RGBA8, four bytes per pixel
	// (color bitmap and emoji glyphs).
	ContentColor
)

// String returns the string representation of a ContentKind.
func (k ContentKind) String() string {
	if k == ContentColor {
		return "Color"
	}
	return "Mask"
}

// RasterRequest asks a Rasterizer for one glyph image.
type RasterRequest struct {
	Font   Font
	Coords []VarCoord
	Glyph  GlyphID

	// Size is the font size in pixels per em.
	Size fixed.Int26_6

	// Offset is the quantized sub-pixel offset to bake into the image.
	Offset [2]float32
}

// GlyphImage is the output of a Rasterizer.
//
// Left is the offset from the pen position to the left edge of the image,
// Top the offset from the baseline up to the top row. Data holds
// Width*Height pixels in the layout given by Content.
type GlyphImage struct {
	Left, Top     int
	Width, Height int
	Content       ContentKind
	Data          []byte
}

// Rasterizer renders glyph outlines or bitmaps to pixels.
//
// Rasterize returns false when the glyph has no image (missing outline,
// unsupported format, or an empty glyph such as a space). The returned
// Data is handed to the image cache and must not be reused by the
// rasterizer.
type Rasterizer interface {
	Rasterize(req RasterRequest) (GlyphImage, bool)
}

// GlyphKey identifies one rasterization of a glyph within a font entry.
type GlyphKey struct {
	Glyph GlyphID
	X, Y  SubpixelPhase
	Size  fixed.Int26_6
}

// RasterizedGlyph is a cached glyph image.
type RasterizedGlyph struct {
	Left, Top     int
	Width, Height int

	// Image is the backing image. It may be evicted; consumers resolve it
	// through the image cache in the same epoch they draw.
	Image imagecache.ImageID

	// Bitmap is true for color glyphs drawn as images rather than masks.
	Bitmap bool

	// Descender is the ink span below the baseline, in glyph-local x.
	Descender DescenderRegion
}

// DescenderRegion is a half-open pixel range [Start, End).
type DescenderRegion struct {
	Start, End int
}

// Empty reports whether the region holds no pixels.
func (d DescenderRegion) Empty() bool {
	return d.Start >= d.End
}

// String returns a debug representation of the region.
func (d DescenderRegion) String() string {
	if d.Empty() {
		return "[]"
	}
	return fmt.Sprintf("[%d,%d)", d.Start, d.End)
}

// descenderRegion scans the rows below the baseline row for the first and
// last inked column. The row at the baseline holds the overshoot of round
// glyphs and is skipped. Mask pixels count as ink when non-zero; color
// pixels when any channel is non-zero.
func descenderRegion(img *GlyphImage) DescenderRegion {
	bpp := 1
	if img.Content == ContentColor {
		bpp = 4
	}
	stride := img.Width * bpp
	if len(img.Data) < stride*img.Height {
		return DescenderRegion{}
	}

	y1 := img.Top + 1
	if y1 < 0 || y1 >= img.Height {
		return DescenderRegion{}
	}

	first, last := img.Width, -1
	for y := y1; y < img.Height; y++ {
		row := img.Data[y*stride : (y+1)*stride]
		for x := 0; x < first; x++ {
			if inked(row, x, bpp) {
				first = x
				break
			}
		}
		for x := img.Width - 1; x > last; x-- {
			if inked(row, x, bpp) {
				last = x
				break
			}
		}
	}
	if last < first {
		return DescenderRegion{}
	}
	return DescenderRegion{Start: first, End: last + 1}
}

func inked(row []byte, x, bpp int) bool {
	for _, v := range row[x*bpp : (x+1)*bpp] {
		if v != 0 {
			return true
		}
	}
	return false
}
