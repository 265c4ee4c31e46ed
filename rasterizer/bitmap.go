package rasterizer

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/go-text/typesetting/font"
	"github.com/gogpu/compositor/glyphcache"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

var errBitmapFormat = errors.New("rasterizer: unsupported bitmap format")

// rasterizeBitmap scales a bitmap strike glyph to the requested size,
// placing it with the glyph extents. Bitmaps are not sub-pixel positioned.
func rasterizeBitmap(face *font.Face, gid font.GID, bm *font.GlyphBitmap, scale float32) (glyphcache.GlyphImage, bool) {
	ext, ok := face.GlyphExtents(gid)
	if !ok {
		return glyphcache.GlyphImage{}, false
	}
	w := round(ext.Width * scale)
	h := round(-ext.Height * scale)
	if w <= 0 || h <= 0 {
		return glyphcache.GlyphImage{}, false
	}
	out := glyphcache.GlyphImage{
		Left:   round(ext.XBearing * scale),
		Top:    round(ext.YBearing * scale),
		Width:  w,
		Height: h,
	}
	dr := image.Rect(0, 0, w, h)

	if bm.Format == font.BlackAndWhite {
		src := unpackBits(bm.Data, bm.Width, bm.Height)
		dst := image.NewAlpha(dr)
		draw.ApproxBiLinear.Scale(dst, dr, src, src.Bounds(), draw.Src, nil)
		out.Content = glyphcache.ContentMask
		out.Data = dst.Pix
		return out, true
	}

	src, err := decodeStrike(bm)
	if err != nil {
		slogger().Debug("rasterizer: bitmap decode failed", "glyph", gid, "err", err)
		return glyphcache.GlyphImage{}, false
	}
	dst := image.NewRGBA(dr)
	draw.CatmullRom.Scale(dst, dr, src, src.Bounds(), draw.Src, nil)
	out.Content = glyphcache.ContentColor
	out.Data = dst.Pix
	return out, true
}

// decodeStrike decodes an encoded color bitmap.
func decodeStrike(bm *font.GlyphBitmap) (image.Image, error) {
	r := bytes.NewReader(bm.Data)
	switch bm.Format {
	case font.PNG:
		return png.Decode(r)
	case font.JPG:
		return jpeg.Decode(r)
	case font.TIFF:
		return tiff.Decode(r)
	default:
		return nil, errBitmapFormat
	}
}

// unpackBits expands a bit-aligned 1bpp bitmap, most significant bit
// first, into an alpha image.
func unpackBits(data []byte, w, h int) *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, w, h))
	for i := range w * h {
		if i/8 >= len(data) {
			break
		}
		if data[i/8]&(0x80>>(i%8)) != 0 {
			img.Pix[i] = 0xff
		}
	}
	return img
}

func round(v float32) int {
	return int(math.Round(float64(v)))
}
