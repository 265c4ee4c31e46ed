package rasterizer

import (
	"image"
	"math"

	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/gogpu/compositor/glyphcache"
)

// transform maps font units (y-up) to pixels (y-down) relative to the pen
// position, with the sub-pixel offset applied.
type transform struct {
	scale  float32
	dx, dy float32
}

func (t transform) apply(p ot.SegmentPoint) (x, y float32) {
	return p.X*t.scale + t.dx, -p.Y*t.scale + t.dy
}

// outlineBounds returns the pixel bounding box of the outline's points.
// Control points bound their curves, so the box is conservative.
func outlineBounds(segs []font.Segment, t transform) (minX, minY, maxX, maxY float32, ok bool) {
	minX, minY = float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY = float32(math.Inf(-1)), float32(math.Inf(-1))
	for i := range segs {
		for _, p := range segs[i].ArgsSlice() {
			x, y := t.apply(p)
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	return minX, minY, maxX, maxY, len(segs) > 0
}

// fillOutline fills an outline into a coverage mask. Emboldening draws
// the outline a second time shifted right; overlapping coverage
// saturates.
func (r *Rasterizer) fillOutline(segs []font.Segment, scale float32, offset [2]float32) (glyphcache.GlyphImage, bool) {
	t := transform{scale: scale, dx: offset[0], dy: offset[1]}
	minX, minY, maxX, maxY, ok := outlineBounds(segs, t)
	if !ok {
		return glyphcache.GlyphImage{}, false
	}
	bold := max(r.params.Embolden, 0)

	x0 := int(math.Floor(float64(minX)))
	y0 := int(math.Floor(float64(minY)))
	x1 := int(math.Ceil(float64(maxX + bold)))
	y1 := int(math.Ceil(float64(maxY)))
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return glyphcache.GlyphImage{}, false
	}

	r.vec.Reset(w, h)
	t.dx -= float32(x0)
	t.dy -= float32(y0)
	addPath(r.vec, segs, t)
	if bold > 0 {
		t.dx += bold
		addPath(r.vec, segs, t)
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.vec.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	return glyphcache.GlyphImage{
		Left:    x0,
		Top:     -y0,
		Width:   w,
		Height:  h,
		Content: glyphcache.ContentMask,
		Data:    mask.Pix,
	}, true
}

// pathSink is the subset of vector.Rasterizer used to trace outlines.
type pathSink interface {
	MoveTo(x, y float32)
	LineTo(x, y float32)
	QuadTo(cx, cy, x, y float32)
	CubeTo(c1x, c1y, c2x, c2y, x, y float32)
	ClosePath()
}

// addPath traces segs into sink, closing every contour.
func addPath(sink pathSink, segs []font.Segment, t transform) {
	open := false
	for i := range segs {
		s := &segs[i]
		switch s.Op {
		case ot.SegmentOpMoveTo:
			if open {
				sink.ClosePath()
			}
			x, y := t.apply(s.Args[0])
			sink.MoveTo(x, y)
			open = true
		case ot.SegmentOpLineTo:
			x, y := t.apply(s.Args[0])
			sink.LineTo(x, y)
		case ot.SegmentOpQuadTo:
			cx, cy := t.apply(s.Args[0])
			x, y := t.apply(s.Args[1])
			sink.QuadTo(cx, cy, x, y)
		case ot.SegmentOpCubeTo:
			c1x, c1y := t.apply(s.Args[0])
			c2x, c2y := t.apply(s.Args[1])
			x, y := t.apply(s.Args[2])
			sink.CubeTo(c1x, c1y, c2x, c2y, x, y)
		}
	}
	if open {
		sink.ClosePath()
	}
}
