package compositor

import (
	"math"
	"slices"
)

// intercept is a run-local pixel range [start, end) the underline skips.
type intercept struct {
	start, end int
}

// underlineIntercept returns the descender ink of a glyph as a run-local
// intercept when the underline band crosses the glyph image.
//
// glyphX is the run-local pixel column of the glyph image's left edge.
// top and height describe the glyph image relative to the baseline
// (top is y-up), offset is the rounded y-up underline position.
func underlineIntercept(glyphX, top, height int, start, end int, offset int) (intercept, bool) {
	if start >= end {
		return intercept{}, false
	}
	// Rows from the glyph's top edge down to the underline.
	d := top - offset
	if d < 0 || d >= height {
		return intercept{}, false
	}
	return intercept{start: glyphX + start, end: glyphX + end}, true
}

// underlineGaps returns the spans of [0, advance) not covered by any
// intercept. Intercepts are widened by one pixel on each side and merged
// before the gaps are taken.
func underlineGaps(intercepts []intercept, advance int, out []intercept) []intercept {
	out = out[:0]
	if advance <= 0 {
		return out
	}
	slices.SortFunc(intercepts, func(a, b intercept) int {
		return a.start - b.start
	})

	x := 0
	for _, ic := range intercepts {
		s, e := ic.start-1, ic.end+1
		if s > x {
			out = append(out, intercept{start: x, end: min(s, advance)})
		}
		x = max(x, e)
		if x >= advance {
			return out
		}
	}
	if x < advance {
		out = append(out, intercept{start: x, end: advance})
	}
	return out
}

// underlineOffset rounds the underline offset to whole pixels. The same
// value places the stroke and decides which glyphs it crosses.
func underlineOffset(ul *UnderlineStyle) int {
	return int(math.Round(float64(ul.Offset)))
}

// drawUnderline emits one filled rectangle per underline gap. originX is
// the pixel column of run-local x = 0.
func (c *Compositor) drawUnderline(originX int, baseline, depth float32, style *TextRunStyle) {
	ul := style.Underline
	advance := int(math.Ceil(float64(style.Advance)))
	c.gaps = underlineGaps(c.intercepts, advance, c.gaps)

	y := baseline - float32(underlineOffset(ul))
	h := float32(max(1, math.Round(float64(ul.Thickness))))
	for _, g := range c.gaps {
		c.batches.AddRect(Rect{
			X:      float32(originX + g.start),
			Y:      y,
			Width:  float32(g.end - g.start),
			Height: h,
		}, depth, ul.Color)
	}
}
