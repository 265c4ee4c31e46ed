package compositor

import (
	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/compositor/glyphcache"
	"github.com/gogpu/gputypes"
)

// Rect is an axis-aligned rectangle in target pixels.
type Rect = batch.Rect

// SubpixelBias is added to horizontal glyph positions before flooring so
// that a position a hair left of a pixel boundary lands on it. Vertical
// positions are floored unbiased.
const SubpixelBias = 1.0 / 8

// TextRunStyle describes one shaped text run.
type TextRunStyle struct {
	Font   glyphcache.Font
	Coords []glyphcache.VarCoord

	// Size is the font size in pixels per em.
	Size float32

	// Baseline is the baseline offset from the top of the run rectangle.
	Baseline float32

	// Advance is the total advance width of the run. The underline spans
	// [0, Advance) in run-local x.
	Advance float32

	Color gputypes.Color

	// Underline is nil for runs without an underline.
	Underline *UnderlineStyle
}

// UnderlineStyle describes a run underline.
type UnderlineStyle struct {
	// Offset is the position of the underline top relative to the
	// baseline, y-up as in the OpenType post table: negative values are
	// below the baseline. Rounded to whole pixels.
	Offset float32

	// Thickness in pixels. Rounded, at least 1.
	Thickness float32

	Color gputypes.Color
}

// PositionedGlyph is a shaped glyph with a run-local pen position.
// X is measured from the run origin, Y from the baseline (y-down).
type PositionedGlyph struct {
	ID   glyphcache.GlyphID
	X, Y float32
}
