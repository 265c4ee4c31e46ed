package main

import (
	"fmt"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/glyphcache"
	"github.com/gogpu/compositor/rasterizer"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// line is one shaped line of text in visual order.
type line struct {
	glyphs  []compositor.PositionedGlyph
	advance float32
	ascent  float32
	descent float32
}

// shaper shapes lines of text with a single face.
type shaper struct {
	face *rasterizer.Face
	hb   shaping.HarfbuzzShaper
	lang language.Language
}

func newShaper(face *rasterizer.Face) *shaper {
	return &shaper{face: face, lang: language.NewLanguage("en")}
}

// shape splits s into bidi runs, shapes each run and lays the runs out
// left to right at size pixels per em.
func (s *shaper) shape(text string, size float32) (line, error) {
	face := font.NewFace(s.face.Font())
	var ln line
	if ext, ok := face.FontHExtents(); ok {
		scale := size / float32(s.face.Upem())
		ln.ascent = ext.Ascender * scale
		ln.descent = -ext.Descender * scale
	}
	if text == "" {
		return ln, nil
	}

	var p bidi.Paragraph
	if _, err := p.SetString(text); err != nil {
		return line{}, fmt.Errorf("bidi: %w", err)
	}
	order, err := p.Order()
	if err != nil {
		return line{}, fmt.Errorf("bidi: %w", err)
	}

	var pen fixed.Int26_6
	for i := range order.NumRuns() {
		run := order.Run(i)
		runes := []rune(run.String())
		dir := di.DirectionLTR
		if run.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		out := s.hb.Shape(shaping.Input{
			Text:      runes,
			RunStart:  0,
			RunEnd:    len(runes),
			Direction: dir,
			Face:      face,
			Size:      fixed.Int26_6(size * 64),
			Script:    scriptOf(runes),
			Language:  s.lang,
		})
		for _, g := range out.Glyphs {
			ln.glyphs = append(ln.glyphs, compositor.PositionedGlyph{
				ID: glyphcache.GlyphID(g.GlyphID),
				X:  fixedToFloat(pen + g.XOffset),
				Y:  -fixedToFloat(g.YOffset),
			})
			pen += g.Advance
		}
	}
	ln.advance = fixedToFloat(pen)
	return ln, nil
}

// underline returns the face's underline metrics at size, y-up.
func (s *shaper) underline(size float32) (offset, thickness float32) {
	face := font.NewFace(s.face.Font())
	scale := size / float32(s.face.Upem())
	return face.LineMetric(font.UnderlinePosition) * scale,
		face.LineMetric(font.UnderlineThickness) * scale
}

func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if sc := language.LookupScript(r); sc != language.Common && sc != language.Inherited {
			return sc
		}
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
