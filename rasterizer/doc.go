// Package rasterizer renders glyphs for the glyph cache.
//
// Rasterizer implements glyphcache.Rasterizer on top of
// github.com/go-text/typesetting: outlines (glyf, CFF and CFF2, with
// variation coordinates applied) are filled with golang.org/x/image/vector
// into 8-bit coverage masks; bitmap strikes (sbix, CBDT, EBDT) are decoded
// and scaled with golang.org/x/image/draw.
//
//	face, err := rasterizer.ParseFace(1, goregular.TTF)
//	if err != nil {
//		return err
//	}
//	c, err := compositor.New(rasterizer.New())
//
// Rendering parameters that differ per platform family (synthetic
// emboldening on macOS) are chosen once per Rasterizer, see Params.
package rasterizer
