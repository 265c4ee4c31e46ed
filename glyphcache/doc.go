// Package glyphcache caches rasterized glyphs in an image cache.
//
// Glyphs are grouped into font entries keyed by font identity and
// variation coordinates. Within an entry a glyph is keyed by glyph id,
// quantized sub-pixel phase and fixed-point size, so positions that differ
// by less than one phase share a rasterization.
//
// A typical frame opens one Session per text run:
//
//	s := glyphs.Session(epoch, images, font, coords, 14)
//	for _, g := range run {
//		rg, ok := s.Get(g.ID, g.X, g.Y)
//		if !ok {
//			continue // no ink or rasterization failed
//		}
//		loc, _ := images.Get(epoch, rg.Image)
//		...
//	}
//
// Prune drops font entries unused for longer than the retention window and
// ClearEvicted forgets glyphs whose images the image cache reclaimed.
package glyphcache
