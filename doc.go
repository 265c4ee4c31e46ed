// Package compositor is the resource-cache and batching core of a text
// compositor.
//
// # Overview
//
// A Compositor turns draw calls (solid rectangles, cached images and shaped
// glyph runs) into two outputs per frame:
//
//   - an ordered stream of texture events that create, update and destroy
//     texture pages (package imagecache), and
//   - a display list of batches grouped by pipeline and texture
//     (package batch).
//
// Glyphs are rasterized on demand by a glyphcache.Rasterizer and cached per
// font, variation coordinates, size and sub-pixel phase. Package rasterizer
// provides one built on go-text/typesetting.
//
// # Quick Start
//
//	c, err := compositor.New(rasterizer.New())
//	if err != nil {
//		return err
//	}
//
//	rb, err := backend.InitDefault()
//	if err != nil {
//		return err
//	}
//	defer rb.Close()
//
//	var dl batch.DisplayList
//	for running {
//		c.Begin()
//		c.DrawRect(compositor.Rect{Width: 640, Height: 480}, 0, gputypes.ColorWhite)
//		c.DrawGlyphs(line, 0, &style, slices.Values(glyphs))
//
//		var applyErr error
//		c.Finish(&dl, backend.Visitor(rb, &applyErr))
//		if applyErr != nil {
//			return applyErr
//		}
//		if err := rb.Render(&dl, gputypes.ColorWhite); err != nil {
//			return err
//		}
//	}
//
// # Frames and Epochs
//
// Begin advances the frame epoch. Images and font entries not used within
// the retention window (8 frames by default) are reclaimed at the start of
// a frame, so any ImageID held across frames may go stale: DrawImage skips
// stale ids silently.
//
// # Coordinate System
//
// Target pixels, origin at top-left, y down. Underline offsets follow the
// OpenType convention and are y-up relative to the baseline.
package compositor
