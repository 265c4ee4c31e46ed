package glyphcache

import "errors"

// Sentinel errors for glyph cache construction.
var (
	// ErrNilRasterizer is returned when New is called without a rasterizer.
	ErrNilRasterizer = errors.New("glyphcache: nil rasterizer")
)
