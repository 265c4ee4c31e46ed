package compositor

import (
	"errors"

	"github.com/gogpu/compositor/glyphcache"
)

// Sentinel errors returned by the compositor.
var (
	// ErrNilRasterizer is returned when New is called without a rasterizer.
	ErrNilRasterizer = glyphcache.ErrNilRasterizer

	// ErrEmptyConfig is returned when parsing an empty configuration document.
	ErrEmptyConfig = errors.New("compositor: empty config")
)
