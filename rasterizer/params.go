package rasterizer

import (
	"runtime"

	"github.com/gogpu/gpucontext"
)

// Params are rendering parameters fixed per platform family.
type Params struct {
	// Embolden widens strokes by this many pixels, matching the heavier
	// native text rendering of some platforms. Zero disables it.
	Embolden float32
}

// DefaultPlatform is the registry entry used when the running platform
// has none of its own.
const DefaultPlatform = "default"

var platforms = gpucontext.NewRegistry[Params](
	gpucontext.WithPriority(runtime.GOOS, DefaultPlatform),
)

func init() {
	platforms.Register(DefaultPlatform, func() Params { return Params{} })
	platforms.Register("darwin", func() Params { return Params{Embolden: 0.25} })
	platforms.Register("ios", func() Params { return Params{Embolden: 0.25} })
}

// RegisterPlatform sets the parameters for a platform family, identified
// by its GOOS value. It replaces any previous entry.
func RegisterPlatform(goos string, p Params) {
	platforms.Register(goos, func() Params { return p })
}

// ParamsFor returns the parameters for goos, falling back to the default
// entry.
func ParamsFor(goos string) Params {
	if platforms.Has(goos) {
		return platforms.Get(goos)
	}
	return platforms.Get(DefaultPlatform)
}

// PlatformParams returns the parameters for the running platform.
func PlatformParams() Params {
	return platforms.Best()
}
