package rasterizer

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-text/typesetting/font"
	"github.com/gogpu/compositor/glyphcache"
	"github.com/gogpu/compositor/internal/cache"
	"golang.org/x/image/vector"
)

// DefaultFaceCacheSize is the number of fonts whose per-face state is kept.
const DefaultFaceCacheSize = 32

// maxPPEM bounds the pixel size accepted by Rasterize.
const maxPPEM = 4096

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithParams overrides the platform parameters.
func WithParams(p Params) Option {
	return func(r *Rasterizer) {
		r.params = p
	}
}

// WithFaceCacheSize sets how many fonts keep their per-face state.
func WithFaceCacheSize(n int) Option {
	return func(r *Rasterizer) {
		r.faceCacheSize = n
	}
}

// Rasterizer implements glyphcache.Rasterizer for *Face fonts.
//
// Rasterizer is not safe for concurrent use.
type Rasterizer struct {
	params        Params
	faceCacheSize int
	faces         *cache.Cache[uint64, *font.Face]
	vec           *vector.Rasterizer
}

// New creates a rasterizer using PlatformParams unless overridden.
func New(opts ...Option) *Rasterizer {
	r := &Rasterizer{
		params:        PlatformParams(),
		faceCacheSize: DefaultFaceCacheSize,
		vec:           vector.NewRasterizer(0, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.faces = cache.New[uint64, *font.Face](r.faceCacheSize)
	return r
}

// Params returns the rendering parameters in use.
func (r *Rasterizer) Params() Params {
	return r.params
}

// FaceStats returns statistics of the per-face state cache.
func (r *Rasterizer) FaceStats() cache.Stats {
	return r.faces.Stats()
}

// Rasterize implements glyphcache.Rasterizer.
func (r *Rasterizer) Rasterize(req glyphcache.RasterRequest) (glyphcache.GlyphImage, bool) {
	f, ok := req.Font.(*Face)
	if !ok || f == nil {
		slogger().Warn("rasterizer: unsupported font type", "font", fmt.Sprintf("%T", req.Font))
		return glyphcache.GlyphImage{}, false
	}
	if req.Glyph > math.MaxUint16 {
		return glyphcache.GlyphImage{}, false
	}
	ppem := float32(req.Size) / 64
	if ppem <= 0 || ppem > maxPPEM {
		slogger().Warn("rasterizer: size out of range", "font", f.id, "ppem", ppem)
		return glyphcache.GlyphImage{}, false
	}

	face := r.face(f)
	setCoords(face, req.Coords)
	p := uint16(math.Round(float64(ppem)))
	if x, y := face.Ppem(); x != p || y != p {
		face.SetPpem(p, p)
	}

	gid := font.GID(req.Glyph)
	scale := ppem / float32(face.Upem())

	switch data := face.GlyphData(gid).(type) {
	case font.GlyphOutline:
		return r.fillOutline(data.Segments, scale, req.Offset)
	case font.GlyphBitmap:
		if img, ok := rasterizeBitmap(face, gid, &data, scale); ok {
			return img, true
		}
		if data.Outline != nil {
			return r.fillOutline(data.Outline.Segments, scale, req.Offset)
		}
	case font.GlyphSVG:
		return r.fillOutline(data.Outline.Segments, scale, req.Offset)
	case font.GlyphColor:
		// Color layers are not composed; the base outline is drawn as a mask.
		if out, ok := face.GlyphDataOutline(uint16(req.Glyph)); ok {
			return r.fillOutline(out.Segments, scale, req.Offset)
		}
	case nil:
		slogger().Debug("rasterizer: no glyph data", "font", f.id, "glyph", req.Glyph)
	}
	return glyphcache.GlyphImage{}, false
}

// face returns the per-face state for f, creating it on first use.
func (r *Rasterizer) face(f *Face) *font.Face {
	face, _ := r.faces.GetOrCreate(f.id, func() (*font.Face, error) {
		return font.NewFace(f.font), nil
	})
	return face
}

// setCoords applies variation coordinates when they differ from the ones
// already set. go-text keeps the slice, so a fresh one is passed.
func setCoords(face *font.Face, coords []glyphcache.VarCoord) {
	same := slices.EqualFunc(face.Coords(), coords, func(a font.VarCoord, b glyphcache.VarCoord) bool {
		return int16(a) == int16(b)
	})
	if same {
		return
	}
	if len(coords) == 0 {
		face.SetCoords(nil)
		return
	}
	next := make([]font.VarCoord, len(coords))
	for i, c := range coords {
		next[i] = font.VarCoord(c)
	}
	face.SetCoords(next)
}
