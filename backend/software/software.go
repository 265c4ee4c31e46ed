package software

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/compositor/backend"
	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
)

// init registers the software backend on package import.
func init() {
	backend.Register(backend.BackendSoftware, func() backend.RenderBackend {
		return New()
	})
}

// page is one texture page. Exactly one of alpha and rgba is set.
type page struct {
	alpha *image.Alpha
	rgba  *image.RGBA

	// bgra pages are swizzled to RGBA on upload.
	bgra bool
}

func (p *page) img() draw.Image {
	if p.alpha != nil {
		return p.alpha
	}
	return p.rgba
}

// Option configures a Backend.
type Option func(*Backend)

// WithInterpolator sets the interpolator used when a textured quad is
// drawn at a size different from its page region. The default is
// draw.ApproxBiLinear, the closest match to a linear GPU sampler.
func WithInterpolator(i draw.Interpolator) Option {
	return func(b *Backend) {
		if i != nil {
			b.interp = i
		}
	}
}

// Backend renders display lists on the CPU.
//
// Backend is not safe for concurrent use.
type Backend struct {
	initialized bool
	interp      draw.Interpolator

	pages  map[imagecache.TextureID]*page
	target *image.RGBA
}

// New creates a software backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		interp: draw.ApproxBiLinear,
		pages:  make(map[imagecache.TextureID]*page),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendSoftware
}

// Init initializes the backend.
func (b *Backend) Init() error {
	b.initialized = true
	return nil
}

// Close releases all pages and the target.
func (b *Backend) Close() {
	clear(b.pages)
	b.target = nil
	b.initialized = false
}

// Resize allocates a width x height target. The previous contents are
// discarded.
func (b *Backend) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("software: invalid target size %dx%d", width, height)
	}
	if b.target != nil && b.target.Rect.Dx() == width && b.target.Rect.Dy() == height {
		return nil
	}
	b.target = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Target returns the render target, or nil before Resize. Pixels are
// premultiplied RGBA.
func (b *Backend) Target() *image.RGBA {
	return b.target
}

// Pages returns the number of live texture pages.
func (b *Backend) Pages() int {
	return len(b.pages)
}

// ApplyEvent applies one texture page event.
func (b *Backend) ApplyEvent(ev imagecache.TextureEvent) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	switch ev.Kind {
	case imagecache.EventCreate:
		return b.createPage(ev)
	case imagecache.EventUpdate:
		return b.updatePage(ev)
	case imagecache.EventDestroy:
		if _, ok := b.pages[ev.Texture]; !ok {
			return fmt.Errorf("%w: %d", backend.ErrUnknownTexture, ev.Texture)
		}
		delete(b.pages, ev.Texture)
		return nil
	}
	return fmt.Errorf("software: unknown event kind %d", ev.Kind)
}

func (b *Backend) createPage(ev imagecache.TextureEvent) error {
	if _, ok := b.pages[ev.Texture]; ok {
		return fmt.Errorf("software: texture %d already exists", ev.Texture)
	}
	r := image.Rect(0, 0, int(ev.Size.Width), int(ev.Size.Height))
	switch ev.Format {
	case gputypes.TextureFormatR8Unorm:
		b.pages[ev.Texture] = &page{alpha: image.NewAlpha(r)}
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		b.pages[ev.Texture] = &page{rgba: image.NewRGBA(r)}
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		b.pages[ev.Texture] = &page{rgba: image.NewRGBA(r), bgra: true}
	default:
		return fmt.Errorf("software: unsupported page format %s", ev.Format)
	}
	backend.Logger().Debug("software: page created", "texture", ev.Texture, "size", r.Size(), "format", ev.Format)
	return nil
}

func (b *Backend) updatePage(ev imagecache.TextureEvent) error {
	p, ok := b.pages[ev.Texture]
	if !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownTexture, ev.Texture)
	}

	var pix []byte
	var stride, bpp int
	var bounds image.Rectangle
	if p.alpha != nil {
		pix, stride, bpp, bounds = p.alpha.Pix, p.alpha.Stride, 1, p.alpha.Rect
	} else {
		pix, stride, bpp, bounds = p.rgba.Pix, p.rgba.Stride, 4, p.rgba.Rect
	}

	x, y := int(ev.Origin.X), int(ev.Origin.Y)
	w, h := int(ev.Region.Width), int(ev.Region.Height)
	if !image.Rect(x, y, x+w, y+h).In(bounds) {
		return fmt.Errorf("software: update %dx%d at %d,%d outside page %d", w, h, x, y, ev.Texture)
	}
	src := int(ev.BytesPerRow)
	row := w * bpp
	if src < row || len(ev.Data) < src*(h-1)+row {
		return fmt.Errorf("software: short update data for page %d", ev.Texture)
	}
	for j := range h {
		off := (y+j)*stride + x*bpp
		dst := pix[off : off+row]
		copy(dst, ev.Data[j*src:j*src+row])
		if p.bgra {
			for i := 0; i < len(dst); i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return nil
}

// Render clears the target and draws dl.
func (b *Backend) Render(dl *batch.DisplayList, clearColor gputypes.Color) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if b.target == nil {
		return backend.ErrNoTarget
	}

	draw.Draw(b.target, b.target.Rect, image.NewUniform(straightToPremul(clearColor)), image.Point{}, draw.Src)

	for i := range dl.Batches {
		bt := &dl.Batches[i]
		var p *page
		if bt.Kind != batch.KindRect {
			var ok bool
			if p, ok = b.pages[imagecache.TextureID(bt.Texture)]; !ok {
				return fmt.Errorf("%w: batch %d samples %d", backend.ErrUnknownTexture, i, bt.Texture)
			}
		}
		idx := dl.BatchIndices(bt)
		for q := 0; q+6 <= len(idx); q += 6 {
			// Quads are emitted as (0,1,2, 2,3,0) over top-left,
			// top-right, bottom-right, bottom-left.
			tl := &dl.Vertices[idx[q]]
			br := &dl.Vertices[idx[q+2]]
			b.drawQuad(bt.Kind, p, tl, br)
		}
	}
	return nil
}

func (b *Backend) drawQuad(kind batch.Kind, p *page, tl, br *batch.Vertex) {
	dr := image.Rect(round(tl.X), round(tl.Y), round(br.X), round(br.Y))
	if dr.Empty() || !dr.Overlaps(b.target.Rect) {
		return
	}
	col := premulColor(tl.Color)

	if kind == batch.KindRect {
		draw.Draw(b.target, dr, image.NewUniform(col), image.Point{}, draw.Over)
		return
	}

	src := p.img()
	size := src.Bounds().Size()
	sr := image.Rect(
		round(tl.U*float32(size.X)), round(tl.V*float32(size.Y)),
		round(br.U*float32(size.X)), round(br.V*float32(size.Y)),
	)
	if sr.Empty() {
		return
	}

	switch kind {
	case batch.KindMask:
		if sr.Size() == dr.Size() {
			draw.DrawMask(b.target, dr, image.NewUniform(col), image.Point{}, src, sr.Min, draw.Over)
			return
		}
		// The uniform source is masked by the page in source space so the
		// interpolator scales coverage, not color.
		b.interp.Scale(b.target, dr, image.NewUniform(col), sr, draw.Over, &draw.Options{SrcMask: src})
	case batch.KindImage:
		var opts *draw.Options
		if col.A < 0xff {
			opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: col.A})}
		}
		if sr.Size() == dr.Size() {
			draw.Copy(b.target, dr.Min, src, sr, draw.Over, opts)
			return
		}
		b.interp.Scale(b.target, dr, src, sr, draw.Over, opts)
	}
}

// straightToPremul converts a straight-alpha color to 8-bit premultiplied.
func straightToPremul(c gputypes.Color) color.RGBA {
	a := clamp01(c.A)
	return premulColor([4]float32{
		float32(clamp01(c.R) * a),
		float32(clamp01(c.G) * a),
		float32(clamp01(c.B) * a),
		float32(a),
	})
}

// premulColor converts a premultiplied vertex color to 8 bits.
func premulColor(c [4]float32) color.RGBA {
	return color.RGBA{R: unorm8(c[0]), G: unorm8(c[1]), B: unorm8(c[2]), A: unorm8(c[3])}
}

func unorm8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

func round(v float32) int {
	return int(math.Floor(float64(v) + 0.5))
}
