package compositor

import (
	"iter"
	"math"

	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/compositor/glyphcache"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
)

// Stats aggregates cache and batch statistics.
type Stats struct {
	Epoch    imagecache.Epoch
	Images   imagecache.Stats
	Glyphs   glyphcache.Stats
	Commands int
}

// Compositor turns draw calls into cached images and a display list.
//
// It owns the frame epoch, the image cache, the glyph cache and the batch
// manager. A frame is bracketed by Begin and Finish:
//
//	c.Begin()
//	c.DrawRect(bg, 0, gputypes.ColorWhite)
//	c.DrawGlyphs(line, 0, style, glyphs)
//	c.Finish(&dl, visit)
//
// Compositor is not safe for concurrent use.
type Compositor struct {
	cfg Config

	epoch   imagecache.Epoch
	images  *imagecache.Cache
	glyphs  *glyphcache.Cache
	batches batch.Manager

	// per-run scratch
	intercepts []intercept
	gaps       []intercept
}

// New creates a compositor rasterizing glyphs with r.
func New(r glyphcache.Rasterizer, opts ...Option) (*Compositor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	images, err := imagecache.New(o.cfg.Images)
	if err != nil {
		return nil, err
	}
	glyphs, err := glyphcache.New(r, o.cfg.Glyphs)
	if err != nil {
		return nil, err
	}
	return &Compositor{
		cfg:    o.cfg,
		images: images,
		glyphs: glyphs,
	}, nil
}

// Config returns the compositor configuration.
func (c *Compositor) Config() Config {
	return c.cfg
}

// Epoch returns the current frame epoch. It is zero before the first Begin.
func (c *Compositor) Epoch() imagecache.Epoch {
	return c.epoch
}

// Images returns the image cache.
func (c *Compositor) Images() *imagecache.Cache {
	return c.images
}

// Glyphs returns the glyph cache.
func (c *Compositor) Glyphs() *glyphcache.Cache {
	return c.glyphs
}

// Begin starts a frame: it advances the epoch, drops stale font entries
// and images, and clears the recorded commands.
func (c *Compositor) Begin() {
	c.epoch++
	fonts := c.glyphs.Prune(c.epoch, c.images)
	images := c.images.Evict(c.epoch)
	glyphs := c.glyphs.ClearEvicted(c.images)
	c.batches.Reset()

	if fonts > 0 || images > 0 {
		Logger().Debug("compositor: frame begin",
			"epoch", c.epoch, "pruned_fonts", fonts, "evicted_images", images, "cleared_glyphs", glyphs)
	}
}

// Finish ends a frame: it delivers pending texture events to visit in
// order and compiles the recorded commands into dl.
//
// The backend must apply every event before drawing dl.
func (c *Compositor) Finish(dl *batch.DisplayList, visit func(imagecache.TextureEvent)) {
	c.images.DrainEvents(visit)
	c.batches.Compile(dl)
}

// DrawRect records a solid rectangle.
func (c *Compositor) DrawRect(r Rect, depth float32, color gputypes.Color) {
	c.batches.AddRect(r, depth, color)
}

// DrawImage records a cached image stretched over r and tinted by the
// alpha of color. Single-channel images are drawn as masks in color.
//
// Nothing is drawn if the image is no longer resident.
func (c *Compositor) DrawImage(r Rect, depth float32, color gputypes.Color, id imagecache.ImageID) {
	loc, ok := c.images.Get(c.epoch, id)
	if !ok {
		return
	}
	c.addTextured(r, depth, color, &loc, loc.Format == gputypes.TextureFormatR8Unorm)
}

func (c *Compositor) addTextured(r Rect, depth float32, color gputypes.Color, loc *imagecache.ImageLocation, mask bool) {
	tex := batch.TextureID(loc.Texture)
	uv := batch.UV(loc.UV)
	if mask {
		c.batches.AddMask(r, depth, color, tex, uv)
	} else {
		c.batches.AddImage(r, depth, color, tex, uv)
	}
}

// DrawGlyphs records a shaped text run inside r.
//
// Glyph positions are run-local: x from r.X, y from the baseline at
// r.Y + style.Baseline. Glyphs are rasterized on a cache miss; glyphs that
// cannot be rasterized are skipped. When style.Underline is set the
// underline is drawn after the glyphs, interrupted where it would cross
// descender ink.
func (c *Compositor) DrawGlyphs(r Rect, depth float32, style *TextRunStyle, glyphs iter.Seq[PositionedGlyph]) {
	if style == nil || style.Font == nil {
		Logger().Warn("compositor: DrawGlyphs without font")
		return
	}

	session := c.glyphs.Session(c.epoch, c.images, style.Font, style.Coords, style.Size)
	originX := floorBias(r.X)
	baseline := r.Y + style.Baseline
	ul := style.Underline
	var ulOffset int
	if ul != nil {
		ulOffset = underlineOffset(ul)
	}
	c.intercepts = c.intercepts[:0]

	for g := range glyphs {
		ax, ay := r.X+g.X, baseline+g.Y
		rg, ok := session.Get(g.ID, ax, ay)
		if !ok {
			continue
		}
		loc, ok := c.images.Get(c.epoch, rg.Image)
		if !ok {
			continue
		}

		px := floorBias(ax) + rg.Left
		py := int(math.Floor(float64(ay))) - rg.Top
		rect := Rect{
			X:      float32(px),
			Y:      float32(py),
			Width:  float32(rg.Width),
			Height: float32(rg.Height),
		}
		c.addTextured(rect, depth, style.Color, &loc, !rg.Bitmap)

		if ul != nil {
			if ic, ok := underlineIntercept(px-originX, rg.Top, rg.Height,
				rg.Descender.Start, rg.Descender.End, ulOffset); ok {
				c.intercepts = append(c.intercepts, ic)
			}
		}
	}

	if ul != nil {
		c.drawUnderline(originX, baseline, depth, style)
	}
}

// floorBias snaps a horizontal position to its pixel after adding
// SubpixelBias.
func floorBias(v float32) int {
	return int(math.Floor(float64(v) + SubpixelBias))
}

// AddImage caches an image in the current epoch.
func (c *Compositor) AddImage(req imagecache.AddImage) (imagecache.ImageID, bool) {
	return c.images.Allocate(c.epoch, req)
}

// GetImage returns the location of a cached image and marks it used in the
// current epoch.
func (c *Compositor) GetImage(id imagecache.ImageID) (imagecache.ImageLocation, bool) {
	return c.images.Get(c.epoch, id)
}

// RemoveImage releases a cached image.
func (c *Compositor) RemoveImage(id imagecache.ImageID) bool {
	return c.images.Deallocate(id)
}

// Stats returns current statistics.
func (c *Compositor) Stats() Stats {
	return Stats{
		Epoch:    c.epoch,
		Images:   c.images.Stats(),
		Glyphs:   c.glyphs.Stats(),
		Commands: c.batches.Len(),
	}
}
