package glyphcache

import (
	"math"

	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/fixed"
)

// DefaultRetentionFrames is how many frames a font entry may go unused
// before Prune drops it.
const DefaultRetentionFrames = 8

// Config holds glyph cache configuration.
type Config struct {
	// RetentionFrames is the font entry eviction window in frames.
	// Default: 8
	RetentionFrames uint64 `yaml:"retention_frames"`

	// SubpixelSteps is the number of sub-pixel phases per axis.
	// 1 disables sub-pixel positioning. Default: 4
	SubpixelSteps int `yaml:"subpixel_steps"`
}

// DefaultConfig returns the default glyph cache configuration.
func DefaultConfig() Config {
	return Config{
		RetentionFrames: DefaultRetentionFrames,
		SubpixelSteps:   DefaultSubpixelSteps,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.RetentionFrames < 1 {
		return &ConfigError{Field: "RetentionFrames", Reason: "must be at least 1"}
	}
	if c.SubpixelSteps < 1 || c.SubpixelSteps > 16 {
		return &ConfigError{Field: "SubpixelSteps", Reason: "must be between 1 and 16"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "glyphcache: invalid config." + e.Field + ": " + e.Reason
}

// Stats holds glyph cache statistics.
type Stats struct {
	Fonts  int
	Glyphs int

	Hits           uint64
	Misses         uint64
	Rasterizations uint64
	Failures       uint64
}

// HitRate returns the cache hit rate as a fraction (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// fontEntry caches the glyphs of one (font, variation coordinates) pair.
type fontEntry struct {
	font     uint64
	coords   Coords
	lastUsed imagecache.Epoch
	glyphs   map[GlyphKey]RasterizedGlyph
}

// Cache maps glyph requests to rasterized images in an image cache.
//
// Every image the cache references is owned by it: glyph lines are only
// removed through Prune, ClearEvicted, Clear or a failed validity check in
// Session.Get, and all of them keep the image cache in agreement.
//
// Cache is not safe for concurrent use.
type Cache struct {
	rasterizer Rasterizer
	cfg        Config

	// fonts buckets entries by fontHash.
	fonts map[uint64][]*fontEntry

	stats Stats
}

// New creates a glyph cache that rasterizes misses with r.
func New(r Rasterizer, cfg Config) (*Cache, error) {
	if r == nil {
		return nil, ErrNilRasterizer
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cache{
		rasterizer: r,
		cfg:        cfg,
		fonts:      make(map[uint64][]*fontEntry),
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.cfg
}

// lookup probes for an entry with a borrowed key and creates one with an
// owned key only on a miss.
func (c *Cache) lookup(font uint64, coords []VarCoord) *fontEntry {
	key := BorrowCoords(coords)
	h := fontHash(font, &key)
	for _, e := range c.fonts[h] {
		if e.font == font && e.coords.Equal(&key) {
			return e
		}
	}
	e := &fontEntry{
		font:   font,
		coords: key.Own(),
		glyphs: make(map[GlyphKey]RasterizedGlyph),
	}
	c.fonts[h] = append(c.fonts[h], e)
	return e
}

// Session opens a lookup session for one font face at one size.
//
// The session borrows font and images and must not be used after the
// epoch it was opened in.
func (c *Cache) Session(epoch imagecache.Epoch, images *imagecache.Cache, font Font, coords []VarCoord, size float32) *Session {
	e := c.lookup(font.FontID(), coords)
	if epoch > e.lastUsed {
		e.lastUsed = epoch
	}
	return &Session{
		cache:  c,
		images: images,
		entry:  e,
		font:   font,
		epoch:  epoch,
		size:   fixed.Int26_6(math.Round(float64(size) * 64)),
	}
}

// Prune drops every font entry unused for longer than the retention window
// and releases all of its images. It returns the number of dropped fonts.
func (c *Cache) Prune(epoch imagecache.Epoch, images *imagecache.Cache) int {
	dropped := 0
	for h, bucket := range c.fonts {
		kept := bucket[:0]
		for _, e := range bucket {
			if epoch > e.lastUsed && uint64(epoch-e.lastUsed) > c.cfg.RetentionFrames {
				for _, g := range e.glyphs {
					images.Deallocate(g.Image)
				}
				dropped++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(c.fonts, h)
			continue
		}
		clear(bucket[len(kept):])
		c.fonts[h] = kept
	}
	if dropped > 0 {
		slogger().Debug("glyphcache: pruned fonts", "fonts", dropped, "epoch", epoch)
	}
	return dropped
}

// ClearEvicted removes glyph lines whose image is no longer valid and drops
// font entries left empty. It returns the number of removed glyphs.
func (c *Cache) ClearEvicted(images *imagecache.Cache) int {
	removed := 0
	for h, bucket := range c.fonts {
		kept := bucket[:0]
		for _, e := range bucket {
			for k, g := range e.glyphs {
				if !images.IsValid(g.Image) {
					delete(e.glyphs, k)
					removed++
				}
			}
			if len(e.glyphs) > 0 {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c.fonts, h)
			continue
		}
		clear(bucket[len(kept):])
		c.fonts[h] = kept
	}
	return removed
}

// Clear drops every entry and releases all images.
func (c *Cache) Clear(images *imagecache.Cache) {
	for _, bucket := range c.fonts {
		for _, e := range bucket {
			for _, g := range e.glyphs {
				images.Deallocate(g.Image)
			}
		}
	}
	clear(c.fonts)
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	st := c.stats
	for _, bucket := range c.fonts {
		st.Fonts += len(bucket)
		for _, e := range bucket {
			st.Glyphs += len(e.glyphs)
		}
	}
	return st
}

// Session resolves glyphs of one font face at one size.
type Session struct {
	cache  *Cache
	images *imagecache.Cache
	entry  *fontEntry
	font   Font
	epoch  imagecache.Epoch
	size   fixed.Int26_6
}

// Size returns the quantized font size of the session.
func (s *Session) Size() fixed.Int26_6 {
	return s.size
}

// Get returns the rasterized glyph for a glyph drawn at (x, y).
//
// The fractional position is quantized to a sub-pixel phase. A cached
// glyph is returned only while its image is still valid; otherwise the
// glyph is rasterized with the phase offset applied and registered as an
// evictable image. Rasterization failures are not cached.
func (s *Session) Get(glyph GlyphID, x, y float32) (RasterizedGlyph, bool) {
	c := s.cache
	steps := c.cfg.SubpixelSteps
	key := GlyphKey{
		Glyph: glyph,
		X:     Quantize(x, steps),
		Y:     Quantize(y, steps),
		Size:  s.size,
	}

	if g, ok := s.entry.glyphs[key]; ok {
		if s.images.IsValid(g.Image) {
			c.stats.Hits++
			return g, true
		}
		delete(s.entry.glyphs, key)
	}
	c.stats.Misses++

	img, ok := c.rasterizer.Rasterize(RasterRequest{
		Font:   s.font,
		Coords: s.entry.coords.Slice(),
		Glyph:  glyph,
		Size:   s.size,
		Offset: [2]float32{key.X.Offset(steps), key.Y.Offset(steps)},
	})
	if !ok || img.Width <= 0 || img.Height <= 0 {
		c.stats.Failures++
		return RasterizedGlyph{}, false
	}
	c.stats.Rasterizations++

	g := RasterizedGlyph{
		Left:      img.Left,
		Top:       img.Top,
		Width:     img.Width,
		Height:    img.Height,
		Bitmap:    img.Content == ContentColor,
		Descender: descenderRegion(&img),
	}

	format := gputypes.TextureFormatR8Unorm
	if g.Bitmap {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	id, ok := s.images.Allocate(s.epoch, imagecache.AddImage{
		Format:    format,
		Width:     img.Width,
		Height:    img.Height,
		HasAlpha:  true,
		Evictable: true,
		Data:      imagecache.Owned(img.Data),
	})
	if !ok {
		slogger().Warn("glyphcache: glyph image rejected",
			"glyph", glyph, "width", img.Width, "height", img.Height)
		c.stats.Failures++
		return RasterizedGlyph{}, false
	}
	g.Image = id

	s.entry.glyphs[key] = g
	return g, true
}
