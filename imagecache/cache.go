package imagecache

import (
	"math/bits"
	"sort"

	"github.com/gogpu/gputypes"
)

// page is one texture page of the atlas.
type page struct {
	id       TextureID
	format   gputypes.TextureFormat
	size     int
	alloc    *shelfAllocator
	images   map[uint32]struct{}
	lastUsed Epoch
}

// imageSlot holds the bookkeeping for one ImageID slot.
type imageSlot struct {
	gen       uint32
	live      bool
	alpha     bool
	evictable bool
	page      *page
	region    Region
	created   Epoch
	lastUsed  Epoch
}

// Stats holds cache statistics.
type Stats struct {
	// Pages is the number of live texture pages.
	Pages int

	// Images is the number of resident images.
	Images int

	// Allocations is the number of successful Allocate calls.
	Allocations uint64

	// Failures is the number of rejected Allocate calls.
	Failures uint64

	// Evictions is the number of images reclaimed by epoch pressure.
	Evictions uint64

	// Deallocations is the number of explicit releases.
	Deallocations uint64
}

// Cache manages images packed into one or more texture pages, evicts
// images by epoch and reports page lifecycle as a stream of TextureEvents.
//
// Cache is not safe for concurrent use. It is owned by a single frame
// loop that passes the current Epoch into every call.
type Cache struct {
	cfg Config

	slots     []imageSlot
	freeSlots []uint32

	// pages in creation order
	pages       []*page
	nextTexture TextureID

	events []TextureEvent
	stats  Stats
}

// New creates a new image cache with the given configuration.
func New(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cache{
		cfg:         cfg,
		slots:       make([]imageSlot, 0, 256),
		nextTexture: 1,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.cfg
}

// Allocate packs the image described by req into a page and queues the
// upload of its pixels.
//
// The pixel data is copied (Borrowed) or taken over (Owned) before
// Allocate returns. Space is found in an existing page of the same
// format, by evicting stale images from pages that lack room (oldest
// first), or in a new page. Allocate returns false only when the image
// can never be cached: unsupported format, empty or oversized dimensions,
// short pixel data, or an exhausted MaxPages budget.
func (c *Cache) Allocate(epoch Epoch, req AddImage) (ImageID, bool) {
	w, h := req.Width, req.Height
	bpp := bytesPerPixel(req.Format)
	switch {
	case bpp == 0:
		slogger().Warn("imagecache: unsupported format", "format", req.Format)
		return c.fail()
	case w <= 0 || h <= 0:
		return c.fail()
	case w > c.cfg.MaxTextureSize || h > c.cfg.MaxTextureSize:
		slogger().Warn("imagecache: image exceeds max texture size",
			"width", w, "height", h, "max", c.cfg.MaxTextureSize)
		return c.fail()
	case req.Data.Len() < w*h*bpp:
		slogger().Warn("imagecache: short pixel data",
			"got", req.Data.Len(), "want", w*h*bpp)
		return c.fail()
	}

	for _, p := range c.pages {
		if p.format != req.Format {
			continue
		}
		if r, ok := p.alloc.allocate(w, h); ok {
			return c.place(epoch, p, r, req, bpp), true
		}
	}

	if p, r, ok := c.allocateUnderPressure(epoch, req.Format, w, h); ok {
		return c.place(epoch, p, r, req, bpp), true
	}

	if c.cfg.MaxPages > 0 && len(c.pages) >= c.cfg.MaxPages {
		slogger().Warn("imagecache: page budget exhausted", "pages", len(c.pages))
		return c.fail()
	}

	p := c.newPage(epoch, req.Format, max(w, h))
	r, ok := p.alloc.allocate(w, h)
	if !ok {
		// Unreachable for a fresh page sized to fit the image.
		return c.fail()
	}
	return c.place(epoch, p, r, req, bpp), true
}

func (c *Cache) fail() (ImageID, bool) {
	c.stats.Failures++
	return 0, false
}

// allocateUnderPressure evicts stale images, oldest first, from pages of
// the given format until a w x h rectangle fits in one of them.
func (c *Cache) allocateUnderPressure(epoch Epoch, format gputypes.TextureFormat, w, h int) (*page, Region, bool) {
	for _, p := range c.pages {
		if p.format != format {
			continue
		}
		for _, slot := range c.staleImages(epoch, p) {
			c.release(slot)
			c.stats.Evictions++
			if r, ok := p.alloc.allocate(w, h); ok {
				return p, r, true
			}
		}
	}
	return nil, Region{}, false
}

// staleImages returns the evictable images of p that have not been used
// within the retention window, oldest first.
func (c *Cache) staleImages(epoch Epoch, p *page) []uint32 {
	var out []uint32
	for slot := range p.images {
		s := &c.slots[slot]
		if s.evictable && c.stale(epoch, s.lastUsed) {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := &c.slots[out[i]], &c.slots[out[j]]
		if a.lastUsed != b.lastUsed {
			return a.lastUsed < b.lastUsed
		}
		return a.created < b.created
	})
	return out
}

// stale reports whether last is older than the retention window.
func (c *Cache) stale(epoch, last Epoch) bool {
	return epoch > last && uint64(epoch-last) > c.cfg.RetentionFrames
}

// newPage creates a page large enough for an image of side length n and
// queues its creation event.
func (c *Cache) newPage(epoch Epoch, format gputypes.TextureFormat, n int) *page {
	size := c.cfg.PageSize
	if need := n + c.cfg.Padding; need > size {
		size = min(nextPow2(need), c.cfg.MaxTextureSize)
	}

	p := &page{
		id:       c.nextTexture,
		format:   format,
		size:     size,
		alloc:    newShelfAllocator(size, size, c.cfg.Padding),
		images:   make(map[uint32]struct{}),
		lastUsed: epoch,
	}
	c.nextTexture++
	c.pages = append(c.pages, p)

	c.events = append(c.events, TextureEvent{
		Kind:    EventCreate,
		Texture: p.id,
		Format:  format,
		Size:    gputypes.NewExtent2D(uint32(size), uint32(size)), //nolint:gosec // size <= MaxTextureSize
	})
	slogger().Debug("imagecache: page created", "texture", p.id, "size", size, "format", format)
	return p
}

// place records a new image in slot storage and queues its upload.
func (c *Cache) place(epoch Epoch, p *page, r Region, req AddImage, bpp int) ImageID {
	var slot uint32
	if n := len(c.freeSlots); n > 0 {
		slot = c.freeSlots[n-1]
		c.freeSlots = c.freeSlots[:n-1]
	} else {
		c.slots = append(c.slots, imageSlot{gen: 1})
		slot = uint32(len(c.slots) - 1) //nolint:gosec // slot count fits uint32
	}

	s := &c.slots[slot]
	s.live = true
	s.alpha = req.HasAlpha
	s.evictable = req.Evictable
	s.page = p
	s.region = r
	s.created = epoch
	s.lastUsed = epoch

	p.images[slot] = struct{}{}
	p.lastUsed = max(p.lastUsed, epoch)

	stride := r.Width * bpp
	c.events = append(c.events, TextureEvent{
		Kind:        EventUpdate,
		Texture:     p.id,
		Format:      p.format,
		Origin:      gputypes.Origin3D{X: uint32(r.X), Y: uint32(r.Y)},       //nolint:gosec // inside page
		Region:      gputypes.NewExtent2D(uint32(r.Width), uint32(r.Height)), //nolint:gosec // inside page
		BytesPerRow: uint32(stride),                                          //nolint:gosec // inside page
		Data:        req.Data.take(stride * r.Height),
	})

	c.stats.Allocations++
	return makeImageID(slot, s.gen, req.HasAlpha)
}

// lookup returns the slot of a live id, or nil if the id is stale.
func (c *Cache) lookup(id ImageID) *imageSlot {
	slot := id.slot()
	if int(slot) >= len(c.slots) {
		return nil
	}
	s := &c.slots[slot]
	if !s.live || s.gen != id.generation() {
		return nil
	}
	return s
}

// Get returns the location of a resident image and marks it as used in
// the given epoch. It returns false if the image was evicted or released.
func (c *Cache) Get(epoch Epoch, id ImageID) (ImageLocation, bool) {
	s := c.lookup(id)
	if s == nil {
		return ImageLocation{}, false
	}
	if epoch > s.lastUsed {
		s.lastUsed = epoch
	}
	if epoch > s.page.lastUsed {
		s.page.lastUsed = epoch
	}
	return s.location(), true
}

func (s *imageSlot) location() ImageLocation {
	r := s.region
	size := float32(s.page.size)
	return ImageLocation{
		Texture: s.page.id,
		Format:  s.page.format,
		Pixels:  rectOf(r),
		UV: UV{
			U0: float32(r.X) / size,
			V0: float32(r.Y) / size,
			U1: float32(r.X+r.Width) / size,
			V1: float32(r.Y+r.Height) / size,
		},
	}
}

// IsValid reports whether id still refers to a resident image.
// Unlike Get it does not refresh the image's last-used epoch.
func (c *Cache) IsValid(id ImageID) bool {
	return c.lookup(id) != nil
}

// Deallocate releases an image before epoch pressure would. It returns
// false if the id was already stale.
func (c *Cache) Deallocate(id ImageID) bool {
	if c.lookup(id) == nil {
		return false
	}
	c.release(id.slot())
	c.stats.Deallocations++
	return true
}

// release frees a live slot and its page region. The slot generation is
// bumped so outstanding ids become stale.
func (c *Cache) release(slot uint32) {
	s := &c.slots[slot]
	s.page.alloc.release(s.region)
	delete(s.page.images, slot)

	s.live = false
	s.page = nil
	s.gen = (s.gen + 1) & idGenMask
	if s.gen == 0 {
		s.gen = 1
	}
	c.freeSlots = append(c.freeSlots, slot)
}

// Evict reclaims every evictable image not used within the retention
// window and destroys pages that have been empty for as long.
// It returns the number of reclaimed images.
//
// Evict is called once per frame, before any draw of the new frame.
func (c *Cache) Evict(epoch Epoch) int {
	n := 0
	for slot := range c.slots {
		s := &c.slots[slot]
		if s.live && s.evictable && c.stale(epoch, s.lastUsed) {
			c.release(uint32(slot)) //nolint:gosec // slot count fits uint32
			n++
		}
	}
	c.stats.Evictions += uint64(n) //nolint:gosec // n >= 0

	pages := c.pages[:0]
	for _, p := range c.pages {
		if p.alloc.empty() && c.stale(epoch, p.lastUsed) {
			c.events = append(c.events, TextureEvent{
				Kind:    EventDestroy,
				Texture: p.id,
				Format:  p.format,
			})
			slogger().Debug("imagecache: page destroyed", "texture", p.id)
			continue
		}
		pages = append(pages, p)
	}
	clear(c.pages[len(pages):])
	c.pages = pages

	if n > 0 {
		slogger().Debug("imagecache: evicted", "images", n, "epoch", epoch)
	}
	return n
}

// DrainEvents delivers every pending texture event exactly once, in
// emission order, and clears the queue. It must be called once per frame
// before the GPU backend draws.
func (c *Cache) DrainEvents(visit func(TextureEvent)) {
	for i := 0; i < len(c.events); i++ {
		if visit != nil {
			visit(c.events[i])
		}
	}
	clear(c.events)
	c.events = c.events[:0]
}

// PendingEvents returns the number of queued texture events.
func (c *Cache) PendingEvents() int {
	return len(c.events)
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	st := c.stats
	st.Pages = len(c.pages)
	st.Images = len(c.slots) - len(c.freeSlots)
	return st
}

// Utilization returns the mean fraction of page area in use (0.0 to 1.0).
func (c *Cache) Utilization() float64 {
	if len(c.pages) == 0 {
		return 0
	}
	var sum float64
	for _, p := range c.pages {
		sum += p.alloc.utilization()
	}
	return sum / float64(len(c.pages))
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
