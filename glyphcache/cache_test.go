package glyphcache

import (
	"testing"

	"github.com/gogpu/compositor/imagecache"
)

type testFont uint64

func (f testFont) FontID() uint64 { return uint64(f) }

// fakeRasterizer draws a solid w x h box for every glyph except those in
// fail, and records every request.
type fakeRasterizer struct {
	w, h     int
	top      int
	content  ContentKind
	fail     map[GlyphID]bool
	requests []RasterRequest
}

func (r *fakeRasterizer) Rasterize(req RasterRequest) (GlyphImage, bool) {
	r.requests = append(r.requests, req)
	if r.fail[req.Glyph] {
		return GlyphImage{}, false
	}
	bpp := 1
	if r.content == ContentColor {
		bpp = 4
	}
	data := make([]byte, r.w*r.h*bpp)
	for i := range data {
		data[i] = 0xff
	}
	return GlyphImage{
		Left: 1, Top: r.top,
		Width: r.w, Height: r.h,
		Content: r.content,
		Data:    data,
	}, true
}

func newTestCaches(t *testing.T, r Rasterizer) (*Cache, *imagecache.Cache) {
	t.Helper()
	images, err := imagecache.New(imagecache.Config{
		PageSize: 64, MaxTextureSize: 256, Padding: 1, RetentionFrames: 8,
	})
	if err != nil {
		t.Fatalf("imagecache.New: %v", err)
	}
	glyphs, err := New(r, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return glyphs, images
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err != ErrNilRasterizer {
		t.Errorf("New(nil) error = %v, want ErrNilRasterizer", err)
	}
	if _, err := New(&fakeRasterizer{}, Config{}); err == nil {
		t.Error("New with zero config should fail validation")
	}
}

func TestSession_HitWithinPhase(t *testing.T) {
	r := &fakeRasterizer{w: 4, h: 6, top: 5}
	glyphs, images := newTestCaches(t, r)

	s := glyphs.Session(1, images, testFont(1), nil, 14)
	g1, ok := s.Get(42, 10.05, 0)
	if !ok {
		t.Fatal("first Get failed")
	}
	g2, ok := s.Get(42, 10.10, 0)
	if !ok {
		t.Fatal("second Get failed")
	}

	if len(r.requests) != 1 {
		t.Errorf("rasterizations = %d, want 1", len(r.requests))
	}
	if g1.Image != g2.Image {
		t.Error("both lookups should return the same image")
	}
	st := glyphs.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1 and 1", st.Hits, st.Misses)
	}
}

func TestSession_PhaseBakedIntoRequest(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2}
	glyphs, images := newTestCaches(t, r)

	s := glyphs.Session(1, images, testFont(1), nil, 12)
	s.Get(7, 3.5, 0.25)
	s.Get(7, 3.0, 0)

	if len(r.requests) != 2 {
		t.Fatalf("rasterizations = %d, want 2 (different phases)", len(r.requests))
	}
	if got := r.requests[0].Offset; got != [2]float32{0.5, 0.25} {
		t.Errorf("Offset = %v, want [0.5 0.25]", got)
	}
	if got := r.requests[0].Size; got != 12*64 {
		t.Errorf("Size = %v, want 12px", got)
	}
}

func TestSession_DistinctKeys(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2}
	glyphs, images := newTestCaches(t, r)

	glyphs.Session(1, images, testFont(1), nil, 12).Get(7, 0, 0)
	glyphs.Session(1, images, testFont(1), nil, 13).Get(7, 0, 0)
	glyphs.Session(1, images, testFont(2), nil, 12).Get(7, 0, 0)
	glyphs.Session(1, images, testFont(1), []VarCoord{100}, 12).Get(7, 0, 0)
	glyphs.Session(1, images, testFont(1), []VarCoord{100}, 12).Get(7, 0, 0)

	if len(r.requests) != 4 {
		t.Errorf("rasterizations = %d, want 4", len(r.requests))
	}
	if got := glyphs.Stats().Fonts; got != 3 {
		t.Errorf("Fonts = %d, want 3", got)
	}
}

func TestSession_CoordsPassedToRasterizer(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2}
	glyphs, images := newTestCaches(t, r)

	coords := []VarCoord{1, 2, 3, 4, 5, 6}
	s := glyphs.Session(1, images, testFont(1), coords, 12)
	coords[0] = 99 // the entry must hold its own copy
	s.Get(1, 0, 0)

	got := r.requests[0].Coords
	if len(got) != 6 || got[0] != 1 || got[5] != 6 {
		t.Errorf("Coords = %v, want [1 2 3 4 5 6]", got)
	}
}

func TestSession_FailureNotCached(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2, fail: map[GlyphID]bool{3: true}}
	glyphs, images := newTestCaches(t, r)

	s := glyphs.Session(1, images, testFont(1), nil, 12)
	for range 3 {
		if _, ok := s.Get(3, 0, 0); ok {
			t.Fatal("Get should fail for a glyph without image")
		}
	}
	if len(r.requests) != 3 {
		t.Errorf("rasterizations = %d, want 3 (no negative caching)", len(r.requests))
	}
	if got := glyphs.Stats().Failures; got != 3 {
		t.Errorf("Failures = %d, want 3", got)
	}
}

func TestSession_ReRasterizesEvictedImage(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2}
	glyphs, images := newTestCaches(t, r)

	s := glyphs.Session(1, images, testFont(1), nil, 12)
	g, _ := s.Get(5, 0, 0)
	images.Deallocate(g.Image)

	g2, ok := s.Get(5, 0, 0)
	if !ok {
		t.Fatal("Get should re-rasterize")
	}
	if len(r.requests) != 2 {
		t.Errorf("rasterizations = %d, want 2", len(r.requests))
	}
	if !images.IsValid(g2.Image) {
		t.Error("new image should be valid")
	}
}

func TestSession_ColorGlyph(t *testing.T) {
	r := &fakeRasterizer{w: 3, h: 3, content: ContentColor}
	glyphs, images := newTestCaches(t, r)

	g, ok := glyphs.Session(1, images, testFont(1), nil, 12).Get(1, 0, 0)
	if !ok {
		t.Fatal("Get failed")
	}
	if !g.Bitmap {
		t.Error("color glyph should be a bitmap")
	}
}

func TestCache_PruneReleasesImages(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2}
	glyphs, images := newTestCaches(t, r)

	var ids []imagecache.ImageID
	s := glyphs.Session(1, images, testFont(1), nil, 12)
	for gid := range GlyphID(5) {
		g, _ := s.Get(gid, 0, 0)
		ids = append(ids, g.Image)
	}

	// Inside the window nothing is dropped.
	if n := glyphs.Prune(9, images); n != 0 {
		t.Errorf("Prune(9) = %d, want 0", n)
	}
	if n := glyphs.Prune(10, images); n != 1 {
		t.Errorf("Prune(10) = %d, want 1", n)
	}
	for _, id := range ids {
		if images.IsValid(id) {
			t.Errorf("image %v should be released", id)
		}
	}
	if st := glyphs.Stats(); st.Fonts != 0 || st.Glyphs != 0 {
		t.Errorf("Fonts=%d Glyphs=%d after prune, want 0", st.Fonts, st.Glyphs)
	}
}

func TestCache_PruneKeepsUsedFonts(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2}
	glyphs, images := newTestCaches(t, r)

	glyphs.Session(1, images, testFont(1), nil, 12).Get(1, 0, 0)
	glyphs.Session(1, images, testFont(2), nil, 12).Get(1, 0, 0)
	glyphs.Session(8, images, testFont(2), nil, 12)

	if n := glyphs.Prune(12, images); n != 1 {
		t.Errorf("Prune = %d, want 1", n)
	}
	if got := glyphs.Stats().Fonts; got != 1 {
		t.Errorf("Fonts = %d, want 1", got)
	}
}

func TestCache_ClearEvicted(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2}
	glyphs, images := newTestCaches(t, r)

	s := glyphs.Session(1, images, testFont(1), nil, 12)
	a, _ := s.Get(1, 0, 0)
	s.Get(2, 0, 0)
	lone, _ := glyphs.Session(1, images, testFont(2), nil, 12).Get(1, 0, 0)

	images.Deallocate(a.Image)
	images.Deallocate(lone.Image)

	if n := glyphs.ClearEvicted(images); n != 2 {
		t.Errorf("ClearEvicted = %d, want 2", n)
	}
	st := glyphs.Stats()
	if st.Fonts != 1 {
		t.Errorf("Fonts = %d, want 1 (empty entry dropped)", st.Fonts)
	}
	if st.Glyphs != 1 {
		t.Errorf("Glyphs = %d, want 1", st.Glyphs)
	}
}

func TestCache_Clear(t *testing.T) {
	r := &fakeRasterizer{w: 2, h: 2}
	glyphs, images := newTestCaches(t, r)
	g, _ := glyphs.Session(1, images, testFont(1), nil, 12).Get(1, 0, 0)

	glyphs.Clear(images)
	if images.IsValid(g.Image) {
		t.Error("Clear should release images")
	}
	if got := glyphs.Stats().Fonts; got != 0 {
		t.Errorf("Fonts = %d, want 0", got)
	}
}
