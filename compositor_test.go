package compositor

import (
	"slices"
	"testing"

	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/compositor/glyphcache"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
)

type testFont uint64

func (f testFont) FontID() uint64 { return uint64(f) }

// boxRasterizer renders every glyph as a w x h mask with top rows above
// the baseline. Columns listed in ink have ink below the baseline; other
// columns only above it. A zero value draws 4x4 boxes sitting on the
// baseline.
type boxRasterizer struct {
	w, h, top int
	left      int
	ink       []int
	color     bool
	calls     int
}

func (r *boxRasterizer) Rasterize(req glyphcache.RasterRequest) (glyphcache.GlyphImage, bool) {
	r.calls++
	w, h, top := r.w, r.h, r.top
	if w == 0 {
		w, h, top = 4, 4, 4
	}
	bpp := 1
	content := glyphcache.ContentMask
	if r.color {
		bpp = 4
		content = glyphcache.ContentColor
	}
	data := make([]byte, w*h*bpp)
	for y := range h {
		for x := range w {
			if y >= top && !slices.Contains(r.ink, x) {
				continue
			}
			for b := range bpp {
				data[(y*w+x)*bpp+b] = 0xff
			}
		}
	}
	return glyphcache.GlyphImage{
		Left: r.left, Top: top, Width: w, Height: h,
		Content: content, Data: data,
	}, true
}

func newTestCompositor(t *testing.T, r glyphcache.Rasterizer, opts ...Option) *Compositor {
	t.Helper()
	c, err := New(r, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func glyphRun(xs ...float32) []PositionedGlyph {
	out := make([]PositionedGlyph, len(xs))
	for i, x := range xs {
		out[i] = PositionedGlyph{ID: glyphcache.GlyphID(i + 1), X: x}
	}
	return out
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil); err != ErrNilRasterizer {
		t.Errorf("New(nil) error = %v, want ErrNilRasterizer", err)
	}
	if _, err := New(&boxRasterizer{}, WithSubpixelSteps(0)); err == nil {
		t.Error("New should reject invalid options")
	}
}

func TestCompositor_BeginAdvancesEpoch(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{})
	if c.Epoch() != 0 {
		t.Fatalf("initial epoch = %d, want 0", c.Epoch())
	}
	for want := imagecache.Epoch(1); want <= 3; want++ {
		c.Begin()
		if c.Epoch() != want {
			t.Errorf("epoch = %d, want %d", c.Epoch(), want)
		}
	}
}

func TestCompositor_BeginResetsBatches(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{})
	c.Begin()
	c.DrawRect(Rect{Width: 1, Height: 1}, 0, gputypes.ColorBlack)
	c.Begin()
	if got := c.Stats().Commands; got != 0 {
		t.Errorf("Commands after Begin = %d, want 0", got)
	}
}

func TestCompositor_DrawImage(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{})
	c.Begin()

	color, ok := c.AddImage(imagecache.AddImage{
		Format: gputypes.TextureFormatRGBA8Unorm, Width: 2, Height: 2,
		Evictable: true, Data: imagecache.Borrowed(make([]byte, 16)),
	})
	if !ok {
		t.Fatal("AddImage failed")
	}
	alpha, _ := c.AddImage(imagecache.AddImage{
		Format: gputypes.TextureFormatR8Unorm, Width: 2, Height: 2,
		Data: imagecache.Borrowed(make([]byte, 4)),
	})

	c.DrawImage(Rect{Width: 10, Height: 10}, 0, gputypes.ColorWhite, color)
	c.DrawImage(Rect{Width: 10, Height: 10}, 0, gputypes.ColorWhite, alpha)

	var dl batch.DisplayList
	c.Finish(&dl, nil)
	if len(dl.Batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(dl.Batches))
	}
	if dl.Batches[0].Kind != batch.KindImage || dl.Batches[1].Kind != batch.KindMask {
		t.Errorf("kinds = %v, %v; want Image, Mask", dl.Batches[0].Kind, dl.Batches[1].Kind)
	}
}

func TestCompositor_DrawImageMissIsSilent(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{})
	c.Begin()
	id, _ := c.AddImage(imagecache.AddImage{
		Format: gputypes.TextureFormatR8Unorm, Width: 1, Height: 1,
		Data: imagecache.Borrowed([]byte{1}),
	})
	if !c.RemoveImage(id) {
		t.Fatal("RemoveImage failed")
	}

	c.DrawImage(Rect{Width: 10, Height: 10}, 0, gputypes.ColorWhite, id)
	if got := c.Stats().Commands; got != 0 {
		t.Errorf("Commands = %d, want 0 for a stale image", got)
	}
}

func TestCompositor_ImageEvictedAfterWindow(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{})
	c.Begin()
	id, _ := c.AddImage(imagecache.AddImage{
		Format: gputypes.TextureFormatR8Unorm, Width: 1, Height: 1,
		Evictable: true, Data: imagecache.Borrowed([]byte{1}),
	})

	for range 9 {
		c.Begin()
	}
	if c.Images().IsValid(id) {
		t.Error("image unused for more than 8 frames should be evicted")
	}
}

func TestCompositor_DrawGlyphsPlacement(t *testing.T) {
	r := &boxRasterizer{w: 3, h: 5, top: 4, left: 1}
	c := newTestCompositor(t, r)
	c.Begin()

	style := &TextRunStyle{Font: testFont(1), Size: 12, Baseline: 10, Color: gputypes.ColorBlack}
	c.DrawGlyphs(Rect{X: 20, Y: 30, Width: 100, Height: 16}, 0, style,
		slices.Values([]PositionedGlyph{{ID: 1, X: 4.9}}))

	var dl batch.DisplayList
	c.Finish(&dl, nil)
	if len(dl.Batches) != 1 || dl.Batches[0].Kind != batch.KindMask {
		t.Fatalf("batches = %+v, want one mask batch", dl.Batches)
	}

	// x: floor(24.9 + 0.125) + 1 = 26; y: floor(40) - 4 = 36.
	v := dl.Vertices[0]
	if v.X != 26 || v.Y != 36 {
		t.Errorf("glyph origin = (%v,%v), want (26,36)", v.X, v.Y)
	}
	if w := dl.Vertices[2].X - v.X; w != 3 {
		t.Errorf("glyph width = %v, want 3", w)
	}
}

func TestCompositor_DrawGlyphsVerticalPlacement(t *testing.T) {
	// Baseline at 40; glyph top 4 rows above it. The bias applies to x
	// only, so y is floor(40 + dy) - 4.
	tests := []struct {
		name  string
		dy    float32
		wantY float32
	}{
		{"on baseline", 0, 36},
		{"fraction 0.9", 0.9, 36},
		{"fraction 0.95", 0.95, 36},
		{"just above", -0.1, 35},
		{"next pixel", 1, 37},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCompositor(t, &boxRasterizer{w: 3, h: 5, top: 4})
			c.Begin()
			style := &TextRunStyle{Font: testFont(1), Size: 12, Baseline: 10, Color: gputypes.ColorBlack}
			c.DrawGlyphs(Rect{X: 20, Y: 30, Width: 100, Height: 16}, 0, style,
				slices.Values([]PositionedGlyph{{ID: 1, X: 4, Y: tt.dy}}))

			var dl batch.DisplayList
			c.Finish(&dl, nil)
			if len(dl.Vertices) == 0 {
				t.Fatal("no glyph quad")
			}
			if y := dl.Vertices[0].Y; y != tt.wantY {
				t.Errorf("glyph top = %v, want %v", y, tt.wantY)
			}
		})
	}
}

func TestCompositor_SubpixelBiasSnapsUp(t *testing.T) {
	r := &boxRasterizer{}
	c := newTestCompositor(t, r)
	c.Begin()

	style := &TextRunStyle{Font: testFont(1), Size: 12, Color: gputypes.ColorBlack}
	c.DrawGlyphs(Rect{}, 0, style, slices.Values([]PositionedGlyph{{ID: 1, X: 9.9}}))

	var dl batch.DisplayList
	c.Finish(&dl, nil)
	if x := dl.Vertices[0].X; x != 10 {
		t.Errorf("x = %v, want 10", x)
	}
}

func TestCompositor_ColorGlyphDrawsImage(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{color: true})
	c.Begin()
	style := &TextRunStyle{Font: testFont(1), Size: 12, Color: gputypes.ColorBlack}
	c.DrawGlyphs(Rect{}, 0, style, slices.Values(glyphRun(0)))

	var dl batch.DisplayList
	c.Finish(&dl, nil)
	if len(dl.Batches) != 1 || dl.Batches[0].Kind != batch.KindImage {
		t.Errorf("batches = %+v, want one image batch", dl.Batches)
	}
}

func TestCompositor_GlyphsShareOnePage(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{})
	c.Begin()
	style := &TextRunStyle{Font: testFont(1), Size: 12, Color: gputypes.ColorBlack}
	c.DrawGlyphs(Rect{}, 0, style, slices.Values(glyphRun(0, 5, 10, 15)))

	var events []imagecache.TextureEvent
	var dl batch.DisplayList
	c.Finish(&dl, func(ev imagecache.TextureEvent) { events = append(events, ev) })

	if len(dl.Batches) != 1 || dl.Batches[0].Quads != 4 {
		t.Errorf("batches = %+v, want one batch of 4 quads", dl.Batches)
	}
	if len(events) != 5 || events[0].Kind != imagecache.EventCreate {
		t.Errorf("events = %v, want create + 4 updates", events)
	}
}

func TestCompositor_GlyphCacheAcrossFrames(t *testing.T) {
	r := &boxRasterizer{}
	c := newTestCompositor(t, r)
	style := &TextRunStyle{Font: testFont(1), Size: 12, Color: gputypes.ColorBlack}

	for range 5 {
		c.Begin()
		c.DrawGlyphs(Rect{}, 0, style, slices.Values(glyphRun(0, 5)))
		c.Finish(&batch.DisplayList{}, nil)
	}
	if r.calls != 2 {
		t.Errorf("rasterizations = %d, want 2", r.calls)
	}
}

func TestCompositor_FontPrunedAfterWindow(t *testing.T) {
	r := &boxRasterizer{}
	c := newTestCompositor(t, r)
	style := &TextRunStyle{Font: testFont(1), Size: 12, Color: gputypes.ColorBlack}

	c.Begin()
	c.DrawGlyphs(Rect{}, 0, style, slices.Values(glyphRun(0)))
	if got := c.Stats().Glyphs.Fonts; got != 1 {
		t.Fatalf("Fonts = %d, want 1", got)
	}
	for range 9 {
		c.Begin()
	}
	st := c.Stats()
	if st.Glyphs.Fonts != 0 {
		t.Errorf("Fonts = %d, want 0 after the retention window", st.Glyphs.Fonts)
	}
	if st.Images.Images != 0 {
		t.Errorf("Images = %d, want 0", st.Images.Images)
	}
}

func TestCompositor_DrawGlyphsNilStyle(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{})
	c.Begin()
	c.DrawGlyphs(Rect{}, 0, nil, slices.Values(glyphRun(0)))
	c.DrawGlyphs(Rect{}, 0, &TextRunStyle{}, slices.Values(glyphRun(0)))
	if got := c.Stats().Commands; got != 0 {
		t.Errorf("Commands = %d, want 0", got)
	}
}

func TestCompositor_Underline(t *testing.T) {
	// 8 pixels wide, top 5 rows above the baseline, ink below the
	// baseline in columns 2..5: the descender region is [2,6).
	r := &boxRasterizer{w: 8, h: 8, top: 5, ink: []int{2, 3, 4, 5}}
	c := newTestCompositor(t, r)
	c.Begin()

	style := &TextRunStyle{
		Font: testFont(1), Size: 12, Baseline: 10, Advance: 200,
		Color: gputypes.ColorBlack,
		Underline: &UnderlineStyle{
			Offset: -2, Thickness: 1, Color: gputypes.ColorRed,
		},
	}
	c.DrawGlyphs(Rect{Width: 200, Height: 16}, 0, style,
		slices.Values([]PositionedGlyph{{ID: 1, X: 100}}))

	var dl batch.DisplayList
	c.Finish(&dl, nil)

	var spans [][2]float32
	for _, b := range dl.Batches {
		if b.Kind != batch.KindRect {
			continue
		}
		for q := range b.Quads {
			v := dl.Vertices[int(b.FirstIndex)/6*4+q*4:]
			spans = append(spans, [2]float32{v[0].X, v[1].X})
			if v[0].Y != 12 || v[2].Y != 13 {
				t.Errorf("underline rows = [%v,%v), want [12,13)", v[0].Y, v[2].Y)
			}
		}
	}
	want := [][2]float32{{0, 101}, {107, 200}}
	if !slices.Equal(spans, want) {
		t.Errorf("underline spans = %v, want %v", spans, want)
	}
}

func TestCompositor_UnderlineRounding(t *testing.T) {
	// Baseline at 10. The offset is rounded before placing the stroke and
	// the thickness is rounded with a minimum of one pixel.
	tests := []struct {
		name              string
		offset, thickness float32
		wantY0, wantY1    float32
	}{
		{"whole pixels", -2, 1, 12, 13},
		{"offset rounds down", -1.6, 1, 12, 13},
		{"offset rounds up", -2.4, 1, 12, 13},
		{"thin stroke", -2, 1.2, 12, 13},
		{"half rounds away", -2, 2.5, 12, 15},
		{"hairline", -2, 0.2, 12, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCompositor(t, &boxRasterizer{})
			c.Begin()
			style := &TextRunStyle{
				Font: testFont(1), Size: 12, Baseline: 10, Advance: 40,
				Underline: &UnderlineStyle{Offset: tt.offset, Thickness: tt.thickness},
			}
			c.DrawGlyphs(Rect{Width: 40, Height: 16}, 0, style, slices.Values([]PositionedGlyph{{ID: 1}}))

			var dl batch.DisplayList
			c.Finish(&dl, nil)
			last := dl.Batches[len(dl.Batches)-1]
			if last.Kind != batch.KindRect {
				t.Fatalf("last batch = %+v, want underline rect", last)
			}
			v := dl.Vertices[int(last.FirstIndex)/6*4:]
			if v[0].Y != tt.wantY0 || v[2].Y != tt.wantY1 {
				t.Errorf("underline rows = [%v,%v), want [%v,%v)", v[0].Y, v[2].Y, tt.wantY0, tt.wantY1)
			}
		})
	}
}

func TestCompositor_UnderlineMissesGlyph(t *testing.T) {
	// The underline sits below the glyph image: no intercept.
	r := &boxRasterizer{w: 8, h: 6, top: 5, ink: []int{2, 3}}
	c := newTestCompositor(t, r)
	c.Begin()

	style := &TextRunStyle{
		Font: testFont(1), Size: 12, Baseline: 10, Advance: 50,
		Underline: &UnderlineStyle{Offset: -3, Thickness: 0.5},
	}
	c.DrawGlyphs(Rect{}, 0, style, slices.Values([]PositionedGlyph{{ID: 1, X: 10}}))

	var dl batch.DisplayList
	c.Finish(&dl, nil)
	last := dl.Batches[len(dl.Batches)-1]
	if last.Kind != batch.KindRect || last.Quads != 1 {
		t.Errorf("underline batch = %+v, want one full-width rect", last)
	}
}

func TestCompositor_ImageCacheAPI(t *testing.T) {
	c := newTestCompositor(t, &boxRasterizer{})
	c.Begin()
	id, ok := c.AddImage(imagecache.AddImage{
		Format: gputypes.TextureFormatRGBA8Unorm, Width: 3, Height: 2,
		Data: imagecache.Owned(make([]byte, 24)),
	})
	if !ok {
		t.Fatal("AddImage failed")
	}
	loc, ok := c.GetImage(id)
	if !ok || loc.Pixels.Dx() != 3 || loc.Pixels.Dy() != 2 {
		t.Errorf("GetImage = %+v, %v", loc, ok)
	}
	if !c.RemoveImage(id) || c.RemoveImage(id) {
		t.Error("RemoveImage should succeed exactly once")
	}
}
