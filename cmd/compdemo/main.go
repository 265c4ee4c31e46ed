// Command compdemo renders a few text runs and an image through the
// compositor and writes the frame to a PNG file.
//
// Usage:
//
//	compdemo [-backend software|native] [-config compositor.yaml] [-image photo.jpg] [-output demo.png]
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"slices"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/backend"
	_ "github.com/gogpu/compositor/backend/native"
	"github.com/gogpu/compositor/backend/software"
	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/compositor/rasterizer"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/font/gofont/goregular"
)

func main() {
	var (
		width       = flag.Int("width", 640, "image width")
		height      = flag.Int("height", 360, "image height")
		output      = flag.String("output", "demo.png", "output file")
		configPath  = flag.String("config", "", "YAML compositor configuration")
		backendName = flag.String("backend", "", "render backend (default: best available)")
		imagePath   = flag.String("image", "", "image to draw (PNG, JPEG, GIF, BMP, TIFF or WebP)")
		text        = flag.String("text", "The quick brown fox jumps over the lazy dog", "sample text")
		frames      = flag.Int("frames", 2, "frames to render before saving")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	compositor.SetLogger(logger)
	rasterizer.SetLogger(logger)
	backend.SetLogger(logger)

	if err := run(demoOptions{
		width:   *width,
		height:  *height,
		output:  *output,
		config:  *configPath,
		backend: *backendName,
		image:   *imagePath,
		text:    *text,
		frames:  max(1, *frames),
	}); err != nil {
		log.Fatalf("compdemo: %v", err)
	}
}

type demoOptions struct {
	width, height int
	output        string
	config        string
	backend       string
	image         string
	text          string
	frames        int
}

func run(o demoOptions) error {
	cfg := compositor.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = compositor.LoadConfig(o.config); err != nil {
			return err
		}
	}

	face, err := rasterizer.ParseFace(1, goregular.TTF)
	if err != nil {
		return err
	}
	comp, err := compositor.New(rasterizer.New(), compositor.WithConfig(cfg))
	if err != nil {
		return err
	}

	rb, err := openBackend(o.backend)
	if err != nil {
		return err
	}
	defer rb.Close()
	if err := rb.Resize(o.width, o.height); err != nil {
		return err
	}
	slog.Info("compdemo: backend ready", "backend", rb.Name(), "size", fmt.Sprintf("%dx%d", o.width, o.height))

	sc := newShaper(face)
	scene, err := buildScene(sc, o.text)
	if err != nil {
		return err
	}

	var pic *image.RGBA
	if o.image != "" {
		if pic, err = loadImage(o.image); err != nil {
			return err
		}
	}

	var (
		dl     batch.DisplayList
		picID  imagecache.ImageID
		hasPic bool
	)
	for range o.frames {
		comp.Begin()
		if pic != nil && !hasPic {
			picID, hasPic = addImage(comp, pic)
		}
		drawScene(comp, face, scene, o.width)
		if hasPic {
			comp.DrawImage(compositor.Rect{X: 24, Y: 200, Width: 160, Height: 120}, 0, gputypes.ColorWhite, picID)
		}

		var applyErr error
		comp.Finish(&dl, backend.Visitor(rb, &applyErr))
		if applyErr != nil {
			return applyErr
		}
		if err := rb.Render(&dl, gputypes.ColorWhite); err != nil {
			return err
		}
	}

	st := comp.Stats()
	slog.Info("compdemo: frame stats",
		"epoch", st.Epoch, "commands", st.Commands, "batches", len(dl.Batches),
		"pages", st.Images.Pages, "glyph_hits", st.Glyphs.Hits, "glyph_misses", st.Glyphs.Misses)

	frame, err := readFrame(rb)
	if err != nil {
		return err
	}
	if err := savePNG(o.output, frame); err != nil {
		return err
	}
	slog.Info("compdemo: saved", "path", o.output)
	return nil
}

func openBackend(name string) (backend.RenderBackend, error) {
	if name == "" {
		return backend.InitDefault()
	}
	return backend.Init(name)
}

// readFrame returns the rendered frame of rb.
func readFrame(rb backend.RenderBackend) (*image.RGBA, error) {
	switch b := rb.(type) {
	case *software.Backend:
		return b.Target(), nil
	case interface{ ReadPixels() (*image.RGBA, error) }:
		return b.ReadPixels()
	}
	return nil, fmt.Errorf("backend %q cannot read back frames", rb.Name())
}

func savePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return png.Encode(f, img)
}

// sceneLine is one styled line of the demo scene.
type sceneLine struct {
	line
	size      float32
	color     gputypes.Color
	underline *compositor.UnderlineStyle
}

func buildScene(sc *shaper, text string) ([]sceneLine, error) {
	specs := []struct {
		text      string
		size      float32
		color     gputypes.Color
		underline bool
	}{
		{"Compositor", 40, gputypes.Color{R: 0.1, G: 0.1, B: 0.12, A: 1}, false},
		{text, 18, gputypes.Color{R: 0.2, G: 0.2, B: 0.25, A: 1}, true},
		{"Typography: gjpqy underline avoidance", 24, gputypes.Color{R: 0.1, G: 0.3, B: 0.7, A: 1}, true},
		{text, 11.5, gputypes.Color{R: 0.3, G: 0.3, B: 0.3, A: 1}, false},
	}
	lines := make([]sceneLine, 0, len(specs))
	for _, s := range specs {
		ln, err := sc.shape(s.text, s.size)
		if err != nil {
			return nil, err
		}
		sl := sceneLine{line: ln, size: s.size, color: s.color}
		if s.underline {
			offset, thickness := sc.underline(s.size)
			sl.underline = &compositor.UnderlineStyle{Offset: offset, Thickness: thickness, Color: s.color}
		}
		lines = append(lines, sl)
	}
	return lines, nil
}

func drawScene(c *compositor.Compositor, face *rasterizer.Face, lines []sceneLine, w int) {
	c.DrawRect(compositor.Rect{Width: float32(w), Height: 56}, 0, gputypes.Color{R: 0.93, G: 0.95, B: 0.98, A: 1})
	c.DrawRect(compositor.Rect{Y: 56, Width: float32(w), Height: 1}, 0, gputypes.Color{R: 0.8, G: 0.82, B: 0.88, A: 1})

	y := float32(8)
	for i := range lines {
		ln := &lines[i]
		lineHeight := ln.ascent + ln.descent + 4
		style := &compositor.TextRunStyle{
			Font:      face,
			Size:      ln.size,
			Baseline:  ln.ascent,
			Advance:   ln.advance,
			Color:     ln.color,
			Underline: ln.underline,
		}
		r := compositor.Rect{X: 24, Y: y, Width: ln.advance, Height: lineHeight}
		c.DrawGlyphs(r, 0, style, slices.Values(ln.glyphs))
		y += lineHeight + 8
	}
}
