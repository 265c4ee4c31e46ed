package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxImageSide bounds demo images; larger ones are scaled down.
const maxImageSide = 512

// loadImage decodes an image file into premultiplied RGBA.
func loadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if s := max(w, h); s > maxImageSide {
		w = max(1, w*maxImageSide/s)
		h = max(1, h*maxImageSide/s)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Rect, src, b, draw.Src, nil)
	compositor.Logger().Debug("compdemo: image loaded", "path", path, "format", format, "size", fmt.Sprintf("%dx%d", w, h))
	return dst, nil
}

// addImage caches img as a non-evictable RGBA image.
func addImage(c *compositor.Compositor, img *image.RGBA) (imagecache.ImageID, bool) {
	return c.AddImage(imagecache.AddImage{
		Format:   gputypes.TextureFormatRGBA8Unorm,
		Width:    img.Rect.Dx(),
		Height:   img.Rect.Dy(),
		HasAlpha: !img.Opaque(),
		Data:     imagecache.Borrowed(img.Pix),
	})
}
