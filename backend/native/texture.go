package native

import (
	"fmt"

	"github.com/gogpu/compositor/backend"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// page is a texture page resident on the GPU.
type page struct {
	tex    hal.Texture
	view   hal.TextureView
	format gputypes.TextureFormat
	width  uint32
	height uint32
}

// sampledFormat reports whether pages of format f can be sampled by the
// batch pipelines.
func sampledFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatR8Unorm,
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return true
	}
	return false
}

func (b *Backend) createPage(ev imagecache.TextureEvent) error {
	if _, ok := b.pages[ev.Texture]; ok {
		return fmt.Errorf("native: texture %d already exists", ev.Texture)
	}
	if !sampledFormat(ev.Format) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ev.Format)
	}
	if ev.Size.Width == 0 || ev.Size.Height == 0 {
		return fmt.Errorf("%w: page %d is %dx%d", ErrInvalidDimensions, ev.Texture, ev.Size.Width, ev.Size.Height)
	}

	label := fmt.Sprintf("compositor_page_%d", ev.Texture)
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: ev.Size.Width, Height: ev.Size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        ev.Format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", label, err)
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label + "_view",
		Format:          ev.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return fmt.Errorf("create %s view: %w", label, err)
	}

	b.pages[ev.Texture] = &page{
		tex:    tex,
		view:   view,
		format: ev.Format,
		width:  ev.Size.Width,
		height: ev.Size.Height,
	}
	backend.Logger().Debug("native: page created", "texture", ev.Texture,
		"width", ev.Size.Width, "height", ev.Size.Height, "format", ev.Format)
	return nil
}

func (b *Backend) updatePage(ev imagecache.TextureEvent) error {
	p, ok := b.pages[ev.Texture]
	if !ok {
		return fmt.Errorf("%w: %d", backend.ErrUnknownTexture, ev.Texture)
	}
	w, h := ev.Region.Width, ev.Region.Height
	if ev.Origin.X+w > p.width || ev.Origin.Y+h > p.height {
		return fmt.Errorf("native: update %dx%d at %d,%d outside page %d", w, h, ev.Origin.X, ev.Origin.Y, ev.Texture)
	}
	if w == 0 || h == 0 {
		return nil
	}
	if uint64(len(ev.Data)) < uint64(ev.BytesPerRow)*uint64(h-1)+uint64(w)*uint64(bytesPerTexel(p.format)) {
		return fmt.Errorf("native: short update data for page %d", ev.Texture)
	}

	// WriteTexture may overlap with the previous frame on backends that
	// copy immediately.
	b.sync()
	err := b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture: p.tex,
			Origin:  hal.Origin3D{X: ev.Origin.X, Y: ev.Origin.Y},
			Aspect:  gputypes.TextureAspectAll,
		},
		ev.Data,
		&hal.ImageDataLayout{BytesPerRow: ev.BytesPerRow, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("write page %d: %w", ev.Texture, err)
	}
	return nil
}

func (b *Backend) destroyPage(id imagecache.TextureID) {
	p, ok := b.pages[id]
	if !ok {
		return
	}
	if g, ok := b.bindGroups[id]; ok {
		b.device.DestroyBindGroup(g)
		delete(b.bindGroups, id)
	}
	b.device.DestroyTextureView(p.view)
	b.device.DestroyTexture(p.tex)
	delete(b.pages, id)
	backend.Logger().Debug("native: page destroyed", "texture", id)
}

// bindGroupFor returns the textured bind group of page id, creating it
// on first use.
func (b *Backend) bindGroupFor(id imagecache.TextureID) (hal.BindGroup, error) {
	if g, ok := b.bindGroups[id]; ok {
		return g, nil
	}
	p, ok := b.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", backend.ErrUnknownTexture, id)
	}
	g, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  fmt.Sprintf("compositor_page_%d_group", id),
		Layout: b.pipes.texturedLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: b.uniformBuf.NativeHandle(), Size: globalsSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: p.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: b.pipes.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group for page %d: %w", id, err)
	}
	b.bindGroups[id] = g
	return g, nil
}

func bytesPerTexel(f gputypes.TextureFormat) int {
	if f == gputypes.TextureFormatR8Unorm {
		return 1
	}
	return 4
}
