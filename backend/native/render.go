package native

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"unsafe"

	"github.com/gogpu/compositor/backend"
	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment of texture to buffer copies.
const copyPitchAlignment = 256

// gpuBuffer is a buffer that grows to fit the largest frame seen.
type gpuBuffer struct {
	buf   hal.Buffer
	size  uint64
	label string
	usage gputypes.BufferUsage
}

// ensure makes the buffer at least n bytes, recreating it when smaller.
func (g *gpuBuffer) ensure(device hal.Device, n uint64) error {
	if g.buf != nil && g.size >= n {
		return nil
	}
	size := max(n, g.size*2, 4096)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: g.label,
		Size:  size,
		Usage: g.usage,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", g.label, err)
	}
	if g.buf != nil {
		device.DestroyBuffer(g.buf)
	}
	backend.Logger().Debug("native: buffer grown", "label", g.label, "from", g.size, "to", size)
	g.buf, g.size = buf, size
	return nil
}

func (g *gpuBuffer) destroy(device hal.Device) {
	if g.buf != nil {
		device.DestroyBuffer(g.buf)
		g.buf, g.size = nil, 0
	}
}

// pendingCmd is a submitted command buffer awaiting completion.
type pendingCmd struct {
	cmd     hal.CommandBuffer
	encoder hal.CommandEncoder
}

func (b *Backend) createGlobals() error {
	b.vertexBuf = gpuBuffer{label: "batch_vertices", usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst}
	b.indexBuf = gpuBuffer{label: "batch_indices", usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst}

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "batch_globals",
		Size:  globalsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create batch_globals: %w", err)
	}
	b.uniformBuf = buf

	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "batch_solid_group",
		Layout: b.pipes.solidLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: globalsSize}},
		},
	})
	if err != nil {
		b.device.DestroyBuffer(buf)
		b.uniformBuf = nil
		return fmt.Errorf("create batch_solid_group: %w", err)
	}
	b.solidGroup = group
	return nil
}

// sync waits for submitted work to finish and frees its command buffers.
// At most one frame is in flight: buffers and pages are rewritten in place.
func (b *Backend) sync() {
	if len(b.pendingCmds) == 0 {
		return
	}
	if b.queue.PollCompleted() < b.lastSubmit {
		if err := b.device.WaitIdle(); err != nil {
			backend.Logger().Warn("native: wait idle failed", "err", err)
		}
	}
	for _, p := range b.pendingCmds {
		b.device.FreeCommandBuffer(p.cmd)
		p.encoder.Destroy()
	}
	b.pendingCmds = b.pendingCmds[:0]
}

// Resize recreates the render target at width x height.
func (b *Backend) Resize(width, height int) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	limit := int(gputypes.DefaultLimits().MaxTextureDimension2D)
	if width <= 0 || height <= 0 || width > limit || height > limit {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	w, h := uint32(width), uint32(height) //nolint:gosec // bounded by limit
	if b.target != nil && b.targetW == w && b.targetH == h {
		return nil
	}

	b.sync()
	b.destroyTarget()

	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "compositor_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create compositor_target: %w", err)
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "compositor_target_view",
		Format:          targetFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return fmt.Errorf("create compositor_target view: %w", err)
	}

	b.target, b.targetView = tex, view
	b.targetW, b.targetH = w, h

	var globals [batch.GlobalsSize]byte
	binary.LittleEndian.PutUint32(globals[0:], math.Float32bits(float32(w)))
	binary.LittleEndian.PutUint32(globals[4:], math.Float32bits(float32(h)))
	if err := b.queue.WriteBuffer(b.uniformBuf, 0, globals[:]); err != nil {
		return fmt.Errorf("write batch_globals: %w", err)
	}
	return nil
}

func (b *Backend) destroyTarget() {
	if b.targetView != nil {
		b.device.DestroyTextureView(b.targetView)
		b.targetView = nil
	}
	if b.target != nil {
		b.device.DestroyTexture(b.target)
		b.target = nil
	}
	b.targetW, b.targetH = 0, 0
}

// Size returns the render target size, zero before Resize.
func (b *Backend) Size() (width, height int) {
	return int(b.targetW), int(b.targetH)
}

// Render clears the target and draws dl in one render pass.
func (b *Backend) Render(dl *batch.DisplayList, clearColor gputypes.Color) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if b.target == nil {
		return backend.ErrNoTarget
	}

	// Buffers are rewritten below and the pages bound per batch must exist.
	b.sync()
	groups := make([]hal.BindGroup, len(dl.Batches))
	for i := range dl.Batches {
		bt := &dl.Batches[i]
		if bt.Kind == batch.KindRect {
			groups[i] = b.solidGroup
			continue
		}
		g, err := b.bindGroupFor(imagecache.TextureID(bt.Texture))
		if err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}
		groups[i] = g
	}

	if !dl.IsEmpty() {
		vertices, indices := dl.VertexData(), dl.IndexData()
		if err := b.vertexBuf.ensure(b.device, uint64(len(vertices))); err != nil {
			return err
		}
		if err := b.indexBuf.ensure(b.device, uint64(len(indices))); err != nil {
			return err
		}
		if err := b.queue.WriteBuffer(b.vertexBuf.buf, 0, vertices); err != nil {
			return fmt.Errorf("write batch_vertices: %w", err)
		}
		if err := b.queue.WriteBuffer(b.indexBuf.buf, 0, indices); err != nil {
			return fmt.Errorf("write batch_indices: %w", err)
		}
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "compositor_frame"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("compositor_frame"); err != nil {
		encoder.Destroy()
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "compositor_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       b.targetView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: premultiplied(clearColor),
		}},
	})
	if !dl.IsEmpty() {
		rp.SetVertexBuffer(0, b.vertexBuf.buf, 0)
		rp.SetIndexBuffer(b.indexBuf.buf, gputypes.IndexFormatUint32, 0)
		bound := batch.Kind(255)
		for i := range dl.Batches {
			bt := &dl.Batches[i]
			if bt.Kind != bound {
				rp.SetPipeline(b.pipes.pipelines[bt.Kind])
				bound = bt.Kind
			}
			rp.SetBindGroup(0, groups[i], nil)
			rp.DrawIndexed(bt.IndexCount, 1, bt.FirstIndex, 0, 0)
		}
	}
	rp.End()

	return b.submit(encoder)
}

// submit ends encoding and queues the command buffer.
func (b *Backend) submit(encoder hal.CommandEncoder) error {
	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.Destroy()
		return fmt.Errorf("end encoding: %w", err)
	}
	index, err := b.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		b.device.FreeCommandBuffer(cmd)
		encoder.Destroy()
		return fmt.Errorf("submit: %w", err)
	}
	b.lastSubmit = index
	b.pendingCmds = append(b.pendingCmds, pendingCmd{cmd: cmd, encoder: encoder})
	return nil
}

// ReadPixels copies the render target back to the CPU. Pixels are
// premultiplied RGBA.
func (b *Backend) ReadPixels() (*image.RGBA, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if b.target == nil {
		return nil, backend.ErrNoTarget
	}
	w, h := b.targetW, b.targetH
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "compositor_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "compositor_readback"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("compositor_readback"); err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	encoder.CopyTextureToBuffer(b.target, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: b.target, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	if err := b.submit(encoder); err != nil {
		return nil, err
	}
	b.sync()

	mapping, err := b.device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	if mapping.Ptr == nil {
		_ = b.device.UnmapBuffer(staging)
		return nil, fmt.Errorf("map staging buffer: nil mapping")
	}
	defer func() { _ = b.device.UnmapBuffer(staging) }()
	data := unsafe.Slice((*byte)(mapping.Ptr), stagingSize) //nolint:gosec // mapped range

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := range int(h) {
		src := data[row*int(alignedBytesPerRow):]
		copy(img.Pix[row*img.Stride:row*img.Stride+int(bytesPerRow)], src[:bytesPerRow])
	}
	return img, nil
}

// premultiplied converts a straight-alpha clear color to the premultiplied
// form stored in the target.
func premultiplied(c gputypes.Color) gputypes.Color {
	a := min(max(c.A, 0), 1)
	return gputypes.Color{
		R: min(max(c.R, 0), 1) * a,
		G: min(max(c.G, 0), 1) * a,
		B: min(max(c.B, 0), 1) * a,
		A: a,
	}
}
