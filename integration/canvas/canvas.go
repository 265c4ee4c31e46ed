package canvas

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/backend"
	"github.com/gogpu/compositor/backend/software"
	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("canvas: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("canvas: invalid dimensions")

	// ErrNilCompositor is returned when a nil Compositor is passed.
	ErrNilCompositor = errors.New("canvas: nil compositor")

	// ErrInvalidRenderer is returned when the drawer has no texture creator.
	ErrInvalidRenderer = errors.New("canvas: drawer has no gpucontext.TextureCreator")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

func destroy(tex gpucontext.Texture) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}

// Canvas renders compositor frames into a GPU texture.
//
// Canvas is NOT safe for concurrent use.
type Canvas struct {
	comp  *compositor.Compositor
	soft  *software.Backend
	dl    batch.DisplayList
	clear gputypes.Color

	texture     gpucontext.Texture
	oldTexture  gpucontext.Texture // awaiting deferred destruction
	dirty       bool               // needs GPU upload
	sizeChanged bool               // texture must be recreated
	width       int
	height      int
	closed      bool
}

// New creates a width x height canvas drawing with comp.
func New(comp *compositor.Compositor, width, height int) (*Canvas, error) {
	if comp == nil {
		return nil, ErrNilCompositor
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}

	soft := software.New()
	if err := soft.Init(); err != nil {
		return nil, err
	}
	if err := soft.Resize(width, height); err != nil {
		return nil, err
	}
	return &Canvas{
		comp:   comp,
		soft:   soft,
		clear:  gputypes.ColorTransparent,
		width:  width,
		height: height,
		dirty:  true,
	}, nil
}

// SetClearColor sets the color each frame starts from. The default is
// transparent.
func (c *Canvas) SetClearColor(col gputypes.Color) {
	c.clear = col
}

// Compositor returns the compositor the canvas draws with.
func (c *Canvas) Compositor() *compositor.Compositor {
	return c.comp
}

// Size returns the canvas width and height in pixels.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// IsDirty reports whether the canvas has a frame not yet uploaded.
func (c *Canvas) IsDirty() bool {
	return c.dirty
}

// Draw records one frame with fn and renders it into the canvas.
func (c *Canvas) Draw(fn func(*compositor.Compositor)) error {
	if c.closed {
		return ErrCanvasClosed
	}
	c.comp.Begin()
	fn(c.comp)

	var applyErr error
	c.comp.Finish(&c.dl, backend.Visitor(c.soft, &applyErr))
	if applyErr != nil {
		return applyErr
	}
	if err := c.soft.Render(&c.dl, c.clear); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// Image returns the last rendered frame. Pixels are premultiplied RGBA.
func (c *Canvas) Image() *image.RGBA {
	return c.soft.Target()
}

// Resize changes the canvas dimensions. The next Draw renders at the new
// size and the texture is recreated on the next Flush.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.width == width && c.height == height {
		return nil
	}
	if err := c.soft.Resize(width, height); err != nil {
		return fmt.Errorf("canvas: resize failed: %w", err)
	}
	c.width, c.height = width, height
	c.sizeChanged = true
	c.dirty = true
	return nil
}

// Flush uploads the last frame to the GPU if it changed and returns the
// texture holding it. The texture is created with creator on first use
// and after a resize.
func (c *Canvas) Flush(creator gpucontext.TextureCreator) (gpucontext.Texture, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	// The old texture may still be referenced by in-flight command
	// buffers; it is destroyed once its replacement has been created.
	if c.sizeChanged {
		if c.texture != nil {
			if c.oldTexture != nil {
				destroy(c.oldTexture)
			}
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}

	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}
	data := c.soft.Target().Pix

	if c.texture != nil {
		if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(data); err != nil {
				return nil, fmt.Errorf("canvas: texture update failed: %w", err)
			}
			c.dirty = false
			return c.texture, nil
		}
		// Not updatable: replace it.
		c.oldTexture, c.texture = c.texture, nil
	}

	if creator == nil {
		return nil, ErrInvalidRenderer
	}
	tex, err := creator.NewTextureFromRGBA(c.width, c.height, data)
	if err != nil {
		return nil, fmt.Errorf("canvas: NewTextureFromRGBA failed: %w", err)
	}
	// Frames are premultiplied; gogpu picks the matching blend state.
	if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(true)
	}
	c.texture = tex
	if c.oldTexture != nil {
		destroy(c.oldTexture)
		c.oldTexture = nil
	}
	c.dirty = false
	return tex, nil
}

// Texture returns the current GPU texture without flushing, or nil.
func (c *Canvas) Texture() gpucontext.Texture {
	return c.texture
}

// Close releases the textures and the software backend.
// Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.oldTexture != nil {
		destroy(c.oldTexture)
		c.oldTexture = nil
	}
	if c.texture != nil {
		destroy(c.texture)
		c.texture = nil
	}
	c.soft.Close()
	return nil
}
