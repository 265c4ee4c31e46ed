package canvas

import "github.com/gogpu/gpucontext"

// RenderTo uploads the last frame and draws it at (0, 0).
//
// Example:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    cv.RenderTo(dc.AsTextureDrawer())
//	})
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToPosition(dc, 0, 0)
}

// RenderToPosition uploads the last frame and draws it with its top-left
// corner at (x, y).
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	tex, err := c.Flush(dc.TextureCreator())
	if err != nil {
		return err
	}
	return dc.DrawTexture(tex, x, y)
}
