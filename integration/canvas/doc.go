// Package canvas connects a Compositor to a gogpu window.
//
// A Canvas owns a compositor frame loop and a software backend. Each Draw
// records one frame, applies its texture events and renders the display
// list on the CPU; RenderTo uploads the result to a texture created by the
// host's gpucontext.TextureCreator and draws it:
//
//	cv, err := canvas.New(comp, 800, 600)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cv.Close()
//
//	app.OnDraw(func(dc *gogpu.Context) {
//		_ = cv.Draw(func(c *compositor.Compositor) {
//			c.DrawRect(compositor.Rect{Width: 800, Height: 600}, 0, gputypes.ColorWhite)
//			c.DrawGlyphs(line, 0, &style, glyphs)
//		})
//		_ = cv.RenderTo(dc.AsTextureDrawer())
//	})
//
// Only the gpucontext interfaces are used, so the package does not depend
// on gogpu itself. Hosts that can sample atlas pages directly should use
// backend/native instead.
package canvas
