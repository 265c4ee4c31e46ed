// Package backend defines the interface between the compositor and the
// code that owns texture pages and draws display lists.
//
// A backend consumes the two outputs of a frame in order: the texture
// events drained by Compositor.Finish, then the compiled display list.
//
//	var err error
//	c.Finish(&dl, backend.Visitor(b, &err))
//	if err != nil {
//		return err
//	}
//	if err := b.Render(&dl, gputypes.ColorWhite); err != nil {
//		return err
//	}
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// Importing a backend package registers it:
//
//	import _ "github.com/gogpu/compositor/backend/software"
//	import _ "github.com/gogpu/compositor/backend/native"
//
// # Backend Selection
//
// Use InitDefault to get the best backend that initializes, or Get to
// request a specific backend by name:
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
// # Available Backends
//
//   - "native": GPU rendering through the gogpu/wgpu HAL
//   - "software": CPU rendering with golang.org/x/image/draw (always available)
package backend
