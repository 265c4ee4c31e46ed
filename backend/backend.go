package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrUnknownTexture is returned when an event or batch references a
	// texture page the backend has not seen created.
	ErrUnknownTexture = errors.New("backend: unknown texture")

	// ErrNoTarget is returned by Render before the first Resize.
	ErrNoTarget = errors.New("backend: no render target")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU backend (x/image/draw).
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu HAL).
	BackendNative = "native"
)

// EventSink applies texture page events.
type EventSink interface {
	// ApplyEvent applies one event. Events must be applied in the order
	// the image cache emitted them.
	ApplyEvent(ev imagecache.TextureEvent) error
}

// RenderBackend draws compiled display lists.
//
// A frame is applied in two steps: every texture event delivered by
// Compositor.Finish goes through ApplyEvent, then the display list is
// drawn with Render.
type RenderBackend interface {
	EventSink

	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init initializes the backend.
	// This should be called before any other operation.
	Init() error

	// Close releases all backend resources, including texture pages.
	// The backend should not be used after Close is called.
	Close()

	// Resize sets the render target size in pixels.
	Resize(width, height int) error

	// Render clears the target to clear and draws dl in batch order.
	Render(dl *batch.DisplayList, clear gputypes.Color) error
}

// Visitor adapts sink to the event callback taken by Compositor.Finish.
// The first error is stored in *errp and no further events are applied:
// later events may depend on the one that failed.
func Visitor(sink EventSink, errp *error) func(imagecache.TextureEvent) {
	return func(ev imagecache.TextureEvent) {
		if *errp != nil {
			return
		}
		if err := sink.ApplyEvent(ev); err != nil {
			*errp = fmt.Errorf("apply %s: %w", ev, err)
		}
	}
}
