package imagecache

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// TextureID identifies one physical texture page backing the atlas.
type TextureID uint32

// EventKind identifies the type of a texture page lifecycle event.
type EventKind uint8

const (
	// EventCreate announces a new page. Size and Format are set.
	EventCreate EventKind = iota

	// EventUpdate uploads pixels into a sub-rectangle of a page.
	// Origin, Region, BytesPerRow and Data are set.
	EventUpdate

	// EventDestroy releases a page. No later event references it.
	EventDestroy
)

// eventKindNames maps EventKind values to their string representation.
var eventKindNames = [...]string{
	EventCreate:  "Create",
	EventUpdate:  "Update",
	EventDestroy: "Destroy",
}

// String returns the string representation of an EventKind.
func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "Unknown"
}

// TextureEvent is a page lifecycle notification for the GPU backend.
//
// Events must be applied strictly in emission order: a page is created
// before it is updated, updated before any draw sampling the region, and
// destroyed only after its last use.
type TextureEvent struct {
	Kind    EventKind
	Texture TextureID

	// Format is the page pixel format (all kinds).
	Format gputypes.TextureFormat

	// Size is the page size (EventCreate).
	Size gputypes.Extent3D

	// Origin and Region describe the updated sub-rectangle (EventUpdate).
	Origin gputypes.Origin3D
	Region gputypes.Extent3D

	// BytesPerRow is the row stride of Data (EventUpdate).
	BytesPerRow uint32

	// Data is the pixel payload (EventUpdate). The slice is owned by the
	// event; the cache does not modify it after emission.
	Data []byte
}

// String returns a debug representation of the event.
func (e TextureEvent) String() string {
	switch e.Kind {
	case EventCreate:
		return fmt.Sprintf("Create(tex=%d %dx%d %s)", e.Texture, e.Size.Width, e.Size.Height, e.Format)
	case EventUpdate:
		return fmt.Sprintf("Update(tex=%d at %d,%d %dx%d)", e.Texture, e.Origin.X, e.Origin.Y, e.Region.Width, e.Region.Height)
	default:
		return fmt.Sprintf("%s(tex=%d)", e.Kind, e.Texture)
	}
}
