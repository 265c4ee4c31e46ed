package imagecache

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
)

// Epoch is the per-frame logical clock used for eviction.
// It is advanced exactly once per frame by the owner of the cache and
// never decreases.
type Epoch uint64

// ImageID identifies an image resident in the cache.
//
// Layout: [alpha (1 bit)][generation (31 bits)][slot (32 bits)].
// The generation makes ids of evicted images stale: a slot reused by a
// later allocation carries a different generation. The zero ImageID is
// never returned by Allocate.
type ImageID uint64

const (
	idSlotBits  = 32
	idGenMask   = 1<<31 - 1
	idAlphaFlag = 1 << 63
)

func makeImageID(slot uint32, gen uint32, alpha bool) ImageID {
	id := ImageID(uint64(gen&idGenMask)<<idSlotBits | uint64(slot))
	if alpha {
		id |= idAlphaFlag
	}
	return id
}

func (id ImageID) slot() uint32 { return uint32(id) }

func (id ImageID) generation() uint32 {
	return uint32(uint64(id)>>idSlotBits) & idGenMask
}

// HasAlpha reports whether the image was registered with an alpha channel.
// Answered from the id itself, without a cache lookup.
func (id ImageID) HasAlpha() bool {
	return id&idAlphaFlag != 0
}

// String returns a debug representation of the id.
func (id ImageID) String() string {
	return fmt.Sprintf("Image(%d#%d)", id.slot(), id.generation())
}

// pixelsKind tags the ownership of a pixel payload.
type pixelsKind uint8

const (
	pixelsBorrowed pixelsKind = iota
	pixelsOwned
)

// Pixels is a pixel payload handed to Allocate.
//
// A borrowed payload is only valid for the duration of the Allocate call
// and is copied before it returns. An owned payload is taken over by the
// cache; the caller must not modify it afterwards.
type Pixels struct {
	kind pixelsKind
	data []byte
}

// Borrowed wraps caller-owned pixel data valid only for one Allocate call.
func Borrowed(data []byte) Pixels {
	return Pixels{kind: pixelsBorrowed, data: data}
}

// Owned wraps pixel data whose ownership passes to the cache.
func Owned(data []byte) Pixels {
	return Pixels{kind: pixelsOwned, data: data}
}

// Len returns the payload size in bytes.
func (p Pixels) Len() int { return len(p.data) }

// take returns the first n bytes of the payload as a slice the cache may
// keep. Borrowed data is copied.
func (p Pixels) take(n int) []byte {
	if p.kind == pixelsOwned {
		return p.data[:n:n]
	}
	out := make([]byte, n)
	copy(out, p.data[:n])
	return out
}

// AddImage is a request to cache a pixel buffer.
type AddImage struct {
	// Format is the pixel format. Supported: R8Unorm (alpha masks),
	// RGBA8Unorm, RGBA8UnormSrgb, BGRA8Unorm, BGRA8UnormSrgb.
	Format gputypes.TextureFormat

	// Width and Height are the image dimensions in pixels.
	Width, Height int

	// HasAlpha is embedded into the returned ImageID.
	HasAlpha bool

	// Evictable images are reclaimed once unused for longer than the
	// retention window. Non-evictable images stay until Deallocate.
	Evictable bool

	// Data holds Width*Height tightly packed pixels.
	Data Pixels
}

// UV holds normalized texture coordinates of an image inside its page.
type UV struct {
	U0, V0, U1, V1 float32
}

// ImageLocation is the position of a resident image inside a texture page.
// It is only valid for the epoch in which it was obtained.
type ImageLocation struct {
	// Texture is the page holding the image.
	Texture TextureID

	// Format is the pixel format of the page.
	Format gputypes.TextureFormat

	// Pixels is the image rectangle in page pixel space.
	Pixels image.Rectangle

	// UV is the same rectangle in normalized page coordinates.
	UV UV
}

// bytesPerPixel returns the texel size of the formats the cache accepts,
// or 0 for anything else.
func bytesPerPixel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return 4
	default:
		return 0
	}
}
