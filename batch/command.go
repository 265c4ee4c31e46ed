// Package batch compiles draw commands into texture-grouped GPU batches.
//
// A Manager collects commands for one frame in submission order. Compile
// turns them into a DisplayList: one shared vertex and index buffer plus a
// list of batches, each naming the pipeline kind and texture to bind.
// Consecutive commands with the same kind and texture share a batch;
// commands are never reordered, so the caller controls painter's order.
//
// # Example
//
//	var m batch.Manager
//	m.AddRect(batch.Rect{X: 0, Y: 0, Width: 100, Height: 20}, 0, bg)
//	m.AddMask(glyphRect, 0, fg, page, uv)
//
//	var dl batch.DisplayList
//	m.Compile(&dl)
//	for _, b := range dl.Batches {
//		// bind PipelineFor(b.Kind) and b.Texture, draw b.IndexCount indices
//	}
package batch

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Kind identifies the primitive kind of a command.
type Kind uint8

const (
	KindRect  Kind = iota // Solid color fill
	KindImage             // Textured rectangle (color page)
	KindMask              // Alpha mask tinted with the command color
)

// kindNames maps Kind values to their string representation.
var kindNames = [...]string{
	KindRect:  "Rect",
	KindImage: "Image",
	KindMask:  "Mask",
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// TextureID identifies the texture a command samples. NoTexture is used by
// solid fills.
type TextureID uint32

// NoTexture is the texture of commands that sample nothing.
const NoTexture TextureID = 0

// Rect is an axis-aligned rectangle in target pixels.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// IsEmpty reports whether the rectangle covers no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// String returns a debug representation of the rectangle.
func (r Rect) String() string {
	return fmt.Sprintf("Rect(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

// UV holds normalized texture coordinates.
type UV struct {
	U0, V0, U1, V1 float32
}

// Command is one recorded draw primitive.
type Command struct {
	Kind    Kind
	Rect    Rect
	Depth   float32
	Color   gputypes.Color
	Texture TextureID
	UV      UV
}

// groupKey returns the key consecutive commands must share to be batched.
type groupKey struct {
	kind    Kind
	texture TextureID
}

func (c *Command) key() groupKey {
	return groupKey{kind: c.Kind, texture: c.Texture}
}
