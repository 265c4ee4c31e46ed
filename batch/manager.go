package batch

import "github.com/gogpu/gputypes"

// Manager accumulates the commands of one frame.
//
// The zero value is ready to use. Manager is not safe for concurrent use.
type Manager struct {
	commands []Command
}

// Reset discards all commands, keeping the allocated storage.
func (m *Manager) Reset() {
	m.commands = m.commands[:0]
}

// Len returns the number of recorded commands.
func (m *Manager) Len() int {
	return len(m.commands)
}

// Commands returns the recorded commands. The slice is valid until the
// next Reset or Add call.
func (m *Manager) Commands() []Command {
	return m.commands
}

// Add records a command. Empty rectangles are dropped.
func (m *Manager) Add(c Command) {
	if c.Rect.IsEmpty() {
		return
	}
	if c.Kind == KindRect {
		c.Texture = NoTexture
		c.UV = UV{}
	}
	m.commands = append(m.commands, c)
}

// AddRect records a solid fill.
func (m *Manager) AddRect(r Rect, depth float32, color gputypes.Color) {
	m.Add(Command{Kind: KindRect, Rect: r, Depth: depth, Color: color})
}

// AddImage records a textured rectangle sampling uv from tex.
func (m *Manager) AddImage(r Rect, depth float32, color gputypes.Color, tex TextureID, uv UV) {
	m.Add(Command{Kind: KindImage, Rect: r, Depth: depth, Color: color, Texture: tex, UV: uv})
}

// AddMask records an alpha-mask rectangle sampling uv from tex, tinted
// with color.
func (m *Manager) AddMask(r Rect, depth float32, color gputypes.Color, tex TextureID, uv UV) {
	m.Add(Command{Kind: KindMask, Rect: r, Depth: depth, Color: color, Texture: tex, UV: uv})
}

// Compile writes the recorded commands to dl, replacing its contents.
//
// Each command becomes a quad of 4 vertices and 6 indices. A new batch
// starts whenever the kind or texture differs from the previous command.
func (m *Manager) Compile(dl *DisplayList) {
	dl.Reset()
	if len(m.commands) == 0 {
		return
	}

	dl.Vertices = grow(dl.Vertices, len(m.commands)*4)
	dl.Indices = grow(dl.Indices, len(m.commands)*6)

	var cur *Batch
	var curKey groupKey
	for i := range m.commands {
		c := &m.commands[i]
		if k := c.key(); cur == nil || k != curKey {
			dl.Batches = append(dl.Batches, Batch{
				Kind:       c.Kind,
				Texture:    c.Texture,
				FirstIndex: uint32(len(dl.Indices)), //nolint:gosec // bounded by command count
			})
			cur = &dl.Batches[len(dl.Batches)-1]
			curKey = k
		}
		appendQuad(dl, c)
		cur.IndexCount += 6
		cur.Quads++
	}
}

// appendQuad emits the vertices and indices of one command.
func appendQuad(dl *DisplayList, c *Command) {
	base := uint32(len(dl.Vertices)) //nolint:gosec // bounded by command count
	x0, y0 := c.Rect.X, c.Rect.Y
	x1, y1 := x0+c.Rect.Width, y0+c.Rect.Height
	col := premultiply(c.Color)
	uv := c.UV

	dl.Vertices = append(dl.Vertices,
		Vertex{X: x0, Y: y0, Z: c.Depth, U: uv.U0, V: uv.V0, Color: col}, // top-left
		Vertex{X: x1, Y: y0, Z: c.Depth, U: uv.U1, V: uv.V0, Color: col}, // top-right
		Vertex{X: x1, Y: y1, Z: c.Depth, U: uv.U1, V: uv.V1, Color: col}, // bottom-right
		Vertex{X: x0, Y: y1, Z: c.Depth, U: uv.U0, V: uv.V1, Color: col}, // bottom-left
	)
	// Two triangles: 0,1,2 and 2,3,0.
	dl.Indices = append(dl.Indices, base, base+1, base+2, base+2, base+3, base)
}

// premultiply converts a straight-alpha color to premultiplied float32.
func premultiply(c gputypes.Color) [4]float32 {
	a := clamp01(c.A)
	return [4]float32{
		float32(clamp01(c.R) * a),
		float32(clamp01(c.G) * a),
		float32(clamp01(c.B) * a),
		float32(a),
	}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// grow ensures s has room for n more elements.
func grow[T any](s []T, n int) []T {
	if cap(s)-len(s) >= n {
		return s
	}
	out := make([]T, len(s), len(s)+n)
	copy(out, s)
	return out
}
