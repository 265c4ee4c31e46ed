package batch

import (
	"encoding/binary"
	"math"
)

// VertexStride is the byte stride per vertex.
// Layout per vertex:
//
//	position  (vec3<f32>) = 12 bytes (location 0)
//	tex_coord (vec2<f32>) =  8 bytes (location 1)
//	color     (vec4<f32>) = 16 bytes (location 2)
//
// Total = 36 bytes per vertex.
const VertexStride = 36

// Vertex is one corner of a command quad. Matches VertexInput in the
// batch shaders.
type Vertex struct {
	// X, Y in target pixels, Z is the command depth.
	X, Y, Z float32

	// U, V in normalized page coordinates (zero for solid fills).
	U, V float32

	// Color is premultiplied RGBA.
	Color [4]float32
}

// Batch is a run of consecutive commands drawn with one pipeline and
// texture binding.
type Batch struct {
	Kind    Kind
	Texture TextureID

	// FirstIndex and IndexCount select the batch's range of
	// DisplayList.Indices.
	FirstIndex uint32
	IndexCount uint32

	// Quads is the number of commands in the batch.
	Quads int
}

// DisplayList is the compiled output of a frame.
type DisplayList struct {
	Batches  []Batch
	Vertices []Vertex
	Indices  []uint32
}

// Reset clears the list, keeping the allocated storage.
func (dl *DisplayList) Reset() {
	dl.Batches = dl.Batches[:0]
	dl.Vertices = dl.Vertices[:0]
	dl.Indices = dl.Indices[:0]
}

// IsEmpty reports whether the list draws nothing.
func (dl *DisplayList) IsEmpty() bool {
	return len(dl.Batches) == 0
}

// BatchIndices returns the index range of b.
func (dl *DisplayList) BatchIndices(b *Batch) []uint32 {
	return dl.Indices[b.FirstIndex : b.FirstIndex+b.IndexCount]
}

// VertexData serializes the vertices into little-endian bytes suitable for
// GPU upload.
func (dl *DisplayList) VertexData() []byte {
	if len(dl.Vertices) == 0 {
		return nil
	}
	data := make([]byte, len(dl.Vertices)*VertexStride)
	off := 0
	for i := range dl.Vertices {
		v := &dl.Vertices[i]
		putFloats(data[off:], v.X, v.Y, v.Z, v.U, v.V,
			v.Color[0], v.Color[1], v.Color[2], v.Color[3])
		off += VertexStride
	}
	return data
}

// IndexData serializes the indices into little-endian bytes.
func (dl *DisplayList) IndexData() []byte {
	data := make([]byte, len(dl.Indices)*4)
	for i, idx := range dl.Indices {
		binary.LittleEndian.PutUint32(data[i*4:], idx)
	}
	return data
}

func putFloats(buf []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
