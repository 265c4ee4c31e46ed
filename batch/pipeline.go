package batch

import (
	_ "embed"

	"github.com/gogpu/gputypes"
)

// Embedded WGSL shader sources.

//go:embed shaders/solid.wgsl
var solidShaderSource string

//go:embed shaders/image.wgsl
var imageShaderSource string

//go:embed shaders/mask.wgsl
var maskShaderSource string

// GlobalsSize is the byte size of the uniform buffer shared by all batch
// shaders: viewport (vec2<f32>) plus padding to 16 bytes.
const GlobalsSize = 16

// Pipeline describes the render pipeline a batch kind is drawn with.
type Pipeline struct {
	Kind  Kind
	Label string

	// Source is the WGSL shader with vs_main and fs_main entry points.
	Source        string
	VertexEntry   string
	FragmentEntry string

	// Sampled is the page format the pipeline samples, or
	// TextureFormatUndefined for pipelines without a texture binding.
	Sampled gputypes.TextureFormat

	Blend    gputypes.BlendState
	Topology gputypes.PrimitiveTopology
}

// Textured reports whether the pipeline binds a page texture and sampler.
func (p *Pipeline) Textured() bool {
	return p.Sampled != gputypes.TextureFormatUndefined
}

// PipelineFor returns the pipeline description for k.
func PipelineFor(k Kind) Pipeline {
	p := Pipeline{
		Kind:          k,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Blend:         gputypes.BlendStatePremultiplied(),
		Topology:      gputypes.PrimitiveTopologyTriangleList,
	}
	switch k {
	case KindRect:
		p.Label = "batch_solid"
		p.Source = solidShaderSource
		p.Sampled = gputypes.TextureFormatUndefined
	case KindImage:
		p.Label = "batch_image"
		p.Source = imageShaderSource
		p.Sampled = gputypes.TextureFormatRGBA8Unorm
	case KindMask:
		p.Label = "batch_mask"
		p.Source = maskShaderSource
		p.Sampled = gputypes.TextureFormatR8Unorm
	}
	return p
}

// Pipelines returns the descriptions of all batch pipelines.
func Pipelines() []Pipeline {
	return []Pipeline{
		PipelineFor(KindRect),
		PipelineFor(KindImage),
		PipelineFor(KindMask),
	}
}

// VertexLayout returns the vertex buffer layout shared by all batch
// pipelines. Matches VertexInput in the batch shaders:
//
//	location 0: position (vec3<f32>)
//	location 1: tex_coord (vec2<f32>)
//	location 2: color (vec4<f32>)
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1}, // tex_coord
				{Format: gputypes.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 2}, // color
			},
		},
	}
}
