package native

import (
	"fmt"

	"github.com/gogpu/compositor/backend"
	"github.com/gogpu/compositor/batch"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// targetFormat is the format of the offscreen render target.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

// globalsSize is the uniform buffer size in bytes.
const globalsSize = uint64(batch.GlobalsSize)

// pipelineSet holds the render pipelines of every batch kind and the
// layouts they share.
type pipelineSet struct {
	// Binding 0: globals (uniform buffer, vertex+fragment)
	solidLayout hal.BindGroupLayout
	// Binding 0: globals, 1: page texture, 2: sampler (fragment)
	texturedLayout hal.BindGroupLayout

	solidPipeLayout    hal.PipelineLayout
	texturedPipeLayout hal.PipelineLayout

	sampler   hal.Sampler
	shaders   []hal.ShaderModule
	pipelines map[batch.Kind]hal.RenderPipeline
}

func newPipelineSet(device hal.Device) (*pipelineSet, error) {
	s := &pipelineSet{pipelines: make(map[batch.Kind]hal.RenderPipeline, 3)}
	if err := s.create(device); err != nil {
		s.destroy(device)
		return nil, err
	}
	return s, nil
}

func (s *pipelineSet) create(device hal.Device) error {
	globals := gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}

	var err error
	s.solidLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "batch_solid_layout",
		Entries: []gputypes.BindGroupLayoutEntry{globals},
	})
	if err != nil {
		return fmt.Errorf("create batch_solid layout: %w", err)
	}

	s.texturedLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "batch_textured_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			globals,
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create batch_textured layout: %w", err)
	}

	s.solidPipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "batch_solid_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.solidLayout},
	})
	if err != nil {
		return fmt.Errorf("create batch_solid pipeline layout: %w", err)
	}
	s.texturedPipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "batch_textured_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.texturedLayout},
	})
	if err != nil {
		return fmt.Errorf("create batch_textured pipeline layout: %w", err)
	}

	// Linear filtering matches the software backend's bilinear scaling.
	s.sampler, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "batch_page_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create batch sampler: %w", err)
	}

	for _, desc := range batch.Pipelines() {
		if err := s.createPipeline(device, &desc); err != nil {
			return err
		}
	}
	return nil
}

func (s *pipelineSet) createPipeline(device hal.Device, desc *batch.Pipeline) error {
	shader, err := createShaderModule(device, desc.Label+"_shader", desc.Source)
	if err != nil {
		return err
	}
	s.shaders = append(s.shaders, shader)

	layout := s.solidPipeLayout
	if desc.Textured() {
		layout = s.texturedPipeLayout
	}
	blend := desc.Blend
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: desc.VertexEntry,
			Buffers:    batch.VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: desc.Topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create %s pipeline: %w", desc.Label, err)
	}
	s.pipelines[desc.Kind] = pipeline
	backend.Logger().Debug("native: pipeline created", "label", desc.Label)
	return nil
}

// destroy releases all pipeline resources in reverse creation order.
func (s *pipelineSet) destroy(device hal.Device) {
	if s == nil || device == nil {
		return
	}
	for k, p := range s.pipelines {
		device.DestroyRenderPipeline(p)
		delete(s.pipelines, k)
	}
	for _, m := range s.shaders {
		device.DestroyShaderModule(m)
	}
	s.shaders = nil
	if s.sampler != nil {
		device.DestroySampler(s.sampler)
		s.sampler = nil
	}
	if s.texturedPipeLayout != nil {
		device.DestroyPipelineLayout(s.texturedPipeLayout)
		s.texturedPipeLayout = nil
	}
	if s.solidPipeLayout != nil {
		device.DestroyPipelineLayout(s.solidPipeLayout)
		s.solidPipeLayout = nil
	}
	if s.texturedLayout != nil {
		device.DestroyBindGroupLayout(s.texturedLayout)
		s.texturedLayout = nil
	}
	if s.solidLayout != nil {
		device.DestroyBindGroupLayout(s.solidLayout)
		s.solidLayout = nil
	}
}
