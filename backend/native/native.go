package native

import (
	"fmt"

	"github.com/gogpu/compositor/backend"
	"github.com/gogpu/compositor/imagecache"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// init registers the native backend on package import.
func init() {
	backend.Register(backend.BackendNative, func() backend.RenderBackend {
		return New()
	})
}

// Backend renders display lists with a HAL device.
//
// Backend is not safe for concurrent use.
type Backend struct {
	// owned devices are destroyed on Close
	owned    bool
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string

	initialized bool

	pages      map[imagecache.TextureID]*page
	pipes      *pipelineSet
	bindGroups map[imagecache.TextureID]hal.BindGroup

	target      hal.Texture
	targetView  hal.TextureView
	targetW     uint32
	targetH     uint32
	vertexBuf   gpuBuffer
	indexBuf    gpuBuffer
	uniformBuf  hal.Buffer
	solidGroup  hal.BindGroup
	lastSubmit  uint64
	pendingCmds []pendingCmd
}

// New creates a backend that opens its own device on Init.
func New() *Backend {
	return &Backend{
		pages:      make(map[imagecache.TextureID]*page),
		bindGroups: make(map[imagecache.TextureID]hal.BindGroup),
	}
}

// NewWithDevice creates a backend drawing with a device owned by the
// caller. Close releases the backend's resources but not the device.
func NewWithDevice(device hal.Device, queue hal.Queue) *Backend {
	b := New()
	b.device = device
	b.queue = queue
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendNative
}

// Adapter returns the name of the adapter opened by Init, or "" for a
// device supplied through NewWithDevice.
func (b *Backend) Adapter() string {
	return b.adapter
}

// Init opens a device if none was supplied and creates the pipelines.
func (b *Backend) Init() error {
	if b.initialized {
		return nil
	}
	if b.device == nil {
		if err := b.openDevice(); err != nil {
			return err
		}
	}

	pipes, err := newPipelineSet(b.device)
	if err != nil {
		b.releaseDevice()
		return err
	}
	b.pipes = pipes

	if err := b.createGlobals(); err != nil {
		b.pipes.destroy(b.device)
		b.pipes = nil
		b.releaseDevice()
		return err
	}

	b.initialized = true
	return nil
}

// openDevice selects the best registered HAL backend and opens its first
// hardware adapter.
func (b *Backend) openDevice() error {
	api, err := hal.SelectBestBackend()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("open device: %w", err)
	}

	b.owned = true
	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.adapter = selected.Info.Name
	backend.Logger().Info("native: device opened", "adapter", selected.Info.Name, "backend", api.Variant())
	return nil
}

func (b *Backend) releaseDevice() {
	if !b.owned {
		return
	}
	if b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
	}
	b.device, b.queue, b.instance = nil, nil, nil
	b.owned = false
}

// Close waits for the GPU and releases every resource. A device opened
// by Init is destroyed as well.
func (b *Backend) Close() {
	if !b.initialized {
		return
	}
	b.sync()

	for id := range b.pages {
		b.destroyPage(id)
	}
	b.destroyTarget()
	b.vertexBuf.destroy(b.device)
	b.indexBuf.destroy(b.device)
	if b.solidGroup != nil {
		b.device.DestroyBindGroup(b.solidGroup)
		b.solidGroup = nil
	}
	if b.uniformBuf != nil {
		b.device.DestroyBuffer(b.uniformBuf)
		b.uniformBuf = nil
	}
	b.pipes.destroy(b.device)
	b.pipes = nil

	b.releaseDevice()
	b.initialized = false
}

// ApplyEvent applies one texture page event.
func (b *Backend) ApplyEvent(ev imagecache.TextureEvent) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	switch ev.Kind {
	case imagecache.EventCreate:
		return b.createPage(ev)
	case imagecache.EventUpdate:
		return b.updatePage(ev)
	case imagecache.EventDestroy:
		if _, ok := b.pages[ev.Texture]; !ok {
			return fmt.Errorf("%w: %d", backend.ErrUnknownTexture, ev.Texture)
		}
		// The last frame may still sample the page.
		b.sync()
		b.destroyPage(ev.Texture)
		return nil
	}
	return fmt.Errorf("native: unknown event kind %d", ev.Kind)
}

// Pages returns the number of live texture pages.
func (b *Backend) Pages() int {
	return len(b.pages)
}
