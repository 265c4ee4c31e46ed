// Package native draws display lists on the GPU through the gogpu/wgpu
// hardware abstraction layer.
//
// Texture pages become sampled textures updated with Queue.WriteTexture.
// Each batch kind has its own render pipeline built from the WGSL sources
// in package batch, compiled to SPIR-V with gogpu/naga. Frames render
// into an offscreen RGBA8Unorm target that can be read back with
// ReadPixels.
//
// The backend opens its own device on Init, or uses one supplied by the
// host application through NewWithDevice:
//
//	b := native.NewWithDevice(device, queue)
//	if err := b.Init(); err != nil {
//		return err
//	}
//	defer b.Close()
//
// Importing the package registers it as backend.BackendNative.
package native
