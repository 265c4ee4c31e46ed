package native

import (
	// Register the platform HAL backends (Vulkan, Metal, DX12, software)
	// so Init can open a device without a host application.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)
