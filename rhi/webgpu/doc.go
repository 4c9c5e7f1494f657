// Package webgpu registers the WebGPU render backend with package rhi.
//
// Importing the package for side effects makes rhi.KindWebGPU available:
//
//	import _ "github.com/gogpu/framegraph/rhi/webgpu"
//
//	c, err := rhi.Init(rhi.FlagWebGPU|rhi.FlagSoftware, rhi.WithResolution(1280, 720))
//
// The backend runs on gogpu/wgpu and uses whichever HAL backend the
// platform provides (Vulkan, Metal, DX12, GLES or the software rasterizer).
// A host application that already owns a wgpu device passes it with
// rhi.WithDeviceProvider; the backend then never releases it.
package webgpu
