//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/traceview"
)

//go:embed shaders/density.wgsl
var densityShaderWGSL string

// fenceTimeout bounds a single dispatch. A full-capacity tile is well
// under a millisecond of GPU work; hitting this means the device hung.
const fenceTimeout = 5 * time.Second

// params must match the Params struct in density.wgsl.
type params struct {
	ChunkSamples uint32
	TraceSamples uint32
	PixelCount   uint32
	W            uint32
	H            uint32
	ScaleY       float32
	Offset       float32
	_            uint32
}

// Renderer rasterizes density grids with a wgpu compute shader. All GPU
// buffers are allocated once at the maximum chunk and tile capacity, so
// a Render call performs no allocations beyond the result slice.
//
// A Renderer is owned by a single pipeline worker and is not safe for
// concurrent use.
type Renderer struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	owned    bool // false when the device came from SetDeviceProvider

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	paramsBuf  hal.Buffer
	inputBuf   hal.Buffer
	outputBuf  hal.Buffer
	stagingBuf hal.Buffer
	bindGroup  hal.BindGroup
}

var _ traceview.Renderer = (*Renderer)(nil)

// New creates a compute renderer on the best available adapter, or on
// the device shared via SetDeviceProvider. It returns an error when no
// compute-capable adapter exists; callers then fall back to the
// software backend.
func New() (*Renderer, error) {
	r := &Renderer{}

	if device, queue := sharedHAL(); device != nil {
		r.device = device
		r.queue = queue
	} else {
		if err := r.openDevice(); err != nil {
			return nil, err
		}
		r.owned = true
	}

	if err := r.createPipeline(); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.createBuffers(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	r.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("gpu: no adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("gpu: open device: %w", err)
	}
	r.device = openDev.Device
	r.queue = openDev.Queue
	traceview.Logger().Info("compute renderer initialized",
		"adapter", selected.Info.Name, "type", selected.Info.DeviceType)
	return nil
}

func (r *Renderer) createPipeline() error {
	// Compile through naga so shader errors surface here with line info
	// instead of as an opaque device loss inside the driver.
	spirvBytes, err := naga.Compile(densityShaderWGSL)
	if err != nil {
		return fmt.Errorf("gpu: compile density shader: %w", err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}

	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "density",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("gpu: create shader module: %w", err)
	}
	r.shader = shader

	bindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "density_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "density_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	pipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "density_pipeline", Layout: r.pipeLayout,
		Compute: hal.ComputeState{Module: r.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("gpu: create compute pipeline: %w", err)
	}
	r.pipeline = pipeline
	return nil
}

// createBuffers allocates the persistent GPU buffers at full capacity.
// Sizing them once for the largest possible tile trades a few tens of
// megabytes of device memory for allocation-free dispatches.
func (r *Renderer) createBuffers() error {
	paramsSize := uint64(unsafe.Sizeof(params{}))
	inputSize := uint64(traceview.MaxChunkSamples) * 4
	outputSize := uint64(traceview.MaxTilePixels) * 4

	paramsBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "density_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create params buffer: %w", err)
	}
	r.paramsBuf = paramsBuf

	inputBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "density_trace", Size: inputSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create trace buffer: %w", err)
	}
	r.inputBuf = inputBuf

	outputBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "density_result", Size: outputSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create result buffer: %w", err)
	}
	r.outputBuf = outputBuf

	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "density_staging", Size: outputSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	r.stagingBuf = stagingBuf

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "density_bind", Layout: r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.paramsBuf.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: r.inputBuf.NativeHandle(), Offset: 0, Size: inputSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: r.outputBuf.NativeHandle(), Offset: 0, Size: outputSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}
	r.bindGroup = bindGroup
	return nil
}

// Render implements traceview.Renderer. The dispatch is synchronous: it
// submits one compute pass, waits on a fence and reads the grid back.
func (r *Renderer) Render(chunkSamples uint32, samples []float32, width, height uint32, offset, scaleY float32) []uint32 {
	if len(samples) > traceview.MaxChunkSamples {
		panic(fmt.Sprintf("gpu: render chunk of %d samples exceeds capacity %d", len(samples), traceview.MaxChunkSamples))
	}
	if width*height > traceview.MaxTilePixels {
		panic(fmt.Sprintf("gpu: render target of %d pixels exceeds capacity %d", width*height, traceview.MaxTilePixels))
	}

	pixelCount := width * height
	result := make([]uint32, pixelCount)
	if len(samples) < 2 || chunkSamples == 0 {
		return result
	}

	if err := r.dispatch(chunkSamples, samples, width, height, offset, scaleY, result); err != nil {
		// A device loss mid-session leaves no way to honor the renderer
		// contract; the tile would otherwise be cached wrong forever.
		panic(fmt.Sprintf("gpu: dispatch failed: %v", err))
	}
	return result
}

func (r *Renderer) dispatch(chunkSamples uint32, samples []float32, width, height uint32, offset, scaleY float32, result []uint32) error {
	pixelCount := width * height

	p := params{
		ChunkSamples: chunkSamples,
		TraceSamples: uint32(len(samples)),
		PixelCount:   pixelCount,
		W:            width,
		H:            height,
		ScaleY:       scaleY,
		Offset:       offset,
	}
	r.queue.WriteBuffer(r.paramsBuf, 0, structToBytes(unsafe.Pointer(&p), unsafe.Sizeof(p)))
	r.queue.WriteBuffer(r.inputBuf, 0, structToBytes(unsafe.Pointer(&samples[0]), uintptr(len(samples))*4))

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "density_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("density"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "density_pass"})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.Dispatch((pixelCount+63)/64, 1, 1)
	pass.End()

	encoder.CopyBufferToBuffer(r.outputBuf, r.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: uint64(pixelCount) * 4},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)
	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := r.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return fmt.Errorf("wait for GPU: fence timeout after %v", fenceTimeout)
	}

	readback := make([]byte, uint64(pixelCount)*4)
	if err := r.queue.ReadBuffer(r.stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	for i := range result {
		result[i] = binary.LittleEndian.Uint32(readback[i*4:])
	}
	return nil
}

// Close releases the GPU resources. Shared devices from
// SetDeviceProvider are left alive.
func (r *Renderer) Close() {
	if r.device != nil {
		if r.bindGroup != nil {
			r.device.DestroyBindGroup(r.bindGroup)
		}
		for _, buf := range []hal.Buffer{r.paramsBuf, r.inputBuf, r.outputBuf, r.stagingBuf} {
			if buf != nil {
				r.device.DestroyBuffer(buf)
			}
		}
		if r.pipeline != nil {
			r.device.DestroyComputePipeline(r.pipeline)
		}
		if r.pipeLayout != nil {
			r.device.DestroyPipelineLayout(r.pipeLayout)
		}
		if r.bindLayout != nil {
			r.device.DestroyBindGroupLayout(r.bindLayout)
		}
		if r.shader != nil {
			r.device.DestroyShaderModule(r.shader)
		}
	}
	if r.owned {
		if r.device != nil {
			r.device.Destroy()
		}
		if r.instance != nil {
			r.instance.Destroy()
		}
	}
	r.bindGroup = nil
	r.paramsBuf, r.inputBuf, r.outputBuf, r.stagingBuf = nil, nil, nil, nil
	r.pipeline, r.pipeLayout, r.bindLayout, r.shader = nil, nil, nil, nil
	r.device = nil
	r.queue = nil
	r.instance = nil
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}
