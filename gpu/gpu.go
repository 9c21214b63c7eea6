//go:build !nogpu

// Package gpu registers the wgpu compute renderer backend.
//
// Import this package to render density tiles with a compute shader
// instead of the software rasterizer:
//
//	import _ "github.com/gogpu/traceview/gpu"
//
//	p, err := traceview.NewPipeline(tiling, samples)
//
// The backend is registered under traceview.BackendWGPU and becomes
// the default when a compute-capable adapter is found. If no adapter
// is available the factory returns an error and pipeline creation
// falls back to the software backend.
//
// The compute shader counts sample pairs per output pixel instead of
// incrementing rows per pair, so it needs no atomics and produces
// grids bit-identical to the software rasterizer.
package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/traceview"
)

func init() {
	traceview.RegisterRenderer(traceview.BackendWGPU, func() (traceview.Renderer, error) {
		return New()
	})
}

var (
	sharedMu     sync.Mutex
	sharedDevice hal.Device
	sharedQueue  hal.Queue
)

// SetDeviceProvider shares a GPU device owned by an external provider
// with renderers created after the call. This avoids creating a second
// GPU instance when the application already drives the same device for
// display.
//
// The provider must also expose HAL handles via HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	sharedMu.Lock()
	sharedDevice = device
	sharedQueue = queue
	sharedMu.Unlock()
	return nil
}

func sharedHAL() (hal.Device, hal.Queue) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return sharedDevice, sharedQueue
}
