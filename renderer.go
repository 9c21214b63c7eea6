package traceview

import (
	"errors"
	"fmt"
	"sync"
)

// Renderer capacity limits. Exceeding either in a Render call is a
// programming error, not a recoverable condition: backends panic rather
// than truncating, because a silently truncated tile would be cached
// forever under a valid identity.
const (
	// MaxChunkSamples is the maximum number of trace samples a single
	// Render call may cover. It bounds the GPU input buffer size and,
	// through MaxScaleX, the maximum zoom-out level.
	MaxChunkSamples = 8 * 1024 * 1024 * 4

	// MaxTilePixels is the maximum number of output pixels per Render
	// call. It bounds the GPU output buffer size.
	MaxTilePixels = 524288
)

// Common renderer errors.
var (
	// ErrBackendNotAvailable is returned when a requested renderer
	// backend is not registered.
	ErrBackendNotAvailable = errors.New("traceview: renderer backend not available")
)

// Renderer turns a slice of trace samples plus geometric parameters into a
// density grid: a width*height, column-major grid of per-pixel hit counts.
//
// For each pair of consecutive samples (samples[i], samples[i+1]):
//   - the pair lands in pixel column x = min(i*width/chunkSamples, width-1)
//   - the amplitudes map to rows y = height/2 + trunc((sample+offset)*scaleY)
//   - every row between the two, inclusive and clamped to [0, height-1],
//     is incremented by one
//
// Drawing the filled vertical span between consecutive samples is what makes
// dense regions read as a gradient instead of aliasing.
//
// chunkSamples is the intended sample span of the chunk; len(samples) may be
// shorter when the trace ends inside the chunk, and columns must still be
// computed against chunkSamples so a partial tile lines up with its
// neighbors. Counts are raw uint32 values: normalization and color mapping
// are downstream concerns.
//
// Both backends (software and GPU compute) must produce bit-identical grids
// for identical inputs — the accumulation is pure integer counting.
//
// A Renderer is owned exclusively by the worker that created it; it is not
// required to be safe for concurrent use.
type Renderer interface {
	Render(chunkSamples uint32, samples []float32, width, height uint32, offset, scaleY float32) []uint32
}

// checkRenderLimits panics when a render request exceeds backend capacity.
// Shared by all backends so the contract violation reads the same
// everywhere.
func checkRenderLimits(samples int, width, height uint32) {
	if samples > MaxChunkSamples {
		panic(fmt.Sprintf("traceview: render chunk of %d samples exceeds capacity %d", samples, MaxChunkSamples))
	}
	if width*height > MaxTilePixels {
		panic(fmt.Sprintf("traceview: render target of %d pixels exceeds capacity %d", width*height, MaxTilePixels))
	}
}

// RendererFactory creates a new renderer instance. Factories returning an
// error indicate the backend cannot start at all (for the GPU backend: no
// compute-capable adapter), which callers treat as a fatal startup
// condition.
type RendererFactory func() (Renderer, error)

// Renderer backend names.
const (
	// BackendSoftware is the pure Go pair-loop rasterizer.
	BackendSoftware = "software"

	// BackendWGPU is the wgpu compute shader rasterizer, registered by
	// importing the gpu package.
	BackendWGPU = "wgpu"
)

var (
	registryMu sync.RWMutex
	renderers  = make(map[string]RendererFactory)
	// Priority order for backend selection (first available wins).
	rendererPriority = []string{BackendWGPU, BackendSoftware}
)

func init() {
	RegisterRenderer(BackendSoftware, func() (Renderer, error) {
		return NewSoftwareRenderer(), nil
	})
}

// RegisterRenderer registers a renderer factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func RegisterRenderer(name string, factory RendererFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	renderers[name] = factory
}

// RendererBackends returns the names of all registered renderer backends.
func RendererBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	return names
}

// NewRenderer creates a renderer instance by backend name.
func NewRenderer(name string) (Renderer, error) {
	registryMu.RLock()
	factory, ok := renderers[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory()
}

// DefaultRenderer creates the best available renderer: the GPU compute
// backend when its package is imported and a device is available, the
// software rasterizer otherwise.
func DefaultRenderer() Renderer {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range rendererPriority {
		factory, ok := renderers[name]
		if !ok {
			continue
		}
		r, err := factory()
		if err != nil {
			Logger().Warn("renderer backend unavailable", "backend", name, "err", err)
			continue
		}
		return r
	}
	// The software factory never fails; reaching here means the registry
	// was emptied, which only tests do.
	return NewSoftwareRenderer()
}
