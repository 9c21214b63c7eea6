package traceview

// Option configures a Pipeline during creation.
// Use functional options to customize behavior:
//
//	// One worker on the best available backend
//	p, err := traceview.NewPipeline(tiling, samples)
//
//	// Four software workers
//	p, err := traceview.NewPipeline(tiling, samples,
//	    traceview.WithWorkers(4),
//	    traceview.WithBackend(traceview.BackendSoftware))
type Option func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	workers int
	backend string
}

// defaultOptions returns the default pipeline options.
func defaultOptions() pipelineOptions {
	return pipelineOptions{
		workers: 1,
		backend: "", // Best available (see DefaultRenderer).
	}
}

// WithWorkers sets the number of background render workers.
// Each worker gets its own renderer instance. Values below 1 are treated
// as 1.
//
// More software workers scale nearly linearly on multicore machines. For
// the GPU backend one worker usually saturates the device; extra workers
// only help to hide readback latency.
func WithWorkers(n int) Option {
	return func(o *pipelineOptions) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithBackend pins all workers to a named renderer backend instead of the
// best-available default. NewPipeline fails if the backend is not
// registered or cannot start.
//
// Example:
//
//	import _ "github.com/gogpu/traceview/gpu"
//
//	p, err := traceview.NewPipeline(tiling, samples,
//	    traceview.WithBackend(traceview.BackendWGPU))
func WithBackend(name string) Option {
	return func(o *pipelineOptions) {
		o.backend = name
	}
}

// ViewerOption configures a Viewer during creation.
type ViewerOption func(*Viewer)

// WithTileWidth sets the width in pixels of the tiles the viewer
// requests. Values below 1 are treated as DefaultTileWidth.
func WithTileWidth(w int) ViewerOption {
	return func(v *Viewer) {
		if w < 1 {
			w = DefaultTileWidth
		}
		v.TileWidth = w
	}
}

// WithMaxTiles bounds how many tiles the viewer keeps in the shared
// tiling. 0 removes the bound.
func WithMaxTiles(n int) ViewerOption {
	return func(v *Viewer) {
		if n < 0 {
			n = 0
		}
		v.MaxTiles = n
	}
}

// WithColorScale sets the initial colorization parameters.
func WithColorScale(cs ColorScale) ViewerOption {
	return func(v *Viewer) {
		v.colorScale = cs
	}
}
