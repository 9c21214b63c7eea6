// Package traceview renders very large one-dimensional sample traces
// ("waveforms") as pixel-accurate density images at interactive framerates.
//
// # Overview
//
// A trace may hold anywhere from a few thousand to hundreds of millions of
// float32 samples. Rasterizing the whole visible range on every frame is far
// too slow, so traceview splits the view into fixed-width tiles, renders each
// tile once in the background, and caches the result keyed by the exact view
// parameters that produced it. Panning only requests the tiles that slid into
// view; zooming renders a new tile generation while the old one keeps serving
// as a preview.
//
// # Quick Start
//
//	samples := []float32{ /* trace data */ }
//
//	tiling := traceview.NewTiling()
//	pipeline, _ := traceview.NewPipeline(tiling, samples)
//	defer pipeline.Close()
//
//	viewer := traceview.NewViewer(0, tiling, samples)
//	viewer.Autoscale(viewport, 1.0)
//
//	// Once per frame:
//	viewer.Update(viewport, 1.0, true)
//	viewer.ComposeFrame(img, viewport, 1.0)
//
// # Architecture
//
// The library is organized into:
//   - Public API: Camera, Tiling, Tile, Pipeline, Viewer, ColorScale
//   - Renderer backends: software (pure Go), gpu (wgpu compute, gpu/)
//   - Trace supply: trace/ (CSV, NumPy NPY, Tektronix WFM loaders)
//
// All view parameters use 24-bit fixed-point values (see Fixed) so tile
// identities are bit-exact and hashable across the full zoom range.
//
// # Renderer backends
//
// The density rasterizer has two interchangeable implementations behind the
// Renderer interface: SoftwareRenderer iterates sample pairs on the CPU, and
// the gpu package dispatches the same accumulation as a wgpu compute shader.
// Both produce identical integer grids. Enable the GPU backend with:
//
//	import _ "github.com/gogpu/traceview/gpu"
//
// # Concurrency
//
// One Tiling cache is shared between the consumer and any number of Pipeline
// workers through a single mutex and condition variable. Workers sleep while
// no tile is pending and are woken when the consumer requests one. A tile is
// never rendered twice concurrently and never cancelled mid-flight.
package traceview

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"
)
