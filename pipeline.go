package traceview

import (
	"sync"
	"time"
)

// Pipeline runs background workers that pull pending tiles from a shared
// Tiling, rasterize them against an immutable trace, and store the density
// grids back. It connects the UI-driven consumer side (viewers requesting
// tiles) to the renderer backends.
//
// Each worker owns its Renderer exclusively — backend device state is never
// shared across goroutines. The Tiling cache is the only shared mutable
// resource.
//
// Workers have no cancellation: once a tile is dequeued it is always
// rendered and written back, even if the consumer has already moved on.
// Aborting mid-flight could leave a tile stuck in Rendering forever, and a
// finished grid is still useful as a preview.
type Pipeline struct {
	tiling *Tiling
	trace  []float32

	wg sync.WaitGroup

	closeOnce sync.Once
}

// NewPipeline creates a pipeline over the given shared cache and trace and
// starts its workers. The trace is the immutable sample sequence supplied by
// an external loader; the pipeline never mutates it.
//
// By default one worker runs the best available renderer backend (see
// DefaultRenderer). Use options to change worker count or pin a backend:
//
//	p, err := traceview.NewPipeline(tiling, samples,
//	    traceview.WithWorkers(4),
//	    traceview.WithBackend(traceview.BackendSoftware))
//
// NewPipeline fails only when a requested backend cannot start (for the GPU
// backend: no compute-capable device). That is a fatal startup condition —
// there is no per-tile error path.
func NewPipeline(tiling *Tiling, trace []float32, opts ...Option) (*Pipeline, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pipeline{
		tiling: tiling,
		trace:  trace,
	}

	rr := make([]Renderer, 0, cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		var r Renderer
		if cfg.backend == "" {
			r = DefaultRenderer()
		} else {
			var err error
			r, err = NewRenderer(cfg.backend)
			if err != nil {
				return nil, err
			}
		}
		rr = append(rr, r)
	}

	p.wg.Add(len(rr))
	for i, r := range rr {
		go p.worker(i, r)
	}
	return p, nil
}

// Close stops all workers and waits for them to exit. A worker holding an
// in-flight tile finishes and stores it first. The shared Tiling stays
// readable after Close.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.tiling.Close()
		p.wg.Wait()
	})
}

// worker is the render loop: take a job, rasterize it, write it back, sleep
// when the cache has nothing takeable.
func (p *Pipeline) worker(id int, r Renderer) {
	defer p.wg.Done()
	// Backends holding device state (the GPU renderer) release it here.
	if c, ok := r.(interface{ Close() }); ok {
		defer c.Close()
	}

	log := Logger()
	for {
		props, ok := p.tiling.TakeJob()
		if !ok {
			if !p.tiling.Wait() {
				return
			}
			continue
		}

		start := time.Now()
		data := p.renderTile(r, props)
		p.tiling.StoreResult(props, data)
		log.Debug("tile rendered",
			"worker", id,
			"index", props.Index,
			"scaleX", props.Scale.X.Float(),
			"elapsed", time.Since(start))
	}
}

// renderTile rasterizes one tile: it computes the world sample range covered
// by the tile index, slices the trace, and invokes the renderer.
//
// Tiles fully outside the trace are valid blank renders (all-zero grid), not
// errors: the consumer freely requests tiles past either end while panning.
func (p *Pipeline) renderTile(r Renderer, props TileProperties) []uint32 {
	w, h := props.Size.W, props.Size.H
	worldTileWidth := props.Scale.X.MulInt(int(w))

	start := worldTileWidth.MulInt(int(props.Index)).Floor()
	end := worldTileWidth.MulInt(int(props.Index) + 1).Floor()

	if start >= len(p.trace) || start < 0 {
		return make([]uint32, props.Size.Area())
	}
	if end > len(p.trace) {
		end = len(p.trace)
	}
	chunk := p.trace[start:end]
	if len(chunk) == 0 {
		return make([]uint32, props.Size.Area())
	}

	// chunkSamples is the intended span of a full tile, not the clamped
	// slice length, so a partial final tile keeps the same samples-per-
	// column mapping as its neighbors.
	chunkSamples := uint32(worldTileWidth.Floor())
	return r.Render(chunkSamples, chunk, w, h, props.Offset.Float32(), props.Scale.Y.Float32())
}
