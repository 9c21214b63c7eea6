// Command traceview renders a snapshot of one or more capture files
// into a PNG, using the same tile pipeline an interactive frontend
// drives. Multiple traces are stacked vertically, one pane per trace.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/traceview"
	_ "github.com/gogpu/traceview/gpu"
	"github.com/gogpu/traceview/trace"
)

func main() {
	var (
		width     = flag.Int("width", 1280, "image width in pixels")
		height    = flag.Int("height", 720, "image height in pixels per trace")
		output    = flag.String("output", "trace.png", "output PNG file")
		format    = flag.String("format", "", "trace format (npy, csv, wfm); guessed from extension when empty")
		skipLines = flag.Int("skip-lines", 0, "CSV lines to skip before reading values")
		column    = flag.Int("column", 0, "zero-based CSV column holding the values")
		frames    = flag.String("frames", "", "WFM FastFrame selection, e.g. \"1-3,6\"; all frames when empty")
		workers   = flag.Int("workers", 1, "number of render workers")
		backend   = flag.String("backend", "", "renderer backend (software, wgpu); best available when empty")
		gradient  = flag.String("gradient", "", "color gradient (single, bicolor, rainbow)")
	)
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatal("no input files; usage: traceview [flags] file...")
	}

	opts := trace.Options{
		SkipLines: *skipLines,
		Column:    *column,
	}
	switch strings.ToLower(*format) {
	case "":
	case "npy", "numpy":
		opts.Format = trace.FormatNumpy
	case "csv":
		opts.Format = trace.FormatCSV
	case "wfm":
		opts.Format = trace.FormatWFM
	default:
		log.Fatalf("unknown format %q", *format)
	}
	if *frames != "" {
		selection, err := trace.ParseFrameSelection(*frames)
		if err != nil {
			log.Fatalf("invalid -frames: %v", err)
		}
		opts.Frames = selection
	}

	p := message.NewPrinter(language.English)

	var traces [][]float32
	for _, path := range paths {
		loaded, err := trace.Load(path, opts)
		if err != nil {
			log.Fatalf("load %s: %v", path, err)
		}
		for _, t := range loaded {
			p.Printf("%s: %d samples\n", path, len(t))
			traces = append(traces, t)
		}
	}
	if len(traces) == 0 {
		log.Fatal("no traces selected")
	}

	img := render(traces, *width, *height, *workers, *backend, *gradient)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("encode %s: %v", *output, err)
	}
	p.Printf("%s: %d x %d, %d trace(s)\n", *output, *width, *height*len(traces), len(traces))
}

// render drives the full pipeline to completion for every trace and
// stacks the panes into one image.
func render(traces [][]float32, width, height, workers int, backend, gradient string) *image.NRGBA {
	vp := traceview.Viewport{Width: float64(width), Height: float64(height)}

	popts := []traceview.Option{traceview.WithWorkers(workers)}
	if backend != "" {
		popts = append(popts, traceview.WithBackend(backend))
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height*len(traces)))
	for i, samples := range traces {
		tiling := traceview.NewTiling()
		pipeline, err := traceview.NewPipeline(tiling, samples, popts...)
		if err != nil {
			log.Fatalf("start pipeline: %v", err)
		}

		viewer := traceview.NewViewer(uint32(i), tiling, samples)
		if gradient != "" {
			viewer.SetColorScale(colorScale(gradient))
		}
		viewer.Autoscale(vp, 1)

		for !viewer.Update(vp, 1, true) {
			time.Sleep(time.Millisecond)
		}
		pipeline.Close()

		pane := out.SubImage(image.Rect(0, i*height, width, (i+1)*height)).(*image.NRGBA)
		viewer.ComposeFrame(pane, vp, 1)
	}
	return out
}

func colorScale(gradient string) traceview.ColorScale {
	cs := traceview.DefaultColorScale()
	switch strings.ToLower(gradient) {
	case "single":
		cs.Gradient = traceview.SingleColor{End: color.NRGBA{R: 255, G: 255, B: 255, A: 255}}
	case "bicolor":
		cs.Gradient = traceview.BiColor{
			Start: color.NRGBA{B: 255, A: 255},
			End:   color.NRGBA{R: 255, A: 255},
		}
	case "rainbow":
		cs.Gradient = traceview.Rainbow{}
	default:
		log.Fatalf("unknown gradient %q", gradient)
	}
	return cs
}
