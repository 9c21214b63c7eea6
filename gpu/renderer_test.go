//go:build !nogpu

package gpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gogpu/traceview"
)

// newTestRenderer opens the GPU backend or skips the test on machines
// without a compute-capable adapter.
func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Skipf("no GPU available: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestRendererMatchesSoftware(t *testing.T) {
	r := newTestRenderer(t)
	cpu := traceview.NewSoftwareRenderer()

	rng := rand.New(rand.NewSource(7))
	tests := []struct {
		name         string
		chunkSamples uint32
		samples      int
		width        uint32
		height       uint32
		offset       float32
		scaleY       float32
	}{
		{"full tile", 4096, 4096, 64, 256, 0, 50},
		{"partial tile", 4096, 1000, 64, 256, 0, 50},
		{"coarse chunk", 64, 64, 64, 128, 0, 30},
		{"chunk below width", 16, 16, 64, 64, 0, 20},
		{"offset and tall", 8192, 8192, 64, 512, 1.5, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]float32, tt.samples)
			for i := range samples {
				samples[i] = float32(math.Sin(float64(i)/37)) + rng.Float32()*0.1
			}

			want := cpu.Render(tt.chunkSamples, samples, tt.width, tt.height, tt.offset, tt.scaleY)
			got := r.Render(tt.chunkSamples, samples, tt.width, tt.height, tt.offset, tt.scaleY)

			if len(got) != len(want) {
				t.Fatalf("grid length %d, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					x, y := i/int(tt.height), i%int(tt.height)
					t.Fatalf("count at column %d row %d = %d, software says %d", x, y, got[i], want[i])
				}
			}
		})
	}
}

func TestRendererEmptyChunk(t *testing.T) {
	r := newTestRenderer(t)

	got := r.Render(0, nil, 64, 64, 0, 1)
	if len(got) != 64*64 {
		t.Fatalf("grid length %d, want %d", len(got), 64*64)
	}
	for i, c := range got {
		if c != 0 {
			t.Fatalf("pixel %d = %d, want an all-zero grid", i, c)
		}
	}
}

func TestRendererReuseAcrossCalls(t *testing.T) {
	r := newTestRenderer(t)
	cpu := traceview.NewSoftwareRenderer()

	// The backend reuses its buffers between calls; a smaller render
	// after a larger one must not see stale counts.
	big := make([]float32, 4096)
	for i := range big {
		big[i] = float32(i % 17)
	}
	r.Render(4096, big, 64, 256, 0, 10)

	small := []float32{0, 1, 0, -1}
	want := cpu.Render(4, small, 4, 16, 0, 4)
	got := r.Render(4, small, 4, 16, 0, 4)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("count %d = %d after buffer reuse, want %d", i, got[i], want[i])
		}
	}
}
