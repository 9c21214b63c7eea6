package traceview

import (
	"image"
)

// DefaultTileWidth is the width in pixels of the tiles rendered by the
// pipeline. A smaller value raises the number of tiles (and render calls)
// needed to fill the screen; a larger one makes a single tile span more
// samples, which lowers the maximum zoom-out before a tile exceeds the
// renderer's chunk capacity. 64 is a good compromise.
const DefaultTileWidth = 64

// TileSize is the pixel dimensions of a tile.
type TileSize struct {
	W, H uint32
}

// Area returns width multiplied by height.
// Panics on overflow.
func (s TileSize) Area() uint32 {
	a := s.W * s.H
	if s.W != 0 && a/s.W != s.H {
		panic("traceview: tile size overflow")
	}
	return a
}

// TileProperties uniquely identifies a renderable tile. If any field
// changes, the corresponding render of the tile is different as well, so the
// whole value acts as the cache key. TileProperties is comparable and
// immutable once created.
type TileProperties struct {
	// Owner distinguishes tiles belonging to different traces sharing one
	// cache (one per viewer in multi-trace mode).
	Owner uint32
	// Scale is the rendering scale. On the X axis this is the number of
	// samples per pixel column.
	Scale Vec2
	// Offset is the vertical (amplitude) shift the tile was rendered with.
	Offset Fixed
	// Index is the tile column index. Tile i covers world samples
	// [i*W*Scale.X, (i+1)*W*Scale.X).
	Index int32
	// Size is the tile's pixel dimensions.
	Size TileSize
}

// TileStatus is the lifecycle state of a cache entry.
// A tile transitions NotRendered -> Rendering -> Rendered exactly once and
// is never reused for a different identity.
type TileStatus int

const (
	// TileNotRendered means the tile was requested but no worker has
	// picked it up yet.
	TileNotRendered TileStatus = iota
	// TileRendering means a worker is currently rendering the tile.
	TileRendering
	// TileRendered means Data holds the complete density grid.
	TileRendered
)

// String returns the string representation of TileStatus.
func (s TileStatus) String() string {
	switch s {
	case TileNotRendered:
		return "NotRendered"
	case TileRendering:
		return "Rendering"
	case TileRendered:
		return "Rendered"
	default:
		return "Unknown"
	}
}

// Tile is one cache entry: an identity, its render status, and the density
// grid once rendered. Data is stored column-major (one contiguous column of
// Size.H counts per pixel column) and is only valid when Status is
// TileRendered.
//
// Tiles move through the cache by value: workers and consumers hold copies,
// never pointers into the cache, so eviction can never invalidate a
// reference held elsewhere.
type Tile struct {
	Status     TileStatus
	Properties TileProperties
	Data       []uint32
}

// newTile creates a pending tile for the given identity.
func newTile(p TileProperties) Tile {
	return Tile{Status: TileNotRendered, Properties: p}
}

// GenerateImage converts the tile's density grid into a displayable image
// using the given color scale. scaleX is the current camera scale, used to
// keep apparent brightness stable across zoom levels (twice as many samples
// per column would otherwise render twice as bright).
//
// This is the only place density counts are turned into colors; the cache
// and renderer core never interpret counts.
func (t *Tile) GenerateImage(scaleX Fixed, cs ColorScale) *image.NRGBA {
	w, h := int(t.Properties.Size.W), int(t.Properties.Size.H)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	gain := cs.Opacity * 0.005 * (1000.0 / scaleX.Float())
	for x := 0; x < w; x++ {
		col := t.Data[x*h : x*h+h]
		for y, density := range col {
			if density == 0 {
				continue
			}
			a := cs.Min + pow(float64(density), cs.Power)*gain
			img.SetNRGBA(x, y, cs.Gradient.At(clamp01(a)))
		}
	}
	return img
}
