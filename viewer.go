package traceview

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/traceview/internal/cache"
)

// DefaultMaxTiles caps the number of tiles a single viewer may hold in
// the shared tiling. 0 disables the cap. The cap only evicts tiles that
// no longer match the camera, so a viewport always fits regardless of
// its width.
const DefaultMaxTiles = 512

// Viewer plans tile requests for a camera over a trace and composes
// rendered tiles into frames. Several viewers may share one Tiling and
// one Pipeline; tiles are namespaced by the viewer ID.
//
// Viewer is not safe for concurrent use. The shared Tiling is; a
// typical setup calls Update and ComposeFrame from a single UI loop
// while pipeline workers fill tiles in the background.
type Viewer struct {
	// ID namespaces this viewer's tiles in the shared tiling.
	ID uint32

	// Camera holds the pan and zoom state. Callers mutate it freely
	// between updates.
	Camera Camera

	// TileWidth is the tile width in pixels. All tiles requested by
	// this viewer share it.
	TileWidth int

	// MaxTiles bounds how many tiles this viewer keeps in the shared
	// tiling. 0 means unbounded.
	MaxTiles int

	tiling *Tiling
	trace  []float32

	traceMin, traceMax float32

	colorScale ColorScale
	images     *cache.Cache[TileProperties, *image.NRGBA]
}

// NewViewer creates a viewer over trace using the shared tiling.
// The trace min and max are computed once here for autoscaling.
func NewViewer(id uint32, tiling *Tiling, trace []float32, opts ...ViewerOption) *Viewer {
	lo, hi := traceMinMax(trace)
	v := &Viewer{
		ID:         id,
		Camera:     NewCamera(),
		TileWidth:  DefaultTileWidth,
		MaxTiles:   DefaultMaxTiles,
		tiling:     tiling,
		trace:      trace,
		traceMin:   lo,
		traceMax:   hi,
		colorScale: DefaultColorScale(),
		images:     cache.New[TileProperties, *image.NRGBA](0),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Trace returns the samples this viewer displays.
func (v *Viewer) Trace() []float32 { return v.trace }

// ColorScale returns the current colorization parameters.
func (v *Viewer) ColorScale() ColorScale { return v.colorScale }

// SetColorScale replaces the colorization parameters. Cached tile
// images are dropped; the density grids in the tiling stay valid and
// are recolorized lazily on the next compose.
func (v *Viewer) SetColorScale(cs ColorScale) {
	v.colorScale = cs
	v.images.Clear()
}

// Autoscale fits the whole trace in the viewport, with the amplitude
// range using three quarters of the height.
func (v *Viewer) Autoscale(vp Viewport, pixelRatio float64) {
	v.Camera.Autoscale(vp, pixelRatio, len(v.trace), v.traceMin, v.traceMax)
	v.Camera.Scale.X = v.Camera.Scale.X.Clamp(FixedOne, MaxScaleXFor(v.TileWidth))
}

// RequiredTiles returns the properties of the tiles needed to cover
// the viewport with the current camera, sorted from the center of the
// screen outward so the most visible tiles are rendered first.
func (v *Viewer) RequiredTiles(vp Viewport, pixelRatio float64) []TileProperties {
	widthHalf := FixedFromFloat(vp.Width * pixelRatio / 2)
	tileWidth := FixedFromInt(v.TileWidth)
	dx := v.Camera.Shift.X.Div(v.Camera.Scale.X)
	start := (dx - widthHalf).Div(tileWidth).Floor()
	end := (dx + widthHalf).Div(tileWidth).Ceil()

	indexes := make([]int32, 0, end-start)
	for i := start; i < end; i++ {
		indexes = append(indexes, int32(i))
	}
	mid := int32((start + end) / 2)
	sortByDistance(indexes, mid)

	height := uint32(vp.Height * pixelRatio)
	props := make([]TileProperties, len(indexes))
	for i, index := range indexes {
		props[i] = TileProperties{
			Owner:  v.ID,
			Scale:  v.Camera.Scale,
			Offset: v.Camera.Shift.Y,
			Index:  index,
			Size:   TileSize{W: uint32(v.TileWidth), H: height},
		}
	}
	return props
}

// Update requests the tiles required for the current camera and
// reports whether they are all rendered. When allowRequests is false
// no tiles are requested or evicted; the caller keeps compositing
// stale tiles as a preview while the camera is still moving.
//
// Once the required set is complete, tiles of this viewer that no
// longer match the camera are evicted, together with their cached
// images. Tiles of other viewers are never touched.
func (v *Viewer) Update(vp Viewport, pixelRatio float64, allowRequests bool) bool {
	if !allowRequests {
		return false
	}

	// The camera clamps zoom against the default tile width; a wider
	// tile spans more samples, so re-clamp here before any tile of an
	// oversized chunk can be requested.
	v.Camera.Scale.X = v.Camera.Scale.X.Clamp(FixedOne, MaxScaleXFor(v.TileWidth))

	required := v.RequiredTiles(vp, pixelRatio)
	complete := true
	for _, p := range required {
		tile, _ := v.tiling.Get(p, true)
		complete = complete && tile.Status == TileRendered
	}

	if complete {
		v.tiling.Retain(func(p TileProperties) bool {
			if p.Owner != v.ID {
				return true
			}
			return p.Scale == v.Camera.Scale && p.Offset == v.Camera.Shift.Y
		})
		v.pruneImages()
	} else {
		v.tiling.Wake()
	}

	v.enforceTileBudget(required)
	return complete
}

// ComposeFrame paints the viewport into dst: a checkerboard background
// showing not yet rendered zones, then every rendered tile of this
// viewer scaled to its on-screen rectangle. dst must be at least
// vp.Width*pixelRatio by vp.Height*pixelRatio pixels; its bounds min
// is the viewport origin, so panes cut from a larger image with
// SubImage compose in place.
//
// Tiles are painted in request order, so tiles matching the current
// camera exactly (requested last) cover stale preview tiles.
func (v *Viewer) ComposeFrame(dst *image.NRGBA, vp Viewport, pixelRatio float64) {
	drawCheckerboard(dst)

	props := v.tiling.Properties(func(p TileProperties) bool {
		return p.Owner == v.ID
	})
	for _, p := range props {
		tile, ok := v.tiling.Get(p, false)
		if !ok || tile.Status != TileRendered {
			continue
		}
		img := v.images.GetOrCreate(p, func() *image.NRGBA {
			return tile.GenerateImage(p.Scale.X, v.colorScale)
		})
		v.paintTile(dst, vp, pixelRatio, p, img)
	}
}

// paintTile scales a tile image to its on-screen rectangle. The
// homothecy between the tile's camera and the current camera keeps
// stale tiles usable as a preview while zooming or shifting.
func (v *Viewer) paintTile(dst *image.NRGBA, vp Viewport, pixelRatio float64, p TileProperties, img *image.NRGBA) {
	worldTileWidth := FixedFromInt(v.TileWidth).Mul(p.Scale.X).Div(v.Camera.Scale.X)
	shiftX := v.Camera.Shift.X.Div(v.Camera.Scale.X)

	pw := vp.Width * pixelRatio
	ph := vp.Height * pixelRatio

	mulY := v.Camera.Scale.Y.Div(p.Scale.Y).Float()
	offsetY := (p.Offset - v.Camera.Shift.Y).Mul(v.Camera.Scale.Y).Float()
	yMid := ph / 2
	y0 := yMid - ph*mulY/2 + offsetY
	y1 := yMid + ph*mulY/2 + offsetY

	tileX := worldTileWidth.MulInt(int(p.Index)) - shiftX + FixedFromFloat(pw/2)
	x0 := tileX.Float()
	x1 := (tileX + worldTileWidth).Float()

	origin := dst.Bounds().Min
	rect := image.Rect(
		origin.X+int(math.Floor(x0)), origin.Y+int(math.Floor(y0)),
		origin.X+int(math.Floor(x1)), origin.Y+int(math.Floor(y1)),
	)
	if rect.Empty() {
		return
	}
	xdraw.NearestNeighbor.Scale(dst, rect, img, img.Bounds(), xdraw.Over, nil)
}

// pruneImages drops cached images whose tile left the tiling.
func (v *Viewer) pruneImages() {
	v.images.DeleteFunc(func(p TileProperties) bool {
		_, ok := v.tiling.Get(p, false)
		return !ok
	})
}

// enforceTileBudget evicts this viewer's oldest stale tiles when the
// viewer holds more than MaxTiles. Tiles in the required set and tiles
// still being rendered are kept.
func (v *Viewer) enforceTileBudget(required []TileProperties) {
	if v.MaxTiles <= 0 {
		return
	}
	mine := v.tiling.Properties(func(p TileProperties) bool {
		return p.Owner == v.ID
	})
	excess := len(mine) - v.MaxTiles
	if excess <= 0 {
		return
	}

	req := make(map[TileProperties]struct{}, len(required))
	for _, p := range required {
		req[p] = struct{}{}
	}
	drop := make(map[TileProperties]struct{}, excess)
	for _, p := range mine {
		if excess == 0 {
			break
		}
		if _, ok := req[p]; ok {
			continue
		}
		if tile, ok := v.tiling.Get(p, false); ok && tile.Status == TileRendering {
			continue
		}
		drop[p] = struct{}{}
		excess--
	}
	if len(drop) == 0 {
		return
	}
	v.tiling.Retain(func(p TileProperties) bool {
		_, dropped := drop[p]
		return !dropped
	})
	v.images.DeleteFunc(func(p TileProperties) bool {
		_, dropped := drop[p]
		return dropped
	})
}

// sortByDistance orders tile indexes by distance to mid, closest
// first. Insertion sort keeps ties in ascending index order.
func sortByDistance(indexes []int32, mid int32) {
	dist := func(i int32) int32 {
		d := i - mid
		if d < 0 {
			return -d
		}
		return d
	}
	for i := 1; i < len(indexes); i++ {
		for j := i; j > 0 && dist(indexes[j]) < dist(indexes[j-1]); j-- {
			indexes[j], indexes[j-1] = indexes[j-1], indexes[j]
		}
	}
}

// checkerboardCell is the side of one checkerboard square in pixels.
const checkerboardCell = 32

// drawCheckerboard fills dst with a dark checkerboard marking zones
// that have no rendered tile yet.
func drawCheckerboard(dst *image.NRGBA) {
	dark := color.NRGBA{A: 255}
	gray := color.NRGBA{R: 10, G: 10, B: 10, A: 255}
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if ((x-b.Min.X)/checkerboardCell+(y-b.Min.Y)/checkerboardCell)%2 == 0 {
				dst.SetNRGBA(x, y, dark)
			} else {
				dst.SetNRGBA(x, y, gray)
			}
		}
	}
}

// traceMinMax returns the smallest and largest sample values. NaN
// samples are ignored. An empty trace yields (0, 0).
func traceMinMax(trace []float32) (lo, hi float32) {
	first := true
	for _, s := range trace {
		if s != s {
			continue
		}
		if first {
			lo, hi = s, s
			first = false
			continue
		}
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}
