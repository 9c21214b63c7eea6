package traceview

import (
	"sync"
)

// Tiling is the shared library of tiles, their rendering status and results.
//
// One Tiling is shared between consumers (viewers), which request tiles and
// read them back, and pipeline workers, which dequeue pending tiles and
// store density grids. All access goes through one mutex; a single condition
// variable guarded by the same mutex wakes sleeping workers when new pending
// work appears.
//
// Tiles are kept in insertion order in a slice. Lookup is linear, which is
// fine: the live tile count is bounded by screen width divided by tile width
// (plus a few stale preview generations), so it stays small. Insertion order
// also matters to consumers — tiles requested first are painted first, which
// keeps previews behind the authoritative rendering.
//
// Tiling is safe for concurrent use and must not be copied after creation.
type Tiling struct {
	mu      sync.Mutex
	pending *sync.Cond
	tiles   []Tile
	closed  bool
}

// NewTiling creates an empty tile cache.
func NewTiling() *Tiling {
	t := &Tiling{}
	t.pending = sync.NewCond(&t.mu)
	return t
}

// Get returns a copy of the tile with the given identity.
//
// If the tile is missing and create is true, a new NotRendered entry is
// inserted, returned, and a sleeping worker is woken. If the tile is missing
// and create is false the cache is left untouched — consumers and tests can
// probe without triggering work.
func (t *Tiling) Get(p TileProperties, create bool) (Tile, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i := t.find(p); i >= 0 {
		return t.tiles[i], true
	}
	if !create {
		return Tile{}, false
	}
	tile := newTile(p)
	t.tiles = append(t.tiles, tile)
	t.pending.Signal()
	return tile, true
}

// HasPending reports whether at least one tile is not fully rendered.
func (t *Tiling) HasPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasPendingLocked()
}

// TakeJob atomically dequeues one pending tile: it finds a NotRendered
// entry, flips it to Rendering, and returns its identity. The scan and the
// flip happen under the same lock, so two workers can never take the same
// tile. Returns false when nothing is NotRendered (entries already being
// rendered by other workers do not count).
func (t *Tiling) TakeJob() (TileProperties, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.tiles {
		if t.tiles[i].Status == TileNotRendered {
			t.tiles[i].Status = TileRendering
			return t.tiles[i].Properties, true
		}
	}
	return TileProperties{}, false
}

// StoreResult writes a finished density grid back into the cache entry with
// the given identity and marks it Rendered. If the entry was evicted while
// the render was in flight, it is re-inserted as a Rendered tile: completed
// work is never thrown away.
func (t *Tiling) StoreResult(p TileProperties, data []uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i := t.find(p); i >= 0 {
		t.tiles[i].Data = data
		t.tiles[i].Status = TileRendered
		return
	}
	t.tiles = append(t.tiles, Tile{Status: TileRendered, Properties: p, Data: data})
}

// Retain removes every tile whose identity fails the predicate. Used by
// consumers to evict stale preview generations once the authoritative tile
// set is fully rendered.
func (t *Tiling) Retain(keep func(TileProperties) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.tiles[:0]
	for _, tile := range t.tiles {
		if keep(tile.Properties) {
			kept = append(kept, tile)
		}
	}
	// Zero the tail so evicted density grids can be collected.
	for i := len(kept); i < len(t.tiles); i++ {
		t.tiles[i] = Tile{}
	}
	t.tiles = kept
}

// Properties returns the identities of all cached tiles in insertion order,
// filtered by the predicate. Pass nil to list everything. Only identities
// are copied, never the density grids.
func (t *Tiling) Properties(filter func(TileProperties) bool) []TileProperties {
	t.mu.Lock()
	defer t.mu.Unlock()

	props := make([]TileProperties, 0, len(t.tiles))
	for i := range t.tiles {
		if filter == nil || filter(t.tiles[i].Properties) {
			props = append(props, t.tiles[i].Properties)
		}
	}
	return props
}

// Len returns the number of cached tiles.
func (t *Tiling) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tiles)
}

// Wake wakes all sleeping workers. Consumers call this after a batch of
// requests; Close uses it to release workers for shutdown.
func (t *Tiling) Wake() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending.Broadcast()
}

// Wait blocks the calling worker until a NotRendered tile exists or the
// cache is closed. It returns true when there may be a job to take, false
// when the cache was closed. The predicate is re-checked after every wakeup,
// so spurious wakeups are harmless.
//
// Wait deliberately watches for NotRendered entries rather than HasPending:
// a tile another worker is already Rendering is pending but not takeable,
// and waking on it would spin the waiter.
func (t *Tiling) Wait() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for !t.hasJobLocked() && !t.closed {
		t.pending.Wait()
	}
	return !t.closed
}

// Close marks the cache closed and releases all waiting workers. Tiles stay
// readable; only the blocking Wait is affected.
func (t *Tiling) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.pending.Broadcast()
}

// find returns the index of the tile with identity p, or -1.
// Caller must hold t.mu.
func (t *Tiling) find(p TileProperties) int {
	for i := range t.tiles {
		if t.tiles[i].Properties == p {
			return i
		}
	}
	return -1
}

// hasPendingLocked reports whether any tile is not Rendered.
// Caller must hold t.mu.
func (t *Tiling) hasPendingLocked() bool {
	for i := range t.tiles {
		if t.tiles[i].Status != TileRendered {
			return true
		}
	}
	return false
}

// hasJobLocked reports whether any tile is NotRendered (takeable).
// Caller must hold t.mu.
func (t *Tiling) hasJobLocked() bool {
	for i := range t.tiles {
		if t.tiles[i].Status == TileNotRendered {
			return true
		}
	}
	return false
}
