// Package cache provides a generic thread-safe LRU cache with a soft
// size limit.
//
// The viewer uses it to keep colorized tile images keyed by tile
// properties, so that density grids are only converted to pixels once
// per color scale. When the cache grows past its soft limit, the least
// recently used quarter of the entries is evicted in one batch.
package cache
