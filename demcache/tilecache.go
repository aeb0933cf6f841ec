// Package demcache implements a bounded, LRU-evicted cache of dem.Tile
// (or dem.MinMaxTreeTile) rasters, filled on demand by a caller-supplied
// TileUpdater. DuvenhageIntersector and InverseLocator never talk to a DEM
// source directly — they ask a TileCache for the tile covering a point.
package demcache

import (
	"container/list"
	"sync"

	"github.com/CS-SI/rugged-go/dem"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// TileUpdater fills in the geometry and elevations of a freshly allocated
// tile so that it covers (lat, lon) with at least one interpolation
// neighbor in every direction the cache's caller might need. Implementing
// this is the only integration point a DEM data source needs.
type TileUpdater interface {
	UpdateTile(lat, lon float64, tile *dem.Tile) error
}

// TileCache is a fixed-capacity, least-recently-used cache of min/max-tree
// tiles. It is safe for concurrent use: all state transitions (lookup,
// promotion, eviction, insertion) happen under a single mutex. The cache is
// read-mostly in the direct/inverse location hot path (repeated
// GetTile calls for nearby pixels almost always hit), so the lock is held
// only for the list/map bookkeeping, never across a TileUpdater call,
// keeping contention low without a separate lock-free path.
type TileCache struct {
	mu       sync.Mutex
	updater  TileUpdater
	capacity int
	order    *list.List               // front = most recently used
	entries  map[*list.Element]*dem.MinMaxTreeTile
}

// NewTileCache creates a cache of at most capacity tiles, filled by
// updater. capacity must be >= 1; DuvenhageIntersector's tile-to-tile
// ray walk needs at least 4 resident tiles to avoid thrashing at a
// boundary crossing, but the cache itself does not enforce a minimum.
func NewTileCache(updater TileUpdater, capacity int) *TileCache {
	if capacity < 1 {
		capacity = 1
	}
	return &TileCache{
		updater:  updater,
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[*list.Element]*dem.MinMaxTreeTile),
	}
}

// GetTile returns the tile covering (lat, lon), loading and caching it if
// necessary. Fails with TileWithoutRequiredNeighborsSelected if the
// updater hands back a tile that does not actually have (lat, lon) in its
// interpolable interior (a contract violation by the TileUpdater), or
// propagates whatever error the updater itself returned.
func (c *TileCache) GetTile(lat, lon float64) (*dem.MinMaxTreeTile, error) {
	c.mu.Lock()
	for e := c.order.Front(); e != nil; e = e.Next() {
		t := c.entries[e]
		if t.Classify(lat, lon) == dem.HasInterpolationNeighbors {
			c.order.MoveToFront(e)
			c.mu.Unlock()
			return t, nil
		}
	}
	c.mu.Unlock()

	tile := &dem.Tile{}
	if err := c.updater.UpdateTile(lat, lon, tile); err != nil {
		return nil, err
	}
	if tile.Classify(lat, lon) != dem.HasInterpolationNeighbors {
		return nil, ruggederr.New(ruggederr.TileWithoutRequiredNeighborsSelected, lat, lon)
	}

	mmt := &dem.MinMaxTreeTile{Tile: *tile}
	if err := mmt.Build(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest)
		}
	}
	e := c.order.PushFront(nil)
	c.entries[e] = mmt
	return mmt, nil
}

// Len reports the number of tiles currently resident.
func (c *TileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
