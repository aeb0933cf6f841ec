package demcache

import (
	"testing"

	"github.com/CS-SI/rugged-go/dem"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// gridUpdater hands out a fixed 4x4-degree tile for whichever 1-degree cell
// (lat, lon) falls in, with flat elevation equal to the tile's south-west
// corner latitude (so distinct tiles are distinguishable in tests).
type gridUpdater struct {
	loads int
}

func (g *gridUpdater) UpdateTile(lat, lon float64, tile *dem.Tile) error {
	g.loads++
	minLat := float64(int(lat))
	minLon := float64(int(lon))
	if err := tile.SetGeometry(minLat, minLon, 1, 1, 5, 5); err != nil {
		return err
	}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if err := tile.SetElevation(i, j, minLat); err != nil {
				return err
			}
		}
	}
	return nil
}

type failingUpdater struct{}

func (failingUpdater) UpdateTile(lat, lon float64, tile *dem.Tile) error {
	// Builds a tile that does not actually cover (lat, lon).
	return tile.SetGeometry(lat+100, lon+100, 1, 1, 5, 5)
}

func TestGetTileCachesAndReuses(t *testing.T) {
	u := &gridUpdater{}
	c := NewTileCache(u, 4)

	if _, err := c.GetTile(2.5, 2.5); err != nil {
		t.Fatalf("GetTile: %v", err)
	}
	if _, err := c.GetTile(2.6, 2.7); err != nil {
		t.Fatalf("GetTile: %v", err)
	}
	if u.loads != 1 {
		t.Errorf("loads = %d, want 1 (second lookup should hit the cache)", u.loads)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestGetTileEvictsLeastRecentlyUsed(t *testing.T) {
	u := &gridUpdater{}
	c := NewTileCache(u, 2)

	for _, lat := range []float64{0.5, 4.5, 8.5} {
		if _, err := c.GetTile(lat, 0.5); err != nil {
			t.Fatalf("GetTile(%v): %v", lat, err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (capacity enforced)", c.Len())
	}
	if u.loads != 3 {
		t.Errorf("loads = %d, want 3", u.loads)
	}

	// The tile for lat=0.5 should have been evicted; requesting it again
	// must trigger a fresh load.
	if _, err := c.GetTile(0.5, 0.5); err != nil {
		t.Fatalf("GetTile: %v", err)
	}
	if u.loads != 4 {
		t.Errorf("loads = %d, want 4 after eviction forced a reload", u.loads)
	}
}

func TestGetTileRejectsTileMissingRequestedPoint(t *testing.T) {
	c := NewTileCache(failingUpdater{}, 4)
	_, err := c.GetTile(1, 1)
	if err == nil {
		t.Fatal("expected TileWithoutRequiredNeighborsSelected")
	}
	rerr, ok := err.(*ruggederr.Error)
	if !ok || rerr.Kind != ruggederr.TileWithoutRequiredNeighborsSelected {
		t.Errorf("got error %v, want Kind=TileWithoutRequiredNeighborsSelected", err)
	}
}
