package intersect

import (
	"math"

	"github.com/CS-SI/rugged-go/demcache"
	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// BasicScan is the brute-force reference Algorithm: every cell of the
// tile covering the current point is tested against the ray in turn, with
// no min/max tree pruning. It exists to validate DuvenhageIntersector
// against (same answer, much slower) and as a fallback for tiny DEMs where
// building a tree isn't worth it.
type BasicScan struct {
	Cache        *demcache.TileCache
	MaxElevation float64
	MaxTileHops  int
}

func (b *BasicScan) Intersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3) (ellipsoid.NormalizedGeodeticPoint, error) {
	if _, err := e.PointOnGround(position, los); err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.Wrap(err, ruggederr.LineOfSightDoesNotReachGround)
	}

	current := position
	if p, err := e.PointAtAltitude(position, los, b.MaxElevation); err == nil {
		current = p
	}

	maxHops := b.MaxTileHops
	if maxHops <= 0 {
		maxHops = 100
	}

	for hop := 0; hop < maxHops; hop++ {
		entryGeodetic, err := e.Transform(current)
		if err != nil {
			return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.Wrap(err, ruggederr.InternalError)
		}
		entryNorm := entryGeodetic.Normalize(entryGeodetic.Longitude)

		tile, err := b.Cache.GetTile(entryGeodetic.Latitude, entryGeodetic.Longitude)
		if err != nil {
			return ellipsoid.NormalizedGeodeticPoint{}, err
		}
		losTopo := e.ConvertLOS(entryGeodetic, los)

		best, found := ellipsoid.NormalizedGeodeticPoint{}, false
		bestS := math.Inf(1)
		for i := 0; i < tile.Rows()-1; i++ {
			for j := 0; j < tile.Cols()-1; j++ {
				gp, s, ok := tile.CellIntersection(e, entryNorm, losTopo, i, j)
				if ok && s < bestS {
					best, bestS, found = gp, s, true
				}
			}
		}
		if found {
			return best, nil
		}

		next, ok := exitTilePoint(e, tile, entryNorm, losTopo)
		if !ok {
			return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.New(ruggederr.LineOfSightDoesNotReachGround)
		}
		current = e.ToCartesian(next.GeodeticPoint)
	}
	return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.New(ruggederr.LineOfSightDoesNotReachGround)
}

func (b *BasicScan) RefineIntersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3, close ellipsoid.NormalizedGeodeticPoint) (ellipsoid.NormalizedGeodeticPoint, error) {
	tile, err := b.Cache.GetTile(close.Latitude, close.Longitude)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, err
	}
	losTopo := e.ConvertLOS(close.GeodeticPoint, los)
	i, j := tile.CellIndices(close.Latitude, close.Longitude)
	if gp, _, ok := tile.CellIntersection(e, close, losTopo, i, j); ok {
		return gp, nil
	}
	return b.Intersection(e, position, los)
}

func (b *BasicScan) GetElevation(lat, lon float64) (float64, error) {
	tile, err := b.Cache.GetTile(lat, lon)
	if err != nil {
		return 0, err
	}
	return tile.InterpolateElevation(lat, lon)
}
