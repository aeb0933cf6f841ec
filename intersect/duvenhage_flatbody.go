package intersect

import (
	"math"

	"github.com/CS-SI/rugged-go/dem"
	"github.com/CS-SI/rugged-go/demcache"
	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// DuvenhageFlatBody is the "flat body" variant kept for comparison with
// legacy imaging chains that never modeled ellipsoid curvature during
// refinement. It shares DuvenhageIntersector's tile-hopping coarse search
// to find a close guess, but RefineIntersection bypasses the curvature-
// aware bilinear cell crossing in favor of a single flat-plane crossing
// against min/max elevation bounds that enclose the cell (see
// flatCellSolver).
type DuvenhageFlatBody struct {
	*DuvenhageIntersector
}

// NewDuvenhageFlatBody builds a DuvenhageFlatBody sharing the same tile
// cache and search parameters as NewDuvenhageIntersector.
func NewDuvenhageFlatBody(cache *demcache.TileCache, maxElevation float64) *DuvenhageFlatBody {
	return &DuvenhageFlatBody{DuvenhageIntersector: NewDuvenhageIntersector(cache, maxElevation)}
}

// Intersection runs the same bounding-sphere pre-reject, entry-point
// resolution and tile-hopping coarse search as DuvenhageIntersector, but
// resolves each candidate cell's crossing against its flat min/max
// altitude planes (flatCellSolver) instead of the bilinear DEM surface.
func (d *DuvenhageFlatBody) Intersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3) (ellipsoid.NormalizedGeodeticPoint, error) {
	return d.intersectWith(e, position, los, flatCellSolver)
}

// RefineIntersection polishes close against the cell containing it using
// only that cell's flat min/max altitude planes, instead of the full
// bilinear surface CellIntersection solves against. This is a single,
// non-recursive step: no fallback to a fresh full-tile search on a miss.
func (d *DuvenhageFlatBody) RefineIntersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3, close ellipsoid.NormalizedGeodeticPoint) (ellipsoid.NormalizedGeodeticPoint, error) {
	tile, err := d.Cache.GetTile(close.Latitude, close.Longitude)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, err
	}
	losTopo := e.ConvertLOS(close.GeodeticPoint, los)
	i, j := tile.CellIndices(close.Latitude, close.Longitude)

	if gp, _, ok := flatCellSolver(e, tile, close, losTopo, i, j); ok {
		return gp, nil
	}
	return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.New(ruggederr.LineOfSightDoesNotReachGround)
}

// flatCellSolver is a cellSolver that finds the first forward crossing of
// the ray entry + s*losTopocentric against the two flat horizontal planes
// at the min/max bounds of the finest stored tree level's super-cell
// containing cell (i, j) (bounds that enclose the cell's elevation range),
// clipped to the cell's (lat, lon) footprint. This replaces
// the bilinear quadratic defaultCellSolver solves with a linear one per
// plane, the curvature-free approximation the flat-body mode trades
// accuracy for.
func flatCellSolver(e ellipsoid.Ellipsoid, tile *dem.MinMaxTreeTile, entry ellipsoid.NormalizedGeodeticPoint, losTopo ellipsoid.Vector3, i, j int) (ellipsoid.NormalizedGeodeticPoint, float64, bool) {
	minZ, err := tile.GetMinElevation(i, j, tile.Levels())
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, 0, false
	}
	maxZ, err := tile.GetMaxElevation(i, j, tile.Levels())
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, 0, false
	}

	m, n := e.RadiiOfCurvature(entry.Latitude)
	cosLat := math.Cos(entry.Latitude)
	latRate := losTopo[1] / m
	lonRate := losTopo[0] / (n * cosLat)
	altRate := losTopo[2]

	cellMinLat := tile.MinLat() + float64(i)*tile.LatStep()
	cellMinLon := tile.MinLon() + float64(j)*tile.LonStep()
	cellMaxLat := cellMinLat + tile.LatStep()
	cellMaxLon := cellMinLon + tile.LonStep()

	// Same shared-edge rounding allowance as Tile.CellIntersection, in
	// angle units.
	latTol, lonTol := 1e-9*tile.LatStep(), 1e-9*tile.LonStep()

	bestS := math.Inf(1)
	found := false
	for _, z := range [2]float64{maxZ, minZ} {
		if altRate == 0 {
			continue
		}
		s := (z - entry.Altitude) / altRate
		if s <= 0 || s >= bestS {
			continue
		}
		lat := entry.Latitude + latRate*s
		lon := entry.Longitude + lonRate*s
		if lat < cellMinLat-latTol || lat > cellMaxLat+latTol || lon < cellMinLon-lonTol || lon > cellMaxLon+lonTol {
			continue
		}
		bestS, found = s, true
	}
	if !found {
		return ellipsoid.NormalizedGeodeticPoint{}, 0, false
	}

	gp := ellipsoid.GeodeticPoint{
		Latitude:  entry.Latitude + latRate*bestS,
		Longitude: entry.Longitude + lonRate*bestS,
		Altitude:  entry.Altitude + altRate*bestS,
	}.Normalize(entry.Lambda0)
	return gp, bestS, true
}
