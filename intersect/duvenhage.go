package intersect

import (
	"math"

	"github.com/CS-SI/rugged-go/dem"
	"github.com/CS-SI/rugged-go/demcache"
	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/geometry"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// DuvenhageIntersector finds the ray/terrain crossing by descending each
// candidate tile's min/max k-d tree coarse-to-fine, pruning whole groups
// of cells whose maximum elevation lies entirely below the ray's lowest
// altitude over that group's footprint, and only evaluating
// Tile.CellIntersection exactly on the handful of raw cells that survive
// to the finest level.
type DuvenhageIntersector struct {
	Cache *demcache.TileCache
	// MaxElevation bounds the altitude envelope of the terrain: a ray that
	// never comes within EquatorialRadius+MaxElevation of the body center
	// is rejected before any tile is fetched. The search itself starts where
	// the ray crosses the entry tile's own maximum elevation (see
	// resolveEntryPoint), not at this altitude.
	MaxElevation float64
	// MaxTileHops caps how many tile-to-tile steps a single search may
	// take before giving up with LineOfSightDoesNotReachGround — the
	// concurrency/resource-bound counterpart of the per-tile recursion
	// depth guard.
	MaxTileHops int
}

// NewDuvenhageIntersector builds a DuvenhageIntersector with a sane tile
// hop budget.
func NewDuvenhageIntersector(cache *demcache.TileCache, maxElevation float64) *DuvenhageIntersector {
	return &DuvenhageIntersector{Cache: cache, MaxElevation: maxElevation, MaxTileHops: 100}
}

func (d *DuvenhageIntersector) Intersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3) (ellipsoid.NormalizedGeodeticPoint, error) {
	return d.intersectWith(e, position, los, defaultCellSolver)
}

// cellSolver resolves the exact ray/terrain crossing within a single raw
// cell (i, j) of tile, given the ray expressed in topocentric rates
// relative to entry. DuvenhageIntersector solves against the DEM's own
// bilinear surface; DuvenhageFlatBody substitutes the cell's flat
// min/max elevation planes. Plugging this into the shared tile-hopping
// search is what lets the two algorithms share everything except the
// final per-cell crossing.
type cellSolver func(e ellipsoid.Ellipsoid, tile *dem.MinMaxTreeTile, entry ellipsoid.NormalizedGeodeticPoint, losTopo ellipsoid.Vector3, i, j int) (ellipsoid.NormalizedGeodeticPoint, float64, bool)

func defaultCellSolver(e ellipsoid.Ellipsoid, tile *dem.MinMaxTreeTile, entry ellipsoid.NormalizedGeodeticPoint, losTopo ellipsoid.Vector3, i, j int) (ellipsoid.NormalizedGeodeticPoint, float64, bool) {
	return tile.CellIntersection(e, entry, losTopo, i, j)
}

// intersectWith is the tile-hopping search shared by DuvenhageIntersector
// and DuvenhageFlatBody: only the final per-cell crossing (solve) differs
// between the two.
func (d *DuvenhageIntersector) intersectWith(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3, solve cellSolver) (ellipsoid.NormalizedGeodeticPoint, error) {
	// Cheap reject: a ray that never crosses the sphere circumscribing the
	// ellipsoid-plus-terrain envelope cannot reach the ground, sparing the
	// exact oblate-ellipsoid quadratic and the tile cache a lookup.
	boundRadius := e.EquatorialRadius + d.MaxElevation
	_, far := geometry.LineSphereSpan([3]float64(position), [3]float64(los), [3]float64{0, 0, 0}, boundRadius)
	if math.IsNaN(far) || far < 0 {
		return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.New(ruggederr.LineOfSightDoesNotReachGround)
	}

	g0, err := e.PointOnGround(position, los)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.Wrap(err, ruggederr.LineOfSightDoesNotReachGround)
	}

	current, err := d.resolveEntryPoint(e, position, los, g0)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, err
	}

	maxHops := d.MaxTileHops
	if maxHops <= 0 {
		maxHops = 100
	}

	for hop := 0; hop < maxHops; hop++ {
		entryGeodetic, err := e.Transform(current)
		if err != nil {
			return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.Wrap(err, ruggederr.InternalError)
		}
		entryNorm := entryGeodetic.Normalize(entryGeodetic.Longitude)

		tile, err := d.Cache.GetTile(entryGeodetic.Latitude, entryGeodetic.Longitude)
		if err != nil {
			return ellipsoid.NormalizedGeodeticPoint{}, err
		}

		losTopo := e.ConvertLOS(entryGeodetic, los)

		hit, found, err := searchTile(e, tile, entryNorm, losTopo, solve)
		if err != nil {
			return ellipsoid.NormalizedGeodeticPoint{}, err
		}
		if found {
			return hit, nil
		}

		next, ok := exitTilePoint(e, tile, entryNorm, losTopo)
		if !ok {
			return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.New(ruggederr.LineOfSightDoesNotReachGround)
		}
		current = e.ToCartesian(next.GeodeticPoint)
	}
	return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.New(ruggederr.LineOfSightDoesNotReachGround)
}

// entryStep is the 1 cm offset above a tile's max elevation used to probe
// for the entry point, per the spec's "pointAtAltitude(P, L, hMax + STEP)".
const entryStep = 0.01

// resolveEntryPoint implements the entry-tile search: probe the point E
// where the ray crosses 1 cm above the current tile's maximum elevation;
// if E is behind the observer (the terrain-top slab lies behind P), P may
// already be inside the DEM envelope of this tile, in which case P itself
// is the entry; otherwise the ray can never reach the ground and the
// search fails with DemEntryPointIsBehindSpacecraft. If E lands in a
// different tile than the one just probed, switch to that tile and retry
// until E and its tile agree.
func (d *DuvenhageIntersector) resolveEntryPoint(e ellipsoid.Ellipsoid, position, los, g0 ellipsoid.Vector3) (ellipsoid.Vector3, error) {
	g0Geodetic, err := e.Transform(g0)
	if err != nil {
		return ellipsoid.Vector3{}, ruggederr.Wrap(err, ruggederr.InternalError)
	}

	lat, lon := g0Geodetic.Latitude, g0Geodetic.Longitude
	maxHops := d.MaxTileHops
	if maxHops <= 0 {
		maxHops = 100
	}

	for hop := 0; hop < maxHops; hop++ {
		tile, err := d.Cache.GetTile(lat, lon)
		if err != nil {
			return ellipsoid.Vector3{}, err
		}
		hMax := math.Inf(-1)
		rootRows, rootCols := tile.GroupShape(1)
		for R := 0; R < rootRows; R++ {
			for C := 0; C < rootCols; C++ {
				if _, groupMax := tile.GroupBounds(1, R, C); groupMax > hMax {
					hMax = groupMax
				}
			}
		}

		entryCandidate, s, err := e.PointAtAltitudeSigned(position, los, hMax+entryStep)
		if err != nil {
			return ellipsoid.Vector3{}, ruggederr.Wrap(err, ruggederr.LineOfSightDoesNotReachGround)
		}

		if s < 0 {
			positionGeodetic, err := e.Transform(position)
			if err != nil {
				return ellipsoid.Vector3{}, ruggederr.Wrap(err, ruggederr.InternalError)
			}
			localElevation, err := tile.InterpolateElevation(positionGeodetic.Latitude, positionGeodetic.Longitude)
			if err != nil {
				return ellipsoid.Vector3{}, ruggederr.New(ruggederr.DemEntryPointIsBehindSpacecraft)
			}
			if positionGeodetic.Altitude > localElevation {
				return position, nil
			}
			return ellipsoid.Vector3{}, ruggederr.New(ruggederr.DemEntryPointIsBehindSpacecraft)
		}

		entryGeodetic, err := e.Transform(entryCandidate)
		if err != nil {
			return ellipsoid.Vector3{}, ruggederr.Wrap(err, ruggederr.InternalError)
		}
		entryTile, err := d.Cache.GetTile(entryGeodetic.Latitude, entryGeodetic.Longitude)
		if err != nil {
			return ellipsoid.Vector3{}, err
		}
		if sameTile(tile, entryTile) {
			return entryCandidate, nil
		}
		lat, lon = entryGeodetic.Latitude, entryGeodetic.Longitude
	}
	return ellipsoid.Vector3{}, ruggederr.New(ruggederr.LineOfSightDoesNotReachGround)
}

// sameTile compares tiles by the (minLat, minLon) corner the cache keys
// them on.
func sameTile(a, b *dem.MinMaxTreeTile) bool {
	return a.MinLat() == b.MinLat() && a.MinLon() == b.MinLon()
}

func (d *DuvenhageIntersector) RefineIntersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3, close ellipsoid.NormalizedGeodeticPoint) (ellipsoid.NormalizedGeodeticPoint, error) {
	tile, err := d.Cache.GetTile(close.Latitude, close.Longitude)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, err
	}
	losTopo := e.ConvertLOS(close.GeodeticPoint, los)
	i, j := tile.CellIndices(close.Latitude, close.Longitude)
	if gp, _, ok := tile.CellIntersection(e, close, losTopo, i, j); ok {
		return gp, nil
	}
	return d.Intersection(e, position, los)
}

func (d *DuvenhageIntersector) GetElevation(lat, lon float64) (float64, error) {
	tile, err := d.Cache.GetTile(lat, lon)
	if err != nil {
		return 0, err
	}
	return tile.InterpolateElevation(lat, lon)
}

// searchTile descends tile's min/max tree from the root, looking for the
// smallest-s crossing reachable from entry along losTopo.
func searchTile(e ellipsoid.Ellipsoid, tile *dem.MinMaxTreeTile, entry ellipsoid.NormalizedGeodeticPoint, losTopo ellipsoid.Vector3, solve cellSolver) (ellipsoid.NormalizedGeodeticPoint, bool, error) {
	m, n := e.RadiiOfCurvature(entry.Latitude)
	cosLat := math.Cos(entry.Latitude)
	latRate := losTopo[1] / m
	lonRate := losTopo[0] / (n * cosLat)
	altRate := losTopo[2]

	var best ellipsoid.NormalizedGeodeticPoint
	bestS := math.Inf(1)
	found := false

	const maxDepth = 64
	var descend func(level, R, C, depth int) error
	descend = func(level, R, C, depth int) error {
		if depth > maxDepth {
			return ruggederr.New(ruggederr.InternalError, "min/max tree recursion exceeded depth guard")
		}
		minLat, maxLat, minLon, maxLon := tile.GroupLatLonBounds(level, R, C)
		sLo, sHi, ok := rayFootprintSpan(entry, latRate, lonRate, minLat, maxLat, minLon, maxLon)
		if !ok {
			return nil
		}
		if found && sLo > bestS {
			return nil
		}
		altAtSLo := entry.Altitude + altRate*sLo
		altAtSHi := entry.Altitude + altRate*sHi
		rayMinAlt := math.Min(altAtSLo, altAtSHi)

		_, groupMax := tile.GroupBounds(level, R, C)
		if groupMax < rayMinAlt {
			return nil // terrain here is entirely below the ray: no crossing possible
		}

		if level >= tile.Levels() {
			for _, cell := range tile.FinestRawCells(R, C) {
				if cell[0] >= tile.Rows()-1 || cell[1] >= tile.Cols()-1 {
					continue
				}
				gp, s, ok := solve(e, tile, entry, losTopo, cell[0], cell[1])
				if ok && s < bestS {
					best, bestS, found = gp, s, true
				}
			}
			return nil
		}

		for _, child := range tile.Children(level, R, C) {
			if err := descend(level+1, child[0], child[1], depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	rootRows, rootCols := tile.GroupShape(1)
	for R := 0; R < rootRows; R++ {
		for C := 0; C < rootCols; C++ {
			if err := descend(1, R, C, 0); err != nil {
				return ellipsoid.NormalizedGeodeticPoint{}, false, err
			}
		}
	}
	return best, found, nil
}

// rayFootprintSpan returns the [sLo, sHi] (s >= 0) sub-range over which the
// ray's (lat, lon) trace, linearized at entry, lies within the given
// rectangle, or ok=false if it never does.
func rayFootprintSpan(entry ellipsoid.NormalizedGeodeticPoint, latRate, lonRate, minLat, maxLat, minLon, maxLon float64) (sLo, sHi float64, ok bool) {
	lo, hi := 0.0, math.Inf(1)
	if !clipLinear(entry.Latitude, latRate, minLat, maxLat, &lo, &hi) {
		return 0, 0, false
	}
	if !clipLinear(entry.Longitude, lonRate, minLon, maxLon, &lo, &hi) {
		return 0, 0, false
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// clipLinear intersects [*lo, *hi] with the s-range over which
// value0 + rate*s lies within [bmin, bmax], shrinking *lo/*hi in place.
func clipLinear(value0, rate, bmin, bmax float64, lo, hi *float64) bool {
	if rate == 0 {
		return value0 >= bmin && value0 <= bmax
	}
	s1 := (bmin - value0) / rate
	s2 := (bmax - value0) / rate
	if s1 > s2 {
		s1, s2 = s2, s1
	}
	if s1 > *lo {
		*lo = s1
	}
	if s2 < *hi {
		*hi = s2
	}
	return *lo <= *hi
}

// exitTilePoint returns the geodetic point just past where the ray leaves
// tile's rectangle (widened by one cell, matching the overshoot a
// bilinear cell's footprint already reaches past its own indices).
func exitTilePoint(e ellipsoid.Ellipsoid, tile *dem.MinMaxTreeTile, entry ellipsoid.NormalizedGeodeticPoint, losTopo ellipsoid.Vector3) (ellipsoid.NormalizedGeodeticPoint, bool) {
	m, n := e.RadiiOfCurvature(entry.Latitude)
	cosLat := math.Cos(entry.Latitude)
	latRate := losTopo[1] / m
	lonRate := losTopo[0] / (n * cosLat)
	altRate := losTopo[2]

	lo, hi := 0.0, math.Inf(1)
	latStep, lonStep := tile.LatStep(), tile.LonStep()
	minLat, maxLat := tile.MinLat()-latStep, tile.MaxLat()+latStep
	minLon, maxLon := tile.MinLon()-lonStep, tile.MaxLon()+lonStep
	if !clipLinear(entry.Latitude, latRate, minLat, maxLat, &lo, &hi) {
		return ellipsoid.NormalizedGeodeticPoint{}, false
	}
	if !clipLinear(entry.Longitude, lonRate, minLon, maxLon, &lo, &hi) {
		return ellipsoid.NormalizedGeodeticPoint{}, false
	}
	if math.IsInf(hi, 1) || hi <= 0 {
		return ellipsoid.NormalizedGeodeticPoint{}, false
	}
	s := hi + 1e-6
	gp := ellipsoid.GeodeticPoint{
		Latitude:  entry.Latitude + latRate*s,
		Longitude: entry.Longitude + lonRate*s,
		Altitude:  entry.Altitude + altRate*s,
	}.Normalize(entry.Lambda0)
	return gp, true
}
