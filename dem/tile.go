// Package dem implements the DEM raster Tile and its MinMaxTreeTile
// extension: a per-cell bilinear elevation model plus an implicit min/max
// k-d tree over hierarchical super-cell groups, used by intersect's
// Duvenhage ray/terrain intersection to prune whole sub-tiles.
package dem

import (
	"math"

	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// Location classifies where a queried (lat, lon) falls relative to a tile's
// interpolable interior.
type Location int

const (
	North Location = iota
	South
	East
	West
	NorthWest
	NorthEast
	SouthWest
	SouthEast
	HasInterpolationNeighbors
)

// Tile is a rectangular raster of cell-centered elevations. Cell (i, j)
// owns the rectangle [minLat+i*latStep, minLat+(i+1)*latStep] x
// [minLon+j*lonStep, minLon+(j+1)*lonStep], with elevation inside the cell
// defined by bilinear interpolation of its four corners — so the last row
// and column of points are not themselves interpolable cell owners.
//
// A Tile is built in two steps by a TileUpdater: SetGeometry once, then
// SetElevation for every (i, j).
type Tile struct {
	minLat, minLon   float64
	latStep, lonStep float64
	rows, cols       int
	elevations       []float64
	geometrySet      bool
}

// SetGeometry fixes the tile's raster shape and footprint. Must be called
// exactly once, before any SetElevation call.
func (t *Tile) SetGeometry(minLat, minLon, latStep, lonStep float64, rows, cols int) error {
	if rows < 1 || cols < 1 {
		return ruggederr.New(ruggederr.EmptyTile, rows, cols)
	}
	if latStep <= 0 || lonStep <= 0 {
		return ruggederr.New(ruggederr.InvalidInput, "latStep and lonStep must be positive")
	}
	t.minLat, t.minLon = minLat, minLon
	t.latStep, t.lonStep = latStep, lonStep
	t.rows, t.cols = rows, cols
	t.elevations = make([]float64, rows*cols)
	t.geometrySet = true
	return nil
}

// SetElevation stores the elevation of grid point (i, j).
func (t *Tile) SetElevation(i, j int, elevation float64) error {
	if !t.geometrySet {
		return ruggederr.New(ruggederr.InternalError, "SetElevation called before SetGeometry")
	}
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		return ruggederr.New(ruggederr.OutOfTileIndices, i, j, t.rows, t.cols)
	}
	t.elevations[i*t.cols+j] = elevation
	return nil
}

// Elevation returns the stored elevation of grid point (i, j).
func (t *Tile) Elevation(i, j int) (float64, error) {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		return 0, ruggederr.New(ruggederr.OutOfTileIndices, i, j, t.rows, t.cols)
	}
	return t.elevations[i*t.cols+j], nil
}

func (t *Tile) Rows() int          { return t.rows }
func (t *Tile) Cols() int          { return t.cols }
func (t *Tile) MinLat() float64    { return t.minLat }
func (t *Tile) MinLon() float64    { return t.minLon }
func (t *Tile) LatStep() float64   { return t.latStep }
func (t *Tile) LonStep() float64   { return t.lonStep }
func (t *Tile) MaxLat() float64    { return t.minLat + float64(t.rows-1)*t.latStep }
func (t *Tile) MaxLon() float64    { return t.minLon + float64(t.cols-1)*t.lonStep }

// IsEmpty reports whether the tile has no usable cells.
func (t *Tile) IsEmpty() bool { return !t.geometrySet || t.rows == 0 || t.cols == 0 }

// CellIndices returns the (i, j) of the cell containing (lat, lon), clamped
// to the tile's valid cell range [0, rows-2] x [0, cols-2].
func (t *Tile) CellIndices(lat, lon float64) (i, j int) {
	i = int((lat - t.minLat) / t.latStep)
	j = int((lon - t.minLon) / t.lonStep)
	if i < 0 {
		i = 0
	}
	if maxI := t.rows - 2; i > maxI {
		i = maxI
	}
	if j < 0 {
		j = 0
	}
	if maxJ := t.cols - 2; j > maxJ {
		j = maxJ
	}
	return i, j
}

// Classify reports how (lat, lon) relates to the tile's interpolable
// interior: HasInterpolationNeighbors when a cell owning (lat, lon) exists
// (i.e. there is a point to the north and a point to the east), otherwise
// one of the eight compass directions naming which edge(s) of the tile the
// point falls outside of (or on the last row/column of, where no further
// interpolation neighbor exists).
func (t *Tile) Classify(lat, lon float64) Location {
	north := lat >= t.MaxLat()
	south := lat < t.minLat
	west := lon < t.minLon
	east := lon >= t.MaxLon()

	switch {
	case north && west:
		return NorthWest
	case north && east:
		return NorthEast
	case south && west:
		return SouthWest
	case south && east:
		return SouthEast
	case north:
		return North
	case south:
		return South
	case west:
		return West
	case east:
		return East
	default:
		return HasInterpolationNeighbors
	}
}

// InterpolateElevation returns the bilinearly interpolated elevation at
// (lat, lon), which must lie within the tile's interpolable interior.
func (t *Tile) InterpolateElevation(lat, lon float64) (float64, error) {
	if t.Classify(lat, lon) != HasInterpolationNeighbors {
		return 0, ruggederr.New(ruggederr.OutOfTileAngles, lat, lon,
			[2]float64{t.minLat, t.MaxLat()}, [2]float64{t.minLon, t.MaxLon()})
	}
	i, j := t.CellIndices(lat, lon)
	u := (lon - (t.minLon + float64(j)*t.lonStep)) / t.lonStep
	v := (lat - (t.minLat + float64(i)*t.latStep)) / t.latStep
	c0, c1, c2, c3, err := t.bilinearCoeffs(i, j)
	if err != nil {
		return 0, err
	}
	return c0 + c1*u + c2*v + c3*u*v, nil
}

// bilinearCoeffs returns the bilinear surface coefficients (c0, c1, c2, c3)
// for z(u,v) = c0 + c1*u + c2*v + c3*u*v over cell (i, j), from its four
// corner elevations.
func (t *Tile) bilinearCoeffs(i, j int) (c0, c1, c2, c3 float64, err error) {
	z00, err := t.Elevation(i, j)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	z10, err := t.Elevation(i+1, j)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	z01, err := t.Elevation(i, j+1)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	z11, err := t.Elevation(i+1, j+1)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	c0 = z00
	c1 = z01 - z00
	c2 = z10 - z00
	c3 = z11 - z10 - z01 + z00
	return c0, c1, c2, c3, nil
}

// CellIntersection finds the first intersection between the ray
// entry + s*losTopocentric (expressed in the local topocentric frame at
// entry) and the bilinearly interpolated surface of cell (i, j), for s > 0
// within the cell's geographic and elevation footprint. losTopocentric's
// components are (east, north, zenith) meters-per-unit-s, as produced by
// ellipsoid.Ellipsoid.ConvertLOS. e is used only to get the local radii of
// curvature needed to convert the topocentric offset back to (lat, lon).
//
// Returns ok=false if the ray does not cross the cell's bilinear surface
// within the cell. The returned s is the ray parameter of the crossing,
// useful for ordering candidate hits from several cells.
func (t *Tile) CellIntersection(e ellipsoid.Ellipsoid, entry ellipsoid.NormalizedGeodeticPoint, losTopocentric ellipsoid.Vector3, i, j int) (ellipsoid.NormalizedGeodeticPoint, float64, bool) {
	c0, c1, c2, c3, err := t.bilinearCoeffs(i, j)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, 0, false
	}

	m, n := e.RadiiOfCurvature(entry.Latitude)
	cosLat := math.Cos(entry.Latitude)

	latRate := losTopocentric[1] / m
	lonRate := losTopocentric[0] / (n * cosLat)
	altRate := losTopocentric[2]

	cellMinLat := t.minLat + float64(i)*t.latStep
	cellMinLon := t.minLon + float64(j)*t.lonStep

	u0 := (entry.Longitude - cellMinLon) / t.lonStep
	v0 := (entry.Latitude - cellMinLat) / t.latStep
	us := lonRate / t.lonStep
	vs := latRate / t.latStep

	k0 := c0 + c1*u0 + c2*v0 + c3*u0*v0
	k1 := c1*us + c2*vs + c3*(u0*vs+v0*us)
	k2 := c3 * us * vs

	// k2*s^2 + (k1-altRate)*s + (k0-entry.Altitude) = 0
	a := k2
	b := k1 - altRate
	c := k0 - entry.Altitude

	roots, ok := quadraticRoots(a, b, c)
	if !ok {
		return ellipsoid.NormalizedGeodeticPoint{}, 0, false
	}

	// edgeTolerance absorbs rounding in u/v for a ray lying exactly on an
	// edge shared by two cells, which would otherwise be rejected by both.
	const edgeTolerance = 1e-9
	for _, s := range roots {
		if s <= 0 {
			continue
		}
		u := u0 + us*s
		v := v0 + vs*s
		if u < -edgeTolerance || u > 1+edgeTolerance || v < -edgeTolerance || v > 1+edgeTolerance {
			continue
		}
		lat := entry.Latitude + latRate*s
		lon := entry.Longitude + lonRate*s
		alt := entry.Altitude + altRate*s
		gp := ellipsoid.GeodeticPoint{Latitude: lat, Longitude: lon, Altitude: alt}.Normalize(entry.Lambda0)
		return gp, s, true
	}
	return ellipsoid.NormalizedGeodeticPoint{}, 0, false
}

// quadraticRoots returns the real roots of a*s^2 + b*s + c = 0, handling the
// degenerate a==0 (linear) case. ok is false only when no real root exists.
func quadraticRoots(a, b, c float64) ([2]float64, bool) {
	if a == 0 {
		if b == 0 {
			return [2]float64{}, false
		}
		s := -c / b
		return [2]float64{s, s}, true
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return [2]float64{}, false
	}
	sq := math.Sqrt(disc)
	r1 := (-b - sq) / (2 * a)
	r2 := (-b + sq) / (2 * a)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return [2]float64{r1, r2}, true
}
