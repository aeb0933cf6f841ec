// Package intersect implements ray/terrain intersection: given a sensor
// position and a line of sight in body-frame Cartesian coordinates, find
// where the ray first crosses the terrain surface. Algorithm is a small
// capability interface so DirectLocator and InverseLocator can be pointed
// at a full DEM-aware search (DuvenhageIntersector), a brute-force
// reference implementation (BasicScan), or a DEM-free approximation
// (IgnoreDEMUseEllipsoid, ConstantElevationOverEllipsoid) without any type
// switch in the locator itself — Go's answer to the class-hierarchy
// "capability set" design note.
package intersect

import (
	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// Algorithm finds where a body-frame ray first crosses a terrain surface.
type Algorithm interface {
	// Intersection returns the first ground point the ray position+s*los
	// (s > 0) crosses.
	Intersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3) (ellipsoid.NormalizedGeodeticPoint, error)

	// RefineIntersection polishes a close, already-approximate ground point
	// (typically coming from a coarser algorithm, or from the previous
	// iteration of an inverse-location Newton step) against the same ray.
	RefineIntersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3, close ellipsoid.NormalizedGeodeticPoint) (ellipsoid.NormalizedGeodeticPoint, error)

	// GetElevation returns the terrain elevation at (lat, lon).
	GetElevation(lat, lon float64) (float64, error)
}

// IgnoreDEMUseEllipsoid is the simplest Algorithm: terrain is the
// ellipsoid surface itself (elevation 0 everywhere). Useful for bodies or
// test fixtures with no DEM, and as the innermost fallback when no tile
// cache is configured.
type IgnoreDEMUseEllipsoid struct{}

func (IgnoreDEMUseEllipsoid) Intersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3) (ellipsoid.NormalizedGeodeticPoint, error) {
	p, err := e.PointOnGround(position, los)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.Wrap(err, ruggederr.LineOfSightDoesNotReachGround)
	}
	return e.TransformNormalized(p, 0)
}

func (a IgnoreDEMUseEllipsoid) RefineIntersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3, _ ellipsoid.NormalizedGeodeticPoint) (ellipsoid.NormalizedGeodeticPoint, error) {
	return a.Intersection(e, position, los)
}

func (IgnoreDEMUseEllipsoid) GetElevation(lat, lon float64) (float64, error) {
	return 0, nil
}

// ConstantElevationOverEllipsoid models terrain as a single fixed
// elevation above the ellipsoid everywhere — a flat-plateau approximation
// useful for quick-look processing or bodies with no DEM but a known
// mean terrain height.
type ConstantElevationOverEllipsoid struct {
	Elevation float64
}

func (c ConstantElevationOverEllipsoid) Intersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3) (ellipsoid.NormalizedGeodeticPoint, error) {
	p, err := e.PointAtAltitude(position, los, c.Elevation)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.Wrap(err, ruggederr.LineOfSightDoesNotReachGround)
	}
	return e.TransformNormalized(p, 0)
}

func (c ConstantElevationOverEllipsoid) RefineIntersection(e ellipsoid.Ellipsoid, position, los ellipsoid.Vector3, _ ellipsoid.NormalizedGeodeticPoint) (ellipsoid.NormalizedGeodeticPoint, error) {
	return c.Intersection(e, position, los)
}

func (c ConstantElevationOverEllipsoid) GetElevation(lat, lon float64) (float64, error) {
	return c.Elevation, nil
}
