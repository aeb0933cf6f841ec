package ellipsoid

import (
	"github.com/golang/geo/s2"
)

// GreatCircle returns the great-circle distance in meters between two
// geodetic points, approximating the ellipsoid locally by the mean radius
// implied by this Ellipsoid. This is a convenience for magnitude checks
// (e.g. the light-time and aberration displacement assertions of locate's
// end-to-end tests) — it is not used by any intersection-accuracy path,
// which works in full ellipsoidal Cartesian coordinates instead.
func (e Ellipsoid) GreatCircle(a, b GeodeticPoint) float64 {
	ll1 := s2.LatLngFromRadians(a.Latitude, a.Longitude)
	ll2 := s2.LatLngFromRadians(b.Latitude, b.Longitude)
	angle := ll1.Distance(ll2)
	return float64(angle) * e.meanRadius()
}

func (e Ellipsoid) meanRadius() float64 {
	return (2*e.EquatorialRadius + e.b) / 3
}
