// Package locate composes ellipsoid, trajectory, sensor, and intersect into
// the two end-to-end geolocation operations: DirectLocator (pixel -> ground
// point) and InverseLocator (ground point -> pixel).
package locate

import (
	"math"
	"time"

	gosatellite "github.com/joshuaferrara/go-satellite"

	"github.com/CS-SI/rugged-go/trajectory"
)

// EarthRotationProvider converts an inertial-frame vector to the rotating
// body-fixed frame ellipsoid/dem/intersect operate in, at a given trajectory
// date (seconds elapsed since the trajectory's own epoch). DirectLocator
// calls it twice per pixel when light-time correction is enabled: once at
// the observation date, once at the (slightly earlier) emission date.
type EarthRotationProvider interface {
	InertialToBody(date float64) trajectory.Quaternion
}

// SiderealEarthRotation models the inertial-to-body rotation as a pure
// rotation about the polar axis by the Greenwich mean sidereal angle,
// computed from the trajectory date's corresponding calendar time via the
// same gosatellite.JDay/ThetaG_JD pair the teacher's satellite package uses
// to convert an ECI sub-satellite point to geodetic coordinates. It ignores
// polar motion and precession/nutation, which move the pole by centimeters
// to meters — negligible next to a DEM cell.
type SiderealEarthRotation struct {
	// Epoch is the calendar time corresponding to trajectory date 0.
	Epoch time.Time
}

// InertialToBody returns the quaternion rotating an inertial-frame vector
// into the body-fixed frame at the given trajectory date.
func (s SiderealEarthRotation) InertialToBody(date float64) trajectory.Quaternion {
	t := s.Epoch.Add(time.Duration(date * float64(time.Second)))
	jd := gosatellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	gmst := gosatellite.ThetaG_JD(jd)
	return zRotation(-gmst)
}

// zRotation returns the quaternion rotating a vector by theta radians about
// the +Z axis.
func zRotation(theta float64) trajectory.Quaternion {
	return trajectory.Quaternion{math.Cos(theta / 2), 0, 0, math.Sin(theta / 2)}
}

// IdentityEarthRotation treats the inertial and body frames as coincident —
// correct for a non-rotating body, and a convenient fixture for tests that
// want to reason about geolocation geometry without also threading sidereal
// time through every assertion.
type IdentityEarthRotation struct{}

// InertialToBody returns the identity rotation.
func (IdentityEarthRotation) InertialToBody(date float64) trajectory.Quaternion {
	return trajectory.IdentityQuaternion
}
