package locate

import (
	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/intersect"
	"github.com/CS-SI/rugged-go/sensor"
	"github.com/CS-SI/rugged-go/trajectory"
)

// DirectLocator implements pixel -> ground point geolocation: §4.7's
// five-step pipeline (trajectory sample, frame rotation, optional
// aberration, optional light-time, terrain intersection). An instance is
// immutable once built and safe to call concurrently from many goroutines —
// the only shared mutable state it touches is Algorithm's tile cache, which
// is already safe for concurrent use.
type DirectLocator struct {
	Ellipsoid     ellipsoid.Ellipsoid
	Trajectory    *trajectory.TrajectoryInterpolator
	EarthRotation EarthRotationProvider
	Algorithm     intersect.Algorithm

	// LightTimeCorrection and AberrationCorrection toggle the two optional
	// relativistic-adjacent corrections of §4.7 steps 4-5. Both default to
	// off (false).
	LightTimeCorrection  bool
	AberrationCorrection bool

	// Refraction, when non-nil, is applied to the un-refracted intersection
	// as the optional atmospheric-refraction collaborator of §4.8.
	Refraction AtmosphericRefraction
}

// LocatePixel runs the direct-location pipeline for one (line, pixel) of s.
func (d *DirectLocator) LocatePixel(s *sensor.LineSensor, line float64, pixel int) (ellipsoid.NormalizedGeodeticPoint, error) {
	return d.LocatePixelAt(s, line, float64(pixel))
}

// LocatePixelAt is LocatePixel generalized to a real-valued pixel
// coordinate, via sensor.LineSensor.LOSAt. InverseLocator's pixel Newton
// step uses this directly to take a numerical derivative of the ground
// point with respect to pixel.
func (d *DirectLocator) LocatePixelAt(s *sensor.LineSensor, line float64, pixel float64) (ellipsoid.NormalizedGeodeticPoint, error) {
	if err := s.ValidateLine(line); err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, err
	}

	t := s.GetDate(line)
	frame, err := d.Trajectory.Interpolate(t)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, err
	}

	pInertial := frame.Position.Add(frame.Rotation.Rotate(s.Position))
	lInertial := frame.Rotation.Rotate(s.LOSAt(pixel, t))
	if d.AberrationCorrection {
		lInertial = trajectory.AberrationCorrection(lInertial, frame.Velocity)
	}

	rot := d.EarthRotation.InertialToBody(t)
	pBody := rot.Rotate(pInertial)
	lBody := rot.Rotate(lInertial)

	if d.LightTimeCorrection {
		if estimate, err := d.Ellipsoid.PointOnGround(pBody, lBody); err == nil {
			dist := estimate.Sub(pBody).Norm()
			delay := dist / trajectory.SpeedOfLight
			rotDelayed := d.EarthRotation.InertialToBody(t - delay)
			pBody = rotDelayed.Rotate(pInertial)
			lBody = rotDelayed.Rotate(lInertial)
		}
		// If the un-delayed estimate itself misses the ellipsoid, fall through
		// and let Algorithm.Intersection surface the real error below — a
		// transient failure here must never be synthesized into a top-level
		// one, per §7's propagation policy.
	}

	raw, err := d.Algorithm.Intersection(d.Ellipsoid, pBody, lBody)
	if err != nil || d.Refraction == nil {
		return raw, err
	}
	return d.Refraction.ApplyCorrection(d.Ellipsoid, pBody, lBody, raw, d.Algorithm)
}

// LocateLine runs LocatePixel for every pixel of line, in pixel order, and
// returns the full ordered array of geodetic points. It stops at the first
// pixel that fails so a caller never receives a partially populated result
// silently mixed with zero values.
func (d *DirectLocator) LocateLine(s *sensor.LineSensor, line float64) ([]ellipsoid.NormalizedGeodeticPoint, error) {
	points := make([]ellipsoid.NormalizedGeodeticPoint, s.NbPixels)
	for i := 0; i < s.NbPixels; i++ {
		p, err := d.LocatePixel(s, line, i)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return points, nil
}
