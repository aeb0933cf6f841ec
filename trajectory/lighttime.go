package trajectory

import "github.com/CS-SI/rugged-go/ellipsoid"

// SpeedOfLight is c in meters/second.
const SpeedOfLight = 299792458.0

// LightTimeCorrection finds the emission date t_emit <= observationDate
// such that the target (evaluated via interpolate) was at the position
// light left from, to arrive at observerPosition at observationDate:
//
//	|interpolate(t_emit).Position - observerPosition| = c * (observationDate - t_emit)
//
// Solved by fixed-point iteration (2-3 iterations converge to sub-mm for
// LEO-to-LEO or ground-to-LEO ranges), starting from t_emit = observationDate.
func LightTimeCorrection(interpolate func(float64) (Frame, error), observationDate float64, observerPosition ellipsoid.Vector3) (Frame, error) {
	tEmit := observationDate
	var f Frame
	for i := 0; i < 4; i++ {
		var err error
		f, err = interpolate(tEmit)
		if err != nil {
			return Frame{}, err
		}
		dist := f.Position.Sub(observerPosition).Norm()
		tEmit = observationDate - dist/SpeedOfLight
	}
	return interpolate(tEmit)
}

// AberrationCorrection applies classical (non-relativistic) stellar
// aberration to a line-of-sight direction observed by something moving at
// observerVelocity: l_corrected = normalize(c·l - v), the apparent
// direction displaced away from the velocity vector by v/c, to first
// order.
//
// This is deliberately the simpler classical correction (not the full
// relativistic aberration the teacher's coord package computes for
// star-catalog work in coord/aberration.go) because the sub-km/s
// satellite-relative-to-ground velocities here never approach a regime
// where the relativistic terms matter at DEM-cell precision.
func AberrationCorrection(trueDirection, observerVelocity ellipsoid.Vector3) ellipsoid.Vector3 {
	beta := observerVelocity.Scale(1 / SpeedOfLight)
	apparent := trueDirection.Sub(beta)
	return apparent.Normalize()
}
