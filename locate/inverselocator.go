package locate

import (
	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/ruggederr"
	"github.com/CS-SI/rugged-go/sensor"
)

// PixelLine is an inverse-location result: a real-valued (sub-pixel) pixel
// coordinate and line number.
type PixelLine struct {
	Line  float64
	Pixel float64
}

// InverseLocator implements ground point -> (line, pixel) geolocation, per
// §4.8: bracket the line from the sensor's mean plane, then Newton-refine
// pixel and line in body-frame Cartesian coordinates until the ground
// residual falls below a millionth of the equatorial radius, or the
// iteration budget is spent.
type InverseLocator struct {
	*DirectLocator

	// MaxPixelIterations bounds the pixel/line refinement loop. Defaults to
	// 20 (spec §4.8 step 2) if left at zero.
	MaxPixelIterations int
	// BracketIterations bounds the line-bracketing bisection. Defaults to
	// 50 if left at zero — cheap relative to the Newton refinement, and the
	// bracket only needs to land within "a few lines" of the true crossing.
	BracketIterations int
}

func (inv *InverseLocator) maxPixelIterations() int {
	if inv.MaxPixelIterations > 0 {
		return inv.MaxPixelIterations
	}
	return 20
}

func (inv *InverseLocator) bracketIterations() int {
	if inv.BracketIterations > 0 {
		return inv.BracketIterations
	}
	return 50
}

// crossingValue evaluates, in body-frame Cartesian coordinates, whether the
// sensor's mean plane at the date corresponding to line lies above (positive)
// or below (negative) ground point g.
func (inv *InverseLocator) crossingValue(s *sensor.LineSensor, line float64, g ellipsoid.Vector3) (float64, error) {
	t := s.GetDate(line)
	frame, err := inv.Trajectory.Interpolate(t)
	if err != nil {
		return 0, err
	}
	refInertial := frame.Position.Add(frame.Rotation.Rotate(s.MeanPlaneReferencePoint(t)))
	normalInertial := frame.Rotation.Rotate(s.MeanPlaneNormal(t))
	rot := inv.EarthRotation.InertialToBody(t)
	refBody := rot.Rotate(refInertial)
	normalBody := rot.Rotate(normalInertial)
	return sensor.CrossingLine(normalBody, refBody, g), nil
}

// bracketLine finds, by bisection, the line in [s.MinLine, s.MaxLine] where
// crossingValue changes sign. Returns ok=false if both ends have the same
// sign (g is outside the sensor's field of view, or its mean plane is
// degenerate for this geometry).
func (inv *InverseLocator) bracketLine(s *sensor.LineSensor, g ellipsoid.Vector3) (float64, bool, error) {
	lo, hi := s.MinLine, s.MaxLine
	fLo, err := inv.crossingValue(s, lo, g)
	if err != nil {
		return 0, false, err
	}
	fHi, err := inv.crossingValue(s, hi, g)
	if err != nil {
		return 0, false, err
	}
	if fLo == 0 {
		return lo, true, nil
	}
	if fHi == 0 {
		return hi, true, nil
	}
	if (fLo > 0) == (fHi > 0) {
		return 0, false, nil
	}

	for i := 0; i < inv.bracketIterations(); i++ {
		mid := 0.5 * (lo + hi)
		fMid, err := inv.crossingValue(s, mid, g)
		if err != nil {
			return 0, false, err
		}
		if (fMid > 0) == (fLo > 0) {
			lo, fLo = mid, fMid
		} else {
			hi, fHi = mid, fMid
		}
	}
	return 0.5 * (lo + hi), true, nil
}

// Locate finds the (line, pixel) of sensor s that direct-locates to ground
// point g (body-frame Cartesian). ok is false when g is outside s's field
// of view — an absent result, not an error, per §7's "never fail with an
// exception purely because the point lies outside the field of view".
func (inv *InverseLocator) Locate(s *sensor.LineSensor, g ellipsoid.Vector3) (PixelLine, bool, error) {
	line, ok, err := inv.bracketLine(s, g)
	if err != nil {
		return PixelLine{}, false, err
	}
	if !ok {
		return inv.absent()
	}

	pixel := float64(s.NbPixels-1) / 2
	tolerance := inv.Ellipsoid.EquatorialRadius * 1e-6

	const pixelStep = 0.5
	const lineStep = 0.5

	for iter := 0; iter < inv.maxPixelIterations(); iter++ {
		gp, err := inv.LocatePixelAt(s, line, pixel)
		if err != nil {
			return PixelLine{}, false, err
		}
		current := inv.Ellipsoid.ToCartesian(gp.GeodeticPoint)
		residual := g.Sub(current)
		if residual.Norm() < tolerance {
			return inv.finish(s, line, pixel)
		}

		gpDPixel, err := inv.LocatePixelAt(s, line, pixel+pixelStep)
		if err != nil {
			return PixelLine{}, false, err
		}
		dPixel := inv.Ellipsoid.ToCartesian(gpDPixel.GeodeticPoint).Sub(current).Scale(1 / pixelStep)
		if denom := dPixel.Dot(dPixel); denom > 1e-12 {
			pixel += residual.Dot(dPixel) / denom
		}

		gpDLine, err := inv.LocatePixelAt(s, line+lineStep, pixel)
		if err != nil {
			return PixelLine{}, false, err
		}
		dLine := inv.Ellipsoid.ToCartesian(gpDLine.GeodeticPoint).Sub(current).Scale(1 / lineStep)
		if denom := dLine.Dot(dLine); denom > 1e-12 {
			line += residual.Dot(dLine) / denom
		}
		if line < s.MinLine || line > s.MaxLine {
			return inv.finish(s, line, pixel)
		}
	}

	return inv.finish(s, line, pixel)
}

// finish validates a converged (line, pixel) pair against the sensor's
// bounds, returning the refraction-aware explicit errors if a refraction
// model is configured, or an absent result otherwise.
func (inv *InverseLocator) finish(s *sensor.LineSensor, line, pixel float64) (PixelLine, bool, error) {
	inRangeLines := line >= s.MinLine && line <= s.MaxLine
	inPixelsLine := pixel >= 0 && pixel <= float64(s.NbPixels-1)

	if inRangeLines && inPixelsLine {
		return PixelLine{Line: line, Pixel: pixel}, true, nil
	}
	if inv.DirectLocator.Refraction != nil {
		if !inRangeLines {
			return PixelLine{}, false, ruggederr.New(ruggederr.SensorPixelNotFoundInRangeLines, line, s.MinLine, s.MaxLine)
		}
		return PixelLine{}, false, ruggederr.New(ruggederr.SensorPixelNotFoundInPixelsLine, pixel, 0, s.NbPixels-1)
	}
	return inv.absent()
}

func (inv *InverseLocator) absent() (PixelLine, bool, error) {
	return PixelLine{}, false, nil
}
