// Package sensor models a push-broom line-array imaging sensor: a fixed
// per-pixel look-direction fan in the spacecraft frame, a line <-> date
// datation model, and the least-squares mean plane used to bracket inverse
// location before the per-pixel Newton refinement in package locate.
package sensor

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// TimeDependentLOS returns the spacecraft-frame unit line-of-sight vector
// for pixel i at the given acquisition date. Calibration (e.g. a
// time-varying boresight correction) is free to depend on date; a sensor
// whose LOS never changes over time can ignore it.
type TimeDependentLOS interface {
	LOS(pixel int, date float64) ellipsoid.Vector3
}

// FixedLOS is a TimeDependentLOS backed by a precomputed, date-independent
// per-pixel direction table — the common case for a sensor with no
// in-flight LOS calibration.
type FixedLOS struct {
	Directions []ellipsoid.Vector3
}

// LOS returns Directions[pixel], ignoring date.
func (f FixedLOS) LOS(pixel int, date float64) ellipsoid.Vector3 {
	return f.Directions[pixel]
}

// BoresightCorrectedLOS rotates a fixed per-pixel fan by a small
// parameter-driven boresight offset: a rotation of Angle radians (looked up
// live from Params at AngleIndex, so recalibrating the boresight needs no
// new LOS table) about Axis. This is the arena-plus-stable-index shape from
// the design notes applied to LOS itself, not just the mean plane.
type BoresightCorrectedLOS struct {
	Base        []ellipsoid.Vector3
	Params      *ParameterSet
	AngleIndex  int
	Axis        ellipsoid.Vector3
}

// LOS returns Base[pixel] rotated by the current boresight angle about Axis.
func (b BoresightCorrectedLOS) LOS(pixel int, date float64) ellipsoid.Vector3 {
	angle := b.Params.Value(b.AngleIndex)
	if angle == 0 {
		return b.Base[pixel]
	}
	return rotateAboutAxis(b.Base[pixel], b.Axis.Normalize(), angle)
}

func rotateAboutAxis(v, axis ellipsoid.Vector3, angle float64) ellipsoid.Vector3 {
	cosA, sinA := math.Cos(angle), math.Sin(angle)
	// Rodrigues' rotation formula.
	term1 := v.Scale(cosA)
	term2 := axis.Cross(v).Scale(sinA)
	term3 := axis.Scale(axis.Dot(v) * (1 - cosA))
	return term1.Add(term2).Add(term3)
}

// LineSensor is an immutable (aside from its ParameterSet) push-broom
// sensor: nbPixels look directions per line, a fixed per-pixel position in
// the spacecraft frame, and a datation model mapping line number to date.
type LineSensor struct {
	Name     string
	Position ellipsoid.Vector3
	LOSModel TimeDependentLOS
	Datation Datation
	NbPixels int
	MinLine  float64
	MaxLine  float64
	// NominalViewDirection canonicalizes the mean-plane normal's sign: the
	// fitted normal is flipped, if needed, so its dot product with this
	// direction is non-negative. See DESIGN.md's Open Question decision —
	// the SVD alone leaves the sign arbitrary.
	NominalViewDirection ellipsoid.Vector3
	Params               *ParameterSet

	meanFitted  bool
	meanDate    float64
	meanVersion int
	meanNormal  ellipsoid.Vector3
	meanRef     ellipsoid.Vector3
}

// GetDate returns the acquisition date of the given (real-valued) line.
func (s *LineSensor) GetDate(line float64) float64 { return s.Datation.GetDate(line) }

// GetLine returns the (real-valued) line acquired at date.
func (s *LineSensor) GetLine(date float64) float64 { return s.Datation.GetLine(date) }

// GetRate returns the instantaneous line rate at the given line.
func (s *LineSensor) GetRate(line float64) float64 { return s.Datation.GetRate(line) }

// LOS returns pixel i's spacecraft-frame unit line-of-sight vector at the
// given date.
func (s *LineSensor) LOS(i int, date float64) ellipsoid.Vector3 {
	return s.LOSModel.LOS(i, date)
}

// LOSAt returns the spacecraft-frame unit line-of-sight direction at a
// real-valued pixel coordinate, linearly interpolating between the two
// neighboring integer pixels' LOS and renormalizing. InverseLocator's pixel
// Newton step needs a continuous LOS function to take a numerical
// derivative against; the sensor itself only ever defines LOS at integer
// pixels.
func (s *LineSensor) LOSAt(pixel, date float64) ellipsoid.Vector3 {
	if pixel <= 0 {
		return s.LOSModel.LOS(0, date)
	}
	last := s.NbPixels - 1
	if pixel >= float64(last) {
		return s.LOSModel.LOS(last, date)
	}
	lo := int(pixel)
	frac := pixel - float64(lo)
	a := s.LOSModel.LOS(lo, date)
	b := s.LOSModel.LOS(lo+1, date)
	return a.Scale(1 - frac).Add(b.Scale(frac)).Normalize()
}

// MeanPlaneNormal and MeanPlaneReferencePoint report the least-squares
// plane fitted (and cached) by MeanPlane at the given date.
func (s *LineSensor) MeanPlaneNormal(date float64) ellipsoid.Vector3 {
	s.fitMeanPlane(date)
	return s.meanNormal
}

// MeanPlaneReferencePoint is the point the fitted mean plane passes through:
// the sensor's own position, as fitMeanPlane sets it.
func (s *LineSensor) MeanPlaneReferencePoint(date float64) ellipsoid.Vector3 {
	s.fitMeanPlane(date)
	return s.meanRef
}

// fitMeanPlane computes (or reuses a cached) least-squares plane through the
// point cloud {position + los(i, date) : i in [0, nbPixels)}, per §4.6: form
// the centered 3 x nbPixels matrix, take its thin SVD, and use the left
// singular vector paired with the smallest singular value as the plane
// normal. The reference point returned alongside it is the sensor's own
// position, not the cloud's centroid: every LOS in the fan emanates from
// that single point, so it already lies on (or acceptably near) the fitted
// plane, and downstream bracketing wants a reference that does not drift
// with the LOS fan's shape. The fit is cached per (date, Params.Version())
// since a direct- or inverse-location pass queries it many times per line
// without the underlying calibration changing.
func (s *LineSensor) fitMeanPlane(date float64) {
	version := 0
	if s.Params != nil {
		version = s.Params.Version()
	}
	if s.meanFitted && s.meanDate == date && s.meanVersion == version {
		return
	}

	points := make([]ellipsoid.Vector3, s.NbPixels)
	var centroid ellipsoid.Vector3
	for i := 0; i < s.NbPixels; i++ {
		p := s.Position.Add(s.LOSModel.LOS(i, date))
		points[i] = p
		centroid = centroid.Add(p)
	}
	centroid = centroid.Scale(1 / float64(s.NbPixels))

	data := make([]float64, 3*s.NbPixels)
	for i, p := range points {
		c := p.Sub(centroid)
		data[i] = c[0]
		data[s.NbPixels+i] = c[1]
		data[2*s.NbPixels+i] = c[2]
	}
	m := mat.NewDense(3, s.NbPixels, data)

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDThin) {
		// Degenerate cloud (e.g. a single pixel): fall back to the nominal
		// view direction itself so callers still get a unit normal.
		s.meanNormal = s.NominalViewDirection.Normalize()
		s.meanRef = s.Position
		s.meanFitted = true
		s.meanDate = date
		s.meanVersion = version
		return
	}

	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)
	worstCol := 0
	worst := values[0]
	for col := 1; col < len(values); col++ {
		if values[col] < worst {
			worst = values[col]
			worstCol = col
		}
	}
	normal := ellipsoid.Vector3{u.At(0, worstCol), u.At(1, worstCol), u.At(2, worstCol)}.Normalize()
	if normal.Dot(s.NominalViewDirection) < 0 {
		normal = normal.Scale(-1)
	}

	s.meanNormal = normal
	s.meanRef = s.Position
	s.meanFitted = true
	s.meanDate = date
	s.meanVersion = version
}

// CrossingLine evaluates whether ground point g lies above (positive) or
// below (negative) a mean plane with the given normal/reference point,
// both expressed in the same frame as g. Used by locate.InverseLocator to
// bracket the true scan line: the root of this function in line is a good
// starting point because a push-broom line's instantaneous LOS fan is, by
// construction, close to its own mean plane. Callers own the frame
// conversion: InverseLocator rotates MeanPlaneNormal/MeanPlaneReferencePoint
// from the sensor's own frame into the Earth body frame g lives in before
// calling this.
func CrossingLine(normal, ref, g ellipsoid.Vector3) float64 {
	return normal.Dot(g.Sub(ref))
}

// ValidateLine reports ruggederr.InvalidRangeForLines if line is outside
// [MinLine, MaxLine].
func (s *LineSensor) ValidateLine(line float64) error {
	if line < s.MinLine || line > s.MaxLine {
		return ruggederr.New(ruggederr.InvalidRangeForLines, s.MinLine, s.MaxLine)
	}
	return nil
}
