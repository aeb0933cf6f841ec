package sensor

import (
	"math"
	"testing"

	"github.com/CS-SI/rugged-go/ellipsoid"
)

// perfectLineSensor builds the scenario from spec §8.1: 2001 LOS vectors
// spread on the plane of normal (1,0,0), swept over +/-0.17 rad around
// boresight (0,0,1), at spacecraft-frame position (1.5,0,0).
func perfectLineSensor() *LineSensor {
	const n = 2001
	dirs := make([]ellipsoid.Vector3, n)
	for i := 0; i < n; i++ {
		alpha := -0.17 + 0.34*float64(i)/float64(n-1)
		dirs[i] = ellipsoid.Vector3{0, math.Sin(alpha), math.Cos(alpha)}.Normalize()
	}
	return &LineSensor{
		Name:     "perfect line",
		Position: ellipsoid.Vector3{1.5, 0, 0},
		LOSModel: FixedLOS{Directions: dirs},
		Datation: LinearDatation{T0: 0, LineZero: 0, Rate: 1.0 / 1.5e-3},
		NbPixels: n,
		MinLine:  0,
		MaxLine:  float64(n - 1),
		NominalViewDirection: ellipsoid.Vector3{1, 0, 0},
	}
}

func TestLineSensorDatation(t *testing.T) {
	s := perfectLineSensor()
	if s.GetDate(0) != 0 {
		t.Errorf("GetDate(0) = %v, want 0", s.GetDate(0))
	}
	line := 734.0
	date := s.GetDate(line)
	if back := s.GetLine(date); math.Abs(back-line) > 1e-9 {
		t.Errorf("GetLine(GetDate(line)) = %v, want %v", back, line)
	}
}

func TestMeanPlaneOfPerfectLineSensor(t *testing.T) {
	s := perfectLineSensor()
	date := s.GetDate(0)

	ref := s.MeanPlaneReferencePoint(date)
	dist := ref.Sub(s.Position).Norm()
	if dist > 1e-9 {
		t.Errorf("mean plane reference point is %v m from the configured position, want ~0", dist)
	}

	normal := s.MeanPlaneNormal(date)
	want := ellipsoid.Vector3{1, 0, 0}
	cosAngle := normal.Dot(want)
	if cosAngle < 1-1e-9 {
		t.Errorf("mean plane normal %v is not aligned with %v (cos=%v)", normal, want, cosAngle)
	}
	if math.Abs(normal.Norm()-1) > 1e-9 {
		t.Errorf("mean plane normal is not unit length: %v", normal.Norm())
	}
}

func TestMeanPlaneCacheInvalidatesOnParameterWrite(t *testing.T) {
	params := NewParameterSet()
	idx := params.Add("boresight", 0)
	base := make([]ellipsoid.Vector3, 5)
	for i := range base {
		alpha := -0.1 + 0.05*float64(i)
		base[i] = ellipsoid.Vector3{0, math.Sin(alpha), math.Cos(alpha)}.Normalize()
	}
	s := &LineSensor{
		Name:                 "calibrated",
		Position:             ellipsoid.Vector3{0, 0, 0},
		LOSModel:             BoresightCorrectedLOS{Base: base, Params: params, AngleIndex: idx, Axis: ellipsoid.Vector3{0, 1, 0}},
		Datation:             LinearDatation{T0: 0, LineZero: 0, Rate: 100},
		NbPixels:             5,
		MinLine:              0,
		MaxLine:              4,
		NominalViewDirection: ellipsoid.Vector3{0, 0, 1},
		Params:               params,
	}

	first := s.MeanPlaneNormal(0)

	params.Set(idx, 0.5)
	second := s.MeanPlaneNormal(0)

	if first.Sub(second).Norm() < 1e-6 {
		t.Error("mean plane normal did not change after a boresight calibration write")
	}
}

func TestValidateLineRejectsOutOfRange(t *testing.T) {
	s := perfectLineSensor()
	if err := s.ValidateLine(-1); err == nil {
		t.Error("expected InvalidRangeForLines for a negative line")
	}
	if err := s.ValidateLine(s.MaxLine); err != nil {
		t.Errorf("ValidateLine(MaxLine) = %v, want nil", err)
	}
}

func TestCrossingLineChangesSignAcrossThePlane(t *testing.T) {
	s := perfectLineSensor()
	date := s.GetDate(0)
	ref := s.MeanPlaneReferencePoint(date)
	normal := s.MeanPlaneNormal(date)

	above := ref.Add(normal.Scale(10))
	below := ref.Sub(normal.Scale(10))

	if CrossingLine(normal, ref, above) <= 0 {
		t.Error("expected a positive crossing value above the mean plane")
	}
	if CrossingLine(normal, ref, below) >= 0 {
		t.Error("expected a negative crossing value below the mean plane")
	}
}
