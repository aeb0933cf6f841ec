package trajectory

import (
	"math"
	"testing"

	"github.com/CS-SI/rugged-go/ellipsoid"
)

func linearSamples(n int, dt float64) []Frame {
	frames := make([]Frame, n)
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		frames[i] = Frame{
			Date:     t,
			Position: ellipsoid.Vector3{7000000 + 7500*t, 1000 * math.Sin(t/500), 0},
			Velocity: ellipsoid.Vector3{7500, 2 * math.Cos(t/500), 0},
			Rotation: IdentityQuaternion,
		}
	}
	return frames
}

func TestInterpolateMatchesExactSample(t *testing.T) {
	samples := linearSamples(20, 10)
	ti, err := NewTrajectoryInterpolator(samples, 5, 3, UsePV, UseR)
	if err != nil {
		t.Fatalf("NewTrajectoryInterpolator: %v", err)
	}

	f, err := ti.Interpolate(100)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	want := 7000000 + 7500*100.0
	if math.Abs(f.Position[0]-want) > 1e-3 {
		t.Errorf("Position[0] = %v, want %v", f.Position[0], want)
	}
}

func TestInterpolateOutOfRangeFails(t *testing.T) {
	samples := linearSamples(10, 10)
	ti, err := NewTrajectoryInterpolator(samples, 5, 2, UsePV, UseR)
	if err != nil {
		t.Fatalf("NewTrajectoryInterpolator: %v", err)
	}
	if _, err := ti.Interpolate(100000); err == nil {
		t.Error("expected OutOfTimeRange")
	}
}

func TestInterpolateQuaternionStaysUnit(t *testing.T) {
	samples := linearSamples(10, 10)
	for i := range samples {
		angle := float64(i) * 0.01
		samples[i].Rotation = Quaternion{math.Cos(angle / 2), 0, 0, math.Sin(angle / 2)}
	}
	ti, err := NewTrajectoryInterpolator(samples, 5, 2, UsePV, UseR)
	if err != nil {
		t.Fatalf("NewTrajectoryInterpolator: %v", err)
	}
	f, err := ti.Interpolate(42)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	n := math.Sqrt(f.Rotation[0]*f.Rotation[0] + f.Rotation[1]*f.Rotation[1] + f.Rotation[2]*f.Rotation[2] + f.Rotation[3]*f.Rotation[3])
	if math.Abs(n-1) > 1e-6 {
		t.Errorf("quaternion norm = %v, want 1", n)
	}
}

func TestLightTimeCorrectionConverges(t *testing.T) {
	samples := linearSamples(50, 2)
	ti, err := NewTrajectoryInterpolator(samples, 1, 3, UsePV, UseR)
	if err != nil {
		t.Fatalf("NewTrajectoryInterpolator: %v", err)
	}
	observer := ellipsoid.Vector3{6378137, 0, 0}
	f, err := LightTimeCorrection(ti.Interpolate, 50, observer)
	if err != nil {
		t.Fatalf("LightTimeCorrection: %v", err)
	}
	if f.Date >= 50 {
		t.Errorf("emission date %v should be strictly before the observation date 50", f.Date)
	}
}

func TestAberrationCorrectionShiftsAgainstVelocity(t *testing.T) {
	trueDir := ellipsoid.Vector3{0, 0, -1}
	v := ellipsoid.Vector3{7500, 0, 0}
	apparent := AberrationCorrection(trueDir, v)
	if apparent[0] >= 0 {
		t.Errorf("expected the apparent direction to shift away from +x (velocity), got %v", apparent)
	}
	if math.Abs(apparent.Norm()-1) > 1e-9 {
		t.Errorf("apparent direction should stay unit length, got norm %v", apparent.Norm())
	}
}
