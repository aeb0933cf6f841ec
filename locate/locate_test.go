package locate

import (
	"math"
	"testing"

	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/intersect"
	"github.com/CS-SI/rugged-go/sensor"
	"github.com/CS-SI/rugged-go/trajectory"
)

// equatorialNadirSensor builds a sensor looking straight down from above
// the equator, with a small east-west LOS fan so pixels other than the
// center one are geometrically distinct. The platform translates northward,
// perpendicular to the plane of the LOS fan, at a constant rate as line
// increases, passing over the equator at line 5 — a synthetic, non-orbital
// motion (not a physically realizable trajectory)
// chosen so a test's line-crossing function is clean and strongly monotonic
// without also having to reason about real orbital geometry. Attitude and
// Earth rotation are both held at the identity so the test can reason about
// ellipsoid geometry directly.
func equatorialNadirSensor(t *testing.T, altitude float64) (*sensor.LineSensor, *DirectLocator) {
	t.Helper()
	e := ellipsoid.WGS84()
	basePosition := e.ToCartesian(ellipsoid.GeodeticPoint{Latitude: 0, Longitude: 0, Altitude: altitude})
	nadir := basePosition.Normalize().Scale(-1)
	east := ellipsoid.Vector3{0, 1, 0}

	const nbPixels = 11
	dirs := make([]ellipsoid.Vector3, nbPixels)
	for i := 0; i < nbPixels; i++ {
		alpha := -0.05 + 0.1*float64(i)/float64(nbPixels-1)
		dirs[i] = nadir.Scale(math.Cos(alpha)).Add(east.Scale(math.Sin(alpha))).Normalize()
	}

	s := &sensor.LineSensor{
		Name:                 "equatorial nadir",
		Position:             ellipsoid.Vector3{0, 0, 0},
		LOSModel:             sensor.FixedLOS{Directions: dirs},
		Datation:             sensor.LinearDatation{T0: 0, LineZero: 0, Rate: 1},
		NbPixels:             nbPixels,
		MinLine:              0,
		MaxLine:              10,
		NominalViewDirection: nadir,
	}

	north := ellipsoid.Vector3{0, 0, 1}
	const alongTrackRate = 1000.0 // m per line, along the north axis
	velocity := north.Scale(alongTrackRate)
	samples := make([]trajectory.Frame, 0, 21)
	for line := -5.0; line <= 15.0; line++ {
		samples = append(samples, trajectory.Frame{
			Date:     line,
			Position: basePosition.Add(north.Scale(alongTrackRate * (line - 5))),
			Velocity: velocity,
			Rotation: trajectory.IdentityQuaternion,
		})
	}
	ti, err := trajectory.NewTrajectoryInterpolator(samples, 1, 2, trajectory.UsePV, trajectory.UseR)
	if err != nil {
		t.Fatalf("NewTrajectoryInterpolator: %v", err)
	}

	d := &DirectLocator{
		Ellipsoid:     e,
		Trajectory:    ti,
		EarthRotation: IdentityEarthRotation{},
		Algorithm:     intersect.IgnoreDEMUseEllipsoid{},
	}
	return s, d
}

func TestDirectLocationCenterPixelHitsSubSatellitePoint(t *testing.T) {
	s, d := equatorialNadirSensor(t, 700000)
	gp, err := d.LocatePixel(s, 5, 5)
	if err != nil {
		t.Fatalf("LocatePixel: %v", err)
	}
	if math.Abs(gp.Latitude) > 1e-6 {
		t.Errorf("latitude = %v, want ~0", gp.Latitude)
	}
	if math.Abs(gp.Longitude) > 1e-6 {
		t.Errorf("longitude = %v, want ~0", gp.Longitude)
	}
	if math.Abs(gp.Altitude) > 1e-3 {
		t.Errorf("altitude = %v, want ~0", gp.Altitude)
	}
}

func TestDirectLocationOffCenterPixelMovesEastWest(t *testing.T) {
	s, d := equatorialNadirSensor(t, 700000)
	left, err := d.LocatePixel(s, 5, 0)
	if err != nil {
		t.Fatalf("LocatePixel(0): %v", err)
	}
	right, err := d.LocatePixel(s, 5, 10)
	if err != nil {
		t.Fatalf("LocatePixel(10): %v", err)
	}
	if left.Longitude >= right.Longitude {
		t.Errorf("expected pixel 0 west of pixel 10, got lon0=%v lon10=%v", left.Longitude, right.Longitude)
	}
}

func TestInverseLocationRoundTrip(t *testing.T) {
	s, d := equatorialNadirSensor(t, 700000)
	const wantLine = 6.3
	const wantPixel = 7.2

	gp, err := d.LocatePixelAt(s, wantLine, wantPixel)
	if err != nil {
		t.Fatalf("LocatePixelAt: %v", err)
	}
	g := d.Ellipsoid.ToCartesian(gp.GeodeticPoint)

	inv := &InverseLocator{DirectLocator: d}
	result, ok, err := inv.Locate(s, g)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !ok {
		t.Fatal("Locate: expected ok=true")
	}
	if math.Abs(result.Line-wantLine) > 5e-3 {
		t.Errorf("line = %v, want %v", result.Line, wantLine)
	}
	if math.Abs(result.Pixel-wantPixel) > 5e-3 {
		t.Errorf("pixel = %v, want %v", result.Pixel, wantPixel)
	}
}

func TestInverseLocationOutsideFieldOfViewIsAbsent(t *testing.T) {
	s, d := equatorialNadirSensor(t, 700000)
	// A point on the far side of the Earth can never be seen by this sensor.
	farSide := d.Ellipsoid.ToCartesian(ellipsoid.GeodeticPoint{Latitude: 0, Longitude: math.Pi, Altitude: 0})

	inv := &InverseLocator{DirectLocator: d}
	_, ok, err := inv.Locate(s, farSide)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if ok {
		t.Error("expected ok=false for a point far outside the field of view")
	}
}

func TestLightTimeCorrectionIsOffByDefault(t *testing.T) {
	s, d := equatorialNadirSensor(t, 700000)
	if d.LightTimeCorrection {
		t.Fatal("LightTimeCorrection is on in a freshly built DirectLocator, want off")
	}
	withoutCorrection, err := d.LocatePixel(s, 5, 5)
	if err != nil {
		t.Fatalf("LocatePixel: %v", err)
	}
	d.LightTimeCorrection = true
	withCorrection, err := d.LocatePixel(s, 5, 5)
	if err != nil {
		t.Fatalf("LocatePixel with light-time correction: %v", err)
	}
	// Light-time correction only re-dates the inertial-to-body rotation;
	// with Earth rotation held at the identity it has nothing to shift, so
	// both results must match.
	if withoutCorrection.Latitude != withCorrection.Latitude || withoutCorrection.Longitude != withCorrection.Longitude {
		t.Errorf("light-time correction changed a stationary geometry: %v vs %v", withoutCorrection, withCorrection)
	}
}
