package dem

import (
	"math"
	"testing"

	"github.com/CS-SI/rugged-go/ellipsoid"
)

func buildFlatTile(t *testing.T, rows, cols int, fn func(i, j int) float64) *MinMaxTreeTile {
	t.Helper()
	m := &MinMaxTreeTile{}
	if err := m.SetGeometry(0, 0, 0.001, 0.001, rows, cols); err != nil {
		t.Fatalf("SetGeometry: %v", err)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if err := m.SetElevation(i, j, fn(i, j)); err != nil {
				t.Fatalf("SetElevation(%d,%d): %v", i, j, err)
			}
		}
	}
	if err := m.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestMinMaxTreeBoundsContainRawElevations(t *testing.T) {
	m := buildFlatTile(t, 9, 7, func(i, j int) float64 {
		return float64(i*7+j) - 10
	})
	for level := 1; level <= m.Levels(); level++ {
		for i := 0; i < m.Rows()-1; i++ {
			for j := 0; j < m.Cols()-1; j++ {
				lo, err := m.GetMinElevation(i, j, level)
				if err != nil {
					t.Fatalf("GetMinElevation: %v", err)
				}
				hi, err := m.GetMaxElevation(i, j, level)
				if err != nil {
					t.Fatalf("GetMaxElevation: %v", err)
				}
				if lo > hi {
					t.Fatalf("level %d cell (%d,%d): min %v > max %v", level, i, j, lo, hi)
				}
				z, _ := m.Elevation(i, j)
				if z < lo-1e-9 || z > hi+1e-9 {
					t.Errorf("level %d cell (%d,%d): corner elevation %v outside bound [%v, %v]", level, i, j, z, lo, hi)
				}
			}
		}
	}
}

func TestMinMaxTreeRootIsGlobalBound(t *testing.T) {
	rows, cols := 11, 13
	var want float64 = math.Inf(1)
	var wantMax float64 = math.Inf(-1)
	m := buildFlatTile(t, rows, cols, func(i, j int) float64 {
		v := math.Sin(float64(i)) * math.Cos(float64(j)) * 1000
		return v
	})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v, _ := m.Elevation(i, j)
			if v < want {
				want = v
			}
			if v > wantMax {
				wantMax = v
			}
		}
	}
	lo, err := m.GetMinElevation(0, 0, 1)
	if err != nil {
		t.Fatalf("GetMinElevation: %v", err)
	}
	hi, err := m.GetMaxElevation(0, 0, 1)
	if err != nil {
		t.Fatalf("GetMaxElevation: %v", err)
	}
	if lo > want+1e-9 {
		t.Errorf("root min %v should be <= global min %v", lo, want)
	}
	if hi < wantMax-1e-9 {
		t.Errorf("root max %v should be >= global max %v", hi, wantMax)
	}
}

func TestGetMergeLevelSymmetricAndBoundedByLevels(t *testing.T) {
	m := buildFlatTile(t, 16, 16, func(i, j int) float64 { return 0 })
	level := m.GetMergeLevel(0, 0, 15, 15)
	if level < 0 || level > m.Levels() {
		t.Errorf("merge level %d out of [0, %d]", level, m.Levels())
	}
	if level != m.GetMergeLevel(15, 15, 0, 0) {
		t.Error("GetMergeLevel should be symmetric")
	}
	if m.GetMergeLevel(3, 3, 3, 3) != m.Levels() {
		t.Errorf("a cell merged with itself should report the finest level")
	}
}

func TestClassifyAndCellIndices(t *testing.T) {
	tile := &Tile{}
	if err := tile.SetGeometry(0, 0, 1, 1, 5, 5); err != nil {
		t.Fatalf("SetGeometry: %v", err)
	}
	if loc := tile.Classify(2.5, 2.5); loc != HasInterpolationNeighbors {
		t.Errorf("interior point classified as %v", loc)
	}
	if loc := tile.Classify(10, 2.5); loc != North {
		t.Errorf("north point classified as %v, want North", loc)
	}
	if loc := tile.Classify(-1, -1); loc != SouthWest {
		t.Errorf("corner point classified as %v, want SouthWest", loc)
	}
	i, j := tile.CellIndices(2.9, 1.1)
	if i != 2 || j != 1 {
		t.Errorf("CellIndices = (%d,%d), want (2,1)", i, j)
	}
}

func TestCellIntersectionFindsSlopedSurface(t *testing.T) {
	e := ellipsoid.WGS84()
	tile := &Tile{}
	if err := tile.SetGeometry(0, 0, 0.0001, 0.0001, 2, 2); err != nil {
		t.Fatalf("SetGeometry: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			tile.SetElevation(i, j, 100+float64(i)*10+float64(j)*5)
		}
	}

	entry := ellipsoid.GeodeticPoint{Latitude: 0.00005, Longitude: 0.00005, Altitude: 5000}.Normalize(0)
	losTopo := ellipsoid.Vector3{0, 0, -1}

	gp, _, ok := tile.CellIntersection(e, entry, losTopo, 0, 0)
	if !ok {
		t.Fatal("expected an intersection for a straight-down ray")
	}
	if math.Abs(gp.Altitude-107.5) > 1 {
		t.Errorf("intersection altitude = %v, want close to the local surface (~107.5)", gp.Altitude)
	}
}

func TestCellIntersectionMissesWhenRayNeverReachesSurface(t *testing.T) {
	e := ellipsoid.WGS84()
	tile := &Tile{}
	if err := tile.SetGeometry(0, 0, 0.0001, 0.0001, 2, 2); err != nil {
		t.Fatalf("SetGeometry: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			tile.SetElevation(i, j, 0)
		}
	}
	entry := ellipsoid.GeodeticPoint{Latitude: 0.00002, Longitude: 0.00002, Altitude: 5000}.Normalize(0)
	losTopo := ellipsoid.Vector3{0, 0, 1} // pointing up, away from ground
	if _, _, ok := tile.CellIntersection(e, entry, losTopo, 0, 0); ok {
		t.Error("expected no intersection for an upward-pointing ray")
	}
}
