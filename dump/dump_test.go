package dump

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/locate"
)

func TestWriterEmitsSessionHeader(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	line, err := buf.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "session: id="+w.SessionID.String())
}

func TestParseRoundTripsEllipsoidAndSpan(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	e := ellipsoid.WGS84()
	require.NoError(t, w.Ellipsoid(e))
	require.NoError(t, w.Span(-10, 100))

	replay, err := Parse(&buf)
	require.NoError(t, err)
	require.NotNil(t, replay.Ellipsoid)
	assert.InDelta(t, e.EquatorialRadius, replay.Ellipsoid.EquatorialRadius, 1e-6)
	assert.InDelta(t, e.Flattening, replay.Ellipsoid.Flattening, 1e-12)
	assert.Equal(t, e.BodyFrame, replay.Ellipsoid.BodyFrame)

	require.NotNil(t, replay.Span)
	assert.Equal(t, -10.0, replay.Span.MinDate)
	assert.Equal(t, 100.0, replay.Span.MaxDate)
	assert.Equal(t, w.SessionID, replay.SessionID)
}

func TestParsePairsDirectAndInverseLocationResults(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	require.NoError(t, w.DirectLocation("camA", 12.5, 3))
	require.NoError(t, w.DirectLocationResult(ellipsoid.NormalizedGeodeticPoint{
		GeodeticPoint: ellipsoid.GeodeticPoint{Latitude: 0.1, Longitude: -0.2, Altitude: 1200},
	}))

	require.NoError(t, w.InverseLocation("camA", ellipsoid.Vector3{1, 2, 3}))
	require.NoError(t, w.InverseLocationResult(locate.PixelLine{Line: 12.5, Pixel: 3.0}, true))

	replay, err := Parse(&buf)
	require.NoError(t, err)

	require.Len(t, replay.DirectLocs, 1)
	d := replay.DirectLocs[0]
	assert.Equal(t, "camA", d.Sensor)
	assert.Equal(t, 12.5, d.Line)
	assert.Equal(t, 3, d.Pixel)
	assert.InDelta(t, 0.1, d.Result.Latitude, 1e-12)
	assert.InDelta(t, -0.2, d.Result.Longitude, 1e-12)
	assert.InDelta(t, 1200.0, d.Result.Altitude, 1e-9)

	require.Len(t, replay.InverseLocs, 1)
	inv := replay.InverseLocs[0]
	assert.Equal(t, "camA", inv.Sensor)
	assert.Equal(t, ellipsoid.Vector3{1, 2, 3}, inv.Ground)
	assert.True(t, inv.Found)
	assert.Equal(t, 12.5, inv.Line)
	assert.Equal(t, 3.0, inv.Pixel)
}

func TestParseGroupsDEMCellsUnderTheirTile(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	require.NoError(t, w.DEMTile(10, 20, 0.1, 0.1, 2, 2))
	require.NoError(t, w.DEMCell(0, 0, 100))
	require.NoError(t, w.DEMCell(0, 1, 110))
	require.NoError(t, w.DEMTile(30, 40, 0.1, 0.1, 1, 1))
	require.NoError(t, w.DEMCell(0, 0, 50))

	replay, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, replay.DEMTiles, 2)
	assert.Len(t, replay.DEMTiles[0].Cells, 2)
	assert.Len(t, replay.DEMTiles[1].Cells, 1)
	assert.Equal(t, 110.0, replay.DEMTiles[0].Cells[1].Elevation)
}

func TestParseSkipsUnrecognizedLines(t *testing.T) {
	replay, err := Parse(bytes.NewBufferString("not a record line\n\nellipsoid: equatorialRadius=6378137 flattening=0.0033 bodyFrame=Earth\n"))
	require.NoError(t, err)
	require.NotNil(t, replay.Ellipsoid)
	assert.Equal(t, "Earth", replay.Ellipsoid.BodyFrame)
}
