// Package dump implements the optional debug-dump facility of §6: an
// opt-in, append-only text stream of every query and tile access a
// geolocation run makes, and a Parse function that reconstructs enough of the
// configuration from that stream to replay the same queries later.
//
// Writer is not safe to share across goroutines without external
// synchronization beyond what's documented per method — it is meant to be
// attached to a single direct/inverse-location call site, matching the
// "thread-local optional dump facility" resource-model note in §5.
package dump

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/locate"
	"github.com/CS-SI/rugged-go/sensor"
	"github.com/CS-SI/rugged-go/trajectory"
)

// Writer appends key-prefixed records to an underlying io.Writer. Every
// Writer is stamped with a random session id at construction so multiple
// concurrently-written dump files (e.g. one per worker thread) can be
// told apart and merged later without records from different runs
// colliding.
type Writer struct {
	mu        sync.Mutex
	w         io.Writer
	SessionID uuid.UUID
}

// NewWriter wraps w and immediately emits a "session:" header record
// carrying a freshly generated session id.
func NewWriter(w io.Writer) (*Writer, error) {
	dw := &Writer{w: w, SessionID: uuid.New()}
	if err := dw.writeLine("session", "id=%s", dw.SessionID); err != nil {
		return nil, err
	}
	return dw, nil
}

func (d *Writer) writeLine(key string, format string, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := fmt.Fprintf(d.w, "%s: "+format+"\n", append([]any{key}, args...)...)
	return err
}

// Ellipsoid records the ellipsoid a run used.
func (d *Writer) Ellipsoid(e ellipsoid.Ellipsoid) error {
	return d.writeLine("ellipsoid", "equatorialRadius=%v flattening=%v bodyFrame=%s", e.EquatorialRadius, e.Flattening, e.BodyFrame)
}

// Span records the trajectory's valid date range.
func (d *Writer) Span(minDate, maxDate float64) error {
	return d.writeLine("span", "tMin=%v tMax=%v", minDate, maxDate)
}

// Sensor records a sensor's static identity and pixel count.
func (d *Writer) Sensor(s *sensor.LineSensor) error {
	return d.writeLine("sensor", "name=%s nbPixels=%d minLine=%v maxLine=%v", s.Name, s.NbPixels, s.MinLine, s.MaxLine)
}

// SensorDatation records a sensor's linear line<->date model.
func (d *Writer) SensorDatation(s *sensor.LineSensor, datation sensor.LinearDatation) error {
	return d.writeLine("sensor datation", "sensor=%s t0=%v lineZero=%v rate=%v", s.Name, datation.T0, datation.LineZero, datation.Rate)
}

// SensorRate records the instantaneous line rate queried for a given line.
func (d *Writer) SensorRate(s *sensor.LineSensor, line, rate float64) error {
	return d.writeLine("sensor rate", "sensor=%s line=%v rate=%v", s.Name, line, rate)
}

// SensorLOS records a single pixel/date line-of-sight query.
func (d *Writer) SensorLOS(s *sensor.LineSensor, pixel int, date float64, los ellipsoid.Vector3) error {
	return d.writeLine("sensor LOS", "sensor=%s pixel=%d date=%v x=%v y=%v z=%v", s.Name, pixel, date, los[0], los[1], los[2])
}

// SensorMeanPlane records a sensor's fitted mean plane at a given date.
func (d *Writer) SensorMeanPlane(s *sensor.LineSensor, date float64, normal, ref ellipsoid.Vector3) error {
	return d.writeLine("sensor mean plane", "sensor=%s date=%v normalX=%v normalY=%v normalZ=%v refX=%v refY=%v refZ=%v",
		s.Name, date, normal[0], normal[1], normal[2], ref[0], ref[1], ref[2])
}

// Transform records the inertial-to-body rotation used at a given date, as
// a quaternion (w, x, y, z).
func (d *Writer) Transform(date float64, rotation trajectory.Quaternion) error {
	return d.writeLine("transform", "date=%v w=%v x=%v y=%v z=%v", date, rotation[0], rotation[1], rotation[2], rotation[3])
}

// DEMTile records a tile's geometry as returned by a TileUpdater.
func (d *Writer) DEMTile(minLat, minLon, latStep, lonStep float64, rows, cols int) error {
	return d.writeLine("DEM tile", "minLat=%v minLon=%v latStep=%v lonStep=%v rows=%d cols=%d", minLat, minLon, latStep, lonStep, rows, cols)
}

// DEMCell records a single elevation sample within the most recently
// dumped tile.
func (d *Writer) DEMCell(row, col int, elevation float64) error {
	return d.writeLine("DEM cell", "row=%d col=%d elevation=%v", row, col, elevation)
}

// DirectLocation records a direct-location query.
func (d *Writer) DirectLocation(sensorName string, line float64, pixel int) error {
	return d.writeLine("direct location", "sensor=%s line=%v pixel=%d", sensorName, line, pixel)
}

// DirectLocationResult records a direct-location query's result.
func (d *Writer) DirectLocationResult(gp ellipsoid.NormalizedGeodeticPoint) error {
	return d.writeLine("direct location result", "latitude=%v longitude=%v altitude=%v", gp.Latitude, gp.Longitude, gp.Altitude)
}

// InverseLocation records an inverse-location query.
func (d *Writer) InverseLocation(sensorName string, g ellipsoid.Vector3) error {
	return d.writeLine("inverse location", "sensor=%s x=%v y=%v z=%v", sensorName, g[0], g[1], g[2])
}

// InverseLocationResult records an inverse-location query's result,
// including the "point is outside the field of view" absent case.
func (d *Writer) InverseLocationResult(result locate.PixelLine, found bool) error {
	return d.writeLine("inverse location result", "found=%t line=%v pixel=%v", found, result.Line, result.Pixel)
}
