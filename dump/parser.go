package dump

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/CS-SI/rugged-go/ellipsoid"
)

// EllipsoidRecord is a parsed "ellipsoid:" line.
type EllipsoidRecord struct {
	EquatorialRadius float64
	Flattening       float64
	BodyFrame        string
}

// SpanRecord is a parsed "span:" line.
type SpanRecord struct {
	MinDate, MaxDate float64
}

// SensorRecord is a parsed "sensor:" line.
type SensorRecord struct {
	Name             string
	NbPixels         int
	MinLine, MaxLine float64
}

// SensorDatationRecord is a parsed "sensor datation:" line.
type SensorDatationRecord struct {
	Sensor             string
	T0, LineZero, Rate float64
}

// SensorLOSRecord is a parsed "sensor LOS:" line.
type SensorLOSRecord struct {
	Sensor string
	Pixel  int
	Date   float64
	LOS    ellipsoid.Vector3
}

// SensorMeanPlaneRecord is a parsed "sensor mean plane:" line.
type SensorMeanPlaneRecord struct {
	Sensor      string
	Date        float64
	Normal, Ref ellipsoid.Vector3
}

// DirectLocationRecord pairs a "direct location:" query with the
// "direct location result:" line that immediately follows it.
type DirectLocationRecord struct {
	Sensor string
	Line   float64
	Pixel  int
	Result ellipsoid.GeodeticPoint
}

// InverseLocationRecord pairs an "inverse location:" query with the
// "inverse location result:" line that immediately follows it.
type InverseLocationRecord struct {
	Sensor string
	Ground ellipsoid.Vector3
	Found  bool
	Line   float64
	Pixel  float64
}

// DEMTileRecord is a parsed "DEM tile:" line, together with every
// "DEM cell:" line recorded before the next "DEM tile:" or EOF.
type DEMTileRecord struct {
	MinLat, MinLon, LatStep, LonStep float64
	Rows, Cols                       int
	Cells                            []DEMCellRecord
}

// DEMCellRecord is a parsed "DEM cell:" line.
type DEMCellRecord struct {
	Row, Col  int
	Elevation float64
}

// Replay is the reconstructed configuration produced by Parse: the
// session id plus the records of each kind it has a field for, grouped by
// kind and in file order ("sensor rate" and "transform" records are read
// but not kept), enough to
// replay the dumped queries against a freshly built Ellipsoid/Sensor/
// DirectLocator/InverseLocator without re-deriving them from scratch.
type Replay struct {
	SessionID uuid.UUID

	Ellipsoid   *EllipsoidRecord
	Span        *SpanRecord
	Sensors     []SensorRecord
	Datations   []SensorDatationRecord
	LOS         []SensorLOSRecord
	MeanPlanes  []SensorMeanPlaneRecord
	DirectLocs  []DirectLocationRecord
	InverseLocs []InverseLocationRecord
	DEMTiles    []DEMTileRecord
}

// Parse reads a dump stream produced by Writer and reconstructs a Replay.
// Unrecognized or malformed lines are skipped rather than treated as fatal,
// so a Replay can be built from a dump truncated mid-write (e.g. a process
// killed while a dump file was still open).
func Parse(r io.Reader) (*Replay, error) {
	replay := &Replay{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pendingDirect *DirectLocationRecord
	var pendingInverse *InverseLocationRecord
	var currentTile *DEMTileRecord

	for scanner.Scan() {
		key, fields, ok := splitRecord(scanner.Text())
		if !ok {
			continue
		}

		switch key {
		case "session":
			if id, err := uuid.Parse(fields["id"]); err == nil {
				replay.SessionID = id
			}

		case "ellipsoid":
			replay.Ellipsoid = &EllipsoidRecord{
				EquatorialRadius: fieldFloat(fields, "equatorialRadius"),
				Flattening:       fieldFloat(fields, "flattening"),
				BodyFrame:        fields["bodyFrame"],
			}

		case "span":
			replay.Span = &SpanRecord{
				MinDate: fieldFloat(fields, "tMin"),
				MaxDate: fieldFloat(fields, "tMax"),
			}

		case "sensor":
			replay.Sensors = append(replay.Sensors, SensorRecord{
				Name:     fields["name"],
				NbPixels: fieldInt(fields, "nbPixels"),
				MinLine:  fieldFloat(fields, "minLine"),
				MaxLine:  fieldFloat(fields, "maxLine"),
			})

		case "sensor datation":
			replay.Datations = append(replay.Datations, SensorDatationRecord{
				Sensor:   fields["sensor"],
				T0:       fieldFloat(fields, "t0"),
				LineZero: fieldFloat(fields, "lineZero"),
				Rate:     fieldFloat(fields, "rate"),
			})

		case "sensor rate":
			// Rate snapshots are diagnostic only; Replay keeps the static
			// datation model instead of every queried instantaneous rate.

		case "sensor LOS":
			replay.LOS = append(replay.LOS, SensorLOSRecord{
				Sensor: fields["sensor"],
				Pixel:  fieldInt(fields, "pixel"),
				Date:   fieldFloat(fields, "date"),
				LOS:    vectorField(fields, "x", "y", "z"),
			})

		case "sensor mean plane":
			replay.MeanPlanes = append(replay.MeanPlanes, SensorMeanPlaneRecord{
				Sensor: fields["sensor"],
				Date:   fieldFloat(fields, "date"),
				Normal: vectorField(fields, "normalX", "normalY", "normalZ"),
				Ref:    vectorField(fields, "refX", "refY", "refZ"),
			})

		case "transform":
			// Transform snapshots are diagnostic only: EarthRotationProvider
			// is re-derived from the sensor/trajectory data, not replayed.

		case "direct location":
			pendingDirect = &DirectLocationRecord{
				Sensor: fields["sensor"],
				Line:   fieldFloat(fields, "line"),
				Pixel:  fieldInt(fields, "pixel"),
			}

		case "direct location result":
			if pendingDirect != nil {
				pendingDirect.Result = ellipsoid.GeodeticPoint{
					Latitude:  fieldFloat(fields, "latitude"),
					Longitude: fieldFloat(fields, "longitude"),
					Altitude:  fieldFloat(fields, "altitude"),
				}
				replay.DirectLocs = append(replay.DirectLocs, *pendingDirect)
				pendingDirect = nil
			}

		case "inverse location":
			pendingInverse = &InverseLocationRecord{
				Sensor: fields["sensor"],
				Ground: vectorField(fields, "x", "y", "z"),
			}

		case "inverse location result":
			if pendingInverse != nil {
				pendingInverse.Found = fields["found"] == "true"
				pendingInverse.Line = fieldFloat(fields, "line")
				pendingInverse.Pixel = fieldFloat(fields, "pixel")
				replay.InverseLocs = append(replay.InverseLocs, *pendingInverse)
				pendingInverse = nil
			}

		case "DEM tile":
			tile := DEMTileRecord{
				MinLat:  fieldFloat(fields, "minLat"),
				MinLon:  fieldFloat(fields, "minLon"),
				LatStep: fieldFloat(fields, "latStep"),
				LonStep: fieldFloat(fields, "lonStep"),
				Rows:    fieldInt(fields, "rows"),
				Cols:    fieldInt(fields, "cols"),
			}
			replay.DEMTiles = append(replay.DEMTiles, tile)
			currentTile = &replay.DEMTiles[len(replay.DEMTiles)-1]

		case "DEM cell":
			if currentTile != nil {
				currentTile.Cells = append(currentTile.Cells, DEMCellRecord{
					Row:       fieldInt(fields, "row"),
					Col:       fieldInt(fields, "col"),
					Elevation: fieldFloat(fields, "elevation"),
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return replay, nil
}

// splitRecord splits a "key: field=value field=value" line into its key and
// a field map. ok is false for blank lines or lines without a "key:" prefix.
func splitRecord(line string) (string, map[string]string, bool) {
	idx := strings.Index(line, ": ")
	if idx < 0 {
		return "", nil, false
	}
	key := line[:idx]
	fields := make(map[string]string)
	for _, token := range strings.Fields(line[idx+2:]) {
		eq := strings.IndexByte(token, '=')
		if eq < 0 {
			continue
		}
		fields[token[:eq]] = token[eq+1:]
	}
	return key, fields, true
}

func fieldFloat(fields map[string]string, name string) float64 {
	v, _ := strconv.ParseFloat(fields[name], 64)
	return v
}

func fieldInt(fields map[string]string, name string) int {
	v, _ := strconv.Atoi(fields[name])
	return v
}

func vectorField(fields map[string]string, xKey, yKey, zKey string) ellipsoid.Vector3 {
	return ellipsoid.Vector3{fieldFloat(fields, xKey), fieldFloat(fields, yKey), fieldFloat(fields, zKey)}
}
