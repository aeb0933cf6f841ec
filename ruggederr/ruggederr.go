// Package ruggederr defines the closed set of domain error kinds produced by
// the geolocation core (ellipsoid, dem, demcache, intersect, trajectory,
// sensor, locate). Every failure the core can raise is one of these kinds;
// callers that need to localize or reformat a message can switch on Kind
// and read the positional Args rather than parsing a string.
package ruggederr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the fixed catalog of domain error conditions.
type Kind int

const (
	// InternalError signals an invariant violation; never expected in
	// normal operation.
	InternalError Kind = iota
	// OutOfTimeRange signals a query outside trajectory coverage.
	OutOfTimeRange
	// OutOfTileIndices signals a tile (row, col) bounds violation.
	OutOfTileIndices
	// OutOfTileAngles signals a (lat, lon) outside a tile's footprint.
	OutOfTileAngles
	// NoDemData signals that the updater yielded no usable tile.
	NoDemData
	// EmptyTile signals that the updater produced a zero-sized tile.
	EmptyTile
	// TileWithoutRequiredNeighborsSelected signals that the updater's tile
	// does not contain the query point in its interpolable interior.
	TileWithoutRequiredNeighborsSelected
	// UnknownSensor signals a lookup for a sensor name that was never
	// registered.
	UnknownSensor
	// LineOfSightDoesNotReachGround signals a ray that escapes all
	// candidate tiles without crossing the terrain.
	LineOfSightDoesNotReachGround
	// LineOfSightNeverCrossesLatitude signals no real root for a latitude
	// cone intersection.
	LineOfSightNeverCrossesLatitude
	// LineOfSightNeverCrossesLongitude signals a ray parallel to the
	// meridian plane, or one that meets it only on the opposite half-plane.
	LineOfSightNeverCrossesLongitude
	// LineOfSightNeverCrossesAltitude signals a negative discriminant in
	// the altitude-crossing quadratic.
	LineOfSightNeverCrossesAltitude
	// DemEntryPointIsBehindSpacecraft signals that the terrain-adjacent
	// slab lies behind the observer and the observer is not already above
	// the DEM.
	DemEntryPointIsBehindSpacecraft
	// NoLayerData signals an atmospheric-refraction query below the
	// lowest modeled layer.
	NoLayerData
	// InvalidStep signals a non-positive resampling step.
	InvalidStep
	// InvalidRangeForLines signals a line outside the sensor's
	// [minLine, maxLine] range, or an empty range (end not after start).
	InvalidRangeForLines
	// SensorPixelNotFoundInRangeLines signals that refraction-aware
	// inverse location escaped the line bracket.
	SensorPixelNotFoundInRangeLines
	// SensorPixelNotFoundInPixelsLine signals that refraction-aware
	// inverse location escaped the pixel range.
	SensorPixelNotFoundInPixelsLine
	// InvalidInput signals a geometrically degenerate input, e.g. a point
	// at the ellipsoid center.
	InvalidInput
)

var names = map[Kind]string{
	InternalError:                        "InternalError",
	OutOfTimeRange:                        "OutOfTimeRange",
	OutOfTileIndices:                      "OutOfTileIndices",
	OutOfTileAngles:                       "OutOfTileAngles",
	NoDemData:                             "NoDemData",
	EmptyTile:                             "EmptyTile",
	TileWithoutRequiredNeighborsSelected:  "TileWithoutRequiredNeighborsSelected",
	UnknownSensor:                         "UnknownSensor",
	LineOfSightDoesNotReachGround:         "LineOfSightDoesNotReachGround",
	LineOfSightNeverCrossesLatitude:       "LineOfSightNeverCrossesLatitude",
	LineOfSightNeverCrossesLongitude:      "LineOfSightNeverCrossesLongitude",
	LineOfSightNeverCrossesAltitude:       "LineOfSightNeverCrossesAltitude",
	DemEntryPointIsBehindSpacecraft:       "DemEntryPointIsBehindSpacecraft",
	NoLayerData:                           "NoLayerData",
	InvalidStep:                           "InvalidStep",
	InvalidRangeForLines:                 "InvalidRangeForLines",
	SensorPixelNotFoundInRangeLines:       "SensorPixelNotFoundInRangeLines",
	SensorPixelNotFoundInPixelsLine:       "SensorPixelNotFoundInPixelsLine",
	InvalidInput:                          "InvalidInput",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a domain error: a Kind plus the positional arguments that a
// localized message template would interpolate. Message formatting is kept
// separate from Args so a caller can reformat without re-parsing text.
type Error struct {
	Kind Kind
	Args []any
	// cause, when non-nil, is an underlying failure from an external
	// collaborator (typically a TileUpdater I/O error). Wrapped with
	// github.com/pkg/errors so Cause()/Unwrap() recover it.
	cause error
}

// New creates a domain Error of the given kind with positional arguments.
func New(kind Kind, args ...any) *Error {
	return &Error{Kind: kind, Args: args}
}

// Wrap creates a domain Error of the given kind that chains an underlying
// cause, e.g. an I/O failure surfaced by a user-supplied TileUpdater.
func Wrap(cause error, kind Kind, args ...any) *Error {
	return &Error{Kind: kind, Args: args, cause: errors.WithStack(cause)}
}

// Error implements the error interface with the fixed per-kind format
// string from Template, interpolated with Args.
func (e *Error) Error() string {
	msg := fmt.Sprintf(Template(e.Kind), e.Args...)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", msg, e.cause.Error())
	}
	return msg
}

// Unwrap exposes the underlying cause, if any, for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Cause exposes the underlying cause via github.com/pkg/errors' convention.
func (e *Error) Cause() error { return e.cause }

// Is reports whether target is a domain Error of the same Kind, so callers
// can write `errors.Is(err, ruggederr.New(ruggederr.OutOfTimeRange))`.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Template returns the format string associated with a Kind. Resource
// bundles for localization key off Kind.String(); Template is the
// untranslated (English) default.
func Template(k Kind) string {
	switch k {
	case InternalError:
		return "internal error: %s"
	case OutOfTimeRange:
		return "date %v is out of time range [%v, %v]"
	case OutOfTileIndices:
		return "cell (%d, %d) is out of tile range (rows=%d, cols=%d)"
	case OutOfTileAngles:
		return "point (lat=%v, lon=%v) is out of tile angular range (lat in %v, lon in %v)"
	case NoDemData:
		return "no DEM data at (lat=%v, lon=%v)"
	case EmptyTile:
		return "updater produced an empty tile (rows=%d, cols=%d)"
	case TileWithoutRequiredNeighborsSelected:
		return "tile selected for (lat=%v, lon=%v) does not have the required interpolation neighbors"
	case UnknownSensor:
		return "unknown sensor %q"
	case LineOfSightDoesNotReachGround:
		return "line of sight does not reach ground"
	case LineOfSightNeverCrossesLatitude:
		return "line of sight never crosses latitude %v"
	case LineOfSightNeverCrossesLongitude:
		return "line of sight never crosses longitude %v"
	case LineOfSightNeverCrossesAltitude:
		return "line of sight never crosses altitude %v"
	case DemEntryPointIsBehindSpacecraft:
		return "DEM entry point is behind spacecraft"
	case NoLayerData:
		return "no refraction layer data at altitude %v (lowest available %v)"
	case InvalidStep:
		return "invalid resampling step %v"
	case InvalidRangeForLines:
		return "invalid line range [%v, %v]"
	case SensorPixelNotFoundInRangeLines:
		return "sensor pixel not found: line %v outside range [%v, %v]"
	case SensorPixelNotFoundInPixelsLine:
		return "sensor pixel not found: pixel %v outside range [%v, %v]"
	case InvalidInput:
		return "invalid input: %s"
	default:
		return "unrecognized error kind %d"
	}
}
