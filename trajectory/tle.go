package trajectory

import (
	"time"

	gosatellite "github.com/joshuaferrara/go-satellite"

	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// SamplesFromTLE propagates a two-line element set with SGP4 at a fixed
// step from start to end and returns one Frame per step, Date set to
// seconds elapsed since start, position/velocity converted from SGP4's
// TEME-frame km and km/s to meters and meters/second. TLE propagation
// carries no attitude information, so every frame's Rotation is the
// identity and its rates are zero — callers needing attitude must set it
// from a separate source (such as a dedicated AOCS feed) before using
// these frames for direct/inverse location.
func SamplesFromTLE(line1, line2 string, start, end time.Time, step time.Duration) ([]Frame, error) {
	if step <= 0 {
		return nil, ruggederr.New(ruggederr.InvalidStep, step)
	}
	if !end.After(start) {
		return nil, ruggederr.New(ruggederr.InvalidRangeForLines, start, end)
	}
	sat := gosatellite.TLEToSat(line1, line2, gosatellite.GravityWGS84)

	var frames []Frame
	for t := start; !t.After(end); t = t.Add(step) {
		pos, vel := gosatellite.Propagate(sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
		frames = append(frames, Frame{
			Date:     t.Sub(start).Seconds(),
			Position: ellipsoid.Vector3{pos.X * 1000, pos.Y * 1000, pos.Z * 1000},
			Velocity: ellipsoid.Vector3{vel.X * 1000, vel.Y * 1000, vel.Z * 1000},
			Rotation: IdentityQuaternion,
		})
	}
	if len(frames) < 2 {
		return nil, ruggederr.New(ruggederr.InvalidInput, "propagation window too short for any sample pair")
	}
	return frames, nil
}
