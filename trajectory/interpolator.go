package trajectory

import (
	"sort"

	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// TrajectoryInterpolator resamples a set of (possibly irregularly spaced)
// trajectory samples onto a uniform frame table, then answers
// Interpolate(t) with a Lagrange polynomial fit over a fixed-size
// neighborhood of that table — the two-stage "resample once, then cheap
// local fit per query" structure spec calls for so that a single
// direct-location call doesn't re-walk the whole raw sample set.
type TrajectoryInterpolator struct {
	frames    []Frame
	step      float64
	neighbors int
	pFilter   PVFilter
	rFilter   RFilter
	// overshoot is how far past [frames[0].Date, frames[last].Date] a query
	// is still tolerated, absorbing the last half-neighborhood that a
	// Lagrange fit can still extrapolate usefully.
	overshoot float64
}

// NewTrajectoryInterpolator resamples samples (sorted by Date ascending,
// sorted here if not already) onto a uniform grid spaced step seconds
// apart, ready for Interpolate queries using a neighbors-point-each-side
// Lagrange fit.
func NewTrajectoryInterpolator(samples []Frame, step float64, neighbors int, pFilter PVFilter, rFilter RFilter) (*TrajectoryInterpolator, error) {
	if len(samples) < 2 {
		return nil, ruggederr.New(ruggederr.InvalidInput, "need at least 2 trajectory samples")
	}
	if step <= 0 {
		return nil, ruggederr.New(ruggederr.InvalidStep, step)
	}
	if neighbors < 1 {
		neighbors = 1
	}

	sorted := append([]Frame(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	t := &TrajectoryInterpolator{
		step:      step,
		neighbors: neighbors,
		pFilter:   pFilter,
		rFilter:   rFilter,
		overshoot: step * float64(neighbors),
	}

	start, end := sorted[0].Date, sorted[len(sorted)-1].Date
	for tk := start; tk <= end; tk += step {
		f, err := lagrangeFrameAt(sorted, tk, neighbors, pFilter, rFilter)
		if err != nil {
			return nil, err
		}
		t.frames = append(t.frames, f)
	}
	if len(t.frames) == 0 || t.frames[len(t.frames)-1].Date < end {
		last, err := lagrangeFrameAt(sorted, end, neighbors, pFilter, rFilter)
		if err != nil {
			return nil, err
		}
		t.frames = append(t.frames, last)
	}
	return t, nil
}

// Bounds returns the time range Interpolate will serve without overshoot.
func (t *TrajectoryInterpolator) Bounds() (minDate, maxDate float64) {
	return t.frames[0].Date, t.frames[len(t.frames)-1].Date
}

// Interpolate returns the trajectory state at date, fit with a Lagrange
// polynomial over the nearest neighbors resampled frames on each side.
func (t *TrajectoryInterpolator) Interpolate(date float64) (Frame, error) {
	minDate, maxDate := t.Bounds()
	if date < minDate-t.overshoot || date > maxDate+t.overshoot {
		return Frame{}, ruggederr.New(ruggederr.OutOfTimeRange, date, minDate, maxDate)
	}
	return lagrangeFrameAt(t.frames, date, t.neighbors, t.pFilter, t.rFilter)
}

// lagrangeFrameAt fits a Lagrange polynomial to the up-to-2*neighbors
// frames of table nearest date and evaluates it at date, for every
// kinematic and attitude channel independently. pFilter/rFilter gate which
// derivative orders actually get interpolated: a channel the filter
// excludes is left at its zero value rather than fit from samples whose
// higher derivatives may not be populated or trustworthy.
func lagrangeFrameAt(table []Frame, date float64, neighbors int, pFilter PVFilter, rFilter RFilter) (Frame, error) {
	idx := sort.Search(len(table), func(i int) bool { return table[i].Date >= date })
	lo := idx - neighbors
	hi := idx + neighbors
	if lo < 0 {
		hi -= lo
		lo = 0
	}
	if hi > len(table) {
		lo -= hi - len(table)
		hi = len(table)
	}
	if lo < 0 {
		lo = 0
	}
	window := table[lo:hi]
	if len(window) == 0 {
		return Frame{}, ruggederr.New(ruggederr.InternalError, "empty interpolation window")
	}

	xs := make([]float64, len(window))
	for i, f := range window {
		xs[i] = f.Date
	}

	pos := lagrangeVector(xs, window, date, func(f Frame) ellipsoid.Vector3 { return f.Position })
	var vel, acc ellipsoid.Vector3
	if pFilter >= UsePV {
		vel = lagrangeVector(xs, window, date, func(f Frame) ellipsoid.Vector3 { return f.Velocity })
	}
	if pFilter >= UsePVA {
		acc = lagrangeVector(xs, window, date, func(f Frame) ellipsoid.Vector3 { return f.Acceleration })
	}

	rot := lagrangeQuaternion(xs, window, date)
	var rotRate, rotAcc ellipsoid.Vector3
	if rFilter >= UseRR {
		rotRate = lagrangeVector(xs, window, date, func(f Frame) ellipsoid.Vector3 { return f.RotationRate })
	}
	if rFilter >= UseRRR {
		rotAcc = lagrangeVector(xs, window, date, func(f Frame) ellipsoid.Vector3 { return f.RotationAcceleration })
	}

	return Frame{
		Date:                 date,
		Position:             pos,
		Velocity:             vel,
		Acceleration:         acc,
		Rotation:             rot,
		RotationRate:         rotRate,
		RotationAcceleration: rotAcc,
	}, nil
}

func lagrangeVector(xs []float64, window []Frame, x float64, pick func(Frame) ellipsoid.Vector3) ellipsoid.Vector3 {
	cx := make([]float64, len(window))
	cy := make([]float64, len(window))
	cz := make([]float64, len(window))
	for i, f := range window {
		v := pick(f)
		cx[i], cy[i], cz[i] = v[0], v[1], v[2]
	}
	return ellipsoid.Vector3{
		lagrangeValue(xs, cx, x),
		lagrangeValue(xs, cy, x),
		lagrangeValue(xs, cz, x),
	}
}

// lagrangeQuaternion interpolates attitude by Lagrange-blending the
// (sign-aligned) quaternion components and renormalizing — adequate for
// the closely spaced samples a resampled frame table produces, avoiding a
// full SLERP chain across more than two samples.
func lagrangeQuaternion(xs []float64, window []Frame, x float64) Quaternion {
	aligned := make([]Quaternion, len(window))
	ref := window[0].Rotation
	for i, f := range window {
		aligned[i] = ref.AlignedWith(f.Rotation)
	}
	cw := make([]float64, len(window))
	cx := make([]float64, len(window))
	cy := make([]float64, len(window))
	cz := make([]float64, len(window))
	for i, q := range aligned {
		cw[i], cx[i], cy[i], cz[i] = q[0], q[1], q[2], q[3]
	}
	q := Quaternion{
		lagrangeValue(xs, cw, x),
		lagrangeValue(xs, cx, x),
		lagrangeValue(xs, cy, x),
		lagrangeValue(xs, cz, x),
	}
	return q.Normalize()
}
