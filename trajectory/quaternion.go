package trajectory

import (
	"math"

	"github.com/CS-SI/rugged-go/ellipsoid"
)

// Quaternion is a unit rotation quaternion (w, x, y, z), rotating vectors
// from the spacecraft frame to the frame the trajectory's positions are
// expressed in.
type Quaternion [4]float64

// IdentityQuaternion is the no-rotation quaternion.
var IdentityQuaternion = Quaternion{1, 0, 0, 0}

func (q Quaternion) Normalize() Quaternion {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		return IdentityQuaternion
	}
	return Quaternion{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

// Rotate applies the rotation to v.
func (q Quaternion) Rotate(v ellipsoid.Vector3) ellipsoid.Vector3 {
	w, x, y, z := q[0], q[1], q[2], q[3]
	// t = 2 * cross(qv, v); result = v + w*t + cross(qv, t)
	qv := ellipsoid.Vector3{x, y, z}
	t := qv.Cross(v).Scale(2)
	return v.Add(t.Scale(w)).Add(qv.Cross(t))
}

// Scale multiplies each component by s; the result is not renormalized.
func (q Quaternion) Scale(s float64) Quaternion {
	return Quaternion{q[0] * s, q[1] * s, q[2] * s, q[3] * s}
}

// Add sums components.
func (q Quaternion) Add(o Quaternion) Quaternion {
	return Quaternion{q[0] + o[0], q[1] + o[1], q[2] + o[2], q[3] + o[3]}
}

// Dot is the 4-vector dot product, used to pick the nearer of q/-q before
// summing in Lagrange interpolation (quaternions double-cover rotations,
// so naive averaging of antipodal samples produces garbage).
func (q Quaternion) Dot(o Quaternion) float64 {
	return q[0]*o[0] + q[1]*o[1] + q[2]*o[2] + q[3]*o[3]
}

// AlignedWith returns o, or -o if that is closer to q, so a sequence of
// quaternions can be safely blended component-wise.
func (q Quaternion) AlignedWith(o Quaternion) Quaternion {
	if q.Dot(o) < 0 {
		return Quaternion{-o[0], -o[1], -o[2], -o[3]}
	}
	return o
}
