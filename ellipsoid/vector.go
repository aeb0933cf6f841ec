package ellipsoid

import "math"

// Vector3 is a 3-component Cartesian vector expressed in an ellipsoid's
// opaque body frame. The zero value is the origin vector.
type Vector3 [3]float64

// NewVector3 builds a Vector3 from its three components.
func NewVector3(x, y, z float64) Vector3 { return Vector3{x, y, z} }

// Dot returns the scalar (inner) product of v and w.
func (v Vector3) Dot(w Vector3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Cross returns the vector (cross) product v x w.
func (v Vector3) Cross(w Vector3) Vector3 {
	return Vector3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Scale returns s*v.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{s * v[0], s * v[1], s * v[2]}
}

// Add returns v+w.
func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v-w.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged (callers working near the ellipsoid center check for this via
// InvalidInput before calling Normalize).
func (v Vector3) Normalize() Vector3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1.0 / n)
}

// PointAt returns the point reached by moving a distance s along v from
// origin p, i.e. p + s*v.
func PointAt(p, v Vector3, s float64) Vector3 {
	return p.Add(v.Scale(s))
}
