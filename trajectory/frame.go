// Package trajectory interpolates a spacecraft's position, velocity,
// acceleration and attitude as a continuous function of time from a
// sparse set of ephemeris/attitude samples, with light-time and stellar
// aberration correction for locating a point seen from a moving,
// non-instantaneous vantage.
package trajectory

import "github.com/CS-SI/rugged-go/ellipsoid"

// PVFilter says how many derivatives of position a trajectory's samples
// actually carry, which bounds the polynomial order Lagrange interpolation
// may safely assume.
type PVFilter int

const (
	UseP PVFilter = iota
	UsePV
	UsePVA
)

// RFilter is PVFilter's attitude-side counterpart: how many derivatives of
// rotation the samples carry.
type RFilter int

const (
	UseR RFilter = iota
	UseRR
	UseRRR
)

// Frame is one fully-populated trajectory sample: kinematic state
// (position, velocity, acceleration) plus attitude (rotation, rotation
// rate, rotation acceleration) at a single date.
type Frame struct {
	Date float64 // seconds past an arbitrary but fixed epoch shared by a whole trajectory

	Position     ellipsoid.Vector3
	Velocity     ellipsoid.Vector3
	Acceleration ellipsoid.Vector3

	Rotation             Quaternion
	RotationRate         ellipsoid.Vector3 // angular velocity, rad/s, expressed in the spacecraft frame
	RotationAcceleration ellipsoid.Vector3 // angular acceleration, rad/s^2
}
