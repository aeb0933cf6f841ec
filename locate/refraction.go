package locate

import (
	"math"
	"sort"

	"github.com/CS-SI/rugged-go/ellipsoid"
	"github.com/CS-SI/rugged-go/intersect"
	"github.com/CS-SI/rugged-go/ruggederr"
)

// AtmosphericRefraction is the optional collaborator §4.8 describes: given
// the un-refracted intersection rawIntersection of the ray
// (satPos, satLos), it returns the corrected intersection the same ray
// would reach once its line of sight is bent by the atmosphere on the way
// down. Implementations must be pure — no mutation of satPos/satLos/algorithm.
type AtmosphericRefraction interface {
	ApplyCorrection(e ellipsoid.Ellipsoid, satPos, satLos ellipsoid.Vector3, rawIntersection ellipsoid.NormalizedGeodeticPoint, algorithm intersect.Algorithm) (ellipsoid.NormalizedGeodeticPoint, error)
}

// RefractionLayer is one homogeneous shell of the atmosphere: a constant
// refractive index from LowestAltitude up to the next layer's LowestAltitude
// (or up to the satellite, for the topmost layer).
type RefractionLayer struct {
	LowestAltitude  float64
	RefractiveIndex float64
}

// LayeredRefraction models the atmosphere as a stack of constant-index
// spherical shells and refracts a ray through them one interface at a time
// using the closed-form linear-algebra formulation of Snell's law from
// §4.8: given two refractive indices n1, n2 and the local zenith z, the
// transmitted direction is (n1/n2)*u + beta*z with
// beta = -k - sqrt(1 + k^2 - (n1/n2)^2), k = (n1/n2)*u.z.
//
// This is the closed-form variant the spec's Open Question flags as the
// one to port (see DESIGN.md); the alternative iterative formulation the
// original sometimes carries alongside it was not used.
type LayeredRefraction struct {
	// Layers need not be sorted; ApplyCorrection sorts a copy by
	// LowestAltitude descending (topmost layer first).
	Layers []RefractionLayer
}

// ApplyCorrection refracts the ray through every layer boundary between the
// satellite's altitude and rawIntersection's altitude, then asks algorithm
// to refine the intersection of the bent ray's final segment against the
// same terrain rawIntersection came from.
func (r LayeredRefraction) ApplyCorrection(e ellipsoid.Ellipsoid, satPos, satLos ellipsoid.Vector3, rawIntersection ellipsoid.NormalizedGeodeticPoint, algorithm intersect.Algorithm) (ellipsoid.NormalizedGeodeticPoint, error) {
	if len(r.Layers) == 0 {
		return rawIntersection, nil
	}
	layers := append([]RefractionLayer(nil), r.Layers...)
	sort.Slice(layers, func(i, j int) bool { return layers[i].LowestAltitude > layers[j].LowestAltitude })

	satGeodetic, err := e.Transform(satPos)
	if err != nil {
		return ellipsoid.NormalizedGeodeticPoint{}, err
	}

	position := satPos
	dir := satLos.Normalize()
	n1 := vacuumIndex

	for _, layer := range layers {
		if layer.LowestAltitude >= satGeodetic.Altitude {
			continue
		}
		if layer.LowestAltitude <= rawIntersection.Altitude {
			break
		}

		boundary, err := e.PointAtAltitude(position, dir, layer.LowestAltitude)
		if err != nil {
			// The ray went horizontal or turned back before reaching this
			// boundary: treat the layer stack as exhausted at this point
			// rather than failing the whole correction.
			break
		}
		z := boundary.Normalize()

		n2 := layer.RefractiveIndex
		ratio := n1 / n2
		k := ratio * dir.Dot(z)
		disc := 1 + k*k - ratio*ratio
		if disc < 0 {
			return ellipsoid.NormalizedGeodeticPoint{}, ruggederr.New(ruggederr.NoLayerData, satGeodetic.Altitude, layer.LowestAltitude)
		}
		beta := -k - math.Sqrt(disc)

		dir = dir.Scale(ratio).Add(z.Scale(beta)).Normalize()
		position = boundary
		n1 = n2
	}

	return algorithm.RefineIntersection(e, position, dir, rawIntersection)
}

// vacuumIndex is the refractive index of free space, the implicit n1 for
// the topmost layer boundary a ray crosses coming from the satellite.
const vacuumIndex = 1.0
