// Package geom provides the geometric vocabulary of the query engine:
// isometries, axis-aligned bounding boxes, rays, and the shape variants with
// their support-mapping, bounding, ray-casting and point-query capabilities.
//
// Shapes are immutable once constructed. A positioned object is always the
// pair (Shape, Isometry); the isometry changes every step, the shape never
// does. Construction is the only place where geometry is validated: a shape
// that exists is always safe to query.
package geom

import "errors"

// Kind identifies a shape variant. Kinds index the query dispatch tables,
// so the values are contiguous and KindCount reports the table size.
type Kind int

const (
	KindBall Kind = iota
	KindCuboid
	KindCapsule
	KindCone
	KindCylinder
	KindConvexHull
	KindCompound
	KindTriMesh
	KindHeightField
	KindHalfSpace
	KindSegment
	KindTriangle

	// KindCount is the number of shape kinds, for sizing dispatch tables.
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindBall:
		return "Ball"
	case KindCuboid:
		return "Cuboid"
	case KindCapsule:
		return "Capsule"
	case KindCone:
		return "Cone"
	case KindCylinder:
		return "Cylinder"
	case KindConvexHull:
		return "ConvexHull"
	case KindCompound:
		return "Compound"
	case KindTriMesh:
		return "TriMesh"
	case KindHeightField:
		return "HeightField"
	case KindHalfSpace:
		return "HalfSpace"
	case KindSegment:
		return "Segment"
	case KindTriangle:
		return "Triangle"
	}
	return "Unknown"
}

// ErrDegenerateShape is wrapped by every constructor error reporting geometry
// with no usable extent (zero radius, zero half-extents, empty mesh, ...).
// Queries never re-validate shapes; construction is the only gate.
var ErrDegenerateShape = errors.New("geom: degenerate shape")
