package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is the interface every variant implements. Optional capabilities
// (support mapping, polygonal features, composite decomposition, closed-form
// ray casts, point queries) are separate interfaces discovered by type
// assertion, so the dispatch layer can pick the cheapest applicable routine
// per shape pair without a combinatorial method set.
type Shape interface {
	Kind() Kind
	// LocalAABB returns a box containing the shape in its local frame.
	LocalAABB() AABB
	// AABB returns a box containing the shape placed by iso.
	AABB(iso Isometry) AABB
	// IsConvex reports whether the shape is convex (usable by GJK directly).
	IsConvex() bool
	// CCDThickness is a radius by which the shape's surface can be shrunk
	// without changing its topology; time-of-impact stops this far out.
	CCDThickness() float64
	// MassProperties returns mass, center and inertia for a uniform density.
	// Boundary-only shapes (meshes, half spaces, segments...) return zero.
	MassProperties(density float64) MassProperties
}

// SupportMap is the capability GJK and EPA build on: the furthest point of
// the shape along a direction, in the local frame. Implementations must be
// exact for polytopes, balls and capsules, and must not allocate: support is
// queried hundreds of times per narrow-phase call.
type SupportMap interface {
	Support(dir mgl64.Vec3) mgl64.Vec3
}

// Feature is a flat contact feature in the local frame: a single vertex, an
// edge (2 vertices), or a convex polygon wound counter-clockwise seen from
// outside the shape.
type Feature []mgl64.Vec3

// PolygonalSupport exposes the flat feature most aligned with a direction.
// Shapes with planar faces implement it so the manifold builder can clip
// face against face instead of reporting a single witness pair.
type PolygonalSupport interface {
	SupportFeature(dir mgl64.Vec3) Feature
}

// Composite is implemented by shapes made of convex parts (compounds,
// triangle meshes, height fields). The narrow phase never runs on a
// composite directly: it recurses on the parts overlapping the query region.
type Composite interface {
	NumParts() int
	// Part returns the i-th part and its placement in the composite frame.
	Part(i int) (Isometry, Shape)
	// PartsOverlapping calls f for each part whose bounds overlap aabb
	// (local frame). f returns false to stop the scan early.
	PartsOverlapping(aabb AABB, f func(i int) bool)
}

// RayCastable is implemented by shapes with a closed-form ray intersection.
// Shapes without it are served by the generic support-based fallback.
type RayCastable interface {
	// CastRayLocal intersects a local-frame ray with the shape. For solid
	// casts an origin inside the shape hits at TOI 0; otherwise the ray
	// passes through the interior and only surfaces are hit.
	CastRayLocal(ray Ray, maxTOI float64, solid bool) (RayHit, bool)
}

// PointProjection is the closest point of a shape to a query point.
type PointProjection struct {
	Point  mgl64.Vec3
	Inside bool
}

// PointQueryable is implemented by shapes with closed-form point queries.
type PointQueryable interface {
	// ProjectPoint returns the closest point of the shape to pt (local
	// frame). For solid projections a point inside the shape projects to
	// itself; otherwise it projects to the boundary.
	ProjectPoint(pt mgl64.Vec3, solid bool) PointProjection
	ContainsPoint(pt mgl64.Vec3) bool
}

// MassProperties describes a shape's mass distribution about its local frame.
type MassProperties struct {
	Mass        float64
	LocalCenter mgl64.Vec3
	// Inertia is the inertia tensor about LocalCenter, in the local frame.
	Inertia mgl64.Mat3
}

// closestOnSegment returns the point of segment [a,b] closest to p and its
// parameter t in [0,1].
func closestOnSegment(p, a, b mgl64.Vec3) (mgl64.Vec3, float64) {
	ab := b.Sub(a)
	lenSqr := ab.Dot(ab)
	if lenSqr < 1e-18 {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / lenSqr
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t)), t
}

// closestOnTriangle returns the point of triangle (a,b,c) closest to p,
// by Voronoi-region case analysis over the triangle's features.
func closestOnTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a // vertex region A
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b // vertex region B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)) // edge region AB
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c // vertex region C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)) // edge region AC
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)) // edge region BC
	}

	// Interior region: barycentric combination.
	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// tangentBasis returns two unit vectors orthogonal to normal and each other.
func tangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	t1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		t1 = mgl64.Vec3{0, 1, 0}
	}
	t1 = t1.Sub(normal.Mul(t1.Dot(normal))).Normalize()
	t2 := normal.Cross(t1).Normalize()
	return t1, t2
}
