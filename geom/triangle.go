package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle is a single triangle: a convex shape of zero thickness. Both
// sides are solid for collision purposes.
type Triangle struct {
	A, B, C mgl64.Vec3
}

// NewTriangle builds a triangle, rejecting zero-area inputs.
func NewTriangle(a, b, c mgl64.Vec3) (*Triangle, error) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Dot(n) < 1e-18 {
		return nil, fmt.Errorf("%w: triangle with zero area", ErrDegenerateShape)
	}
	return &Triangle{A: a, B: b, C: c}, nil
}

func (t *Triangle) Kind() Kind { return KindTriangle }

func (t *Triangle) IsConvex() bool { return true }

func (t *Triangle) CCDThickness() float64 { return 0 }

func (t *Triangle) LocalAABB() AABB { return AABBFromPoints(t.A, t.B, t.C) }

func (t *Triangle) AABB(iso Isometry) AABB {
	return AABBFromPoints(
		iso.TransformPoint(t.A),
		iso.TransformPoint(t.B),
		iso.TransformPoint(t.C),
	)
}

// Normal returns the unit normal of the triangle plane (winding A, B, C).
func (t *Triangle) Normal() mgl64.Vec3 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Normalize()
}

func (t *Triangle) Support(dir mgl64.Vec3) mgl64.Vec3 {
	best := t.A
	bestDot := best.Dot(dir)
	if d := t.B.Dot(dir); d > bestDot {
		best, bestDot = t.B, d
	}
	if d := t.C.Dot(dir); d > bestDot {
		best = t.C
	}
	return best
}

// SupportFeature returns the whole triangle when dir is close to either
// plane normal, an edge or a vertex otherwise.
func (t *Triangle) SupportFeature(dir mgl64.Vec3) Feature {
	n := t.Normal()
	d := dir.Normalize()
	dot := d.Dot(n)
	if dot > 0.996 {
		return Feature{t.A, t.B, t.C}
	}
	if dot < -0.996 {
		return Feature{t.A, t.C, t.B} // reversed winding for the back face
	}

	// Pick the most aligned edge among those containing the support vertex.
	vertices := [3]mgl64.Vec3{t.A, t.B, t.C}
	best := 0
	bestDot := vertices[0].Dot(dir)
	for i := 1; i < 3; i++ {
		if dv := vertices[i].Dot(dir); dv > bestDot {
			best, bestDot = i, dv
		}
	}
	prev := vertices[(best+2)%3]
	next := vertices[(best+1)%3]
	tol := 1e-6 * math.Max(1, bestDot)
	if bestDot-prev.Dot(dir) <= tol {
		return Feature{prev, vertices[best]}
	}
	if bestDot-next.Dot(dir) <= tol {
		return Feature{vertices[best], next}
	}
	return Feature{vertices[best]}
}

// MassProperties is zero: a triangle has no volume.
func (t *Triangle) MassProperties(float64) MassProperties { return MassProperties{} }

// CastRayLocal runs Moller-Trumbore against both faces of the triangle.
func (t *Triangle) CastRayLocal(ray Ray, maxTOI float64, _ bool) (RayHit, bool) {
	e1 := t.B.Sub(t.A)
	e2 := t.C.Sub(t.A)

	p := ray.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < 1e-14 {
		return RayHit{}, false // parallel to the plane
	}
	invDet := 1.0 / det

	s := ray.Origin.Sub(t.A)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return RayHit{}, false
	}

	q := s.Cross(e1)
	v := ray.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return RayHit{}, false
	}

	toi := e2.Dot(q) * invDet
	if toi < 0 || toi > maxTOI {
		return RayHit{}, false
	}

	normal := e1.Cross(e2).Normalize()
	if normal.Dot(ray.Dir) > 0 {
		normal = normal.Mul(-1) // report the face the ray entered
	}
	return RayHit{TOI: toi, Normal: normal}, true
}

func (t *Triangle) ProjectPoint(pt mgl64.Vec3, _ bool) PointProjection {
	return PointProjection{Point: closestOnTriangle(pt, t.A, t.B, t.C)}
}

// ContainsPoint is true only for points on the triangle itself.
func (t *Triangle) ContainsPoint(pt mgl64.Vec3) bool {
	p := closestOnTriangle(pt, t.A, t.B, t.C)
	return p.Sub(pt).Dot(p.Sub(pt)) < 1e-18
}
