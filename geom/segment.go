package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Segment is the line segment [A, B]: a convex shape of zero thickness.
type Segment struct {
	A, B mgl64.Vec3
}

// NewSegment builds a segment, rejecting coincident endpoints.
func NewSegment(a, b mgl64.Vec3) (*Segment, error) {
	if b.Sub(a).Dot(b.Sub(a)) < 1e-18 {
		return nil, fmt.Errorf("%w: segment endpoints coincide at %v", ErrDegenerateShape, a)
	}
	return &Segment{A: a, B: b}, nil
}

func (s *Segment) Kind() Kind { return KindSegment }

func (s *Segment) IsConvex() bool { return true }

func (s *Segment) CCDThickness() float64 { return 0 }

func (s *Segment) LocalAABB() AABB { return AABBFromPoints(s.A, s.B) }

func (s *Segment) AABB(iso Isometry) AABB {
	return AABBFromPoints(iso.TransformPoint(s.A), iso.TransformPoint(s.B))
}

func (s *Segment) Support(dir mgl64.Vec3) mgl64.Vec3 {
	if s.B.Dot(dir) > s.A.Dot(dir) {
		return s.B
	}
	return s.A
}

// SupportFeature returns the whole segment when dir is nearly orthogonal to
// it, the extreme endpoint otherwise.
func (s *Segment) SupportFeature(dir mgl64.Vec3) Feature {
	axis := s.B.Sub(s.A).Normalize()
	d := dir.Normalize()
	if math.Abs(d.Dot(axis)) < 0.087 {
		return Feature{s.A, s.B}
	}
	return Feature{s.Support(dir)}
}

// MassProperties is zero: a segment has no volume.
func (s *Segment) MassProperties(float64) MassProperties { return MassProperties{} }

// CastRayLocal solves the closest approach between the ray line and the
// segment line; a hit requires the lines to actually meet.
func (s *Segment) CastRayLocal(ray Ray, maxTOI float64, _ bool) (RayHit, bool) {
	d1 := ray.Dir
	d2 := s.B.Sub(s.A)
	r := ray.Origin.Sub(s.A)

	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)
	cc := d1.Dot(r)
	bb := d1.Dot(d2)

	denom := a*e - bb*bb
	if math.Abs(denom) < 1e-14 {
		return RayHit{}, false // parallel lines
	}

	t := (bb*f - cc*e) / denom // ray parameter
	u := (a*f - bb*cc) / denom // segment parameter

	if t < 0 || t > maxTOI || u < 0 || u > 1 {
		return RayHit{}, false
	}

	onRay := ray.At(t)
	onSegment := s.A.Add(d2.Mul(u))
	gap := onRay.Sub(onSegment)
	// Zero-thickness shape: require the lines to intersect within tolerance.
	if gap.Dot(gap) > 1e-14*math.Max(1, a) {
		return RayHit{}, false
	}

	normal := d2.Cross(d1).Cross(d2)
	if normal.Dot(normal) < 1e-18 {
		normal = ray.Dir.Mul(-1)
	} else if normal.Dot(ray.Dir) > 0 {
		normal = normal.Mul(-1)
	}
	return RayHit{TOI: t, Normal: normal.Normalize()}, true
}

func (s *Segment) ProjectPoint(pt mgl64.Vec3, _ bool) PointProjection {
	p, _ := closestOnSegment(pt, s.A, s.B)
	return PointProjection{Point: p}
}

// ContainsPoint is true only for points on the segment itself.
func (s *Segment) ContainsPoint(pt mgl64.Vec3) bool {
	p, _ := closestOnSegment(pt, s.A, s.B)
	return p.Sub(pt).Dot(p.Sub(pt)) < 1e-18
}
