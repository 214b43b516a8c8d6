package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HalfSpace is the solid region below the plane through the local origin
// with the given outward normal: all points p with Normal·p <= 0.
//
// A half space is unbounded, so it is not a support map; the dispatcher
// serves it with dedicated plane routines instead of GJK.
type HalfSpace struct {
	Normal mgl64.Vec3
}

// NewHalfSpace builds a half space, normalizing the boundary normal.
func NewHalfSpace(normal mgl64.Vec3) (*HalfSpace, error) {
	lenSqr := normal.Dot(normal)
	if lenSqr < 1e-18 || math.IsNaN(lenSqr) {
		return nil, fmt.Errorf("%w: half space normal %v", ErrDegenerateShape, normal)
	}
	return &HalfSpace{Normal: normal.Mul(1 / math.Sqrt(lenSqr))}, nil
}

func (h *HalfSpace) Kind() Kind { return KindHalfSpace }

func (h *HalfSpace) IsConvex() bool { return true }

func (h *HalfSpace) CCDThickness() float64 { return 0 }

// LocalAABB is a huge box on the solid side of the plane, clamped along the
// dominant normal axis and unbounded-in-practice elsewhere.
func (h *HalfSpace) LocalAABB() AABB {
	const extent = 1e12
	aabb := AABB{
		Min: mgl64.Vec3{-extent, -extent, -extent},
		Max: mgl64.Vec3{extent, extent, extent},
	}
	for i := 0; i < 3; i++ {
		if h.Normal[i] > 0.999999 {
			aabb.Max[i] = 0
		} else if h.Normal[i] < -0.999999 {
			aabb.Min[i] = 0
		}
	}
	return aabb
}

func (h *HalfSpace) AABB(iso Isometry) AABB {
	return h.LocalAABB().Transform(iso)
}

// MassProperties is zero: half spaces are static boundaries.
func (h *HalfSpace) MassProperties(float64) MassProperties { return MassProperties{} }

// CastRayLocal solves Normal·(o + t*d) = 0.
func (h *HalfSpace) CastRayLocal(ray Ray, maxTOI float64, solid bool) (RayHit, bool) {
	height := h.Normal.Dot(ray.Origin)
	if height <= 0 && solid {
		return insideHit(ray), true
	}

	approach := h.Normal.Dot(ray.Dir)
	if math.Abs(approach) < 1e-14 {
		return RayHit{}, false
	}
	t := -height / approach
	if t < 0 || t > maxTOI {
		return RayHit{}, false
	}

	normal := h.Normal
	if height < 0 {
		normal = normal.Mul(-1) // hit from the inside of a hollow boundary
	}
	return RayHit{TOI: t, Normal: normal}, true
}

func (h *HalfSpace) ProjectPoint(pt mgl64.Vec3, solid bool) PointProjection {
	height := h.Normal.Dot(pt)
	inside := height <= 0
	if inside && solid {
		return PointProjection{Point: pt, Inside: true}
	}
	return PointProjection{Point: pt.Sub(h.Normal.Mul(height)), Inside: inside}
}

func (h *HalfSpace) ContainsPoint(pt mgl64.Vec3) bool {
	return h.Normal.Dot(pt) <= 0
}
