package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ball is a solid sphere of the given radius, centered on its local origin.
type Ball struct {
	Radius float64
}

// NewBall builds a ball, rejecting non-positive radii.
func NewBall(radius float64) (*Ball, error) {
	if radius <= 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("%w: ball radius %v", ErrDegenerateShape, radius)
	}
	return &Ball{Radius: radius}, nil
}

func (b *Ball) Kind() Kind { return KindBall }

func (b *Ball) IsConvex() bool { return true }

func (b *Ball) CCDThickness() float64 { return b.Radius }

func (b *Ball) LocalAABB() AABB {
	r := mgl64.Vec3{b.Radius, b.Radius, b.Radius}
	return AABB{Min: r.Mul(-1), Max: r}
}

// AABB ignores the rotation: a ball's bounds depend on position only.
func (b *Ball) AABB(iso Isometry) AABB {
	r := mgl64.Vec3{b.Radius, b.Radius, b.Radius}
	return AABB{Min: iso.Translation.Sub(r), Max: iso.Translation.Add(r)}
}

func (b *Ball) Support(dir mgl64.Vec3) mgl64.Vec3 {
	lenSqr := dir.Dot(dir)
	if lenSqr < 1e-18 {
		return mgl64.Vec3{b.Radius, 0, 0}
	}
	return dir.Mul(b.Radius / math.Sqrt(lenSqr))
}

func (b *Ball) MassProperties(density float64) MassProperties {
	mass := density * (4.0 / 3.0) * math.Pi * b.Radius * b.Radius * b.Radius
	i := (2.0 / 5.0) * mass * b.Radius * b.Radius
	return MassProperties{Mass: mass, Inertia: mgl64.Diag3(mgl64.Vec3{i, i, i})}
}

// CastRayLocal solves the quadratic |o + t*d|² = r² and keeps the nearest
// root in [0, maxTOI].
func (b *Ball) CastRayLocal(ray Ray, maxTOI float64, solid bool) (RayHit, bool) {
	oo := ray.Origin.Dot(ray.Origin)
	inside := oo <= b.Radius*b.Radius

	if inside && solid {
		return insideHit(ray), true
	}

	a := ray.Dir.Dot(ray.Dir)
	if a < 1e-18 {
		return RayHit{}, false
	}
	bb := ray.Origin.Dot(ray.Dir)
	c := oo - b.Radius*b.Radius

	disc := bb*bb - a*c
	if disc < 0 {
		return RayHit{}, false
	}

	sqrtDisc := math.Sqrt(disc)
	t := (-bb - sqrtDisc) / a
	if t < 0 {
		// Origin inside a hollow ball: take the exit root.
		t = (-bb + sqrtDisc) / a
	}
	if t < 0 || t > maxTOI {
		return RayHit{}, false
	}

	normal := ray.At(t).Normalize()
	if inside {
		normal = normal.Mul(-1)
	}
	return RayHit{TOI: t, Normal: normal}, true
}

func (b *Ball) ProjectPoint(pt mgl64.Vec3, solid bool) PointProjection {
	distSqr := pt.Dot(pt)
	inside := distSqr <= b.Radius*b.Radius
	if inside && solid {
		return PointProjection{Point: pt, Inside: true}
	}
	if distSqr < 1e-18 {
		return PointProjection{Point: mgl64.Vec3{b.Radius, 0, 0}, Inside: inside}
	}
	return PointProjection{Point: pt.Mul(b.Radius / math.Sqrt(distSqr)), Inside: inside}
}

func (b *Ball) ContainsPoint(pt mgl64.Vec3) bool {
	return pt.Dot(pt) <= b.Radius*b.Radius
}
