package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cuboid is a solid box centered on its local origin, described by its
// half-extents along each axis.
type Cuboid struct {
	HalfExtents mgl64.Vec3
}

// NewCuboid builds a cuboid, rejecting non-positive half-extents.
func NewCuboid(halfExtents mgl64.Vec3) (*Cuboid, error) {
	if halfExtents.X() <= 0 || halfExtents.Y() <= 0 || halfExtents.Z() <= 0 {
		return nil, fmt.Errorf("%w: cuboid half-extents %v", ErrDegenerateShape, halfExtents)
	}
	return &Cuboid{HalfExtents: halfExtents}, nil
}

func (c *Cuboid) Kind() Kind { return KindCuboid }

func (c *Cuboid) IsConvex() bool { return true }

func (c *Cuboid) CCDThickness() float64 { return 0 }

func (c *Cuboid) LocalAABB() AABB {
	return AABB{Min: c.HalfExtents.Mul(-1), Max: c.HalfExtents}
}

func (c *Cuboid) AABB(iso Isometry) AABB {
	return c.LocalAABB().Transform(iso)
}

func (c *Cuboid) Support(dir mgl64.Vec3) mgl64.Vec3 {
	out := c.HalfExtents
	if dir.X() < 0 {
		out[0] = -out[0]
	}
	if dir.Y() < 0 {
		out[1] = -out[1]
	}
	if dir.Z() < 0 {
		out[2] = -out[2]
	}
	return out
}

// SupportFeature returns the face whose outward normal is most aligned with
// dir, wound counter-clockwise seen from outside.
func (c *Cuboid) SupportFeature(dir mgl64.Vec3) Feature {
	hx, hy, hz := c.HalfExtents.X(), c.HalfExtents.Y(), c.HalfExtents.Z()

	// Dominant axis picks the face; the sign picks which of the two.
	ax, ay, az := math.Abs(dir.X()), math.Abs(dir.Y()), math.Abs(dir.Z())
	switch {
	case ax >= ay && ax >= az:
		if dir.X() >= 0 {
			return Feature{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}
		}
		return Feature{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}
	case ay >= ax && ay >= az:
		if dir.Y() >= 0 {
			return Feature{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}
		}
		return Feature{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}
	default:
		if dir.Z() >= 0 {
			return Feature{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}
		}
		return Feature{{-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}, {hx, -hy, -hz}}
	}
}

func (c *Cuboid) MassProperties(density float64) MassProperties {
	x := 2 * c.HalfExtents.X()
	y := 2 * c.HalfExtents.Y()
	z := 2 * c.HalfExtents.Z()
	mass := density * x * y * z

	factor := mass / 12.0
	return MassProperties{
		Mass: mass,
		Inertia: mgl64.Diag3(mgl64.Vec3{
			factor * (y*y + z*z),
			factor * (x*x + z*z),
			factor * (x*x + y*y),
		}),
	}
}

// CastRayLocal runs the slab test and derives the normal from the slab that
// produced the entry distance.
func (c *Cuboid) CastRayLocal(ray Ray, maxTOI float64, solid bool) (RayHit, bool) {
	box := c.LocalAABB()

	if box.ContainsPoint(ray.Origin) && solid {
		return insideHit(ray), true
	}

	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	entryAxis, exitAxis := -1, -1
	entrySign, exitSign := 0.0, 0.0

	for i := 0; i < 3; i++ {
		if math.Abs(ray.Dir[i]) < 1e-14 {
			if ray.Origin[i] < box.Min[i] || ray.Origin[i] > box.Max[i] {
				return RayHit{}, false
			}
			continue
		}

		inv := 1.0 / ray.Dir[i]
		t1 := (box.Min[i] - ray.Origin[i]) * inv
		t2 := (box.Max[i] - ray.Origin[i]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tmin {
			tmin = t1
			entryAxis = i
			entrySign = sign
		}
		if t2 < tmax {
			tmax = t2
			exitAxis = i
			exitSign = -sign
		}
		if tmin > tmax {
			return RayHit{}, false
		}
	}

	t, axis, sign := tmin, entryAxis, entrySign
	if t < 0 {
		// Origin inside a hollow box: exit through the min-t2 slab.
		t, axis, sign = tmax, exitAxis, exitSign
	}
	if t < 0 || t > maxTOI || axis < 0 {
		return RayHit{}, false
	}

	normal := mgl64.Vec3{}
	normal[axis] = sign
	return RayHit{TOI: t, Normal: normal}, true
}

func (c *Cuboid) ProjectPoint(pt mgl64.Vec3, solid bool) PointProjection {
	clamped := vecMax(c.HalfExtents.Mul(-1), vecMin(c.HalfExtents, pt))
	inside := clamped == pt

	if !inside {
		return PointProjection{Point: clamped}
	}
	if solid {
		return PointProjection{Point: pt, Inside: true}
	}

	// Push the interior point to the nearest face.
	out := pt
	bestAxis, bestDist := 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		dist := c.HalfExtents[i] - math.Abs(pt[i])
		if dist < bestDist {
			bestDist, bestAxis = dist, i
		}
	}
	if pt[bestAxis] >= 0 {
		out[bestAxis] = c.HalfExtents[bestAxis]
	} else {
		out[bestAxis] = -c.HalfExtents[bestAxis]
	}
	return PointProjection{Point: out, Inside: true}
}

func (c *Cuboid) ContainsPoint(pt mgl64.Vec3) bool {
	return c.LocalAABB().ContainsPoint(pt)
}
