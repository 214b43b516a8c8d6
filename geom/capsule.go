package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Capsule is the set of points within Radius of the segment [A, B]: a
// cylinder with hemispherical caps.
type Capsule struct {
	A, B   mgl64.Vec3
	Radius float64
}

// NewCapsule builds a capsule around the segment [a, b]. The segment may be
// degenerate (a == b yields a ball-like capsule) but the radius must be
// positive.
func NewCapsule(a, b mgl64.Vec3, radius float64) (*Capsule, error) {
	if radius <= 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("%w: capsule radius %v", ErrDegenerateShape, radius)
	}
	return &Capsule{A: a, B: b, Radius: radius}, nil
}

// NewCapsuleY builds a capsule aligned with the local y axis, with its
// segment spanning [-halfHeight, +halfHeight].
func NewCapsuleY(halfHeight, radius float64) (*Capsule, error) {
	if halfHeight < 0 {
		return nil, fmt.Errorf("%w: capsule half-height %v", ErrDegenerateShape, halfHeight)
	}
	return NewCapsule(mgl64.Vec3{0, -halfHeight, 0}, mgl64.Vec3{0, halfHeight, 0}, radius)
}

func (c *Capsule) Kind() Kind { return KindCapsule }

func (c *Capsule) IsConvex() bool { return true }

func (c *Capsule) CCDThickness() float64 { return c.Radius }

func (c *Capsule) LocalAABB() AABB {
	return AABBFromPoints(c.A, c.B).Loosened(c.Radius)
}

func (c *Capsule) AABB(iso Isometry) AABB {
	return AABBFromPoints(iso.TransformPoint(c.A), iso.TransformPoint(c.B)).Loosened(c.Radius)
}

func (c *Capsule) Support(dir mgl64.Vec3) mgl64.Vec3 {
	end := c.A
	if c.B.Dot(dir) > c.A.Dot(dir) {
		end = c.B
	}
	lenSqr := dir.Dot(dir)
	if lenSqr < 1e-18 {
		return end.Add(mgl64.Vec3{c.Radius, 0, 0})
	}
	return end.Add(dir.Mul(c.Radius / math.Sqrt(lenSqr)))
}

// SupportFeature returns the inflated segment when dir is nearly orthogonal
// to the capsule axis, a single cap point otherwise.
func (c *Capsule) SupportFeature(dir mgl64.Vec3) Feature {
	axis := c.B.Sub(c.A)
	axisLen := axis.Len()
	if axisLen < 1e-12 {
		return Feature{c.Support(dir)}
	}

	d := dir.Normalize()
	if math.Abs(d.Dot(axis.Mul(1/axisLen))) < 0.087 { // ~5 degrees off orthogonal
		offset := d.Mul(c.Radius)
		return Feature{c.A.Add(offset), c.B.Add(offset)}
	}
	return Feature{c.Support(dir)}
}

func (c *Capsule) MassProperties(density float64) MassProperties {
	halfHeight := c.B.Sub(c.A).Len() * 0.5
	r := c.Radius
	center := c.A.Add(c.B).Mul(0.5)

	cylMass := density * math.Pi * r * r * 2 * halfHeight
	capMass := density * (4.0 / 3.0) * math.Pi * r * r * r

	// Inertia about the segment axis (y in the canonical frame).
	iAxis := cylMass*0.5*r*r + capMass*(2.0/5.0)*r*r
	// Inertia about the transverse axes: cylinder + caps with transport.
	iCyl := cylMass * (3*r*r + 4*halfHeight*halfHeight) / 12.0
	capOffset := halfHeight + (3.0/8.0)*r
	iCap := capMass*(2.0/5.0)*r*r + capMass*capOffset*capOffset
	iTrans := iCyl + iCap

	// Rotate the canonical diagonal tensor into the actual segment frame.
	inertia := rotateDiagInertia(c.B.Sub(c.A), iTrans, iAxis)

	return MassProperties{
		Mass:        cylMass + capMass,
		LocalCenter: center,
		Inertia:     inertia,
	}
}

// rotateDiagInertia maps diag(iTrans, iAxis, iTrans) from a frame whose y
// axis is aligned with axis back into the local frame.
func rotateDiagInertia(axis mgl64.Vec3, iTrans, iAxis float64) mgl64.Mat3 {
	axisLen := axis.Len()
	if axisLen < 1e-12 {
		return mgl64.Diag3(mgl64.Vec3{iTrans, iAxis, iTrans})
	}
	y := axis.Mul(1 / axisLen)
	x, z := tangentBasis(y)

	// R * D * R^T with D = diag(iTrans, iAxis, iTrans).
	r := mgl64.Mat3FromCols(x, y, z)
	d := mgl64.Diag3(mgl64.Vec3{iTrans, iAxis, iTrans})
	return r.Mul3(d).Mul3(r.Transpose())
}

// CastRayLocal tests the two cap spheres and the open cylinder between them,
// keeping the nearest hit.
func (c *Capsule) CastRayLocal(ray Ray, maxTOI float64, solid bool) (RayHit, bool) {
	if solid && c.ContainsPoint(ray.Origin) {
		return insideHit(ray), true
	}

	best := RayHit{TOI: math.Inf(1)}
	found := false

	for _, center := range []mgl64.Vec3{c.A, c.B} {
		sphereRay := Ray{Origin: ray.Origin.Sub(center), Dir: ray.Dir}
		ball := Ball{Radius: c.Radius}
		if hit, ok := ball.CastRayLocal(sphereRay, maxTOI, false); ok && hit.TOI < best.TOI {
			best = hit
			found = true
		}
	}

	if hit, ok := c.castLateral(ray, maxTOI); ok && hit.TOI < best.TOI {
		best = hit
		found = true
	}

	return best, found
}

// castLateral intersects the ray with the open cylinder around segment [A,B].
func (c *Capsule) castLateral(ray Ray, maxTOI float64) (RayHit, bool) {
	axis := c.B.Sub(c.A)
	axisLenSqr := axis.Dot(axis)
	if axisLenSqr < 1e-18 {
		return RayHit{}, false
	}
	axisDir := axis.Mul(1 / math.Sqrt(axisLenSqr))

	// Project out the axis component and solve the 2D circle intersection.
	o := ray.Origin.Sub(c.A)
	oPerp := o.Sub(axisDir.Mul(o.Dot(axisDir)))
	dPerp := ray.Dir.Sub(axisDir.Mul(ray.Dir.Dot(axisDir)))

	a := dPerp.Dot(dPerp)
	if a < 1e-18 {
		return RayHit{}, false
	}
	b := oPerp.Dot(dPerp)
	k := oPerp.Dot(oPerp) - c.Radius*c.Radius

	disc := b*b - a*k
	if disc < 0 {
		return RayHit{}, false
	}
	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > maxTOI {
		return RayHit{}, false
	}

	// The hit must fall between the caps.
	hitPoint := ray.At(t)
	s := hitPoint.Sub(c.A).Dot(axisDir)
	if s < 0 || s*s > axisLenSqr {
		return RayHit{}, false
	}

	onAxis := c.A.Add(axisDir.Mul(s))
	return RayHit{TOI: t, Normal: hitPoint.Sub(onAxis).Normalize()}, true
}

func (c *Capsule) ProjectPoint(pt mgl64.Vec3, solid bool) PointProjection {
	onSegment, _ := closestOnSegment(pt, c.A, c.B)
	delta := pt.Sub(onSegment)
	distSqr := delta.Dot(delta)
	inside := distSqr <= c.Radius*c.Radius

	if inside && solid {
		return PointProjection{Point: pt, Inside: true}
	}
	if distSqr < 1e-18 {
		return PointProjection{Point: onSegment.Add(mgl64.Vec3{c.Radius, 0, 0}), Inside: inside}
	}
	return PointProjection{
		Point:  onSegment.Add(delta.Mul(c.Radius / math.Sqrt(distSqr))),
		Inside: inside,
	}
}

func (c *Capsule) ContainsPoint(pt mgl64.Vec3) bool {
	onSegment, _ := closestOnSegment(pt, c.A, c.B)
	return pt.Sub(onSegment).Dot(pt.Sub(onSegment)) <= c.Radius*c.Radius
}
