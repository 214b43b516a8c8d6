package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cylinder is a solid cylinder aligned with the local y axis, spanning
// [-HalfHeight, +HalfHeight] with circular cross-section of the given radius.
type Cylinder struct {
	HalfHeight float64
	Radius     float64
}

// NewCylinder builds a cylinder, rejecting non-positive dimensions.
func NewCylinder(halfHeight, radius float64) (*Cylinder, error) {
	if halfHeight <= 0 || radius <= 0 {
		return nil, fmt.Errorf("%w: cylinder half-height %v radius %v", ErrDegenerateShape, halfHeight, radius)
	}
	return &Cylinder{HalfHeight: halfHeight, Radius: radius}, nil
}

func (c *Cylinder) Kind() Kind { return KindCylinder }

func (c *Cylinder) IsConvex() bool { return true }

func (c *Cylinder) CCDThickness() float64 { return 0 }

func (c *Cylinder) LocalAABB() AABB {
	return AABB{
		Min: mgl64.Vec3{-c.Radius, -c.HalfHeight, -c.Radius},
		Max: mgl64.Vec3{c.Radius, c.HalfHeight, c.Radius},
	}
}

func (c *Cylinder) AABB(iso Isometry) AABB {
	return c.LocalAABB().Transform(iso)
}

func (c *Cylinder) Support(dir mgl64.Vec3) mgl64.Vec3 {
	y := c.HalfHeight
	if dir.Y() < 0 {
		y = -y
	}

	radial := mgl64.Vec3{dir.X(), 0, dir.Z()}
	radialLenSqr := radial.Dot(radial)
	if radialLenSqr < 1e-18 {
		return mgl64.Vec3{c.Radius, y, 0}
	}
	scale := c.Radius / math.Sqrt(radialLenSqr)
	return mgl64.Vec3{dir.X() * scale, y, dir.Z() * scale}
}

// SupportFeature approximates the cap disk with a regular octagon when dir
// points along the axis, so flat-on-flat cap contacts clip into several
// points; off-axis directions fall back to a single support point.
func (c *Cylinder) SupportFeature(dir mgl64.Vec3) Feature {
	d := dir.Normalize()
	if math.Abs(d.Y()) > 0.996 { // within ~5 degrees of the axis
		y := c.HalfHeight
		if d.Y() < 0 {
			y = -y
		}
		feature := make(Feature, 8)
		for i := 0; i < 8; i++ {
			angle := float64(i) * math.Pi / 4
			// Reverse the winding for the bottom cap so it stays CCW from
			// outside.
			if d.Y() < 0 {
				angle = -angle
			}
			feature[i] = mgl64.Vec3{c.Radius * math.Cos(angle), y, c.Radius * math.Sin(angle)}
		}
		return feature
	}
	return Feature{c.Support(dir)}
}

func (c *Cylinder) MassProperties(density float64) MassProperties {
	h := 2 * c.HalfHeight
	r := c.Radius
	mass := density * math.Pi * r * r * h

	iAxis := 0.5 * mass * r * r
	iTrans := mass * (3*r*r + h*h) / 12.0

	return MassProperties{
		Mass:    mass,
		Inertia: mgl64.Diag3(mgl64.Vec3{iTrans, iAxis, iTrans}),
	}
}

// CastRayLocal intersects the infinite lateral cylinder clamped to the
// height range, plus the two cap disks.
func (c *Cylinder) CastRayLocal(ray Ray, maxTOI float64, solid bool) (RayHit, bool) {
	if solid && c.ContainsPoint(ray.Origin) {
		return insideHit(ray), true
	}

	best := RayHit{TOI: math.Inf(1)}
	found := false

	o := ray.Origin
	d := ray.Dir

	// Lateral surface.
	a := d.X()*d.X() + d.Z()*d.Z()
	if a > 1e-18 {
		b := o.X()*d.X() + o.Z()*d.Z()
		k := o.X()*o.X() + o.Z()*o.Z() - c.Radius*c.Radius
		disc := b*b - a*k
		if disc >= 0 {
			sqrtDisc := math.Sqrt(disc)
			for _, t := range []float64{(-b - sqrtDisc) / a, (-b + sqrtDisc) / a} {
				if t < 0 || t > maxTOI || t >= best.TOI {
					continue
				}
				p := ray.At(t)
				if p.Y() < -c.HalfHeight || p.Y() > c.HalfHeight {
					continue
				}
				best = RayHit{TOI: t, Normal: mgl64.Vec3{p.X(), 0, p.Z()}.Normalize()}
				found = true
				break
			}
		}
	}

	// Cap disks.
	if math.Abs(d.Y()) > 1e-14 {
		for _, y := range []float64{c.HalfHeight, -c.HalfHeight} {
			t := (y - o.Y()) / d.Y()
			if t < 0 || t > maxTOI || t >= best.TOI {
				continue
			}
			p := ray.At(t)
			if p.X()*p.X()+p.Z()*p.Z() <= c.Radius*c.Radius {
				best = RayHit{TOI: t, Normal: mgl64.Vec3{0, math.Copysign(1, y), 0}}
				found = true
			}
		}
	}

	return best, found
}

func (c *Cylinder) ProjectPoint(pt mgl64.Vec3, solid bool) PointProjection {
	radial := mgl64.Vec3{pt.X(), 0, pt.Z()}
	radialLen := radial.Len()
	insideRadius := radialLen <= c.Radius
	insideHeight := math.Abs(pt.Y()) <= c.HalfHeight
	inside := insideRadius && insideHeight

	if inside && solid {
		return PointProjection{Point: pt, Inside: true}
	}

	if inside {
		// Interior point projected to the nearest of the wall and the caps.
		wallDist := c.Radius - radialLen
		capDist := c.HalfHeight - math.Abs(pt.Y())
		if wallDist < capDist && radialLen > 1e-12 {
			r := radial.Mul(c.Radius / radialLen)
			return PointProjection{Point: mgl64.Vec3{r.X(), pt.Y(), r.Z()}, Inside: true}
		}
		return PointProjection{
			Point:  mgl64.Vec3{pt.X(), math.Copysign(c.HalfHeight, pt.Y()), pt.Z()},
			Inside: true,
		}
	}

	// Exterior point: clamp height, clamp radius.
	y := math.Max(-c.HalfHeight, math.Min(c.HalfHeight, pt.Y()))
	if radialLen <= c.Radius {
		return PointProjection{Point: mgl64.Vec3{pt.X(), y, pt.Z()}}
	}
	r := radial.Mul(c.Radius / radialLen)
	return PointProjection{Point: mgl64.Vec3{r.X(), y, r.Z()}}
}

func (c *Cylinder) ContainsPoint(pt mgl64.Vec3) bool {
	return math.Abs(pt.Y()) <= c.HalfHeight &&
		pt.X()*pt.X()+pt.Z()*pt.Z() <= c.Radius*c.Radius
}
