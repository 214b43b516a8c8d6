package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cone is a solid cone aligned with the local y axis: apex at +HalfHeight,
// circular base of the given radius at -HalfHeight.
type Cone struct {
	HalfHeight float64
	Radius     float64
}

// NewCone builds a cone, rejecting non-positive dimensions.
func NewCone(halfHeight, radius float64) (*Cone, error) {
	if halfHeight <= 0 || radius <= 0 {
		return nil, fmt.Errorf("%w: cone half-height %v radius %v", ErrDegenerateShape, halfHeight, radius)
	}
	return &Cone{HalfHeight: halfHeight, Radius: radius}, nil
}

func (c *Cone) Kind() Kind { return KindCone }

func (c *Cone) IsConvex() bool { return true }

func (c *Cone) CCDThickness() float64 { return 0 }

func (c *Cone) LocalAABB() AABB {
	return AABB{
		Min: mgl64.Vec3{-c.Radius, -c.HalfHeight, -c.Radius},
		Max: mgl64.Vec3{c.Radius, c.HalfHeight, c.Radius},
	}
}

func (c *Cone) AABB(iso Isometry) AABB {
	return c.LocalAABB().Transform(iso)
}

// Support compares the apex against the best point of the base rim; the
// extreme point of a cone is always one of the two.
func (c *Cone) Support(dir mgl64.Vec3) mgl64.Vec3 {
	apex := mgl64.Vec3{0, c.HalfHeight, 0}

	radial := mgl64.Vec3{dir.X(), 0, dir.Z()}
	radialLenSqr := radial.Dot(radial)
	rim := mgl64.Vec3{c.Radius, -c.HalfHeight, 0}
	if radialLenSqr > 1e-18 {
		scale := c.Radius / math.Sqrt(radialLenSqr)
		rim = mgl64.Vec3{dir.X() * scale, -c.HalfHeight, dir.Z() * scale}
	}

	if apex.Dot(dir) >= rim.Dot(dir) {
		return apex
	}
	return rim
}

func (c *Cone) MassProperties(density float64) MassProperties {
	h := 2 * c.HalfHeight
	r := c.Radius
	mass := density * math.Pi * r * r * h / 3.0

	// Center of mass sits a quarter of the height above the base.
	center := mgl64.Vec3{0, -c.HalfHeight + h/4.0, 0}

	iAxis := (3.0 / 10.0) * mass * r * r
	// Transverse inertia about the center of mass.
	iTrans := mass * (3.0*r*r/20.0 + 3.0*h*h/80.0)

	return MassProperties{
		Mass:        mass,
		LocalCenter: center,
		Inertia:     mgl64.Diag3(mgl64.Vec3{iTrans, iAxis, iTrans}),
	}
}

// CastRayLocal intersects the lateral surface (a quadratic in the scaled
// frame) and the base disk, keeping the nearest hit.
func (c *Cone) CastRayLocal(ray Ray, maxTOI float64, solid bool) (RayHit, bool) {
	if solid && c.ContainsPoint(ray.Origin) {
		return insideHit(ray), true
	}

	best := RayHit{TOI: math.Inf(1)}
	found := false

	// Lateral surface: x² + z² = k²(h - y)² with k = r/(2h'), apex y = h.
	h := c.HalfHeight
	k := c.Radius / (2 * h)

	o := ray.Origin
	d := ray.Dir
	oy := h - o.Y()
	dy := -d.Y()

	a := d.X()*d.X() + d.Z()*d.Z() - k*k*dy*dy
	b := o.X()*d.X() + o.Z()*d.Z() - k*k*oy*dy
	cc := o.X()*o.X() + o.Z()*o.Z() - k*k*oy*oy

	if math.Abs(a) > 1e-14 {
		disc := b*b - a*cc
		if disc >= 0 {
			sqrtDisc := math.Sqrt(disc)
			for _, t := range []float64{(-b - sqrtDisc) / a, (-b + sqrtDisc) / a} {
				if t < 0 || t > maxTOI || t >= best.TOI {
					continue
				}
				p := ray.At(t)
				if p.Y() < -h || p.Y() > h {
					continue // hit on the mirror cone or past the apex
				}
				best = RayHit{TOI: t, Normal: c.lateralNormal(p)}
				found = true
				break
			}
		}
	}

	// Base disk at y = -h.
	if math.Abs(d.Y()) > 1e-14 {
		t := (-h - o.Y()) / d.Y()
		if t >= 0 && t <= maxTOI && t < best.TOI {
			p := ray.At(t)
			if p.X()*p.X()+p.Z()*p.Z() <= c.Radius*c.Radius {
				best = RayHit{TOI: t, Normal: mgl64.Vec3{0, -1, 0}}
				found = true
			}
		}
	}

	return best, found
}

// lateralNormal returns the outward normal of the lateral surface at a point
// on it.
func (c *Cone) lateralNormal(p mgl64.Vec3) mgl64.Vec3 {
	radial := mgl64.Vec3{p.X(), 0, p.Z()}
	radialLen := radial.Len()
	if radialLen < 1e-12 {
		return mgl64.Vec3{0, 1, 0} // apex
	}
	// The surface tilts by atan(k) from vertical.
	k := c.Radius / (2 * c.HalfHeight)
	n := radial.Mul(1 / radialLen).Add(mgl64.Vec3{0, k, 0})
	return n.Normalize()
}

func (c *Cone) ContainsPoint(pt mgl64.Vec3) bool {
	if pt.Y() < -c.HalfHeight || pt.Y() > c.HalfHeight {
		return false
	}
	radiusAt := c.Radius * (c.HalfHeight - pt.Y()) / (2 * c.HalfHeight)
	return pt.X()*pt.X()+pt.Z()*pt.Z() <= radiusAt*radiusAt
}
