package geom

import "github.com/go-gl/mathgl/mgl64"

// Ray is a half-line starting at Origin. Dir does not need to be normalized:
// every time of impact is expressed in units of |Dir|, so the hit point is
// always Origin + Dir*TOI.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Transformed maps the ray by an isometry (used to bring a world ray into a
// shape's local frame with iso.Inverse()).
func (r Ray) Transformed(iso Isometry) Ray {
	return Ray{
		Origin: iso.TransformPoint(r.Origin),
		Dir:    iso.TransformDir(r.Dir),
	}
}

// RayHit is a ray intersection: the time of impact in units of |Dir|, and the
// outward surface normal at the hit point.
//
// Convention for solid casts starting inside the shape: TOI is 0 and Normal
// is the negated, normalized ray direction.
type RayHit struct {
	TOI    float64
	Normal mgl64.Vec3
}

// insideHit builds the conventional hit for a ray whose origin is already
// inside a solid shape.
func insideHit(ray Ray) RayHit {
	return RayHit{TOI: 0, Normal: ray.Dir.Normalize().Mul(-1)}
}
