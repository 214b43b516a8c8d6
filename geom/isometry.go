package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Isometry is a rigid-body placement: a rotation followed by a translation.
// It carries no scale or shear, so it maps shapes onto congruent shapes.
type Isometry struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Identity returns the identity placement.
func Identity() Isometry {
	return Isometry{Rotation: mgl64.QuatIdent()}
}

// NewIsometry builds an isometry from a translation and a rotation.
// The rotation is normalized so downstream code may assume a unit quaternion.
func NewIsometry(translation mgl64.Vec3, rotation mgl64.Quat) Isometry {
	return Isometry{Translation: translation, Rotation: rotation.Normalize()}
}

// Translate returns a pure translation.
func Translate(x, y, z float64) Isometry {
	return Isometry{Translation: mgl64.Vec3{x, y, z}, Rotation: mgl64.QuatIdent()}
}

// TransformPoint maps a point from local space to world space.
func (iso Isometry) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return iso.Rotation.Rotate(p).Add(iso.Translation)
}

// InverseTransformPoint maps a point from world space to local space.
func (iso Isometry) InverseTransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return iso.Rotation.Conjugate().Rotate(p.Sub(iso.Translation))
}

// TransformDir rotates a direction from local space to world space.
// Directions ignore the translation part.
func (iso Isometry) TransformDir(d mgl64.Vec3) mgl64.Vec3 {
	return iso.Rotation.Rotate(d)
}

// InverseTransformDir rotates a direction from world space to local space.
func (iso Isometry) InverseTransformDir(d mgl64.Vec3) mgl64.Vec3 {
	return iso.Rotation.Conjugate().Rotate(d)
}

// Mul composes two isometries: (iso.Mul(o)).TransformPoint(p) equals
// iso.TransformPoint(o.TransformPoint(p)).
func (iso Isometry) Mul(o Isometry) Isometry {
	return Isometry{
		Translation: iso.TransformPoint(o.Translation),
		Rotation:    iso.Rotation.Mul(o.Rotation).Normalize(),
	}
}

// Inverse returns the placement mapping world space back to local space.
func (iso Isometry) Inverse() Isometry {
	inv := iso.Rotation.Conjugate()
	return Isometry{
		Translation: inv.Rotate(iso.Translation.Mul(-1)),
		Rotation:    inv,
	}
}

// Interpolate blends two placements: linear interpolation of the translation
// and spherical interpolation of the rotation. t=0 yields iso, t=1 yields o.
func (iso Isometry) Interpolate(o Isometry, t float64) Isometry {
	return Isometry{
		Translation: iso.Translation.Mul(1 - t).Add(o.Translation.Mul(t)),
		Rotation:    mgl64.QuatSlerp(iso.Rotation, o.Rotation, t),
	}
}

// ApproxEqual reports whether two placements are equal within tolerance,
// comparing translations componentwise and rotations up to sign.
func (iso Isometry) ApproxEqual(o Isometry, tolerance float64) bool {
	if !iso.Translation.ApproxEqualThreshold(o.Translation, tolerance) {
		return false
	}
	dot := iso.Rotation.Dot(o.Rotation)
	return math.Abs(dot) > 1-tolerance
}
