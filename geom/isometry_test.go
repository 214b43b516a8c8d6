package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestIsometryRoundTrip(t *testing.T) {
	iso := NewIsometry(mgl64.Vec3{1, -2, 3}, mgl64.QuatRotate(0.7, mgl64.Vec3{1, 2, -1}.Normalize()))

	points := []mgl64.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{-3, 2, 5},
		{0.1, 0.2, 0.3},
	}
	for _, p := range points {
		back := iso.InverseTransformPoint(iso.TransformPoint(p))
		if back.Sub(p).Len() > 1e-12 {
			t.Errorf("point %v round-trips to %v", p, back)
		}
	}

	d := mgl64.Vec3{1, 1, 0}.Normalize()
	backDir := iso.InverseTransformDir(iso.TransformDir(d))
	if backDir.Sub(d).Len() > 1e-12 {
		t.Errorf("direction %v round-trips to %v", d, backDir)
	}
	// Directions ignore the translation.
	if iso.TransformDir(d).Len()-1 > 1e-12 {
		t.Error("rotation must preserve direction length")
	}
}

func TestIsometryMul(t *testing.T) {
	a := NewIsometry(mgl64.Vec3{1, 0, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	b := NewIsometry(mgl64.Vec3{0, 2, 0}, mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0}))

	p := mgl64.Vec3{0.5, -1, 2}
	composed := a.Mul(b).TransformPoint(p)
	nested := a.TransformPoint(b.TransformPoint(p))
	if composed.Sub(nested).Len() > 1e-12 {
		t.Errorf("composition mismatch: %v vs %v", composed, nested)
	}
}

func TestIsometryInverse(t *testing.T) {
	iso := NewIsometry(mgl64.Vec3{-4, 1, 2}, mgl64.QuatRotate(1.1, mgl64.Vec3{3, -1, 2}.Normalize()))

	ident := iso.Mul(iso.Inverse())
	if !ident.ApproxEqual(Identity(), 1e-12) {
		t.Errorf("iso * iso^-1 is not identity: %+v", ident)
	}

	p := mgl64.Vec3{2, 3, -1}
	if iso.Inverse().TransformPoint(iso.TransformPoint(p)).Sub(p).Len() > 1e-12 {
		t.Error("inverse does not undo the transform")
	}
}

func TestIsometryInterpolate(t *testing.T) {
	a := Translate(0, 0, 0)
	b := NewIsometry(mgl64.Vec3{10, 0, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))

	if !a.Interpolate(b, 0).ApproxEqual(a, 1e-12) {
		t.Error("t=0 must return the start placement")
	}
	if !a.Interpolate(b, 1).ApproxEqual(b, 1e-12) {
		t.Error("t=1 must return the end placement")
	}

	mid := a.Interpolate(b, 0.5)
	if mid.Translation.Sub(mgl64.Vec3{5, 0, 0}).Len() > 1e-12 {
		t.Errorf("midpoint translation %v, want (5,0,0)", mid.Translation)
	}
	// Slerp halves the rotation angle.
	rotated := mid.Rotation.Rotate(mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{math.Cos(math.Pi / 4), 0, -math.Sin(math.Pi / 4)}
	if rotated.Sub(want).Len() > 1e-9 {
		t.Errorf("midpoint rotation maps x to %v, want %v", rotated, want)
	}
}
