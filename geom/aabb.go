package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box. Invariant: Min <= Max componentwise.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// AABBFromPoints returns the tightest box containing every point.
func AABBFromPoints(points ...mgl64.Vec3) AABB {
	aabb := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		aabb.Min = vecMin(aabb.Min, p)
		aabb.Max = vecMax(aabb.Max, p)
	}
	return aabb
}

// Union returns the smallest box containing both boxes.
func (a AABB) Union(b AABB) AABB {
	return AABB{Min: vecMin(a.Min, b.Min), Max: vecMax(a.Max, b.Max)}
}

// Overlaps reports whether the boxes intersect. Boxes overlap if and only if
// they overlap on all three axes; touching faces count as overlapping.
func (a AABB) Overlaps(b AABB) bool {
	return a.Max.X() >= b.Min.X() && a.Min.X() <= b.Max.X() &&
		a.Max.Y() >= b.Min.Y() && a.Min.Y() <= b.Max.Y() &&
		a.Max.Z() >= b.Min.Z() && a.Min.Z() <= b.Max.Z()
}

// Contains reports whether b lies entirely inside a.
func (a AABB) Contains(b AABB) bool {
	return a.Min.X() <= b.Min.X() && a.Min.Y() <= b.Min.Y() && a.Min.Z() <= b.Min.Z() &&
		a.Max.X() >= b.Max.X() && a.Max.Y() >= b.Max.Y() && a.Max.Z() >= b.Max.Z()
}

// ContainsPoint reports whether the point lies inside the box.
func (a AABB) ContainsPoint(p mgl64.Vec3) bool {
	return p.X() >= a.Min.X() && p.X() <= a.Max.X() &&
		p.Y() >= a.Min.Y() && p.Y() <= a.Max.Y() &&
		p.Z() >= a.Min.Z() && p.Z() <= a.Max.Z()
}

// Center returns the midpoint of the box.
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// HalfExtents returns the half-width of the box along each axis.
func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// SurfaceArea returns the total area of the six faces. The broad phase uses
// it as the cost metric for insertion and tree-quality decisions.
func (a AABB) SurfaceArea() float64 {
	d := a.Max.Sub(a.Min)
	return 2 * (d.X()*d.Y() + d.Y()*d.Z() + d.Z()*d.X())
}

// Loosened returns the box grown by margin on every side.
func (a AABB) Loosened(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Stretched extends the box along a displacement, predicting where a moving
// shape will be so the broad phase does not refit every step.
func (a AABB) Stretched(displacement mgl64.Vec3) AABB {
	out := a
	for i := 0; i < 3; i++ {
		if displacement[i] < 0 {
			out.Min[i] += displacement[i]
		} else {
			out.Max[i] += displacement[i]
		}
	}
	return out
}

// Transform returns a box bounding this box after applying the isometry.
// The result bounds the rotated corners without enumerating them: the new
// half-extents are the absolute rotation matrix applied to the old ones.
func (a AABB) Transform(iso Isometry) AABB {
	center := iso.TransformPoint(a.Center())
	he := a.HalfExtents()

	cx := iso.Rotation.Rotate(mgl64.Vec3{1, 0, 0})
	cy := iso.Rotation.Rotate(mgl64.Vec3{0, 1, 0})
	cz := iso.Rotation.Rotate(mgl64.Vec3{0, 0, 1})

	worldHE := mgl64.Vec3{
		math.Abs(cx.X())*he.X() + math.Abs(cy.X())*he.Y() + math.Abs(cz.X())*he.Z(),
		math.Abs(cx.Y())*he.X() + math.Abs(cy.Y())*he.Y() + math.Abs(cz.Y())*he.Z(),
		math.Abs(cx.Z())*he.X() + math.Abs(cy.Z())*he.Y() + math.Abs(cz.Z())*he.Z(),
	}

	return AABB{Min: center.Sub(worldHE), Max: center.Add(worldHE)}
}

// RayCast runs the slab test against the box and returns the entry distance,
// in units of |ray.Dir|. A ray starting inside the box reports distance 0.
func (a AABB) RayCast(ray Ray, maxTOI float64) (float64, bool) {
	tmin := 0.0
	tmax := maxTOI

	for i := 0; i < 3; i++ {
		if math.Abs(ray.Dir[i]) < 1e-14 {
			// Parallel to the slab: miss unless the origin is inside it.
			if ray.Origin[i] < a.Min[i] || ray.Origin[i] > a.Max[i] {
				return 0, false
			}
			continue
		}

		inv := 1.0 / ray.Dir[i]
		t1 := (a.Min[i] - ray.Origin[i]) * inv
		t2 := (a.Max[i] - ray.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	return tmin, true
}

func vecMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func vecMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}
