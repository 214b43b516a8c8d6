package geom

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ConvexHull is a convex polytope given by its vertices. The constructor
// verifies the vertex cloud spans a volume; it does not recompute the hull,
// interior vertices are harmless for support queries (they simply never win
// the argmax).
type ConvexHull struct {
	points   []mgl64.Vec3
	centroid mgl64.Vec3
	aabb     AABB
}

// NewConvexHull builds a hull over at least 4 non-coplanar points.
func NewConvexHull(points []mgl64.Vec3) (*ConvexHull, error) {
	if len(points) < 4 {
		return nil, fmt.Errorf("%w: convex hull needs at least 4 points, got %d", ErrDegenerateShape, len(points))
	}

	owned := make([]mgl64.Vec3, len(points))
	copy(owned, points)

	centroid := mgl64.Vec3{}
	for _, p := range owned {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(owned)))

	if !spansVolume(owned) {
		return nil, fmt.Errorf("%w: convex hull points are coplanar", ErrDegenerateShape)
	}

	return &ConvexHull{
		points:   owned,
		centroid: centroid,
		aabb:     AABBFromPoints(owned...),
	}, nil
}

// spansVolume reports whether the cloud contains 4 points forming a
// tetrahedron of non-trivial volume.
func spansVolume(points []mgl64.Vec3) bool {
	a := points[0]
	for i := 1; i < len(points); i++ {
		ab := points[i].Sub(a)
		if ab.Dot(ab) < 1e-18 {
			continue
		}
		for j := i + 1; j < len(points); j++ {
			ac := points[j].Sub(a)
			n := ab.Cross(ac)
			if n.Dot(n) < 1e-18 {
				continue
			}
			for k := j + 1; k < len(points); k++ {
				if math.Abs(n.Dot(points[k].Sub(a))) > 1e-12 {
					return true
				}
			}
		}
	}
	return false
}

func (h *ConvexHull) Kind() Kind { return KindConvexHull }

func (h *ConvexHull) IsConvex() bool { return true }

func (h *ConvexHull) CCDThickness() float64 { return 0 }

func (h *ConvexHull) LocalAABB() AABB { return h.aabb }

func (h *ConvexHull) AABB(iso Isometry) AABB { return h.aabb.Transform(iso) }

// Points returns the hull's vertex cloud (shared, do not mutate).
func (h *ConvexHull) Points() []mgl64.Vec3 { return h.points }

func (h *ConvexHull) Support(dir mgl64.Vec3) mgl64.Vec3 {
	best := h.points[0]
	bestDot := best.Dot(dir)
	for _, p := range h.points[1:] {
		if d := p.Dot(dir); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

// SupportFeature collects every vertex lying on the supporting plane within
// tolerance and orders the result counter-clockwise around dir. One vertex
// on the plane yields a point feature, two an edge, three or more a face.
func (h *ConvexHull) SupportFeature(dir mgl64.Vec3) Feature {
	d := dir.Normalize()
	maxDot := math.Inf(-1)
	for _, p := range h.points {
		if dot := p.Dot(d); dot > maxDot {
			maxDot = dot
		}
	}

	// Tolerance scaled by the hull extent so large hulls behave like small
	// ones.
	tol := 1e-6 * math.Max(1, h.aabb.HalfExtents().Len())

	var feature Feature
	for _, p := range h.points {
		if maxDot-p.Dot(d) <= tol {
			feature = append(feature, p)
		}
	}
	if len(feature) <= 2 {
		return feature
	}

	// Order around the feature centroid so clipping sees a proper polygon.
	center := mgl64.Vec3{}
	for _, p := range feature {
		center = center.Add(p)
	}
	center = center.Mul(1 / float64(len(feature)))

	t1, t2 := tangentBasis(d)
	sort.Slice(feature, func(i, j int) bool {
		pi := feature[i].Sub(center)
		pj := feature[j].Sub(center)
		return math.Atan2(pi.Dot(t2), pi.Dot(t1)) < math.Atan2(pj.Dot(t2), pj.Dot(t1))
	})
	return feature
}

// MassProperties decomposes the hull into tetrahedra fanning out from the
// centroid toward every supporting triangle of the convex surface, and sums
// the tetrahedra's volumes and covariances. Interior points contribute
// degenerate tetrahedra of zero volume and drop out.
func (h *ConvexHull) MassProperties(density float64) MassProperties {
	volume := 0.0
	weightedCenter := mgl64.Vec3{}

	// Second moments ∫ x_j x_k dV about the hull centroid, accumulated per
	// tetrahedron with the standard formula: for a tetra {0, a, b, c} with
	// s = a+b+c, ∫ x⊗x dV = V/20 * (a⊗a + b⊗b + c⊗c + s⊗s).
	var pxx, pyy, pzz, pxy, pxz, pyz float64

	forEachSurfaceTriangle(h.points, h.centroid, func(a, b, c mgl64.Vec3) {
		ra := a.Sub(h.centroid)
		rb := b.Sub(h.centroid)
		rc := c.Sub(h.centroid)

		tetVolume := ra.Cross(rb).Dot(rc) / 6.0
		if tetVolume <= 0 {
			return
		}
		volume += tetVolume
		tetCenter := h.centroid.Add(ra.Add(rb).Add(rc).Mul(0.25))
		weightedCenter = weightedCenter.Add(tetCenter.Mul(tetVolume))

		s := ra.Add(rb).Add(rc)
		scale := tetVolume / 20.0
		for _, v := range []mgl64.Vec3{ra, rb, rc, s} {
			pxx += scale * v.X() * v.X()
			pyy += scale * v.Y() * v.Y()
			pzz += scale * v.Z() * v.Z()
			pxy += scale * v.X() * v.Y()
			pxz += scale * v.X() * v.Z()
			pyz += scale * v.Y() * v.Z()
		}
	})

	if volume < 1e-18 {
		return MassProperties{}
	}

	mass := density * volume
	center := weightedCenter.Mul(1 / volume)

	inertia := mgl64.Mat3{
		density * (pyy + pzz), -density * pxy, -density * pxz,
		-density * pxy, density * (pxx + pzz), -density * pyz,
		-density * pxz, -density * pyz, density * (pxx + pyy),
	}

	// Transport from the hull centroid to the center of mass.
	offset := center.Sub(h.centroid)
	inertia = transportInertia(inertia, mass, offset.Mul(-1))

	return MassProperties{Mass: mass, LocalCenter: center, Inertia: inertia}
}

// forEachSurfaceTriangle enumerates supporting triangles of the convex
// surface: for every triple of vertices, the triangle is kept when all other
// vertices lie on its inner side. Quadratic in vertex count but hulls used
// for collision are small.
func forEachSurfaceTriangle(points []mgl64.Vec3, interior mgl64.Vec3, f func(a, b, c mgl64.Vec3)) {
	n := len(points)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				a, b, c := points[i], points[j], points[k]
				normal := b.Sub(a).Cross(c.Sub(a))
				if normal.Dot(normal) < 1e-18 {
					continue
				}
				// Orient outward relative to the interior point.
				if normal.Dot(interior.Sub(a)) > 0 {
					normal = normal.Mul(-1)
					b, c = c, b
				}
				supporting := true
				for m := 0; m < n; m++ {
					if m == i || m == j || m == k {
						continue
					}
					if normal.Dot(points[m].Sub(a)) > 1e-9 {
						supporting = false
						break
					}
				}
				if supporting {
					f(a, b, c)
				}
			}
		}
	}
}

// transportInertia applies the parallel-axis theorem: the tensor about a
// point offset from the center of mass.
func transportInertia(inertia mgl64.Mat3, mass float64, offset mgl64.Vec3) mgl64.Mat3 {
	d2 := offset.Dot(offset)
	shift := mgl64.Mat3{
		mass * (d2 - offset.X()*offset.X()), -mass * offset.X() * offset.Y(), -mass * offset.X() * offset.Z(),
		-mass * offset.X() * offset.Y(), mass * (d2 - offset.Y()*offset.Y()), -mass * offset.Y() * offset.Z(),
		-mass * offset.X() * offset.Z(), -mass * offset.Y() * offset.Z(), mass * (d2 - offset.Z()*offset.Z()),
	}
	return inertia.Add(shift)
}
