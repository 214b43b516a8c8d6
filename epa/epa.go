// Package epa implements the Expanding Polytope Algorithm: given a GJK
// simplex that encloses the origin, it measures how deep the shapes
// interpenetrate and along which direction.
//
// The polytope approximates the surface of the Minkowski difference near the
// origin. Each iteration pops the face closest to the origin, queries a
// support point along its normal, and either fans the polytope out to that
// point or declares the face final. The closest final face carries the
// penetration depth, the contact normal, and the witness points.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation
//     on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxIterations bounds polytope expansion. Typical convergence:
	// 5-15 iterations for simple shape pairs.
	DefaultMaxIterations = 64

	// DefaultTolerance is the minimum improvement a support point must
	// bring before a face counts as final.
	DefaultTolerance = 1e-9
)

// Params configures one penetration query. Zero fields use the defaults.
type Params struct {
	Tolerance     float64
	MaxIterations int
}

func (p Params) tolerance() float64 {
	if p.Tolerance <= 0 {
		return DefaultTolerance
	}
	return p.Tolerance
}

func (p Params) maxIterations() int {
	if p.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return p.MaxIterations
}

// Result is the outcome of a penetration query.
type Result struct {
	// Depth is the penetration depth: how far B must move along Normal to
	// separate the shapes.
	Depth float64
	// Normal is the unit contact direction from A toward B, world frame.
	Normal mgl64.Vec3
	// WitnessA and WitnessB are the deepest points of each shape, world
	// frame.
	WitnessA mgl64.Vec3
	WitnessB mgl64.Vec3

	Iterations int
	// Converged is false when the iteration cap was hit; Depth then holds
	// the best lower bound found.
	Converged bool
}

// Penetrate expands the overlap simplex produced by GJK into the Minkowski
// surface and extracts depth, normal and witnesses.
//
// The second return value is false when the incoming simplex is so
// degenerate (shapes touching at a single point or along a flat feature
// that cannot be inflated) that no valid polytope exists. Callers should
// then fall back to the GJK witnesses as a zero-depth contact.
func Penetrate(shapeA geom.SupportMap, isoA geom.Isometry, shapeB geom.SupportMap, isoB geom.Isometry, simplex gjk.Simplex, params Params) (Result, bool) {
	tol := params.tolerance()
	maxIter := params.maxIterations()

	tetra, ok := completeSimplex(shapeA, isoA, shapeB, isoB, simplex)
	if !ok {
		return Result{}, false
	}

	p := polytopePool.Get().(*polytope)
	defer polytopePool.Put(p)
	p.reset()

	if !p.buildInitial(tetra) {
		return Result{}, false
	}

	result := Result{Converged: true}

	var closest *face
	for iter := 1; ; iter++ {
		result.Iterations = iter

		f := p.popClosest()
		if f == nil {
			// The queue drained without converging; report the last face.
			if closest == nil {
				return Result{}, false
			}
			result.Converged = false
			finishFace(p, closest, &result)
			return result, true
		}
		closest = f

		support := gjk.Support(shapeA, isoA, shapeB, isoB, f.normal)
		growth := support.W.Dot(f.normal) - f.dist

		if growth <= tol {
			// No support point extends past this face: it lies on the
			// Minkowski surface.
			finishFace(p, f, &result)
			return result, true
		}

		if iter >= maxIter {
			result.Converged = false
			finishFace(p, f, &result)
			return result, true
		}

		// growth > 0 means the popped face is visible from the support
		// point, so the expansion always retires it.
		p.expand(support)
	}
}

// finishFace converts the closest face into the query result: depth is the
// face's plane distance and the witnesses are reconstructed by projecting
// the origin onto the face and interpolating the witness triples.
func finishFace(p *polytope, f *face, result *Result) {
	result.Depth = f.dist
	result.Normal = f.normal

	a := p.verts[f.verts[0]]
	b := p.verts[f.verts[1]]
	c := p.verts[f.verts[2]]

	// Barycentric coordinates of the origin's projection onto the face.
	proj := f.normal.Mul(f.dist)
	u, v, w := barycentric(proj, a.W, b.W, c.W, f.normal)

	result.WitnessA = a.A.Mul(u).Add(b.A.Mul(v)).Add(c.A.Mul(w))
	result.WitnessB = a.B.Mul(u).Add(b.B.Mul(v)).Add(c.B.Mul(w))
}

// barycentric returns the (clamped, renormalized) barycentric coordinates
// of point p in triangle (a, b, c) with plane normal n.
func barycentric(p, a, b, c, n mgl64.Vec3) (float64, float64, float64) {
	areaTotal := b.Sub(a).Cross(c.Sub(a)).Dot(n)
	if math.Abs(areaTotal) < 1e-18 {
		return 1, 0, 0
	}
	inv := 1 / areaTotal
	u := b.Sub(p).Cross(c.Sub(p)).Dot(n) * inv
	v := c.Sub(p).Cross(a.Sub(p)).Dot(n) * inv
	w := 1 - u - v

	// Clamp tiny negatives from the projection and renormalize.
	u = math.Max(0, u)
	v = math.Max(0, v)
	w = math.Max(0, w)
	sum := u + v + w
	if sum < 1e-18 {
		return 1, 0, 0
	}
	return u / sum, v / sum, w / sum
}

// completeSimplex inflates a 1-3 point overlap simplex into a tetrahedron by
// probing support directions orthogonal to the degenerate span, and checks
// the result actually has volume.
func completeSimplex(shapeA geom.SupportMap, isoA geom.Isometry, shapeB geom.SupportMap, isoB geom.Isometry, simplex gjk.Simplex) ([4]gjk.SupportPoint, bool) {
	var pts [4]gjk.SupportPoint
	count := simplex.Count
	copy(pts[:], simplex.Points[:count])

	probe := func(dir mgl64.Vec3) gjk.SupportPoint {
		return gjk.Support(shapeA, isoA, shapeB, isoB, dir)
	}

	// Grow a point into an edge.
	if count == 1 {
		axes := []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
		for _, axis := range axes {
			sp := probe(axis)
			if sp.W.Sub(pts[0].W).Dot(sp.W.Sub(pts[0].W)) > 1e-18 {
				pts[1] = sp
				count = 2
				break
			}
		}
		if count == 1 {
			return pts, false
		}
	}

	// Grow an edge into a triangle: probe around the edge axis.
	if count == 2 {
		axis := pts[1].W.Sub(pts[0].W)
		t1, t2 := orthonormalBasis(axis)
		for _, dir := range []mgl64.Vec3{t1, t2, t1.Mul(-1), t2.Mul(-1)} {
			sp := probe(dir)
			span := sp.W.Sub(pts[0].W).Cross(axis)
			if span.Dot(span) > 1e-18 {
				pts[2] = sp
				count = 3
				break
			}
		}
		if count == 2 {
			return pts, false
		}
	}

	// Grow a triangle into a tetrahedron: probe both plane normals.
	if count == 3 {
		n := pts[1].W.Sub(pts[0].W).Cross(pts[2].W.Sub(pts[0].W))
		if n.Dot(n) < 1e-24 {
			return pts, false
		}
		n = n.Normalize()
		for _, dir := range []mgl64.Vec3{n, n.Mul(-1)} {
			sp := probe(dir)
			if math.Abs(sp.W.Sub(pts[0].W).Dot(n)) > 1e-12 {
				pts[3] = sp
				count = 4
				break
			}
		}
		if count == 3 {
			return pts, false
		}
	}

	// Final volume check.
	a, b, c, d := pts[0].W, pts[1].W, pts[2].W, pts[3].W
	volume := b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a))
	return pts, math.Abs(volume) > 1e-18
}

// orthonormalBasis returns two unit vectors orthogonal to v and each other.
func orthonormalBasis(v mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	t1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(v.X()) > 0.9*v.Len() {
		t1 = mgl64.Vec3{0, 1, 0}
	}
	t1 = t1.Sub(v.Mul(t1.Dot(v) / v.Dot(v))).Normalize()
	return t1, v.Cross(t1).Normalize()
}
