// Package gjk implements the Gilbert-Johnson-Keerthi distance algorithm
// between convex shapes given by their support maps.
//
// GJK walks a simplex of Minkowski-difference points toward the origin.
// If the simplex ever encloses the origin the shapes overlap and the
// enclosing simplex seeds the penetration solver; otherwise the walk
// converges to the closest point of the difference to the origin, which
// yields the separation distance and one witness point per shape.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the
//     Distance Between Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments"
//     (2003), chapter 4
package gjk

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxIterations bounds the solver against numerical cycling in
	// near-tangent configurations. Typical convergence: 3-10 iterations.
	DefaultMaxIterations = 64

	// DefaultTolerance is the length-scale epsilon deciding convergence
	// and touching-vs-separated.
	DefaultTolerance = 1e-9
)

// Params configures one solver call. Zero fields fall back to the defaults.
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

// Result is the outcome of a distance query.
type Result struct {
	// Overlapping is true when the simplex enclosed the origin (or the
	// closest distance collapsed under tolerance). Distance and the
	// witnesses are meaningless in that case; Simplex seeds EPA instead.
	Overlapping bool

	// Distance is the separation distance (non-overlapping case).
	Distance float64
	// WitnessA and WitnessB are the closest points, in world frame.
	WitnessA mgl64.Vec3
	WitnessB mgl64.Vec3
	// Normal is the unit separating direction from A toward B.
	Normal mgl64.Vec3

	// Simplex is the final simplex, exported for the penetration solver.
	Simplex Simplex

	Iterations int
	// Converged is false only when the iteration cap was hit; the result
	// then still carries the best known values.
	Converged bool
}

// Support queries both shapes and returns the Minkowski-difference point
// extreme along dir: support of A along dir minus support of B along -dir.
func Support(shapeA geom.SupportMap, isoA geom.Isometry, shapeB geom.SupportMap, isoB geom.Isometry, dir mgl64.Vec3) SupportPoint {
	a := isoA.TransformPoint(shapeA.Support(isoA.InverseTransformDir(dir)))
	b := isoB.TransformPoint(shapeB.Support(isoB.InverseTransformDir(dir.Mul(-1))))
	return SupportPoint{W: a.Sub(b), A: a, B: b}
}

// Distance runs GJK between two positioned convex shapes.
func Distance(shapeA geom.SupportMap, isoA geom.Isometry, shapeB geom.SupportMap, isoB geom.Isometry, params Params) Result {
	tol := params.tolerance()
	maxIter := params.maxIterations()

	// Start toward the other shape; a deterministic fallback keeps
	// coincident centers from producing a zero direction.
	dir := isoB.Translation.Sub(isoA.Translation)
	if dir.Dot(dir) < 1e-18 {
		dir = mgl64.Vec3{1, 0, 0}
	}

	var simplex Simplex
	simplex.Push(Support(shapeA, isoA, shapeB, isoB, dir))

	result := Result{Converged: true}

	for iter := 1; ; iter++ {
		result.Iterations = iter

		v := simplex.Closest()

		if simplex.Count == 4 {
			// The tetrahedron encloses the origin.
			result.Overlapping = true
			result.Simplex = simplex
			return result
		}

		vv := v.Dot(v)
		if vv <= tol*tol {
			// The closest point collapsed onto the origin: touching.
			result.Overlapping = true
			result.Simplex = simplex
			return result
		}

		if iter > maxIter {
			result.Converged = false
			return finishSeparated(&result, simplex, v)
		}

		w := Support(shapeA, isoA, shapeB, isoB, v.Mul(-1))

		// Relative progress test: the support plane bounds the distance
		// from below; stop when the bracket is within tolerance.
		if vv-v.Dot(w.W) <= tol*math.Sqrt(vv)+tol*vv {
			return finishSeparated(&result, simplex, v)
		}

		// A repeated support point means the walk is cycling on the same
		// feature; the current simplex is the answer.
		if simplex.contains(w.W, tol) {
			return finishSeparated(&result, simplex, v)
		}

		simplex.Push(w)
	}
}

// finishSeparated fills the separated-case fields from the current simplex.
func finishSeparated(result *Result, simplex Simplex, v mgl64.Vec3) Result {
	dist := v.Len()
	result.Distance = dist
	result.WitnessA, result.WitnessB = simplex.Witnesses()
	// v points from the origin toward the closest point of A - B, which is
	// witnessA - witnessB; the A-to-B direction is its negation.
	result.Normal = v.Mul(-1 / dist)
	result.Simplex = simplex
	return *result
}

// contains reports whether the simplex already holds a point within tol.
func (s *Simplex) contains(w mgl64.Vec3, tol float64) bool {
	for i := 0; i < s.Count; i++ {
		d := s.Points[i].W.Sub(w)
		if d.Dot(d) <= tol*tol {
			return true
		}
	}
	return false
}

// Intersecting runs a cheap boolean overlap test: the same walk, but it can
// exit as soon as separation is proven by a support plane.
func Intersecting(shapeA geom.SupportMap, isoA geom.Isometry, shapeB geom.SupportMap, isoB geom.Isometry, params Params) bool {
	tol := params.tolerance()
	maxIter := params.maxIterations()

	dir := isoB.Translation.Sub(isoA.Translation)
	if dir.Dot(dir) < 1e-18 {
		dir = mgl64.Vec3{1, 0, 0}
	}

	var simplex Simplex
	simplex.Push(Support(shapeA, isoA, shapeB, isoB, dir))

	for iter := 0; iter < maxIter; iter++ {
		v := simplex.Closest()
		if simplex.Count == 4 {
			return true
		}
		vv := v.Dot(v)
		if vv <= tol*tol {
			return true
		}

		w := Support(shapeA, isoA, shapeB, isoB, v.Mul(-1))
		// The support plane separates the shapes.
		if v.Dot(w.W) > 0 {
			return false
		}
		if simplex.contains(w.W, tol) {
			return false
		}
		simplex.Push(w)
	}
	return false
}
