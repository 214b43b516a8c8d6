package quill

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/toi"
	"github.com/go-gl/mathgl/mgl64"
)

// offsetConvex places a composite part at a fixed offset inside its parent's
// frame, so the part can be swept with the parent's motion unchanged.
type offsetConvex struct {
	part   toi.ConvexShape
	offset geom.Isometry
}

func (o offsetConvex) Kind() geom.Kind      { return o.part.Kind() }
func (o offsetConvex) IsConvex() bool       { return true }
func (o offsetConvex) CCDThickness() float64 { return o.part.CCDThickness() }

func (o offsetConvex) LocalAABB() geom.AABB {
	return o.part.LocalAABB().Transform(o.offset)
}

func (o offsetConvex) AABB(iso geom.Isometry) geom.AABB {
	return o.part.AABB(iso.Mul(o.offset))
}

func (o offsetConvex) MassProperties(density float64) geom.MassProperties {
	return o.part.MassProperties(density)
}

func (o offsetConvex) Support(dir mgl64.Vec3) mgl64.Vec3 {
	return o.offset.TransformPoint(o.part.Support(o.offset.InverseTransformDir(dir)))
}

// timeOfImpact routes a sweep to the applicable solver: composite shapes
// sweep part by part, half spaces use the plane-specific advancement, and
// convex pairs go straight to the conservative advancement solver.
func timeOfImpact(shapeA geom.Shape, motionA toi.Motion, shapeB geom.Shape, motionB toi.Motion, maxT float64, cfg Config) (toi.Result, bool) {
	if comp, ok := shapeA.(geom.Composite); ok {
		return compositeTOI(comp, geom.Identity(), motionA, shapeB, motionB, maxT, cfg)
	}
	if comp, ok := shapeB.(geom.Composite); ok {
		res, ok := compositeTOI(comp, geom.Identity(), motionB, shapeA, motionA, maxT, cfg)
		return flipTOI(res), ok
	}
	if plane, ok := shapeA.(*geom.HalfSpace); ok {
		if _, alsoPlane := shapeB.(*geom.HalfSpace); alsoPlane {
			return toi.Result{}, false
		}
		sm, ok := shapeB.(toi.ConvexShape)
		if !ok {
			return toi.Result{}, false
		}
		return planeTOI(plane, motionA, sm, motionB, maxT, cfg), true
	}
	if plane, ok := shapeB.(*geom.HalfSpace); ok {
		sm, ok := shapeA.(toi.ConvexShape)
		if !ok {
			return toi.Result{}, false
		}
		return flipTOI(planeTOI(plane, motionB, sm, motionA, maxT, cfg)), true
	}

	sa, okA := shapeA.(toi.ConvexShape)
	sb, okB := shapeB.(toi.ConvexShape)
	if !okA || !okB {
		return toi.Result{}, false
	}
	return toi.TimeOfImpact(sa, motionA, sb, motionB, maxT, cfg.toiParams()), true
}

// compositeTOI sweeps every part of the composite that could reach the other
// shape within the horizon and keeps the earliest impact. offset accumulates
// the placements of enclosing composites so nested parts keep sharing the
// root motion.
func compositeTOI(comp geom.Composite, offset geom.Isometry, motion toi.Motion, other geom.Shape, otherMotion toi.Motion, maxT float64, cfg Config) (toi.Result, bool) {
	shape := comp.(geom.Shape)

	// Conservative reach bound: anything farther from the other shape's
	// starting bounds than the total relative travel cannot be hit.
	relSpeed := motion.LinVel.Sub(otherMotion.LinVel).Len()
	spin := motion.AngVel.Len()*cornerRadius(shape.LocalAABB().Transform(offset)) +
		otherMotion.AngVel.Len()*cornerRadius(other.LocalAABB())
	travel := (relSpeed+spin)*maxT + 1e-6

	compFrame := motion.Start.Mul(offset)
	otherAABB := other.AABB(compFrame.Inverse().Mul(otherMotion.Start)).Loosened(travel)

	// Parts out of reach never beat this default.
	best := toi.Result{Status: toi.NoImpact}
	comp.PartsOverlapping(otherAABB, func(i int) bool {
		partIso, part := comp.Part(i)
		placed := offset.Mul(partIso)

		var res toi.Result
		var ok bool
		if sub, isComposite := part.(geom.Composite); isComposite {
			res, ok = compositeTOI(sub, placed, motion, other, otherMotion, maxT, cfg)
		} else if convex, isConvex := part.(toi.ConvexShape); isConvex {
			res, ok = timeOfImpact(offsetConvex{part: convex, offset: placed}, motion, other, otherMotion, maxT, cfg)
		} else {
			return true
		}
		if !ok {
			return true
		}

		if earlierTOI(res, best) {
			best = res
		}
		// A penetration at t = 0 cannot be beaten.
		return best.Status != toi.Penetrating
	})
	return best, true
}

// earlierTOI orders sweep outcomes: penetration first, then earlier impacts,
// then undetermined results, then no impact.
func earlierTOI(a, b toi.Result) bool {
	rank := func(s toi.Status) int {
		switch s {
		case toi.Penetrating:
			return 0
		case toi.Impact:
			return 1
		case toi.Undetermined:
			return 2
		}
		return 3
	}
	ra, rb := rank(a.Status), rank(b.Status)
	if ra != rb {
		return ra < rb
	}
	return a.TOI < b.TOI
}

func flipTOI(r toi.Result) toi.Result {
	r.WitnessA, r.WitnessB = r.WitnessB, r.WitnessA
	r.Normal = r.Normal.Mul(-1)
	return r
}

func cornerRadius(aabb geom.AABB) float64 {
	corner := mgl64.Vec3{
		math.Max(math.Abs(aabb.Min.X()), math.Abs(aabb.Max.X())),
		math.Max(math.Abs(aabb.Min.Y()), math.Abs(aabb.Max.Y())),
		math.Max(math.Abs(aabb.Min.Z()), math.Abs(aabb.Max.Z())),
	}
	return corner.Len()
}

// planeTOI runs conservative advancement against a half space: the
// separation is the height of the shape's deepest point over the plane, so
// no simplex walk is needed.
//
// The result is expressed with the plane as shape A.
func planeTOI(plane *geom.HalfSpace, planeMotion toi.Motion, other toi.ConvexShape, otherMotion toi.Motion, maxT float64, cfg Config) toi.Result {
	params := cfg.toiParams()
	tol := params.Tolerance
	if tol <= 0 {
		tol = toi.DefaultTolerance
	}
	maxIter := params.MaxIterations
	if maxIter <= 0 {
		maxIter = toi.DefaultMaxIterations
	}

	rhoOther := cornerRadius(other.LocalAABB())
	relVel := otherMotion.LinVel.Sub(planeMotion.LinVel)
	relSpeed := relVel.Len()

	result := toi.Result{}
	t := 0.0
	for iter := 1; ; iter++ {
		result.Iterations = iter

		isoP := planeMotion.At(t)
		isoO := otherMotion.At(t)
		n, onPlane, onOther, sep := planeSeparation(plane, isoP, other, isoO)

		if sep <= tol {
			if sep <= 0 && t == 0 {
				result.Status = toi.Penetrating
				return result
			}
			result.Status = toi.Impact
			result.TOI = t
			result.WitnessA = onPlane
			result.WitnessB = onOther
			result.Normal = n
			return result
		}

		// The witness can be anywhere on the shape; a rotating plane tilts
		// under it at a rate bounded by the lever arm, which itself can grow
		// with the remaining relative travel.
		lever := onOther.Sub(isoP.Translation).Len() + relSpeed*(maxT-t)
		closing := relVel.Dot(n.Mul(-1)) +
			otherMotion.AngVel.Len()*rhoOther +
			planeMotion.AngVel.Len()*lever
		if closing <= 0 {
			result.Status = toi.NoImpact
			return result
		}

		t += sep / closing
		if t > maxT {
			result.Status = toi.NoImpact
			return result
		}
		if iter >= maxIter {
			result.Status = toi.Undetermined
			result.TOI = t
			return result
		}
	}
}
