package toi

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxIterations bounds the advancement loop. Grazing approaches
	// converge slowly; anything still undecided after this many steps is
	// reported as Undetermined.
	DefaultMaxIterations = 64

	// DefaultTolerance is the surface distance under which the shapes count
	// as touching.
	DefaultTolerance = 1e-6
)

// Status classifies the outcome of a time-of-impact query.
type Status uint8

const (
	// NoImpact: the shapes provably do not touch within [0, maxT].
	NoImpact Status = iota
	// Impact: first touch found; TOI, witnesses and normal are valid.
	Impact
	// Penetrating: the shapes already overlap at t = 0.
	Penetrating
	// Undetermined: the iteration cap was hit before a proof either way.
	// TOI holds the advancement reached; callers that must not tunnel
	// should treat it as an impact at that time.
	Undetermined
)

func (s Status) String() string {
	switch s {
	case NoImpact:
		return "no impact"
	case Impact:
		return "impact"
	case Penetrating:
		return "penetrating"
	case Undetermined:
		return "undetermined"
	}
	return "unknown"
}

// Params configures one query. Zero fields use the defaults.
type Params struct {
	Tolerance     float64
	MaxIterations int
	// MaxGJKIterations caps the distance sub-queries; zero uses the GJK
	// solver's own default.
	MaxGJKIterations int
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

// Result is the outcome of a time-of-impact query.
type Result struct {
	Status Status
	// TOI is the impact time (Impact), 0 (Penetrating), or the time the
	// advancement reached (Undetermined).
	TOI float64
	// WitnessA and WitnessB are the touching points in world frame at TOI,
	// valid for Impact.
	WitnessA mgl64.Vec3
	WitnessB mgl64.Vec3
	// Normal is the unit contact direction from A toward B at TOI, valid
	// for Impact.
	Normal mgl64.Vec3

	Iterations int
}

// ConvexShape is what the solver requires of each shape: a support map with
// known local bounds. Composite shapes are swept part by part at a higher
// level.
type ConvexShape interface {
	geom.Shape
	geom.SupportMap
}

// TimeOfImpact finds the first time in [0, maxT] at which the two moving
// shapes touch.
//
// Each step measures the current separation with GJK and divides it by an
// upper bound on the closing speed: the relative linear speed projected on
// the separating direction plus each body's angular speed times its swept
// radius. The separation cannot shrink faster than that, so jumping ahead by
// the ratio never skips a touch.
func TimeOfImpact(shapeA ConvexShape, motionA Motion, shapeB ConvexShape, motionB Motion, maxT float64, params Params) Result {
	tol := params.tolerance()
	maxIter := params.maxIterations()

	rhoA := sweptRadius(shapeA)
	rhoB := sweptRadius(shapeB)
	angular := motionA.AngVel.Len()*rhoA + motionB.AngVel.Len()*rhoB
	relVel := motionA.LinVel.Sub(motionB.LinVel)

	gjkParams := gjk.Params{Tolerance: params.Tolerance, MaxIterations: params.MaxGJKIterations}

	result := Result{}
	t := 0.0
	for iter := 1; ; iter++ {
		result.Iterations = iter

		isoA := motionA.At(t)
		isoB := motionB.At(t)
		sep := gjk.Distance(shapeA, isoA, shapeB, isoB, gjkParams)

		if sep.Overlapping {
			if t == 0 {
				result.Status = Penetrating
				return result
			}
			// The conservative step overshot by less than the tolerance;
			// the previous iteration's contact data still stands.
			result.Status = Impact
			result.TOI = t
			return result
		}

		if sep.Distance <= tol {
			result.Status = Impact
			result.TOI = t
			result.WitnessA = sep.WitnessA
			result.WitnessB = sep.WitnessB
			result.Normal = sep.Normal
			return result
		}

		// Upper bound on how fast the separation can close from here on.
		closing := relVel.Dot(sep.Normal) + angular
		if closing <= 0 {
			result.Status = NoImpact
			return result
		}

		result.WitnessA = sep.WitnessA
		result.WitnessB = sep.WitnessB
		result.Normal = sep.Normal

		t += sep.Distance / closing
		if t > maxT {
			result.Status = NoImpact
			return result
		}

		if iter >= maxIter {
			result.Status = Undetermined
			result.TOI = t
			return result
		}
	}
}

// sweptRadius bounds how far the shape's surface can move per radian of
// rotation about its local origin. The round layer of a ball or capsule
// contributes a rotation-invariant term to the support, so its thickness is
// excluded from the bound.
func sweptRadius(s geom.Shape) float64 {
	aabb := s.LocalAABB()
	corner := mgl64.Vec3{
		math.Max(math.Abs(aabb.Min.X()), math.Abs(aabb.Max.X())),
		math.Max(math.Abs(aabb.Min.Y()), math.Abs(aabb.Max.Y())),
		math.Max(math.Abs(aabb.Min.Z()), math.Abs(aabb.Max.Z())),
	}
	return math.Max(0, corner.Len()-s.CCDThickness())
}
