package quill

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/gjk"
	"github.com/akmonengine/quill/toi"
)

// Distance returns the separation distance between two positioned shapes,
// 0 when they overlap.
func Distance(shapeA geom.Shape, isoA geom.Isometry, shapeB geom.Shape, isoB geom.Isometry, cfg Config) (float64, error) {
	c, err := ClosestPoints(shapeA, isoA, shapeB, isoB, cfg)
	if err != nil {
		return 0, err
	}
	return c.Distance, nil
}

// ClosestPoints returns the full closest-pair result: distance, one witness
// point per shape and the separating direction.
func ClosestPoints(shapeA geom.Shape, isoA geom.Isometry, shapeB geom.Shape, isoB geom.Isometry, cfg Config) (Closest, error) {
	if err := checkIsometries(isoA, isoB); err != nil {
		return Closest{}, err
	}
	fn := distanceTable[shapeA.Kind()][shapeB.Kind()]
	if fn == nil {
		return Closest{}, unsupportedPair(shapeA, shapeB)
	}
	c, ok := fn(shapeA, isoA, shapeB, isoB, cfg)
	if !ok {
		return Closest{}, fmt.Errorf("%w: empty %v against %v", ErrInvalidQuery, shapeA.Kind(), shapeB.Kind())
	}
	return c, nil
}

// Contact computes the contact manifold between two positioned shapes. The
// second return value is false when the shapes are separated by more than
// margin; with a positive margin, nearby pairs produce speculative contacts
// with negative depth.
func Contact(shapeA geom.Shape, isoA geom.Isometry, shapeB geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool, error) {
	if err := checkIsometries(isoA, isoB); err != nil {
		return contact.Manifold{}, false, err
	}
	if margin < 0 || math.IsNaN(margin) {
		return contact.Manifold{}, false, fmt.Errorf("%w: margin %v", ErrInvalidQuery, margin)
	}
	fn := contactTable[shapeA.Kind()][shapeB.Kind()]
	if fn == nil {
		return contact.Manifold{}, false, unsupportedPair(shapeA, shapeB)
	}
	m, found := fn(shapeA, isoA, shapeB, isoB, margin, cfg)
	return m, found, nil
}

// Intersecting reports whether two positioned shapes overlap. It is cheaper
// than Contact: the walk stops as soon as either overlap or separation is
// proven.
func Intersecting(shapeA geom.Shape, isoA geom.Isometry, shapeB geom.Shape, isoB geom.Isometry, cfg Config) (bool, error) {
	if err := checkIsometries(isoA, isoB); err != nil {
		return false, err
	}

	if comp, ok := shapeA.(geom.Composite); ok {
		return compositeIntersecting(comp, isoA, shapeB, isoB, cfg)
	}
	if comp, ok := shapeB.(geom.Composite); ok {
		return compositeIntersecting(comp, isoB, shapeA, isoA, cfg)
	}
	if plane, ok := shapeA.(*geom.HalfSpace); ok {
		if _, alsoPlane := shapeB.(*geom.HalfSpace); alsoPlane {
			return false, unsupportedPair(shapeA, shapeB)
		}
		_, _, _, sep := planeSeparation(plane, isoA, shapeB.(geom.SupportMap), isoB)
		return sep <= 0, nil
	}
	if plane, ok := shapeB.(*geom.HalfSpace); ok {
		_, _, _, sep := planeSeparation(plane, isoB, shapeA.(geom.SupportMap), isoA)
		return sep <= 0, nil
	}
	if ballA, ok := shapeA.(*geom.Ball); ok {
		if ballB, ok := shapeB.(*geom.Ball); ok {
			_, dist := ballBallGeometry(ballA, ballB, isoA, isoB)
			return dist <= 0, nil
		}
	}
	return gjk.Intersecting(shapeA.(geom.SupportMap), isoA, shapeB.(geom.SupportMap), isoB, cfg.gjkParams()), nil
}

func compositeIntersecting(comp geom.Composite, iso geom.Isometry, other geom.Shape, otherIso geom.Isometry, cfg Config) (bool, error) {
	otherAABB := other.AABB(iso.Inverse().Mul(otherIso))

	hit := false
	var firstErr error
	comp.PartsOverlapping(otherAABB, func(i int) bool {
		partIso, part := comp.Part(i)
		ok, err := Intersecting(part, iso.Mul(partIso), other, otherIso, cfg)
		if err != nil {
			firstErr = err
			return false
		}
		hit = ok
		return !hit
	})
	return hit, firstErr
}

// CastRay intersects a world ray with a positioned shape, reporting the
// nearest hit with TOI in [0, maxTOI] (in units of |ray.Dir|). With solid
// set, a ray starting inside the shape hits immediately at TOI 0; otherwise
// it only hits surfaces.
func CastRay(ray geom.Ray, shape geom.Shape, iso geom.Isometry, maxTOI float64, solid bool, cfg Config) (geom.RayHit, bool, error) {
	if err := checkIsometries(iso); err != nil {
		return geom.RayHit{}, false, err
	}
	if maxTOI < 0 || math.IsNaN(maxTOI) {
		return geom.RayHit{}, false, fmt.Errorf("%w: maxTOI %v", ErrInvalidQuery, maxTOI)
	}
	if ray.Dir.Dot(ray.Dir) < 1e-18 {
		return geom.RayHit{}, false, fmt.Errorf("%w: zero ray direction", ErrInvalidQuery)
	}
	hit, ok := castShape(ray, shape, iso, maxTOI, solid, cfg)
	return hit, ok, nil
}

// TimeOfImpact finds the first time in [0, maxT] at which two moving shapes
// touch. See toi.Status for the outcome taxonomy.
func TimeOfImpact(shapeA geom.Shape, motionA toi.Motion, shapeB geom.Shape, motionB toi.Motion, maxT float64, cfg Config) (toi.Result, error) {
	if err := checkIsometries(motionA.Start, motionB.Start); err != nil {
		return toi.Result{}, err
	}
	if maxT < 0 || math.IsNaN(maxT) {
		return toi.Result{}, fmt.Errorf("%w: maxT %v", ErrInvalidQuery, maxT)
	}
	res, ok := timeOfImpact(shapeA, motionA, shapeB, motionB, maxT, cfg)
	if !ok {
		return toi.Result{}, unsupportedPair(shapeA, shapeB)
	}
	return res, nil
}

func unsupportedPair(a, b geom.Shape) error {
	return fmt.Errorf("%w: no routine for %v against %v", ErrInvalidQuery, a.Kind(), b.Kind())
}

func checkIsometries(isos ...geom.Isometry) error {
	for _, iso := range isos {
		for i := 0; i < 3; i++ {
			if math.IsNaN(iso.Translation[i]) {
				return fmt.Errorf("%w: NaN translation", ErrInvalidQuery)
			}
		}
		if math.IsNaN(iso.Rotation.W) || math.IsNaN(iso.Rotation.V[0]) || math.IsNaN(iso.Rotation.V[1]) || math.IsNaN(iso.Rotation.V[2]) {
			return fmt.Errorf("%w: NaN rotation", ErrInvalidQuery)
		}
	}
	return nil
}
