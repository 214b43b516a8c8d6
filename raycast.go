package quill

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// castShape intersects a world ray with a positioned shape. Shapes with a
// closed-form intersection use it, composites take the per-part minimum, and
// the rest fall back to a support-based march.
func castShape(ray geom.Ray, shape geom.Shape, iso geom.Isometry, maxTOI float64, solid bool, cfg Config) (geom.RayHit, bool) {
	if rc, ok := shape.(geom.RayCastable); ok {
		local := ray.Transformed(iso.Inverse())
		hit, ok := rc.CastRayLocal(local, maxTOI, solid)
		if !ok {
			return geom.RayHit{}, false
		}
		hit.Normal = iso.TransformDir(hit.Normal)
		return hit, true
	}
	if comp, ok := shape.(geom.Composite); ok {
		return castComposite(ray, comp, iso, maxTOI, solid, cfg)
	}
	if sm, ok := shape.(geom.SupportMap); ok {
		return castSupportMap(ray, sm, iso, maxTOI, solid, cfg)
	}
	return geom.RayHit{}, false
}

// castComposite returns the nearest hit over all parts. Each part re-enters
// castShape, so parts without a closed-form intersection still get the
// support-based march.
func castComposite(ray geom.Ray, comp geom.Composite, iso geom.Isometry, maxTOI float64, solid bool, cfg Config) (geom.RayHit, bool) {
	best := geom.RayHit{TOI: math.Inf(1)}
	found := false

	for i := 0; i < comp.NumParts(); i++ {
		partIso, part := comp.Part(i)
		hit, ok := castShape(ray, part, iso.Mul(partIso), maxTOI, solid, cfg)
		if ok && hit.TOI < best.TOI {
			best = hit
			found = true
		}
	}

	return best, found
}

// pointSupport is the degenerate support map of a single point at the local
// origin; it turns the ray march into a point-versus-shape distance problem.
type pointSupport struct{}

func (pointSupport) Support(mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{} }

// castSupportMap marches a point along the ray by conservative advancement:
// each step measures the distance from the current ray point to the shape
// and advances by the largest amount that provably cannot jump over the
// surface.
func castSupportMap(ray geom.Ray, shape geom.SupportMap, iso geom.Isometry, maxTOI float64, solid bool, cfg Config) (geom.RayHit, bool) {
	params := cfg.gjkParams()
	tol := params.Tolerance
	if tol <= 0 {
		tol = gjk.DefaultTolerance
	}
	// Surface resolution for the march: fine enough to be visually exact,
	// coarse enough to terminate fast on grazing rays.
	target := tol * 100
	if target < 1e-7 {
		target = 1e-7
	}

	maxIter := params.MaxIterations
	if maxIter <= 0 {
		maxIter = gjk.DefaultMaxIterations
	}

	var point pointSupport
	t := 0.0
	normal := ray.Dir.Normalize().Mul(-1)

	for iter := 0; iter < maxIter; iter++ {
		pointIso := geom.Isometry{Translation: ray.At(t), Rotation: mgl64.QuatIdent()}
		sep := gjk.Distance(point, pointIso, shape, iso, params)

		if sep.Overlapping {
			if t == 0 {
				if !solid {
					return geom.RayHit{}, false
				}
				return geom.RayHit{TOI: 0, Normal: ray.Dir.Normalize().Mul(-1)}, true
			}
			return geom.RayHit{TOI: t, Normal: normal}, true
		}

		if sep.Distance <= target {
			// Normal points from the shape surface back toward the ray.
			return geom.RayHit{TOI: t, Normal: sep.Normal.Mul(-1)}, true
		}
		normal = sep.Normal.Mul(-1)

		// sep.Normal points from the ray point toward the shape; the point
		// closes at most at this speed (in TOI units of |Dir|).
		closing := ray.Dir.Dot(sep.Normal)
		if closing <= 0 {
			return geom.RayHit{}, false
		}
		t += sep.Distance / closing
		if t > maxTOI {
			return geom.RayHit{}, false
		}
	}
	return geom.RayHit{}, false
}
