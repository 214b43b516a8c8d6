package quill

import (
	"math"

	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/epa"
	"github.com/akmonengine/quill/geom"
	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Closest is the full result of a closest-points query.
type Closest struct {
	// Overlapping is true when the shapes interpenetrate; Distance is then 0
	// and the witnesses are not meaningful.
	Overlapping bool
	// Distance is the separation distance between the shape surfaces.
	Distance float64
	// WitnessA and WitnessB are the mutually closest points, world frame.
	WitnessA mgl64.Vec3
	WitnessB mgl64.Vec3
	// Normal is the unit separating direction from A toward B.
	Normal mgl64.Vec3
}

// distanceFunc and contactFunc are the dispatch table entries. The bool is
// false when the pair produced no result (an empty composite). Entries may
// assume the shapes match the kinds they were registered under.
type distanceFunc func(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, cfg Config) (Closest, bool)
type contactFunc func(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool)

var (
	distanceTable [geom.KindCount][geom.KindCount]distanceFunc
	contactTable  [geom.KindCount][geom.KindCount]contactFunc
)

func init() {
	convex := []geom.Kind{
		geom.KindBall, geom.KindCuboid, geom.KindCapsule, geom.KindCone,
		geom.KindCylinder, geom.KindConvexHull, geom.KindSegment, geom.KindTriangle,
	}
	composite := []geom.Kind{geom.KindCompound, geom.KindTriMesh, geom.KindHeightField}

	for _, ka := range convex {
		for _, kb := range convex {
			distanceTable[ka][kb] = genericDistance
			contactTable[ka][kb] = genericContact
		}
	}

	// Closed forms beat the generic pipeline where they exist.
	distanceTable[geom.KindBall][geom.KindBall] = ballBallDistance
	contactTable[geom.KindBall][geom.KindBall] = ballBallContact

	for _, k := range convex {
		distanceTable[geom.KindHalfSpace][k] = planeDistanceA
		distanceTable[k][geom.KindHalfSpace] = planeDistanceB
		contactTable[geom.KindHalfSpace][k] = planeContactA
		contactTable[k][geom.KindHalfSpace] = planeContactB
	}

	// Composites route part by part; an A-side composite takes precedence so
	// composite-composite pairs recurse through A's parts first.
	for _, kc := range composite {
		for k := geom.Kind(0); k < geom.KindCount; k++ {
			distanceTable[k][kc] = compositeDistanceB
			contactTable[k][kc] = compositeContactB
		}
	}
	for _, kc := range composite {
		for k := geom.Kind(0); k < geom.KindCount; k++ {
			distanceTable[kc][k] = compositeDistanceA
			contactTable[kc][k] = compositeContactA
		}
	}

	// Two half spaces have no meaningful closest pair; the lookup fails.
	distanceTable[geom.KindHalfSpace][geom.KindHalfSpace] = nil
	contactTable[geom.KindHalfSpace][geom.KindHalfSpace] = nil
}

// ---- generic convex pipeline ----

func genericDistance(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, cfg Config) (Closest, bool) {
	res := gjk.Distance(a.(geom.SupportMap), isoA, b.(geom.SupportMap), isoB, cfg.gjkParams())
	if res.Overlapping {
		return Closest{Overlapping: true}, true
	}
	return Closest{
		Distance: res.Distance,
		WitnessA: res.WitnessA,
		WitnessB: res.WitnessB,
		Normal:   res.Normal,
	}, true
}

func genericContact(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool) {
	sa := a.(geom.SupportMap)
	sb := b.(geom.SupportMap)

	res := gjk.Distance(sa, isoA, sb, isoB, cfg.gjkParams())
	if !res.Overlapping {
		if res.Distance > margin {
			return contact.Manifold{}, false
		}
		// Within the prediction margin: a speculative contact with negative
		// depth.
		return contact.Build(a, isoA, b, isoB, res.Normal, res.WitnessA, res.WitnessB, -res.Distance, margin), true
	}

	pen, ok := epa.Penetrate(sa, isoA, sb, isoB, res.Simplex, cfg.epaParams())
	if !ok {
		// Touching contact too flat for the polytope to inflate: fall back
		// to the simplex witnesses at zero depth.
		simplex := res.Simplex
		wa, wb := simplex.Witnesses()
		normal := isoB.Translation.Sub(isoA.Translation)
		if normal.Dot(normal) < 1e-18 {
			normal = mgl64.Vec3{1, 0, 0}
		} else {
			normal = normal.Normalize()
		}
		return contact.Build(a, isoA, b, isoB, normal, wa, wb, 0, margin), true
	}
	return contact.Build(a, isoA, b, isoB, pen.Normal, pen.WitnessA, pen.WitnessB, pen.Depth, margin), true
}

// ---- ball-ball closed form ----

func ballBallGeometry(a, b *geom.Ball, isoA, isoB geom.Isometry) (normal mgl64.Vec3, dist float64) {
	d := isoB.Translation.Sub(isoA.Translation)
	centerDist := d.Len()
	if centerDist < 1e-12 {
		return mgl64.Vec3{1, 0, 0}, -(a.Radius + b.Radius)
	}
	return d.Mul(1 / centerDist), centerDist - a.Radius - b.Radius
}

func ballBallDistance(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, cfg Config) (Closest, bool) {
	ballA := a.(*geom.Ball)
	ballB := b.(*geom.Ball)
	normal, dist := ballBallGeometry(ballA, ballB, isoA, isoB)
	if dist <= 0 {
		return Closest{Overlapping: true}, true
	}
	return Closest{
		Distance: dist,
		WitnessA: isoA.Translation.Add(normal.Mul(ballA.Radius)),
		WitnessB: isoB.Translation.Sub(normal.Mul(ballB.Radius)),
		Normal:   normal,
	}, true
}

func ballBallContact(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool) {
	ballA := a.(*geom.Ball)
	ballB := b.(*geom.Ball)
	normal, dist := ballBallGeometry(ballA, ballB, isoA, isoB)
	if dist > margin {
		return contact.Manifold{}, false
	}
	witnessA := isoA.Translation.Add(normal.Mul(ballA.Radius))
	witnessB := isoB.Translation.Sub(normal.Mul(ballB.Radius))
	return contact.Build(a, isoA, b, isoB, normal, witnessA, witnessB, -dist, margin), true
}

// ---- half space routines ----

// planeSeparation is the signed distance from the deepest point of the
// support-mapped shape to the half space boundary, with the witness pair.
func planeSeparation(plane *geom.HalfSpace, isoP geom.Isometry, other geom.SupportMap, isoO geom.Isometry) (n, onPlane, onOther mgl64.Vec3, sep float64) {
	n = isoP.TransformDir(plane.Normal)
	onOther = isoO.TransformPoint(other.Support(isoO.InverseTransformDir(n.Mul(-1))))
	sep = onOther.Sub(isoP.Translation).Dot(n)
	onPlane = onOther.Sub(n.Mul(sep))
	return n, onPlane, onOther, sep
}

func planeDistanceA(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, cfg Config) (Closest, bool) {
	n, onPlane, onOther, sep := planeSeparation(a.(*geom.HalfSpace), isoA, b.(geom.SupportMap), isoB)
	if sep <= 0 {
		return Closest{Overlapping: true}, true
	}
	return Closest{Distance: sep, WitnessA: onPlane, WitnessB: onOther, Normal: n}, true
}

func planeDistanceB(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, cfg Config) (Closest, bool) {
	c, ok := planeDistanceA(b, isoB, a, isoA, cfg)
	return flipClosest(c), ok
}

func planeContactA(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool) {
	n, onPlane, onOther, sep := planeSeparation(a.(*geom.HalfSpace), isoA, b.(geom.SupportMap), isoB)
	if sep > margin {
		return contact.Manifold{}, false
	}
	return contact.Build(a, isoA, b, isoB, n, onPlane, onOther, -sep, margin), true
}

func planeContactB(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool) {
	m, ok := planeContactA(b, isoB, a, isoA, margin, cfg)
	return flipManifold(m), ok
}

// ---- composite routing ----

func compositeDistanceA(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, cfg Config) (Closest, bool) {
	comp := a.(geom.Composite)
	n := comp.NumParts()
	if n == 0 {
		return Closest{}, false
	}

	// Seed the cull radius with the first part, then skip any part whose
	// bounds are farther from the query shape than the best found so far.
	seedIso, seedShape := comp.Part(0)
	best, found := dispatchDistance(seedShape, isoA.Mul(seedIso), b, isoB, cfg)
	if found && best.Overlapping {
		return best, true
	}

	envelope := math.Inf(1)
	if found {
		envelope = best.Distance
	}
	otherAABB := b.AABB(isoA.Inverse().Mul(isoB))

	comp.PartsOverlapping(otherAABB.Loosened(envelope), func(i int) bool {
		if i == 0 {
			return true
		}
		partIso, part := comp.Part(i)
		r, ok := dispatchDistance(part, isoA.Mul(partIso), b, isoB, cfg)
		if !ok {
			return true
		}
		if r.Overlapping {
			best, found = r, true
			return false
		}
		if !found || r.Distance < best.Distance {
			best, found = r, true
		}
		return true
	})
	return best, found
}

func compositeDistanceB(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, cfg Config) (Closest, bool) {
	c, ok := compositeDistanceA(b, isoB, a, isoA, cfg)
	return flipClosest(c), ok
}

func compositeContactA(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool) {
	comp := a.(geom.Composite)
	otherAABB := b.AABB(isoA.Inverse().Mul(isoB)).Loosened(margin)

	var best contact.Manifold
	found := false
	comp.PartsOverlapping(otherAABB, func(i int) bool {
		partIso, part := comp.Part(i)
		m, ok := dispatchContact(part, isoA.Mul(partIso), b, isoB, margin, cfg)
		if !ok {
			return true
		}
		if !found {
			best, found = m, true
			return true
		}
		// Parts touching along the same direction contribute to one
		// manifold; conflicting directions keep the deeper contact.
		if m.Normal.Dot(best.Normal) > 0.996 {
			best.Points = mergePoints(best.Points, m.Points)
		} else if manifoldDepth(m) > manifoldDepth(best) {
			best = m
		}
		return true
	})
	return best, found
}

func compositeContactB(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool) {
	m, ok := compositeContactA(b, isoB, a, isoA, margin, cfg)
	return flipManifold(m), ok
}

func dispatchDistance(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, cfg Config) (Closest, bool) {
	fn := distanceTable[a.Kind()][b.Kind()]
	if fn == nil {
		return Closest{}, false
	}
	return fn(a, isoA, b, isoB, cfg)
}

func dispatchContact(a geom.Shape, isoA geom.Isometry, b geom.Shape, isoB geom.Isometry, margin float64, cfg Config) (contact.Manifold, bool) {
	fn := contactTable[a.Kind()][b.Kind()]
	if fn == nil {
		return contact.Manifold{}, false
	}
	return fn(a, isoA, b, isoB, margin, cfg)
}

// ---- result flipping (A/B role swap) ----

func flipClosest(c Closest) Closest {
	c.WitnessA, c.WitnessB = c.WitnessB, c.WitnessA
	c.Normal = c.Normal.Mul(-1)
	return c
}

func flipManifold(m contact.Manifold) contact.Manifold {
	m.Normal = m.Normal.Mul(-1)
	for i := range m.Points {
		m.Points[i].LocalA, m.Points[i].LocalB = m.Points[i].LocalB, m.Points[i].LocalA
	}
	return m
}

func manifoldDepth(m contact.Manifold) float64 {
	if i := m.Deepest(); i >= 0 {
		return m.Points[i].Depth
	}
	return math.Inf(-1)
}

// mergePoints pools the points of two same-normal manifolds and keeps the
// four deepest, preserving their relative order.
func mergePoints(a, b []contact.Point) []contact.Point {
	merged := append(a, b...)
	if len(merged) <= 4 {
		return merged
	}

	// Find the cut depth of the fourth deepest point.
	depths := make([]float64, len(merged))
	for i, p := range merged {
		depths[i] = p.Depth
	}
	for i := 0; i < 4; i++ {
		maxIdx := i
		for j := i + 1; j < len(depths); j++ {
			if depths[j] > depths[maxIdx] {
				maxIdx = j
			}
		}
		depths[i], depths[maxIdx] = depths[maxIdx], depths[i]
	}
	cut := depths[3]

	kept := make([]contact.Point, 0, 4)
	for _, p := range merged {
		if p.Depth >= cut && len(kept) < 4 {
			kept = append(kept, p)
		}
	}
	return kept
}
