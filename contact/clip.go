package contact

import (
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// maxPoints is the manifold size cap. Four points are enough to span any
// planar contact region; more adds cost without stability.
const maxPoints = 4

// Build assembles a manifold from a solved contact: the normal (world frame,
// A toward B), one witness point per shape, and the signed depth (positive
// penetrating, negative separated).
//
// When both shapes carry flat features aligned with the normal, the incident
// feature is clipped against the reference feature's side planes and every
// surviving point within margin of the reference plane becomes a contact
// point, with its own depth measured against that plane. Otherwise the
// manifold is the single witness pair. The caller fills in Key.
func Build(shapeA geom.Shape, isoA geom.Isometry, shapeB geom.Shape, isoB geom.Isometry, normal, witnessA, witnessB mgl64.Vec3, depth, margin float64) Manifold {
	m := Manifold{Normal: normal}

	// Half spaces act as an unbounded reference face.
	if plane, ok := shapeA.(*geom.HalfSpace); ok {
		if _, alsoPlane := shapeB.(*geom.HalfSpace); !alsoPlane {
			refNormal := isoA.TransformDir(plane.Normal)
			incident := worldFeature(shapeB, isoB, normal.Mul(-1))
			if pts := clipAgainstPlane(incident, isoA.Translation, refNormal, margin); len(pts) > 0 {
				return finish(m, pts, true, isoA, isoB, refNormal)
			}
		}
		return single(m, isoA, isoB, witnessA, witnessB, depth)
	}
	if plane, ok := shapeB.(*geom.HalfSpace); ok {
		refNormal := isoB.TransformDir(plane.Normal)
		incident := worldFeature(shapeA, isoA, normal)
		if pts := clipAgainstPlane(incident, isoB.Translation, refNormal, margin); len(pts) > 0 {
			return finish(m, pts, false, isoA, isoB, refNormal)
		}
		return single(m, isoA, isoB, witnessA, witnessB, depth)
	}

	featureA := worldFeature(shapeA, isoA, normal)
	featureB := worldFeature(shapeB, isoB, normal.Mul(-1))

	// The reference is the larger feature; it must be a polygon to define a
	// face plane, and the incident side needs at least an edge to clip.
	// Everything flatter (ball against anything, edge on edge) is a single
	// touching point.
	var reference, incident geom.Feature
	refIsA := true
	if len(featureB) > len(featureA) {
		reference = featureB
		incident = featureA
		refIsA = false
	} else {
		reference = featureA
		incident = featureB
	}
	if len(reference) < 3 || len(incident) < 2 {
		return single(m, isoA, isoB, witnessA, witnessB, depth)
	}

	// The reference face normal comes from its geometry, oriented outward
	// along the contact normal.
	refNormal := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0]))
	if refNormal.Dot(refNormal) < 1e-18 {
		return single(m, isoA, isoB, witnessA, witnessB, depth)
	}
	refNormal = refNormal.Normalize()
	outward := normal
	if !refIsA {
		outward = normal.Mul(-1)
	}
	if refNormal.Dot(outward) < 0 {
		refNormal = refNormal.Mul(-1)
	}

	clipped := clipSidePlanes(incident, reference, refNormal)
	pts := clipAgainstPlane(clipped, reference[0], refNormal, margin)
	if len(pts) == 0 {
		return single(m, isoA, isoB, witnessA, witnessB, depth)
	}
	return finish(m, pts, refIsA, isoA, isoB, refNormal)
}

// worldFeature queries the flat feature aligned with a world direction and
// transforms it into world frame. Shapes without flat features return nil.
func worldFeature(shape geom.Shape, iso geom.Isometry, dir mgl64.Vec3) geom.Feature {
	poly, ok := shape.(geom.PolygonalSupport)
	if !ok {
		return nil
	}
	local := poly.SupportFeature(iso.InverseTransformDir(dir))
	feature := make(geom.Feature, len(local))
	for i, p := range local {
		feature[i] = iso.TransformPoint(p)
	}
	return feature
}

// featureCenter is the centroid of a feature's vertices.
func featureCenter(feature geom.Feature) mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, p := range feature {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(feature)))
}

// clippedPoint is an incident-face point that survived clipping, with its
// signed separation from the reference plane (negative = behind the plane).
type clippedPoint struct {
	onIncident mgl64.Vec3
	separation float64
}

// clipSidePlanes clips the incident feature against the planes through each
// reference edge, perpendicular to the reference face. Sutherland-Hodgman,
// one plane at a time.
func clipSidePlanes(incident, reference geom.Feature, refNormal mgl64.Vec3) geom.Feature {
	output := make(geom.Feature, len(incident), len(incident)+len(reference))
	copy(output, incident)

	for i := 0; i < len(reference) && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		edge := v2.Sub(v1)
		clipNormal := refNormal.Cross(edge)
		if clipNormal.Dot(clipNormal) < 1e-18 {
			continue
		}
		clipNormal = clipNormal.Normalize()

		// Orient the side plane inward, toward the face centroid.
		if featureCenter(reference).Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygon(output, v1, clipNormal)
	}
	return output
}

// clipPolygon keeps the part of polygon on the positive side of the plane,
// inserting edge/plane intersections where the polygon crosses it.
func clipPolygon(polygon geom.Feature, planePoint, planeNormal mgl64.Vec3) geom.Feature {
	if len(polygon) == 0 {
		return polygon
	}
	const tol = 1e-9

	output := make(geom.Feature, 0, len(polygon)+1)
	for i := range polygon {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -tol {
			output = append(output, current)
			if nextDist < -tol {
				output = append(output, intersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -tol {
			output = append(output, intersectPlane(current, next, planePoint, planeNormal))
		}

		if len(polygon) == 2 {
			// An edge has one segment, not a closed loop.
			break
		}
	}
	return output
}

// intersectPlane is the point where segment (p1, p2) crosses the plane.
func intersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-14 {
		return p1
	}
	t := planePoint.Sub(p1).Dot(planeNormal) / denom
	t = math.Max(0, math.Min(1, t))
	return p1.Add(dir.Mul(t))
}

// clipAgainstPlane measures each point against the reference plane and keeps
// those within margin of it, penetrating or not.
func clipAgainstPlane(points geom.Feature, planePoint, planeNormal mgl64.Vec3, margin float64) []clippedPoint {
	kept := make([]clippedPoint, 0, len(points))
	for _, p := range points {
		separation := p.Sub(planePoint).Dot(planeNormal)
		if separation <= margin {
			kept = append(kept, clippedPoint{onIncident: p, separation: separation})
		}
	}
	return kept
}

// finish projects the clipped points onto the reference plane, reduces them
// to the manifold cap, and maps both sides into their local frames.
func finish(m Manifold, pts []clippedPoint, refIsA bool, isoA, isoB geom.Isometry, refNormal mgl64.Vec3) Manifold {
	if len(pts) > maxPoints {
		pts = reducePoints(pts, refNormal)
	}

	m.Points = make([]Point, 0, len(pts))
	for _, cp := range pts {
		onReference := cp.onIncident.Sub(refNormal.Mul(cp.separation))
		onA, onB := onReference, cp.onIncident
		if !refIsA {
			onA, onB = cp.onIncident, onReference
		}
		m.Points = append(m.Points, Point{
			LocalA: isoA.InverseTransformPoint(onA),
			LocalB: isoB.InverseTransformPoint(onB),
			Depth:  -cp.separation,
		})
	}
	return m
}

// single is the degenerate manifold: the witness pair itself.
func single(m Manifold, isoA, isoB geom.Isometry, witnessA, witnessB mgl64.Vec3, depth float64) Manifold {
	m.Points = []Point{{
		LocalA: isoA.InverseTransformPoint(witnessA),
		LocalB: isoB.InverseTransformPoint(witnessB),
		Depth:  depth,
	}}
	return m
}

// reducePoints keeps the four points spanning the largest spread in the
// contact plane: the extremes along two tangent axes. Selection runs over
// indices and the survivors keep their winding order, so the reduction is
// deterministic.
func reducePoints(pts []clippedPoint, normal mgl64.Vec3) []clippedPoint {
	t1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		t1 = mgl64.Vec3{0, 1, 0}
	}
	t1 = t1.Sub(normal.Mul(t1.Dot(normal))).Normalize()
	t2 := normal.Cross(t1)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	minXv, maxXv := math.Inf(1), math.Inf(-1)
	minYv, maxYv := math.Inf(1), math.Inf(-1)
	for i, cp := range pts {
		x := cp.onIncident.Dot(t1)
		y := cp.onIncident.Dot(t2)
		if x < minXv {
			minXv, minX = x, i
		}
		if x > maxXv {
			maxXv, maxX = x, i
		}
		if y < minYv {
			minYv, minY = y, i
		}
		if y > maxYv {
			maxYv, maxY = y, i
		}
	}

	chosen := map[int]bool{minX: true, maxX: true, minY: true, maxY: true}
	selected := make([]clippedPoint, 0, maxPoints)
	for i := range pts {
		if chosen[i] {
			selected = append(selected, pts[i])
		}
	}
	return selected
}
