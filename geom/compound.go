package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CompoundPart is one convex piece of a compound, placed in the compound's
// local frame.
type CompoundPart struct {
	Isometry Isometry
	Shape    Shape
}

// Compound is a rigid assembly of convex parts. It is not convex itself:
// queries recurse over the parts through the Composite capability.
type Compound struct {
	parts     []CompoundPart
	partAABBs []AABB
	aabb      AABB
}

// NewCompound builds a compound from at least one part. Nested compounds are
// rejected; flatten them at construction instead.
func NewCompound(parts []CompoundPart) (*Compound, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: compound with no parts", ErrDegenerateShape)
	}

	owned := make([]CompoundPart, len(parts))
	copy(owned, parts)

	partAABBs := make([]AABB, len(owned))
	for i, part := range owned {
		if part.Shape == nil {
			return nil, fmt.Errorf("%w: compound part %d has no shape", ErrDegenerateShape, i)
		}
		if part.Shape.Kind() == KindCompound {
			return nil, fmt.Errorf("%w: compound part %d is itself a compound", ErrDegenerateShape, i)
		}
		partAABBs[i] = part.Shape.AABB(part.Isometry)
	}

	aabb := partAABBs[0]
	for _, pa := range partAABBs[1:] {
		aabb = aabb.Union(pa)
	}

	return &Compound{parts: owned, partAABBs: partAABBs, aabb: aabb}, nil
}

func (c *Compound) Kind() Kind { return KindCompound }

func (c *Compound) IsConvex() bool { return false }

func (c *Compound) CCDThickness() float64 {
	thickness := math.Inf(1)
	for _, part := range c.parts {
		thickness = math.Min(thickness, part.Shape.CCDThickness())
	}
	return thickness
}

func (c *Compound) LocalAABB() AABB { return c.aabb }

// AABB is the union of the transformed part bounds, tighter than
// transforming the compound's own box.
func (c *Compound) AABB(iso Isometry) AABB {
	out := c.parts[0].Shape.AABB(iso.Mul(c.parts[0].Isometry))
	for _, part := range c.parts[1:] {
		out = out.Union(part.Shape.AABB(iso.Mul(part.Isometry)))
	}
	return out
}

func (c *Compound) NumParts() int { return len(c.parts) }

func (c *Compound) Part(i int) (Isometry, Shape) {
	return c.parts[i].Isometry, c.parts[i].Shape
}

// PartsOverlapping scans the part bounds linearly; compounds are expected to
// hold a handful of parts.
func (c *Compound) PartsOverlapping(aabb AABB, f func(i int) bool) {
	for i := range c.parts {
		if c.partAABBs[i].Overlaps(aabb) {
			if !f(i) {
				return
			}
		}
	}
}

// SupportScan returns the support point over all parts: the transformed part
// support with the largest projection on dir. Compounds are not support maps
// for dispatch (they are not convex) but the scan is useful for bounding
// computations.
func (c *Compound) SupportScan(dir mgl64.Vec3) mgl64.Vec3 {
	best := mgl64.Vec3{}
	bestDot := math.Inf(-1)
	for _, part := range c.parts {
		sm, ok := part.Shape.(SupportMap)
		if !ok {
			continue
		}
		p := part.Isometry.TransformPoint(sm.Support(part.Isometry.InverseTransformDir(dir)))
		if d := p.Dot(dir); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

// MassProperties sums the parts, transporting each part tensor to the
// compound's center of mass.
func (c *Compound) MassProperties(density float64) MassProperties {
	totalMass := 0.0
	weightedCenter := mgl64.Vec3{}

	type placed struct {
		props  MassProperties
		center mgl64.Vec3
		rot    mgl64.Quat
	}
	placedParts := make([]placed, 0, len(c.parts))

	for _, part := range c.parts {
		props := part.Shape.MassProperties(density)
		if props.Mass <= 0 {
			continue
		}
		center := part.Isometry.TransformPoint(props.LocalCenter)
		totalMass += props.Mass
		weightedCenter = weightedCenter.Add(center.Mul(props.Mass))
		placedParts = append(placedParts, placed{props: props, center: center, rot: part.Isometry.Rotation})
	}

	if totalMass <= 0 {
		return MassProperties{}
	}
	center := weightedCenter.Mul(1 / totalMass)

	inertia := mgl64.Mat3{}
	for _, p := range placedParts {
		// Rotate the part tensor into the compound frame, then transport it
		// to the compound center of mass.
		r := p.rot.Mat4().Mat3()
		rotated := r.Mul3(p.props.Inertia).Mul3(r.Transpose())
		inertia = inertia.Add(transportInertia(rotated, p.props.Mass, p.center.Sub(center)))
	}

	return MassProperties{Mass: totalMass, LocalCenter: center, Inertia: inertia}
}
