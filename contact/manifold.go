// Package contact turns the witness pair produced by the distance and
// penetration solvers into a contact manifold: up to four contact points in
// a stable order, sharing one normal. Flat features in contact yield several
// points by polygon clipping; curved shapes degenerate to the single witness
// pair.
package contact

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Point is one contact point, stored in each shape's local frame so it stays
// meaningful while the shapes move between queries.
type Point struct {
	LocalA mgl64.Vec3
	LocalB mgl64.Vec3
	// Depth is positive when the shapes interpenetrate at this point and
	// negative when they are separated by -Depth (within the prediction
	// margin).
	Depth float64
}

// PairKey identifies an unordered collider pair. Keys are stable across
// steps, which is what manifold caching and pair lifecycle tracking key on.
type PairKey struct {
	A uuid.UUID
	B uuid.UUID
}

// MakePairKey normalizes the pair order so both argument orders produce the
// same key.
func MakePairKey(a, b uuid.UUID) PairKey {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Manifold is the set of contact points between two shapes. Points share the
// manifold normal and keep the winding order of the clipped reference
// feature, so indices correlate between consecutive queries of a resting
// pair.
type Manifold struct {
	Key PairKey
	// Normal is the unit contact normal in world frame, from A toward B.
	Normal mgl64.Vec3
	// Points holds 1 to 4 contact points.
	Points []Point
}

// Deepest returns the index of the point with the largest depth, -1 when the
// manifold is empty.
func (m *Manifold) Deepest() int {
	best := -1
	for i := range m.Points {
		if best < 0 || m.Points[i].Depth > m.Points[best].Depth {
			best = i
		}
	}
	return best
}
