package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// TriMesh is a triangle mesh used as a static collision boundary. It owns an
// immutable median-split tree over its triangles, used by its ray cast and
// by composite part culling. Meshes are boundaries, not solids: they have no
// volume and no mass.
type TriMesh struct {
	vertices []mgl64.Vec3
	indices  [][3]uint32
	tree     *staticTree
	aabb     AABB
}

// NewTriMesh builds a mesh from a vertex buffer and triangle index triples.
func NewTriMesh(vertices []mgl64.Vec3, indices [][3]uint32) (*TriMesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty triangle mesh", ErrDegenerateShape)
	}
	for t, tri := range indices {
		for _, i := range tri {
			if int(i) >= len(vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrDegenerateShape, t, i, len(vertices))
			}
		}
	}

	m := &TriMesh{
		vertices: append([]mgl64.Vec3(nil), vertices...),
		indices:  append([][3]uint32(nil), indices...),
	}

	bounds := make([]AABB, len(indices))
	for i := range indices {
		a, b, c := m.triangle(i)
		bounds[i] = AABBFromPoints(a, b, c)
	}
	m.tree = buildStaticTree(bounds)
	m.aabb = bounds[0]
	for _, b := range bounds[1:] {
		m.aabb = m.aabb.Union(b)
	}

	return m, nil
}

func (m *TriMesh) triangle(i int) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	tri := m.indices[i]
	return m.vertices[tri[0]], m.vertices[tri[1]], m.vertices[tri[2]]
}

func (m *TriMesh) Kind() Kind { return KindTriMesh }

func (m *TriMesh) IsConvex() bool { return false }

func (m *TriMesh) CCDThickness() float64 { return 0 }

func (m *TriMesh) LocalAABB() AABB { return m.aabb }

func (m *TriMesh) AABB(iso Isometry) AABB { return m.aabb.Transform(iso) }

// MassProperties is zero: meshes are boundaries.
func (m *TriMesh) MassProperties(float64) MassProperties { return MassProperties{} }

func (m *TriMesh) NumParts() int { return len(m.indices) }

// Part returns the i-th triangle as a standalone shape. The value is freshly
// built so concurrent queries on the same mesh never share part state.
func (m *TriMesh) Part(i int) (Isometry, Shape) {
	a, b, c := m.triangle(i)
	return Identity(), &Triangle{A: a, B: b, C: c}
}

func (m *TriMesh) PartsOverlapping(aabb AABB, f func(i int) bool) {
	m.tree.queryAABB(aabb, f)
}

// CastRayLocal returns the nearest triangle hit, descending the internal
// tree ordered by entry distance.
func (m *TriMesh) CastRayLocal(ray Ray, maxTOI float64, _ bool) (RayHit, bool) {
	var bestNormal mgl64.Vec3

	toi, ok := m.tree.castRay(ray, maxTOI, func(i int, cutoff float64) float64 {
		a, b, c := m.triangle(i)
		tri := Triangle{A: a, B: b, C: c}
		hit, ok := tri.CastRayLocal(ray, cutoff, false)
		if !ok {
			return -1
		}
		bestNormal = hit.Normal
		return hit.TOI
	})
	if !ok {
		return RayHit{}, false
	}
	return RayHit{TOI: toi, Normal: bestNormal}, true
}
