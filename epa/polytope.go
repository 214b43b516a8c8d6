package epa

import (
	"container/heap"
	"math"
	"sync"

	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// face is one triangle of the expanding polytope. Vertices are indices into
// the polytope's vertex arena so faces stay valid as the arena grows.
type face struct {
	verts  [3]int
	normal mgl64.Vec3 // unit, outward
	dist   float64    // distance from the origin to the face plane

	heapIndex int
	removed   bool
}

// faceQueue is a min-heap of faces ordered by distance to the origin.
// Removed faces stay in the heap and are skipped on pop (lazy deletion).
type faceQueue []*face

func (q faceQueue) Len() int            { return len(q) }
func (q faceQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q faceQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].heapIndex = i; q[j].heapIndex = j }
func (q *faceQueue) Push(x any)         { f := x.(*face); f.heapIndex = len(*q); *q = append(*q, f) }
func (q *faceQueue) Pop() any           { old := *q; n := len(old); f := old[n-1]; *q = old[:n-1]; return f }

// edgeEntry counts occurrences of an edge among the visible faces. An edge
// seen exactly once borders the horizon; edges seen twice are interior to
// the removed region.
type edgeEntry struct {
	a, b  int
	count int
}

// polytope is the EPA working state: a vertex arena shared by all faces, the
// live faces, and the priority queue driving the expansion.
type polytope struct {
	verts    []gjk.SupportPoint
	faces    []*face
	queue    faceQueue
	edges    []edgeEntry
	visible  []*face
	interior mgl64.Vec3
}

// polytopePool recycles polytopes across calls; penetration queries run on
// the hot path and must not allocate their working state every time.
var polytopePool = sync.Pool{
	New: func() any {
		return &polytope{
			verts:   make([]gjk.SupportPoint, 0, 16),
			faces:   make([]*face, 0, 32),
			queue:   make(faceQueue, 0, 32),
			edges:   make([]edgeEntry, 0, 16),
			visible: make([]*face, 0, 16),
		}
	},
}

func (p *polytope) reset() {
	p.verts = p.verts[:0]
	p.faces = p.faces[:0]
	p.queue = p.queue[:0]
	p.edges = p.edges[:0]
	p.visible = p.visible[:0]
}

// addVertex appends a support point to the arena and returns its index.
func (p *polytope) addVertex(sp gjk.SupportPoint) int {
	p.verts = append(p.verts, sp)
	return len(p.verts) - 1
}

// addFace builds a face over three vertex indices, oriented outward
// relative to the polytope's interior point, and pushes it on the queue.
// Degenerate (zero-area) triangles are dropped.
func (p *polytope) addFace(i, j, k int) {
	a := p.verts[i].W
	b := p.verts[j].W
	c := p.verts[k].W

	normal := b.Sub(a).Cross(c.Sub(a))
	lenSqr := normal.Dot(normal)
	if lenSqr < 1e-24 {
		return
	}
	normal = normal.Mul(1 / math.Sqrt(lenSqr))

	// Outward means away from the interior reference point.
	if normal.Dot(a.Sub(p.interior)) < 0 {
		normal = normal.Mul(-1)
		j, k = k, j
	}

	dist := normal.Dot(a)
	if dist < 0 {
		// The origin sits marginally outside this plane; clamp so the
		// queue ordering stays sane.
		dist = 0
	}

	f := &face{verts: [3]int{i, j, k}, normal: normal, dist: dist}
	p.faces = append(p.faces, f)
	heap.Push(&p.queue, f)
}

// buildInitial seeds the polytope from a tetrahedron of support points.
// It reports false when the tetrahedron is too flat to enclose anything.
func (p *polytope) buildInitial(tetra [4]gjk.SupportPoint) bool {
	a, b, c, d := tetra[0].W, tetra[1].W, tetra[2].W, tetra[3].W
	volume := b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a))
	if math.Abs(volume) < 1e-18 {
		return false
	}

	p.interior = a.Add(b).Add(c).Add(d).Mul(0.25)

	for _, sp := range tetra {
		p.addVertex(sp)
	}
	p.addFace(0, 1, 2)
	p.addFace(0, 2, 3)
	p.addFace(0, 3, 1)
	p.addFace(1, 3, 2)

	return len(p.faces) == 4
}

// popClosest returns the live face closest to the origin, skipping faces
// removed by earlier expansions.
func (p *polytope) popClosest() *face {
	for p.queue.Len() > 0 {
		f := heap.Pop(&p.queue).(*face)
		if !f.removed {
			return f
		}
	}
	return nil
}

// expand grows the polytope toward a new support point: every face visible
// from the point is removed and the horizon of the removed region is
// re-fanned onto the point.
func (p *polytope) expand(sp gjk.SupportPoint) {
	w := sp.W

	// Collect visible faces.
	p.visible = p.visible[:0]
	for _, f := range p.faces {
		if f.removed {
			continue
		}
		if f.normal.Dot(w.Sub(p.verts[f.verts[0]].W)) > 1e-12 {
			p.visible = append(p.visible, f)
		}
	}
	if len(p.visible) == 0 {
		return
	}

	// Count edges of the visible region; boundary edges appear once.
	p.edges = p.edges[:0]
	for _, f := range p.visible {
		p.countEdge(f.verts[0], f.verts[1])
		p.countEdge(f.verts[1], f.verts[2])
		p.countEdge(f.verts[2], f.verts[0])
	}

	for _, f := range p.visible {
		f.removed = true
	}

	// Fan the horizon onto the new vertex.
	newVert := p.addVertex(sp)
	for _, e := range p.edges {
		if e.count == 1 {
			p.addFace(e.a, e.b, newVert)
		}
	}
}

// countEdge records one occurrence of the undirected edge (a, b).
func (p *polytope) countEdge(a, b int) {
	if a > b {
		a, b = b, a
	}
	for i := range p.edges {
		if p.edges[i].a == a && p.edges[i].b == b {
			p.edges[i].count++
			return
		}
	}
	p.edges = append(p.edges, edgeEntry{a: a, b: b, count: 1})
}
