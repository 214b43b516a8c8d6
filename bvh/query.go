package bvh

import (
	"github.com/akmonengine/quill/geom"
)

// QueryAABB calls emit for every proxy whose fat bounds overlap aabb,
// pruning subtrees whose bounds miss it. emit returns false to stop the
// query early.
func (t *Tree) QueryAABB(aabb geom.AABB, emit func(proxy int) bool) {
	if t.root == nullNode {
		return
	}

	stack := make([]int, 0, 64)
	stack = append(stack, t.root)
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[index]
		if !n.aabb.Overlaps(aabb) {
			continue
		}
		if n.isLeaf() {
			if !emit(index) {
				return
			}
			continue
		}
		stack = append(stack, n.child1, n.child2)
	}
}

// Pairs traverses the tree against itself and calls emit exactly once for
// every unordered pair of proxies whose fat bounds overlap. Overlap of fat
// bounds is a broad-phase candidate, not a collision: false positives are
// expected, false negatives are not.
func (t *Tree) Pairs(emit func(a, b int)) {
	if t.root == nullNode || t.nodes[t.root].isLeaf() {
		return
	}

	type nodePair struct{ a, b int }
	stack := make([]nodePair, 0, 128)
	stack = append(stack, nodePair{t.root, t.root})

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.a == p.b {
			// Self pair: recurse into the children and their cross pair.
			n := &t.nodes[p.a]
			if n.isLeaf() {
				continue
			}
			stack = append(stack,
				nodePair{n.child1, n.child1},
				nodePair{n.child2, n.child2},
				nodePair{n.child1, n.child2},
			)
			continue
		}

		na := &t.nodes[p.a]
		nb := &t.nodes[p.b]
		if !na.aabb.Overlaps(nb.aabb) {
			continue
		}

		switch {
		case na.isLeaf() && nb.isLeaf():
			emit(p.a, p.b)
		case na.isLeaf():
			stack = append(stack, nodePair{p.a, nb.child1}, nodePair{p.a, nb.child2})
		default:
			// Descend the first node; descending the larger subtree first
			// would also work, symmetry makes no difference to the output.
			stack = append(stack, nodePair{na.child1, p.b}, nodePair{na.child2, p.b})
		}
	}
}

// CastRay walks the tree along a ray, visiting subtrees in entry-distance
// order and skipping any whose bounds the ray misses. For each candidate
// leaf it calls emit(proxy, maxTOI); the callback returns the new cutoff
// distance: return a smaller value to shrink the search (typically the hit
// distance), 0 to terminate, or a negative value to leave the cutoff
// unchanged.
func (t *Tree) CastRay(ray geom.Ray, maxTOI float64, emit func(proxy int, maxTOI float64) float64) {
	if t.root == nullNode {
		return
	}

	cutoff := maxTOI

	var descend func(index int) bool
	descend = func(index int) bool {
		n := &t.nodes[index]
		entry, ok := n.aabb.RayCast(ray, cutoff)
		if !ok || entry > cutoff {
			return true
		}

		if n.isLeaf() {
			next := emit(index, cutoff)
			if next == 0 {
				return false
			}
			if next > 0 {
				cutoff = next
			}
			return true
		}

		// Order children by entry distance so near hits shrink the cutoff
		// before the far subtree is considered.
		e1, ok1 := t.nodes[n.child1].aabb.RayCast(ray, cutoff)
		e2, ok2 := t.nodes[n.child2].aabb.RayCast(ray, cutoff)
		first, second := n.child1, n.child2
		if ok2 && (!ok1 || e2 < e1) {
			first, second = second, first
		}
		if !descend(first) {
			return false
		}
		return descend(second)
	}
	descend(t.root)
}
