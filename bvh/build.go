package bvh

import (
	"sort"

	"github.com/akmonengine/quill/geom"
)

// Leaf describes one shape to index during a bulk build.
type Leaf struct {
	AABB     geom.AABB
	UserData any
}

// Build bulk-builds a tree over the given leaves by recursive median split
// on the axis of greatest extent, producing a tree of logarithmic depth.
// The returned proxy indices correspond to leaves in input order.
func Build(leaves []Leaf, margin float64) (*Tree, []int) {
	t := NewTree(margin)
	proxies := make([]int, len(leaves))
	if len(leaves) == 0 {
		return t, proxies
	}

	// Allocate every leaf node first so proxy indices are stable, then
	// build the internal structure over them.
	order := make([]int, len(leaves))
	for i, leaf := range leaves {
		proxy := t.allocateNode()
		t.nodes[proxy].aabb = leaf.AABB.Loosened(margin)
		t.nodes[proxy].userData = leaf.UserData
		proxies[i] = proxy
		order[i] = proxy
	}
	t.count = len(leaves)

	t.root = t.buildRange(order)
	t.nodes[t.root].parent = nullNode
	return t, proxies
}

// buildRange builds a subtree over the given leaf nodes and returns its root.
func (t *Tree) buildRange(order []int) int {
	if len(order) == 1 {
		return order[0]
	}

	bounds := t.nodes[order[0]].aabb
	for _, proxy := range order[1:] {
		bounds = bounds.Union(t.nodes[proxy].aabb)
	}

	extent := bounds.Max.Sub(bounds.Min)
	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	sort.Slice(order, func(i, j int) bool {
		return t.nodes[order[i]].aabb.Center()[axis] < t.nodes[order[j]].aabb.Center()[axis]
	})

	mid := len(order) / 2
	child1 := t.buildRange(order[:mid])
	child2 := t.buildRange(order[mid:])

	parent := t.allocateNode()
	t.nodes[parent].child1 = child1
	t.nodes[parent].child2 = child2
	t.nodes[parent].aabb = bounds
	t.nodes[parent].height = 1 + max(t.nodes[child1].height, t.nodes[child2].height)
	t.nodes[child1].parent = parent
	t.nodes[child2].parent = parent
	return parent
}

// RebuildBottomUp discards the internal structure and rebuilds it over the
// surviving leaves. Proxy indices are preserved: only internal nodes are
// recycled.
func (t *Tree) RebuildBottomUp() {
	if t.root == nullNode {
		return
	}

	// Collect live leaves and free every internal node.
	order := make([]int, 0, t.count)
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.height < 0 {
			continue
		}
		if n.isLeaf() {
			n.parent = nullNode
			order = append(order, i)
		} else {
			t.freeNode(i)
		}
	}

	if len(order) == 0 {
		t.root = nullNode
		return
	}
	t.root = t.buildRange(order)
	t.nodes[t.root].parent = nullNode
}

// MaybeRebuild triggers a full rebuild when Quality exceeds threshold, and
// reports whether it did. The threshold is a tuning knob: rebuilding more
// often trades update cost for query cost.
func (t *Tree) MaybeRebuild(threshold float64) bool {
	if threshold <= 0 || t.Quality() <= threshold {
		return false
	}
	t.RebuildBottomUp()
	return true
}
