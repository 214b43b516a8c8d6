package geom

import "sort"

// staticTree is an immutable median-split AABB tree over a fixed set of
// primitives, bulk-built once at shape construction. Triangle meshes and
// height fields use it to cull parts and to order ray descents; it is never
// refit, which keeps it free of the dynamic tree's bookkeeping.
type staticTree struct {
	nodes []staticNode
	// order is the permutation of primitive indices grouped by leaf.
	order []int
}

type staticNode struct {
	aabb AABB
	// Internal nodes store children; leaves store a range of order.
	left, right  int
	start, count int
}

const staticLeafSize = 4

// buildStaticTree builds the tree from per-primitive bounds. bounds is not
// retained.
func buildStaticTree(bounds []AABB) *staticTree {
	t := &staticTree{
		nodes: make([]staticNode, 0, 2*len(bounds)),
		order: make([]int, len(bounds)),
	}
	for i := range t.order {
		t.order[i] = i
	}
	if len(bounds) > 0 {
		t.build(bounds, 0, len(bounds))
	}
	return t
}

// build recursively splits order[start:end] at the median of the widest axis
// and returns the created node index.
func (t *staticTree) build(bounds []AABB, start, end int) int {
	aabb := bounds[t.order[start]]
	for _, i := range t.order[start+1 : end] {
		aabb = aabb.Union(bounds[i])
	}

	index := len(t.nodes)
	t.nodes = append(t.nodes, staticNode{aabb: aabb, left: -1, right: -1})

	if end-start <= staticLeafSize {
		t.nodes[index].start = start
		t.nodes[index].count = end - start
		return index
	}

	extent := aabb.Max.Sub(aabb.Min)
	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	slice := t.order[start:end]
	sort.Slice(slice, func(i, j int) bool {
		return bounds[slice[i]].Center()[axis] < bounds[slice[j]].Center()[axis]
	})

	mid := start + (end-start)/2
	left := t.build(bounds, start, mid)
	right := t.build(bounds, mid, end)
	t.nodes[index].left = left
	t.nodes[index].right = right
	return index
}

// queryAABB calls f for every primitive whose leaf bounds overlap aabb.
// f returns false to stop the traversal.
func (t *staticTree) queryAABB(aabb AABB, f func(primitive int) bool) {
	if len(t.nodes) == 0 {
		return
	}

	stack := make([]int, 0, 32)
	stack = append(stack, 0)
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &t.nodes[index]
		if !node.aabb.Overlaps(aabb) {
			continue
		}
		if node.left < 0 {
			for _, prim := range t.order[node.start : node.start+node.count] {
				if !f(prim) {
					return
				}
			}
			continue
		}
		stack = append(stack, node.left, node.right)
	}
}

// castRay descends near-child-first and calls hit for candidate primitives.
// hit returns the primitive's time of impact, or a negative value on miss;
// the traversal shrinks its cutoff to the best hit found so far.
func (t *staticTree) castRay(ray Ray, maxTOI float64, hit func(primitive int, maxTOI float64) float64) (float64, bool) {
	if len(t.nodes) == 0 {
		return 0, false
	}

	best := maxTOI
	found := false

	var descend func(index int)
	descend = func(index int) {
		node := &t.nodes[index]
		entry, ok := node.aabb.RayCast(ray, best)
		if !ok || entry > best {
			return
		}
		if node.left < 0 {
			for _, prim := range t.order[node.start : node.start+node.count] {
				if toi := hit(prim, best); toi >= 0 && toi <= best {
					best = toi
					found = true
				}
			}
			return
		}

		// Visit the child the ray enters first; the second visit prunes
		// against the updated cutoff.
		leftEntry, leftOK := t.nodes[node.left].aabb.RayCast(ray, best)
		rightEntry, rightOK := t.nodes[node.right].aabb.RayCast(ray, best)
		first, second := node.left, node.right
		if rightOK && (!leftOK || rightEntry < leftEntry) {
			first, second = node.right, node.left
		}
		if leftOK || rightOK {
			descend(first)
			descend(second)
		}
	}
	descend(0)

	if !found {
		return 0, false
	}
	return best, true
}
