// Package bvh implements a dynamic bounding volume hierarchy: a binary tree
// of axis-aligned boxes used by the broad phase to propose candidate pairs
// and to accelerate ray queries.
//
// Nodes live in an arena and reference each other by index, so the tree can
// grow, rebalance and rebuild without invalidating the proxy indices handed
// to callers. Leaves store bounds fattened by a margin: small motions stay
// inside the fat box and cost nothing.
//
// The tree supports concurrent read-only queries. Mutations (insert, remove,
// move, rebuild) require exclusive access; callers serialize them relative
// to queries.
//
// References:
//   - Ericson: "Real-Time Collision Detection" (2005), chapter 6
//   - the dynamic AABB trees popularized by Box2D and Bullet
package bvh

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const nullNode = -1

// displacementMultiplier stretches a moved leaf's fat box along its
// displacement, predicting the next step's position.
const displacementMultiplier = 2.0

type node struct {
	aabb     geom.AABB
	userData any

	// parent doubles as the free-list link for unused nodes.
	parent int
	child1 int
	child2 int

	// height is 0 for leaves, -1 for free nodes.
	height int
}

func (n *node) isLeaf() bool { return n.child1 == nullNode }

// Tree is a dynamic AABB tree. The zero value is not usable; call NewTree.
type Tree struct {
	nodes    []node
	root     int
	freeList int
	count    int
	margin   float64
}

// NewTree creates an empty tree. margin is the amount by which leaf bounds
// are fattened on every side; it must be non-negative.
func NewTree(margin float64) *Tree {
	t := &Tree{root: nullNode, freeList: nullNode, margin: math.Max(0, margin)}
	t.grow(16)
	return t
}

// Margin returns the leaf fattening margin.
func (t *Tree) Margin() float64 { return t.margin }

// Count returns the number of live proxies.
func (t *Tree) Count() int { return t.count }

// grow extends the arena and threads the new nodes onto the free list.
func (t *Tree) grow(capacity int) {
	start := len(t.nodes)
	if capacity <= start {
		return
	}
	t.nodes = append(t.nodes, make([]node, capacity-start)...)
	for i := start; i < len(t.nodes); i++ {
		t.nodes[i].parent = i + 1
		t.nodes[i].height = -1
		t.nodes[i].child1 = nullNode
		t.nodes[i].child2 = nullNode
	}
	t.nodes[len(t.nodes)-1].parent = t.freeList
	t.freeList = start
}

func (t *Tree) allocateNode() int {
	if t.freeList == nullNode {
		t.grow(2 * len(t.nodes))
	}
	index := t.freeList
	t.freeList = t.nodes[index].parent
	n := &t.nodes[index]
	n.parent = nullNode
	n.child1 = nullNode
	n.child2 = nullNode
	n.height = 0
	n.userData = nil
	return index
}

func (t *Tree) freeNode(index int) {
	t.nodes[index].parent = t.freeList
	t.nodes[index].height = -1
	t.nodes[index].userData = nil
	t.freeList = index
}

// CreateProxy inserts a leaf for the given tight bounds and returns its
// proxy index. The stored bounds are fattened by the tree margin.
func (t *Tree) CreateProxy(aabb geom.AABB, userData any) int {
	proxy := t.allocateNode()
	t.nodes[proxy].aabb = aabb.Loosened(t.margin)
	t.nodes[proxy].userData = userData
	t.insertLeaf(proxy)
	t.count++
	return proxy
}

// DestroyProxy removes a leaf from the tree and recycles its node. The
// proxy index may be reused by a later CreateProxy.
func (t *Tree) DestroyProxy(proxy int) {
	t.removeLeaf(proxy)
	t.freeNode(proxy)
	t.count--
}

// MoveProxy updates a leaf with new tight bounds. When the new bounds still
// fit inside the stored fat box the tree is untouched and MoveProxy reports
// false. Otherwise the leaf is reinserted with its fat box stretched along
// displacement, and MoveProxy reports true.
func (t *Tree) MoveProxy(proxy int, aabb geom.AABB, displacement mgl64.Vec3) bool {
	if t.nodes[proxy].aabb.Contains(aabb) {
		return false
	}

	t.removeLeaf(proxy)
	fat := aabb.Loosened(t.margin).Stretched(displacement.Mul(displacementMultiplier))
	t.nodes[proxy].aabb = fat
	t.insertLeaf(proxy)
	return true
}

// Refit widens the ancestors of a leaf so they contain the given bounds,
// walking up from the leaf and stopping as soon as an ancestor already
// contains the update. Refit never restructures the tree: balance may
// degrade, correctness cannot.
func (t *Tree) Refit(proxy int, aabb geom.AABB) {
	fat := aabb.Loosened(t.margin)
	t.nodes[proxy].aabb = t.nodes[proxy].aabb.Union(fat)

	for index := t.nodes[proxy].parent; index != nullNode; index = t.nodes[index].parent {
		n := &t.nodes[index]
		if n.aabb.Contains(fat) {
			break
		}
		n.aabb = n.aabb.Union(fat)
	}
}

// UserData returns the value stored with a proxy.
func (t *Tree) UserData(proxy int) any { return t.nodes[proxy].userData }

// FatAABB returns the proxy's stored (fattened) bounds.
func (t *Tree) FatAABB(proxy int) geom.AABB { return t.nodes[proxy].aabb }

// insertLeaf descends from the root choosing at each node the child whose
// bounds grow the least (surface-area heuristic), makes a new parent for the
// chosen sibling, then walks back up refitting and rebalancing.
func (t *Tree) insertLeaf(leaf int) {
	if t.root == nullNode {
		t.root = leaf
		t.nodes[leaf].parent = nullNode
		return
	}

	leafAABB := t.nodes[leaf].aabb
	index := t.root
	for !t.nodes[index].isLeaf() {
		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2

		area := t.nodes[index].aabb.SurfaceArea()
		combinedArea := t.nodes[index].aabb.Union(leafAABB).SurfaceArea()

		// Cost of making a new parent for this node and the leaf.
		cost := 2 * combinedArea
		// Minimum cost of pushing the leaf further down the tree.
		inheritance := 2 * (combinedArea - area)

		cost1 := descendCost(t.nodes[child1], leafAABB) + inheritance
		cost2 := descendCost(t.nodes[child2], leafAABB) + inheritance

		if cost < cost1 && cost < cost2 {
			break
		}
		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index
	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	t.nodes[newParent].parent = oldParent
	t.nodes[newParent].aabb = leafAABB.Union(t.nodes[sibling].aabb)
	t.nodes[newParent].height = t.nodes[sibling].height + 1

	if oldParent != nullNode {
		if t.nodes[oldParent].child1 == sibling {
			t.nodes[oldParent].child1 = newParent
		} else {
			t.nodes[oldParent].child2 = newParent
		}
	} else {
		t.root = newParent
	}
	t.nodes[newParent].child1 = sibling
	t.nodes[newParent].child2 = leaf
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	t.fixUpward(t.nodes[leaf].parent)
}

// descendCost estimates the cost of sinking the leaf into child.
func descendCost(child node, leafAABB geom.AABB) float64 {
	combined := child.aabb.Union(leafAABB).SurfaceArea()
	if child.isLeaf() {
		return combined
	}
	return combined - child.aabb.SurfaceArea()
}

func (t *Tree) removeLeaf(leaf int) {
	if leaf == t.root {
		t.root = nullNode
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	sibling := t.nodes[parent].child1
	if sibling == leaf {
		sibling = t.nodes[parent].child2
	}

	if grandParent == nullNode {
		t.root = sibling
		t.nodes[sibling].parent = nullNode
		t.freeNode(parent)
		return
	}

	// Splice the sibling into the grandparent and refit upward.
	if t.nodes[grandParent].child1 == parent {
		t.nodes[grandParent].child1 = sibling
	} else {
		t.nodes[grandParent].child2 = sibling
	}
	t.nodes[sibling].parent = grandParent
	t.freeNode(parent)

	t.fixUpward(grandParent)
}

// fixUpward rebalances and refits every ancestor from index to the root.
func (t *Tree) fixUpward(index int) {
	for index != nullNode {
		index = t.balance(index)

		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2
		t.nodes[index].height = 1 + max(t.nodes[child1].height, t.nodes[child2].height)
		t.nodes[index].aabb = t.nodes[child1].aabb.Union(t.nodes[child2].aabb)

		index = t.nodes[index].parent
	}
}

// balance performs an AVL-style rotation at node a if its subtrees' heights
// differ by more than one, and returns the index of the subtree root after
// the rotation.
func (t *Tree) balance(a int) int {
	nodeA := &t.nodes[a]
	if nodeA.isLeaf() || nodeA.height < 2 {
		return a
	}

	b := nodeA.child1
	c := nodeA.child2
	diff := t.nodes[c].height - t.nodes[b].height

	if diff > 1 {
		return t.rotate(a, c, b)
	}
	if diff < -1 {
		return t.rotate(a, b, c)
	}
	return a
}

// rotate lifts child up above a, pushing the shorter grandchild of child
// down in its place. sibling is a's other child.
func (t *Tree) rotate(a, child, sibling int) int {
	f := t.nodes[child].child1
	g := t.nodes[child].child2
	if t.nodes[f].height < t.nodes[g].height {
		f, g = g, f
	}
	// f is now the taller grandchild: it stays under child, g moves under a.

	t.nodes[child].child1 = a
	t.nodes[child].parent = t.nodes[a].parent
	t.nodes[a].parent = child

	parent := t.nodes[child].parent
	if parent != nullNode {
		if t.nodes[parent].child1 == a {
			t.nodes[parent].child1 = child
		} else {
			t.nodes[parent].child2 = child
		}
	} else {
		t.root = child
	}

	t.nodes[child].child2 = f
	if t.nodes[a].child1 == child {
		t.nodes[a].child1 = g
	} else {
		t.nodes[a].child2 = g
	}
	t.nodes[g].parent = a

	t.nodes[a].aabb = t.nodes[sibling].aabb.Union(t.nodes[g].aabb)
	t.nodes[child].aabb = t.nodes[a].aabb.Union(t.nodes[f].aabb)
	t.nodes[a].height = 1 + max(t.nodes[sibling].height, t.nodes[g].height)
	t.nodes[child].height = 1 + max(t.nodes[a].height, t.nodes[f].height)

	return child
}

// Height returns the height of the tree (0 for a single leaf, -1 if empty).
func (t *Tree) Height() int {
	if t.root == nullNode {
		return -1
	}
	return t.nodes[t.root].height
}

// Quality measures how degraded the tree is: the total surface area of the
// internal nodes divided by the root's surface area. A freshly built tree
// over well-spread leaves scores low; repeated refits drive it up. Quality
// is a performance signal only, never a correctness one.
func (t *Tree) Quality() float64 {
	if t.root == nullNode {
		return 0
	}
	rootArea := t.nodes[t.root].aabb.SurfaceArea()
	if rootArea < 1e-18 {
		return 0
	}

	total := 0.0
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.height > 0 { // live internal node
			total += n.aabb.SurfaceArea()
		}
	}
	return total / rootArea
}

// Validate checks the structural invariants: parent/child symmetry, strict
// binary shape, height and bound consistency, and that every ancestor
// contains its descendants. It is meant for tests.
func (t *Tree) Validate() error {
	if t.root == nullNode {
		return nil
	}
	if t.nodes[t.root].parent != nullNode {
		return fmt.Errorf("bvh: root %d has a parent", t.root)
	}

	leaves := 0
	var walk func(index int) error
	walk = func(index int) error {
		n := &t.nodes[index]
		if n.height < 0 {
			return fmt.Errorf("bvh: node %d is on the free list but reachable", index)
		}
		if n.isLeaf() {
			if n.child2 != nullNode || n.height != 0 {
				return fmt.Errorf("bvh: malformed leaf %d", index)
			}
			leaves++
			return nil
		}

		c1, c2 := n.child1, n.child2
		if t.nodes[c1].parent != index || t.nodes[c2].parent != index {
			return fmt.Errorf("bvh: node %d children disown it", index)
		}
		if n.height != 1+max(t.nodes[c1].height, t.nodes[c2].height) {
			return fmt.Errorf("bvh: node %d has stale height", index)
		}
		if !n.aabb.Contains(t.nodes[c1].aabb) || !n.aabb.Contains(t.nodes[c2].aabb) {
			return fmt.Errorf("bvh: node %d does not contain its children", index)
		}
		if err := walk(c1); err != nil {
			return err
		}
		return walk(c2)
	}
	if err := walk(t.root); err != nil {
		return err
	}
	if leaves != t.count {
		return fmt.Errorf("bvh: reachable leaves %d != proxy count %d", leaves, t.count)
	}
	return nil
}
