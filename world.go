package quill

import (
	"github.com/akmonengine/quill/bvh"
	"github.com/akmonengine/quill/geom"
	"github.com/google/uuid"
)

const defaultWorkers = 1

// Collider is a shape registered in a World. Identity is the UUID, not the
// BVH proxy: proxies are recycled through a free list, UUIDs never are, so
// pair keys built from them stay stable across removes and inserts.
type Collider struct {
	id       uuid.UUID
	shape    geom.Shape
	iso      geom.Isometry
	proxy    int
	UserData any
}

func (c *Collider) ID() uuid.UUID           { return c.id }
func (c *Collider) Shape() geom.Shape       { return c.shape }
func (c *Collider) Isometry() geom.Isometry { return c.iso }

// ColliderPair is one broad-phase candidate: the fat bounds overlap, the
// shapes may or may not.
type ColliderPair struct {
	A *Collider
	B *Collider
}

// World maintains a set of colliders and a bounding volume hierarchy over
// them, and answers queries against the whole set.
//
// A World is single-writer: Add, Remove, SetIsometry and Update must not
// race with anything else. Contacts fans its narrow phase out over Workers
// goroutines internally; the World itself holds no locks.
type World struct {
	cfg       Config
	tree      *bvh.Tree
	colliders map[uuid.UUID]*Collider

	// Workers sizes the narrow-phase worker pool. Zero means 1.
	Workers int

	Events Events
}

// NewWorld builds an empty world with the given tuning.
func NewWorld(cfg Config) *World {
	return &World{
		cfg:       cfg,
		tree:      bvh.NewTree(cfg.bvhMargin()),
		colliders: make(map[uuid.UUID]*Collider),
		Events:    NewEvents(),
	}
}

// Config returns the tuning the world was built with.
func (w *World) Config() Config { return w.cfg }

// Tree exposes the broad-phase tree, read-only: quality and height metrics,
// direct AABB queries.
func (w *World) Tree() *bvh.Tree { return w.tree }

// Count returns the number of registered colliders.
func (w *World) Count() int { return len(w.colliders) }

// Add registers a shape at a pose and returns its collider handle.
func (w *World) Add(shape geom.Shape, iso geom.Isometry, userData any) *Collider {
	c := &Collider{
		id:       uuid.New(),
		shape:    shape,
		iso:      iso,
		UserData: userData,
	}
	c.proxy = w.tree.CreateProxy(shape.AABB(iso), c)
	w.colliders[c.id] = c
	return c
}

// Remove unregisters a collider and drops its pair history.
func (w *World) Remove(c *Collider) {
	if _, ok := w.colliders[c.id]; !ok {
		return
	}
	w.tree.DestroyProxy(c.proxy)
	delete(w.colliders, c.id)
	w.Events.forget(c.id)
}

// SetIsometry moves a collider. The tree leaf only relocates when the new
// bounds escape the fat box, so small jitters are free.
func (w *World) SetIsometry(c *Collider, iso geom.Isometry) {
	displacement := iso.Translation.Sub(c.iso.Translation)
	c.iso = iso
	w.tree.MoveProxy(c.proxy, c.shape.AABB(iso), displacement)
}

// Update performs per-step tree maintenance: a rebuild when incremental
// updates have degraded the tree past the quality threshold.
func (w *World) Update() {
	w.tree.MaybeRebuild(w.cfg.rebuildThreshold())
}

// Pairs returns the broad-phase candidate pairs, each unordered pair once.
func (w *World) Pairs() []ColliderPair {
	pairs := make([]ColliderPair, 0, w.tree.Count())
	w.tree.Pairs(func(a, b int) {
		pairs = append(pairs, ColliderPair{
			A: w.tree.UserData(a).(*Collider),
			B: w.tree.UserData(b).(*Collider),
		})
	})
	return pairs
}

// CastRay finds the first collider hit by a world ray, walking the tree in
// entry order so near hits prune far subtrees.
func (w *World) CastRay(ray geom.Ray, maxTOI float64, solid bool) (*Collider, geom.RayHit, bool) {
	var bestCollider *Collider
	var bestHit geom.RayHit
	found := false

	w.tree.CastRay(ray, maxTOI, func(proxy int, cutoff float64) float64 {
		c := w.tree.UserData(proxy).(*Collider)
		hit, ok := castShape(ray, c.shape, c.iso, cutoff, solid, w.cfg)
		if !ok {
			return -1
		}
		if !found || hit.TOI < bestHit.TOI {
			bestCollider, bestHit, found = c, hit, true
		}
		// The hit distance becomes the new cutoff; a zero-distance hit
		// terminates the walk outright.
		return hit.TOI
	})
	return bestCollider, bestHit, found
}
