package quill

import (
	"bytes"
	"sort"
	"sync"

	"github.com/akmonengine/quill/contact"
)

// Contacts runs the full detection step: broad-phase candidates from the
// tree, narrow phase fanned out over the worker pool, touching pairs recorded
// for the event tracker. The result is sorted by pair key so identical worlds
// produce identical output regardless of goroutine scheduling.
func (w *World) Contacts(margin float64) []contact.Manifold {
	workersCount := max(defaultWorkers, w.Workers)
	pairs := w.Pairs()

	var mu sync.Mutex
	contacts := make([]contact.Manifold, 0, len(pairs))

	task(workersCount, pairs, func(pair ColliderPair) {
		a, b := pair.A, pair.B
		m, found := dispatchContact(a.shape, a.iso, b.shape, b.iso, margin, w.cfg)
		if !found {
			return
		}
		// Orient the manifold so its A side matches Key.A.
		if bytes.Compare(a.id[:], b.id[:]) > 0 {
			m = flipManifold(m)
		}
		m.Key = contact.MakePairKey(a.id, b.id)

		mu.Lock()
		contacts = append(contacts, m)
		mu.Unlock()
	})

	sort.Slice(contacts, func(i, j int) bool {
		if c := bytes.Compare(contacts[i].Key.A[:], contacts[j].Key.A[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(contacts[i].Key.B[:], contacts[j].Key.B[:]) < 0
	})

	for i := range contacts {
		key := contacts[i].Key
		w.Events.record(key, w.colliders[key.A], w.colliders[key.B])
	}
	return contacts
}
