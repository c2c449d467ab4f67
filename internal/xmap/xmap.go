// Package xmap provides a small generic, optionally-striped wrapper
// around sync.Map.
//
// The cache package needs two properties that no concurrent map in the
// retrieval pack demonstrates together: per-key compare-and-swap /
// compare-and-delete (to implement the retention re-check correctly) and
// concurrent iteration with weak guarantees. sync.Map (Go 1.20+) provides
// both natively, so Map wraps it rather than re-deriving CAS atop a
// weaker third-party map.
package xmap

import (
	"sync"

	"github.com/knoepfel/concurrent-cache/internal/util"
)

// Map is a generic, type-safe view over one or more sync.Map instances.
// When Shards > 1, keys are distributed across independent sync.Map
// stripes by a fast hash: keys that land in different stripes never
// contend with one another, while distinct keys whose hashes map to the
// same stripe share that stripe's sync.Map.
type Map[K comparable, V any] struct {
	stripes []*sync.Map
}

// New constructs a Map. shards of 0 or 1 yields a single, unstriped
// sync.Map; larger values are rounded up to a power of two.
// A negative value asks for util.ReasonableShardCount's heuristic default
// (nextPow2(2*GOMAXPROCS), clamped to 256).
func New[K comparable, V any](shards int) *Map[K, V] {
	n := 1
	switch {
	case shards < 0:
		n = util.ReasonableShardCount()
	case shards > 1:
		n = int(util.NextPow2(uint64(shards)))
	}
	m := &Map[K, V]{stripes: make([]*sync.Map, n)}
	for i := range m.stripes {
		m.stripes[i] = &sync.Map{}
	}
	return m
}

func (m *Map[K, V]) stripeFor(key K) *sync.Map {
	if len(m.stripes) == 1 {
		return m.stripes[0]
	}
	return m.stripes[util.ShardIndex(util.Fnv64a(key), len(m.stripes))]
}

// Load returns the value stored for key, if any.
func (m *Map[K, V]) Load(key K) (V, bool) {
	v, ok := m.stripeFor(key).Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Store unconditionally sets the value for key, replacing any prior value.
func (m *Map[K, V]) Store(key K, value V) {
	m.stripeFor(key).Store(key, value)
}

// LoadOrStore returns the existing value for key if present; otherwise it
// stores and returns value. loaded reports which case occurred. Exactly
// one caller racing on the same key observes loaded == false.
func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	v, loaded := m.stripeFor(key).LoadOrStore(key, value)
	return v.(V), loaded
}

// CompareAndDelete deletes the entry for key if its current value is old,
// comparing by identity the same way sync.Map.CompareAndDelete does. It
// reports whether the delete took place.
func (m *Map[K, V]) CompareAndDelete(key K, old V) bool {
	return m.stripeFor(key).CompareAndDelete(key, old)
}

// Delete removes the entry for key unconditionally.
func (m *Map[K, V]) Delete(key K) {
	m.stripeFor(key).Delete(key)
}

// Range calls f for each key/value pair across all stripes. As with
// sync.Map.Range, iteration reflects no fixed snapshot: keys stored or
// deleted concurrently with a Range call may or may not be observed.
// Iteration stops early if f returns false.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	for _, s := range m.stripes {
		cont := true
		s.Range(func(k, v any) bool {
			if !f(k.(K), v.(V)) {
				cont = false
				return false
			}
			return true
		})
		if !cont {
			return
		}
	}
}

// Size returns the number of entries currently resident, counted by a
// full Range. This is O(n) and advisory, matching the cache's own
// Size/Capacity contract.
func (m *Map[K, V]) Size() int {
	n := 0
	m.Range(func(K, V) bool {
		n++
		return true
	})
	return n
}
