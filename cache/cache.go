package cache

import (
	"sort"
	"sync/atomic"

	"github.com/knoepfel/concurrent-cache/internal/util"
	"github.com/knoepfel/concurrent-cache/internal/xmap"
)

// Cache is a concurrent, reference-counted cache: every value it hands
// out is pinned against eviction for as long as the caller holds the
// Handle it was returned in. It owns a primary map (key -> entry) and an
// auxiliary map (key -> counter) that lets retention inspect use counts
// without touching the primary map's write positions for unrelated keys.
//
// All methods except Compact are safe to call concurrently with one
// another and with themselves.
type Cache[K comparable, V any] struct {
	primary *xmap.Map[K, *entry[V]]
	aux     *xmap.Map[K, *counter]
	// nextSeq is padded to its own cache line: every InsertOrGet on a
	// miss contends on it, so it would otherwise false-share with the
	// metrics/shards fields below under heavy insert traffic.
	nextSeq util.PaddedAtomicUint64
	_       util.CacheLinePad
	metrics Metrics
	shards  int

	// compacting is rare (Compact is exclusive-access, not hot-path) but
	// still padded off nextSeq so a stray Compact call never shares a
	// line with the counter every InsertOrGet touches.
	_          util.CacheLinePad
	compacting atomic.Bool
}

// New constructs an empty Cache. A zero Options value is valid: it
// resolves to a single unstriped pair of maps and NoopMetrics.
func New[K comparable, V any](opt Options[K, V]) *Cache[K, V] {
	metrics := opt.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Cache[K, V]{
		primary: xmap.New[K, *entry[V]](opt.Shards),
		aux:     xmap.New[K, *counter](opt.Shards),
		metrics: metrics,
		shards:  opt.Shards,
	}
}

// InsertOrGet inserts key -> value if key is absent, or returns a handle
// to the pre-existing entry if it is already present; it never replaces
// a stored value. Concurrent InsertOrGet calls on the same key are
// atomic with respect to one another: exactly one value is stored and
// every caller observes it.
//
// The returned handle's use-count increment happens while the candidate
// entry's write position into the primary map is still uncontested — the
// entry is pre-acquired before it is ever published, so no concurrent
// retention pass can observe it at zero before the caller's handle exists.
func (c *Cache[K, V]) InsertOrGet(key K, value V) Handle[V] {
	for {
		if e, ok := c.primary.Load(key); ok {
			if e.counter.tryAcquire() {
				c.metrics.Hit()
				return Handle[V]{e: e}
			}
			// e was retired by a concurrent retention pass but not yet
			// unlinked from the primary map; retry once it is gone.
			continue
		}

		seq := c.nextSeq.Add(1) - 1
		candidate := newEntry[V](value, seq)
		candidate.counter.tryAcquire() // pre-acquire before publication

		actual, loaded := c.primary.LoadOrStore(key, candidate)
		if loaded {
			candidate.counter.release()
			if actual.counter.tryAcquire() {
				c.metrics.Hit()
				return Handle[V]{e: actual}
			}
			continue
		}

		c.aux.Store(key, candidate.counter)
		c.metrics.Insert()
		return Handle[V]{e: candidate}
	}
}

// Get locates key in the primary map and, on hit, returns a handle to its
// entry; on miss it returns an invalid (null) handle. The handle's
// use-count increment happens while the entry is still known to be
// present, the same happens-before relationship InsertOrGet establishes.
func (c *Cache[K, V]) Get(key K) Handle[V] {
	e, ok := c.primary.Load(key)
	if !ok {
		c.metrics.Miss()
		return Handle[V]{}
	}
	if !e.counter.tryAcquire() {
		c.metrics.Miss()
		return Handle[V]{}
	}
	c.metrics.Hit()
	return Handle[V]{e: e}
}

// DropUnused erases every entry whose use count is currently zero. It is
// equivalent to DropUnusedKeepingLast(0).
func (c *Cache[K, V]) DropUnused() {
	c.DropUnusedKeepingLast(0)
}

// DropUnusedKeepingLast retains the n most recently created entries among
// those currently unused, and erases the rest. A negative n is clamped to
// 0 rather than indexing the sorted snapshot out of range. The snapshot of
// unused entries is taken from the auxiliary map — which concurrent
// InsertOrGet/Get calls on other keys never contend for — ordered by
// sequence number (newest first), so retention never serialises with
// ordinary traffic.
//
// A zero use count observed here is advisory: a concurrent Get or
// InsertOrGet may acquire a reference to the same entry before the erase
// step runs. Each erase therefore re-checks the counter immediately
// before removal (tryRetire), and skips any key whose count has risen
// above zero in the interim, closing that race.
func (c *Cache[K, V]) DropUnusedKeepingLast(n int) {
	if n < 0 {
		n = 0
	}
	type candidate struct {
		seq uint64
		key K
	}
	var unused []candidate
	c.aux.Range(func(key K, ct *counter) bool {
		if ct.load() == 0 {
			unused = append(unused, candidate{seq: ct.sequenceNumber, key: key})
		}
		return true
	})
	if len(unused) <= n {
		c.metrics.Retain(0, DropUnused)
		return
	}
	sort.Slice(unused, func(i, j int) bool {
		return unused[i].seq > unused[j].seq
	})

	dropped := 0
	for _, cand := range unused[n:] {
		if c.eraseIfStillUnused(cand.key) {
			dropped++
		}
	}
	c.metrics.Retain(dropped, DropUnused)
}

// eraseIfStillUnused retires and removes key's entry from the primary map,
// but only if its counter is still at zero at the instant of removal.
// tryRetire is the re-check: it atomically transitions 0 -> retired, so a
// concurrent tryAcquire that already bumped the count past zero causes this
// to fail cleanly, leaving the entry in place for its new holder.
func (c *Cache[K, V]) eraseIfStillUnused(key K) bool {
	e, ok := c.primary.Load(key)
	if !ok {
		return false
	}
	if !e.counter.tryRetire() {
		return false
	}
	c.primary.CompareAndDelete(key, e)
	return true
}

// Compact performs DropUnused, then rebuilds the auxiliary map from the
// live primary map so that orphan rows for long-erased keys are
// reclaimed. It is the only operation that narrows the auxiliary map.
//
// Compact requires exclusive access: the caller must ensure no other
// Cache method runs concurrently with it. This is enforced only
// best-effort, by a reentrancy flag that panics if two Compact calls
// overlap — it cannot and does not detect a concurrent Get/InsertOrGet/
// DropUnused racing with Compact, matching the single-threaded-only
// contract of the source this cache is modeled on.
func (c *Cache[K, V]) Compact() {
	if !c.compacting.CompareAndSwap(false, true) {
		panic("cache: concurrent Compact call detected")
	}
	defer c.compacting.Store(false)

	c.DropUnused()

	rebuilt := xmap.New[K, *counter](c.shards)
	c.primary.Range(func(key K, e *entry[V]) bool {
		rebuilt.Store(key, e.counter)
		return true
	})
	orphans := c.aux.Size() - rebuilt.Size()
	c.aux = rebuilt
	c.metrics.Retain(orphans, DropCompact)
	c.metrics.Size(c.Size(), c.Capacity())
}

// Size returns the number of entries currently resident in the cache.
func (c *Cache[K, V]) Size() int {
	return c.primary.Size()
}

// IsEmpty reports whether the cache currently holds no entries.
func (c *Cache[K, V]) IsEmpty() bool {
	return c.Size() == 0
}

// Capacity returns the auxiliary map's cardinality, which is always >=
// Size(); the excess measures reclaimable orphan rows left behind by
// retention until the next Compact.
func (c *Cache[K, V]) Capacity() int {
	return c.aux.Size()
}
