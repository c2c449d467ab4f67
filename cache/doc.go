// Package cache provides a concurrent, reference-counted cache: an
// in-process map from keys to immutable values that many goroutines may
// read and write in parallel, with the guarantee that a value observed
// through a live Handle cannot be evicted out from under its holder.
//
// Design
//
//   - Concurrency: the primary map (key -> entry) and the auxiliary map
//     (key -> counter) are independent concurrent maps (internal/xmap,
//     a generic wrapper over sync.Map) offering per-key exclusive write
//     positions and concurrent iteration. Retention traverses only the
//     auxiliary map, so it never serialises with ordinary InsertOrGet/Get
//     traffic on unrelated keys.
//
//   - Reference counting: each entry shares an atomic counter record
//     with its row in the auxiliary map. A Handle's lifetime pins that
//     count above zero; retention considers only entries whose count
//     reads as zero, and re-checks the count immediately before removal
//     (see DropUnusedKeepingLast) to close the race between a retention
//     snapshot and a concurrent acquisition.
//
//   - Retention: there is no bounded capacity and no automatic eviction
//     on insert. Callers drive retention explicitly via DropUnused,
//     DropUnusedKeepingLast(n) (retain the n most recently created
//     unused entries), and Compact (reclaim orphaned auxiliary rows).
//
//   - Support-based lookup: when a key type implements Supporter[T],
//     GetSupporting(cache, probe) locates the single key in the auxiliary
//     map whose Supports(probe) predicate accepts, or fails with
//     AmbiguousSupport if more than one does.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Insert/AmbiguousSupport/
//     Retain/Size signals. NoopMetrics is the default; metrics/prom
//     provides a Prometheus-backed implementation.
//
// Basic usage
//
//	c := cache.New[string, int](cache.Options[string, int]{})
//	h := c.InsertOrGet("Alice", 97)
//	defer h.Release()
//	v, err := h.Value() // 97, nil
//
//	c.DropUnusedKeepingLast(0) // h still live, so "Alice" survives
//	h.Release()
//	c.DropUnused() // cache is now empty
//
// Support-based lookup
//
//	type interval struct{ lo, hi int }
//	func (iv interval) Supports(probe int) bool { return probe >= iv.lo && probe < iv.hi }
//
//	c := cache.New[interval, string](cache.Options[interval, string]{})
//	c.InsertOrGet(interval{0, 10}, "Good")
//	h, err := cache.GetSupporting[int](c, 7) // matches interval{0,10}
//
// Thread-safety & complexity
//
// Every method except Compact is safe for concurrent use by multiple
// goroutines, including concurrent calls to itself. InsertOrGet and Get
// are O(1) expected. DropUnused/DropUnusedKeepingLast/Compact are
// O(n log n) in the auxiliary map's cardinality (the snapshot of unused
// entries is sorted). Compact requires the caller to ensure
// exclusive access; see its doc comment.
package cache
