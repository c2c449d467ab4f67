package cache

// Options configures cache construction. Zero values are safe: New
// resolves nil Metrics to NoopMetrics.
//
// There is no Capacity, Policy, TTL, or Cost knob here: the cache has no
// bounded capacity and no automatic eviction on insert — retention is
// driven entirely by DropUnused/DropUnusedKeepingLast/Compact, called by
// the caller on its own schedule.
type Options[K comparable, V any] struct {
	// Shards hints at the number of independent map stripes to use for
	// the primary and auxiliary maps. 0 or 1 means unstriped (the
	// default, and the only safe choice for struct or other composite
	// keys: striping hashes keys with internal/util.Fnv64a, which only
	// supports strings, [16|32|64]byte arrays, plain integer types and
	// fmt.Stringer, and panics on any other key type). A
	// negative value asks for the shard count internal/util would pick
	// automatically from GOMAXPROCS. Higher values reduce contention
	// among writers touching distinct keys, at the cost of O(Shards)
	// work for full-map operations (Size, DropUnusedKeepingLast's
	// snapshot, Compact).
	Shards int

	// Metrics receives observability callbacks. Nil resolves to
	// NoopMetrics in New.
	Metrics Metrics
}
