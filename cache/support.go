package cache

// Supporter is implemented by key types that expose an acceptance
// predicate over some probe type T (e.g. a half-open interval accepting
// an event number). GetSupporting is enabled only for such keys, the Go
// stand-in for the source's compile-time-enabled "key_supports" trait.
type Supporter[T any] interface {
	comparable
	Supports(probe T) bool
}

// GetSupporting scans the cache's auxiliary map for a single key that
// accepts probe and returns a handle to its entry, deferring to Get once
// the key is identified. The auxiliary map still holds orphan rows for
// erased keys until the next Compact, and those keys count as matches
// too: a lone orphan match yields an invalid handle from Get, and an
// orphan plus a live match fails with AmbiguousSupport. It is a free function rather than a method because it
// needs a type parameter of its own (the probe type T) beyond the
// Cache's K and V, which Go does not allow on methods.
//
// Zero matches returns an invalid (null) handle and a nil error. Exactly
// one match delegates to Get. More than one match fails with
// AmbiguousSupport: uniqueness of support across live keys is a caller
// contract, not something the cache enforces at insertion time.
func GetSupporting[T any, K Supporter[T], V any](c *Cache[K, V], probe T) (Handle[V], error) {
	var matches []K
	c.aux.Range(func(key K, _ *counter) bool {
		if key.Supports(probe) {
			matches = append(matches, key)
		}
		return true
	})

	switch len(matches) {
	case 0:
		return Handle[V]{}, nil
	case 1:
		return c.Get(matches[0]), nil
	default:
		c.metrics.AmbiguousSupport()
		return Handle[V]{}, NewErrAmbiguousSupport(len(matches))
	}
}
