package cache

import "sync/atomic"

// counter is the reference-count record shared between an entry and its
// row in the auxiliary map. It is created once per entry, at the
// sequence number the entry was assigned, and is never mutated except
// through tryAcquire/release/tryRetire.
//
// useCount is non-negative while the entry is live. A value of -1 marks
// the entry as retired: tryRetire claims that transition with a single
// compare-and-swap, and once claimed no further tryAcquire can succeed,
// closing the race between a concurrent Get and a concurrent retention
// sweep.
type counter struct {
	sequenceNumber uint64
	useCount       atomic.Int32
}

const retired int32 = -1

func newCounter(seq uint64) *counter {
	return &counter{sequenceNumber: seq}
}

// tryAcquire adds one unit of use, unless the counter has already been
// retired. It reports whether the acquisition succeeded.
func (c *counter) tryAcquire() bool {
	for {
		cur := c.useCount.Load()
		if cur < 0 {
			return false
		}
		if c.useCount.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// release removes one unit of use previously granted by tryAcquire.
func (c *counter) release() {
	c.useCount.Add(-1)
}

// load returns the current use count as observed at this instant. A
// result of zero is advisory: a concurrent tryAcquire may succeed
// immediately afterwards.
func (c *counter) load() int32 {
	v := c.useCount.Load()
	if v < 0 {
		return 0
	}
	return v
}

// tryRetire atomically transitions the counter from "zero uses" to
// "retired", the precondition the retention erase step requires before
// it is safe to remove the entry from the primary map. It fails if the
// count has risen above zero (someone acquired a reference since the
// retention snapshot was taken) or if another goroutine already retired
// it first.
func (c *counter) tryRetire() bool {
	return c.useCount.CompareAndSwap(0, retired)
}
