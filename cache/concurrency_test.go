package cache

import (
	"math/rand"
	"runtime"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// A mixed workload of concurrent InsertOrGet/Get/DropUnusedKeepingLast on
// random keys. Should pass under `-race` without detector reports.
func TestRace_MixedWorkload(t *testing.T) {
	c := New[string, int](Options[string, int]{Shards: 32})

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 2_000
	deadline := time.Now().Add(500 * time.Millisecond)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		id := w
		g.Go(func() error {
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% — DropUnusedKeepingLast
					c.DropUnusedKeepingLast(r.Intn(keyspace))
				case 5: // Compact is exclusive; excluded from this mix deliberately.
					continue
				case 6, 7, 8, 9, 10, 11, 12, 13, 14, 15: // ~10% — InsertOrGet
					{ h := c.InsertOrGet(k, r.Int()); h.Release() }
				default: // ~85% — Get
					{ h := c.Get(k); h.Release() }
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Scenario 6: parallel population yields a correct tally. 20 tasks race
// over a shuffled permutation of event numbers 0..19, each looking up a
// supporting interval and inserting on miss, then calling
// DropUnusedKeepingLast with a varying k. The final tally across all
// tasks must be exactly 10 "Good", 10 "Bad", 0 other — the direct
// successor of the source's user_defined_mt test.
func TestCache_ParallelSupportLookup_Tally(t *testing.T) {
	ivs := []struct {
		iv    interval
		value string
	}{
		{interval{0, 10}, "Good"},
		{interval{10, 20}, "Bad"},
	}

	c := New[interval, string](Options[interval, string]{})

	events := rand.New(rand.NewSource(1)).Perm(20)

	var goods, bads, uglies int32

	var g errgroup.Group
	for i, event := range events {
		event := event
		k := i % 4 // vary DropUnusedKeepingLast argument per task
		g.Go(func() error {
			h, err := GetSupporting[int](c, event)
			if err != nil {
				return err
			}
			if !h.Valid() {
				for _, candidate := range ivs {
					if candidate.iv.Supports(event) {
						h = c.InsertOrGet(candidate.iv, candidate.value)
						break
					}
				}
			}
			v, err := h.Value()
			h.Release()
			if err != nil {
				return err
			}

			switch {
			case event < 10 && v == "Good":
				addInt32(&goods, 1)
			case event >= 10 && v == "Bad":
				addInt32(&bads, 1)
			default:
				addInt32(&uglies, 1)
			}

			switch k {
			case 0:
				// no-op: exercise the read path without retention this round
			case 1:
				c.DropUnusedKeepingLast(0)
			case 2:
				c.DropUnusedKeepingLast(1)
			case 3:
				c.DropUnusedKeepingLast(2)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if goods != 10 || bads != 10 || uglies != 0 {
		t.Fatalf("tally want goods=10 bads=10 uglies=0, got goods=%d bads=%d uglies=%d", goods, bads, uglies)
	}
}

func addInt32(addr *int32, delta int32) {
	atomic.AddInt32(addr, delta)
}
