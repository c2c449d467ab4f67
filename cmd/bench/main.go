// Command bench runs a synthetic concurrent workload against the cache
// and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/knoepfel/concurrent-cache/cache"
	pmet "github.com/knoepfel/concurrent-cache/metrics/prom"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ---- Flags ----
	var (
		shards = flag.Int("shards", 0, "number of map stripes (0=unstriped, -1=auto)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "Get percentage vs InsertOrGet [0..100]")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = keys/20)")

		retainLast = flag.Int("retain_last", 1000, "n passed to DropUnusedKeepingLast by the retention worker")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "concurrent_cache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	c := cache.New[string, string](cache.Options[string, string]{
		Shards:  *shards,
		Metrics: metrics,
	})

	// ---- Preload so most workers see an InsertOrGet hit, not a miss ----
	pl := *preload
	if pl == 0 {
		pl = *keys / 20
	}
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		{ h := c.InsertOrGet(k, "v"+strconv.Itoa(i)); h.Release() }
	}

	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	var reads, inserts, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workersN; w++ {
		id := w
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					h := c.Get(keyByZipf())
					if h.Valid() {
						atomic.AddUint64(&hits, 1)
						h.Release()
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&inserts, 1)
					k := keyByZipf()
					{ h := c.InsertOrGet(k, "v"+strconv.Itoa(localR.Int())); h.Release() }
				}
			}
		})
	}

	// A dedicated retention worker exercises DropUnusedKeepingLast
	// concurrently with the read/insert mix, which never serialises
	// against the auxiliary map's readers.
	g.Go(func() error {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				c.DropUnusedKeepingLast(*retainLast)
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("bench: %v", err)
	}
	elapsed := time.Since(start)

	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	insertsN := atomic.LoadUint64(&inserts)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		*shards, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  inserts=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, insertsN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	fmt.Printf("Size()=%d  Capacity()=%d\n", c.Size(), c.Capacity())
}
