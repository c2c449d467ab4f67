package prom

import (
	"github.com/knoepfel/concurrent-cache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits             prometheus.Counter
	misses           prometheus.Counter
	inserts          prometheus.Counter
	ambiguousSupport prometheus.Counter
	dropped          *prometheus.CounterVec
	sizeEntries      prometheus.Gauge
	sizeCapacity     prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "InsertOrGet/Get calls that found an existing entry",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Get calls that found no entry",
			ConstLabels: constLabels,
		}),
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "inserts_total",
			Help:        "InsertOrGet calls that created a new entry",
			ConstLabels: constLabels,
		}),
		ambiguousSupport: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "ambiguous_support_total",
			Help:        "GetSupporting calls that matched more than one key",
			ConstLabels: constLabels,
		}),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "dropped_total",
				Help:        "Entries or orphan rows removed by retention, by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		sizeEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries (primary map cardinality)",
			ConstLabels: constLabels,
		}),
		sizeCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_capacity",
			Help:        "Auxiliary map cardinality, including reclaimable orphan rows",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.inserts, a.ambiguousSupport, a.dropped, a.sizeEntries, a.sizeCapacity)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Insert increments the insert counter.
func (a *Adapter) Insert() { a.inserts.Inc() }

// AmbiguousSupport increments the ambiguous-support counter.
func (a *Adapter) AmbiguousSupport() { a.ambiguousSupport.Inc() }

// Retain increments the drop counter with a reason label.
func (a *Adapter) Retain(dropped int, reason cache.DropReason) {
	if dropped == 0 {
		return
	}
	a.dropped.WithLabelValues(reasonLabel(reason)).Add(float64(dropped))
}

// Size updates gauges for the resident entry count and auxiliary map
// cardinality.
func (a *Adapter) Size(entries int, capacity int) {
	a.sizeEntries.Set(float64(entries))
	a.sizeCapacity.Set(float64(capacity))
}

// reasonLabel maps a DropReason to a stable label value.
func reasonLabel(r cache.DropReason) string {
	switch r {
	case cache.DropCompact:
		return "compact"
	default:
		return "unused"
	}
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
