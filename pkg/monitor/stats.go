package monitor

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// LookupStats counts index traffic. The atomic fields back the JSON stats
// endpoint; the Prometheus counters mirror them for scraping.
type LookupStats struct {
	LookupCount   uint64
	HitCount      uint64
	MissCount     uint64
	EnrollCount   uint64
	WithdrawCount uint64
	RebuildCount  uint64
	lookups       *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	rebuilds      prometheus.Counter
}

// NewLookupStats registers its collectors on reg. A nil reg keeps the
// counters unregistered.
func NewLookupStats(reg prometheus.Registerer) *LookupStats {
	ls := &LookupStats{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_lookups_total",
			Help: "Student lookups by result.",
		}, []string{"result"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_mutations_total",
			Help: "Index mutations by kind.",
		}, []string{"kind"}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_index_rebuilds_total",
			Help: "Index rebuilds from the backing store.",
		}),
	}
	if reg != nil {
		reg.MustRegister(ls.lookups, ls.mutations, ls.rebuilds)
	}
	return ls
}

func (ls *LookupStats) RecordLookup(hit bool) {
	atomic.AddUint64(&ls.LookupCount, 1)
	if hit {
		atomic.AddUint64(&ls.HitCount, 1)
		ls.lookups.WithLabelValues("hit").Inc()
		return
	}
	atomic.AddUint64(&ls.MissCount, 1)
	ls.lookups.WithLabelValues("miss").Inc()
}

func (ls *LookupStats) RecordEnroll() {
	atomic.AddUint64(&ls.EnrollCount, 1)
	ls.mutations.WithLabelValues("enroll").Inc()
}

func (ls *LookupStats) RecordUpdate() {
	ls.mutations.WithLabelValues("update").Inc()
}

func (ls *LookupStats) RecordWithdraw() {
	atomic.AddUint64(&ls.WithdrawCount, 1)
	ls.mutations.WithLabelValues("withdraw").Inc()
}

func (ls *LookupStats) RecordRebuild() {
	atomic.AddUint64(&ls.RebuildCount, 1)
	ls.rebuilds.Inc()
}

func (ls *LookupStats) GetHitRatio() float64 {
	lookups := atomic.LoadUint64(&ls.LookupCount)
	if lookups == 0 {
		return 0.0
	}
	return float64(atomic.LoadUint64(&ls.HitCount)) / float64(lookups)
}
