package sensego

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/strategy"
)

// MetricsCollector defines an interface for collecting operational metrics.
// It receives the per-iteration progress of every strategy through the
// embedded strategy.Observer.
type MetricsCollector interface {
	strategy.Observer

	// RecordDisambiguate is called after each disambiguation run.
	// best is the score of the returned configuration.
	RecordDisambiguate(kind strategy.Kind, duration time.Duration, best float64, err error)

	// RecordScore is called after each standalone Score call.
	RecordScore(duration time.Duration, err error)

	// RecordTuning is called after each parameter search.
	RecordTuning(kind strategy.Kind, evaluations int, duration time.Duration, err error)

	// RecordSnapshot is called after a score cache snapshot is saved or
	// loaded. op is "save" or "load".
	RecordSnapshot(op string, duration time.Duration, err error)

	// RecordScorer is called with the scorer counters after each run.
	RecordScorer(stats score.Stats)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) OnIteration(strategy.Kind, int, float64)                          {}
func (NoopMetricsCollector) RecordDisambiguate(strategy.Kind, time.Duration, float64, error) {}
func (NoopMetricsCollector) RecordScore(time.Duration, error)                                {}
func (NoopMetricsCollector) RecordTuning(strategy.Kind, int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordSnapshot(string, time.Duration, error)                    {}
func (NoopMetricsCollector) RecordScorer(score.Stats)                                       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	Iterations             atomic.Int64
	DisambiguateCount      atomic.Int64
	DisambiguateErrors     atomic.Int64
	DisambiguateTotalNanos atomic.Int64
	ScoreCount             atomic.Int64
	ScoreErrors            atomic.Int64
	TuningCount            atomic.Int64
	TuningErrors           atomic.Int64
	TuningEvaluations      atomic.Int64
	SnapshotSaves          atomic.Int64
	SnapshotLoads          atomic.Int64
	SnapshotErrors         atomic.Int64
	OracleCalls            atomic.Uint64
	CacheHits              atomic.Uint64
	CacheMisses            atomic.Uint64

	mu   sync.Mutex
	best map[strategy.Kind]float64
}

// OnIteration implements strategy.Observer.
func (b *BasicMetricsCollector) OnIteration(kind strategy.Kind, _ int, best float64) {
	b.Iterations.Add(1)
	b.mu.Lock()
	if b.best == nil {
		b.best = make(map[strategy.Kind]float64)
	}
	b.best[kind] = best
	b.mu.Unlock()
}

// RecordDisambiguate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDisambiguate(_ strategy.Kind, duration time.Duration, _ float64, err error) {
	b.DisambiguateCount.Add(1)
	b.DisambiguateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DisambiguateErrors.Add(1)
	}
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(_ time.Duration, err error) {
	b.ScoreCount.Add(1)
	if err != nil {
		b.ScoreErrors.Add(1)
	}
}

// RecordTuning implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTuning(_ strategy.Kind, evaluations int, _ time.Duration, err error) {
	b.TuningCount.Add(1)
	b.TuningEvaluations.Add(int64(evaluations))
	if err != nil {
		b.TuningErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(op string, _ time.Duration, err error) {
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	switch op {
	case "save":
		b.SnapshotSaves.Add(1)
	case "load":
		b.SnapshotLoads.Add(1)
	}
}

// RecordScorer implements MetricsCollector. The scorer counters are
// cumulative, so the latest values replace the previous ones.
func (b *BasicMetricsCollector) RecordScorer(stats score.Stats) {
	b.OracleCalls.Store(stats.OracleCalls)
	b.CacheHits.Store(stats.CacheHits)
	b.CacheMisses.Store(stats.CacheMisses)
}

// LastBest returns the best score last reported by kind.
func (b *BasicMetricsCollector) LastBest(kind strategy.Kind) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.best[kind]
	return v, ok
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Iterations:          b.Iterations.Load(),
		DisambiguateCount:   b.DisambiguateCount.Load(),
		DisambiguateErrors:  b.DisambiguateErrors.Load(),
		DisambiguateAvgNano: b.getAvgDisambiguateNanos(),
		ScoreCount:          b.ScoreCount.Load(),
		ScoreErrors:         b.ScoreErrors.Load(),
		TuningCount:         b.TuningCount.Load(),
		TuningErrors:        b.TuningErrors.Load(),
		TuningEvaluations:   b.TuningEvaluations.Load(),
		SnapshotSaves:       b.SnapshotSaves.Load(),
		SnapshotLoads:       b.SnapshotLoads.Load(),
		SnapshotErrors:      b.SnapshotErrors.Load(),
		OracleCalls:         b.OracleCalls.Load(),
		CacheHits:           b.CacheHits.Load(),
		CacheMisses:         b.CacheMisses.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgDisambiguateNanos() int64 {
	count := b.DisambiguateCount.Load()
	if count == 0 {
		return 0
	}
	return b.DisambiguateTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Iterations          int64
	DisambiguateCount   int64
	DisambiguateErrors  int64
	DisambiguateAvgNano int64
	ScoreCount          int64
	ScoreErrors         int64
	TuningCount         int64
	TuningErrors        int64
	TuningEvaluations   int64
	SnapshotSaves       int64
	SnapshotLoads       int64
	SnapshotErrors      int64
	OracleCalls         uint64
	CacheHits           uint64
	CacheMisses         uint64
}

// PrometheusCollector exports metrics through prometheus/client_golang.
type PrometheusCollector struct {
	opLatency   *prometheus.HistogramVec
	iterations  *prometheus.CounterVec
	best        *prometheus.GaugeVec
	evaluations *prometheus.CounterVec
	scorer      *prometheus.GaugeVec
}

var _ MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates a collector and registers its metrics
// with reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sensego",
			Name:      "operation_latency_seconds",
			Help:      "Latency of engine operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensego",
			Name:      "iterations_total",
			Help:      "Total search iterations by strategy",
		}, []string{"strategy"}),
		best: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensego",
			Name:      "best_score",
			Help:      "Best score of the latest run by strategy",
		}, []string{"strategy"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensego",
			Subsystem: "tuning",
			Name:      "evaluations_total",
			Help:      "Total parameter evaluations by strategy",
		}, []string{"strategy"}),
		scorer: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensego",
			Subsystem: "scorer",
			Name:      "count",
			Help:      "Cumulative scorer counters",
		}, []string{"counter"}),
	}
	for _, c := range []prometheus.Collector{p.opLatency, p.iterations, p.best, p.evaluations, p.scorer} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnIteration implements strategy.Observer.
func (p *PrometheusCollector) OnIteration(kind strategy.Kind, _ int, best float64) {
	p.iterations.WithLabelValues(kind.String()).Inc()
	p.best.WithLabelValues(kind.String()).Set(best)
}

// RecordDisambiguate implements MetricsCollector.
func (p *PrometheusCollector) RecordDisambiguate(kind strategy.Kind, duration time.Duration, best float64, err error) {
	p.opLatency.WithLabelValues("disambiguate", status(err)).Observe(duration.Seconds())
	if err == nil {
		p.best.WithLabelValues(kind.String()).Set(best)
	}
}

// RecordScore implements MetricsCollector.
func (p *PrometheusCollector) RecordScore(duration time.Duration, err error) {
	p.opLatency.WithLabelValues("score", status(err)).Observe(duration.Seconds())
}

// RecordTuning implements MetricsCollector.
func (p *PrometheusCollector) RecordTuning(kind strategy.Kind, evaluations int, duration time.Duration, err error) {
	p.opLatency.WithLabelValues("tune", status(err)).Observe(duration.Seconds())
	p.evaluations.WithLabelValues(kind.String()).Add(float64(evaluations))
}

// RecordSnapshot implements MetricsCollector.
func (p *PrometheusCollector) RecordSnapshot(op string, duration time.Duration, err error) {
	p.opLatency.WithLabelValues("snapshot_"+op, status(err)).Observe(duration.Seconds())
}

// RecordScorer implements MetricsCollector.
func (p *PrometheusCollector) RecordScorer(stats score.Stats) {
	p.scorer.WithLabelValues("oracle_calls").Set(float64(stats.OracleCalls))
	p.scorer.WithLabelValues("cache_hits").Set(float64(stats.CacheHits))
	p.scorer.WithLabelValues("cache_misses").Set(float64(stats.CacheMisses))
	p.scorer.WithLabelValues("entries").Set(float64(stats.Entries))
}
