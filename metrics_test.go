package sensego

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/strategy"
)

var (
	_ MetricsCollector = NoopMetricsCollector{}
	_ MetricsCollector = (*BasicMetricsCollector)(nil)
)

func TestBasicMetricsCollector(t *testing.T) {
	b := &BasicMetricsCollector{}

	b.OnIteration(strategy.Bat, 1, 0.5)
	b.OnIteration(strategy.Bat, 2, 0.75)
	b.RecordDisambiguate(strategy.Bat, 2*time.Millisecond, 0.75, nil)
	b.RecordDisambiguate(strategy.Bat, 4*time.Millisecond, 0, errors.New("boom"))
	b.RecordScore(time.Millisecond, nil)
	b.RecordTuning(strategy.Cuckoo, 12, time.Second, nil)
	b.RecordSnapshot("save", time.Millisecond, nil)
	b.RecordSnapshot("load", time.Millisecond, nil)
	b.RecordSnapshot("load", time.Millisecond, errors.New("corrupt"))
	b.RecordScorer(score.Stats{OracleCalls: 7, CacheHits: 3, CacheMisses: 7})

	stats := b.GetStats()
	assert.Equal(t, int64(2), stats.Iterations)
	assert.Equal(t, int64(2), stats.DisambiguateCount)
	assert.Equal(t, int64(1), stats.DisambiguateErrors)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), stats.DisambiguateAvgNano)
	assert.Equal(t, int64(1), stats.ScoreCount)
	assert.Equal(t, int64(1), stats.TuningCount)
	assert.Equal(t, int64(12), stats.TuningEvaluations)
	assert.Equal(t, int64(1), stats.SnapshotSaves)
	assert.Equal(t, int64(1), stats.SnapshotLoads)
	assert.Equal(t, int64(1), stats.SnapshotErrors)
	assert.Equal(t, uint64(7), stats.OracleCalls)
	assert.Equal(t, uint64(3), stats.CacheHits)

	best, ok := b.LastBest(strategy.Bat)
	require.True(t, ok)
	assert.Equal(t, 0.75, best)
	_, ok = b.LastBest(strategy.Genetic)
	assert.False(t, ok)
}

func TestBasicMetricsCollectorEmpty(t *testing.T) {
	b := &BasicMetricsCollector{}
	assert.Zero(t, b.GetStats().DisambiguateAvgNano)
}

func gathered(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	p.OnIteration(strategy.Genetic, 1, 0.25)
	p.OnIteration(strategy.Genetic, 2, 0.5)
	p.RecordDisambiguate(strategy.Genetic, time.Millisecond, 0.75, nil)
	p.RecordDisambiguate(strategy.Genetic, time.Millisecond, 0, errors.New("boom"))
	p.RecordTuning(strategy.Cuckoo, 9, time.Second, nil)
	p.RecordSnapshot("save", time.Millisecond, nil)
	p.RecordScore(time.Millisecond, nil)
	p.RecordScorer(score.Stats{OracleCalls: 4, Entries: 4})

	assert.Equal(t, 2.0, gathered(t, reg, "sensego_iterations_total", map[string]string{"strategy": "genetic"}))
	assert.Equal(t, 0.75, gathered(t, reg, "sensego_best_score", map[string]string{"strategy": "genetic"}))
	assert.Equal(t, 9.0, gathered(t, reg, "sensego_tuning_evaluations_total", map[string]string{"strategy": "cuckoo"}))
	assert.Equal(t, 4.0, gathered(t, reg, "sensego_scorer_count", map[string]string{"counter": "oracle_calls"}))
	assert.Equal(t, 1.0, gathered(t, reg, "sensego_operation_latency_seconds", map[string]string{"op": "disambiguate", "status": "error"}))
	assert.Equal(t, 1.0, gathered(t, reg, "sensego_operation_latency_seconds", map[string]string{"op": "snapshot_save", "status": "success"}))
}

func TestPrometheusCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	_, err = NewPrometheusCollector(reg)
	var are prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &are)
}
