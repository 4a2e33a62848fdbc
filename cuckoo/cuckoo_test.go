package cuckoo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
	"github.com/hupe1980/sensego/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(v int64) *int64 { return &v }

func newSearch(t *testing.T, m similarity.Measure, iterations int, optFns ...func(o *Options)) *Disambiguator {
	t.Helper()
	s := score.New(m)
	t.Cleanup(s.Release)

	d, err := New(s, stop.MustNew(stop.Iterations(iterations)), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Release() })
	return d
}

func TestConvergesToBruteForceOptimum(t *testing.T) {
	ctx := context.Background()
	doc, m := testutil.SmallProblem()

	want, wantScore, err := testutil.BruteForce(ctx, doc, m)
	require.NoError(t, err)

	d := newSearch(t, m, 50, func(o *Options) { o.RandomSeed = seed(42) })

	cfg, err := d.Disambiguate(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, want, cfg.Assignments())
	assert.InDelta(t, wantScore, d.Best(), 1e-12)
	assert.True(t, cfg.Frozen())
}

func TestStaysInRange(t *testing.T) {
	ctx := context.Background()
	for s := int64(0); s < 30; s++ {
		r := testutil.NewRNG(s)
		counts := make([]int, 2+r.Intn(10))
		for i := range counts {
			counts[i] = r.Intn(5)
		}
		doc := testutil.DocumentWithCounts("doc", counts...)

		d := newSearch(t, r.Matrix(doc), 10, func(o *Options) { o.RandomSeed = seed(s) })
		cfg, err := d.Disambiguate(ctx, doc)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		for i, c := range counts {
			if c == 0 {
				assert.Equal(t, configuration.Unassigned, cfg.Assignment(i))
			} else {
				assert.NotEqual(t, configuration.Unassigned, cfg.Assignment(i))
			}
		}
	}
}

func TestFlightBounds(t *testing.T) {
	d := &Disambiguator{
		opts: Options{LevyScale: 5},
		rng:  rng.New(1),
		cond: stop.MustNew(stop.Iterations(10)),
	}
	assert.Equal(t, 0, d.flight(0))
	for i := 0; i < 1000; i++ {
		n := d.flight(7)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 7)
	}
	assert.InDelta(t, 0.6966, levySigma, 1e-4)

	r := rng.New(2)
	for i := 0; i < 1000; i++ {
		assert.False(t, math.IsNaN(Levy(r)))
	}
}

func TestBestNonDecreasing(t *testing.T) {
	r := testutil.NewRNG(8)
	doc := r.Document("doc", 20, 1, 4)

	var history []float64
	d := newSearch(t, r.Matrix(doc), 40, func(o *Options) {
		o.RandomSeed = seed(8)
		o.Observer = strategy.ObserverFunc(func(k strategy.Kind, it int, best float64) {
			assert.Equal(t, strategy.Cuckoo, k)
			assert.Equal(t, len(history)+1, it)
			history = append(history, best)
		})
	})

	_, err := d.Disambiguate(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, history, 40)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i], history[i-1])
	}
	assert.Equal(t, history[len(history)-1], d.Best())
}

func TestReproducibleWithSeed(t *testing.T) {
	r := testutil.NewRNG(3)
	doc := r.Document("doc", 15, 1, 3)
	m := r.Matrix(doc)

	run := func() string {
		d := newSearch(t, m, 20, func(o *Options) { o.RandomSeed = seed(77) })
		cfg, err := d.Disambiguate(context.Background(), doc)
		require.NoError(t, err)
		return cfg.String()
	}
	assert.Equal(t, run(), run())
}

func TestOptionsValidation(t *testing.T) {
	s := score.New(testutil.NewMatrixMeasure(0))
	defer s.Release()
	cond := stop.MustNew(stop.Iterations(1))

	tests := []struct {
		name string
		fn   func(o *Options)
	}{
		{"Nests", func(o *Options) { o.Nests = 1 }},
		{"LevyScale", func(o *Options) { o.LevyScale = -1 }},
		{"DestroyedFraction", func(o *Options) { o.DestroyedFraction = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(s, cond, tt.fn)
			var target *strategy.ErrInvalidParameter
			require.ErrorAs(t, err, &target)
			assert.Equal(t, tt.name, target.Name)
			assert.Equal(t, strategy.Cuckoo, target.Kind)
		})
	}

	_, err := New(nil, cond)
	assert.ErrorIs(t, err, strategy.ErrNoScorer)
	_, err = New(s, nil)
	assert.ErrorIs(t, err, strategy.ErrNoCondition)
}

func TestRelease(t *testing.T) {
	doc := testutil.DocumentWithCounts("doc", 2, 2)
	d := newSearch(t, testutil.NewMatrixMeasure(0), 5)

	require.NoError(t, d.Release())
	assert.ErrorIs(t, d.Release(), strategy.ErrAlreadyReleased)

	_, err := d.Disambiguate(context.Background(), doc)
	assert.ErrorIs(t, err, strategy.ErrReleased)
}

func TestScorerErrorPropagates(t *testing.T) {
	errOracle := errors.New("oracle down")
	m := similarity.MeasureFunc(func(context.Context, model.Signature, model.Signature) (float64, error) {
		return 0, errOracle
	})
	doc := testutil.DocumentWithCounts("doc", 2, 2)
	d := newSearch(t, m, 5, func(o *Options) { o.RandomSeed = seed(1) })

	_, err := d.Disambiguate(context.Background(), doc)
	assert.ErrorIs(t, err, errOracle)
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := testutil.DocumentWithCounts("doc", 2, 2)
	d := newSearch(t, testutil.NewMatrixMeasure(0), 5)

	_, err := d.Disambiguate(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}
