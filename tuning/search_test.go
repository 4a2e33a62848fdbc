package tuning

import (
	"context"
	"testing"

	"github.com/hupe1980/sensego/blobstore"
	"github.com/hupe1980/sensego/codec"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
	"github.com/hupe1980/sensego/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchFindsBetterParameters(t *testing.T) {
	corpus, m := fixtureCorpus()
	e, err := NewEvaluator(corpus, func() score.Scorer { return score.New(m) }, stop.Iterations(1),
		func(o *EvaluatorOptions) { o.Repetitions = 2 })
	require.NoError(t, err)

	var history []float64
	res, err := Search(context.Background(), newFixedParameters(0), e, stop.Iterations(30), func(o *SearchOptions) {
		o.Nests = 4
		o.Distance = 10
		o.RandomSeed = seed(3)
		o.OnIteration = func(it int, best *Result) {
			assert.Equal(t, len(history)+1, it)
			history = append(history, best.Score)
		}
	})
	require.NoError(t, err)

	require.Len(t, history, 30)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i], history[i-1])
	}
	assert.Equal(t, 30, res.Iterations)
	assert.Equal(t, 4+30*2, res.Evaluations, "initial nests, one egg and one rebuilt nest per iteration")
	assert.InDelta(t, 0.625, res.Score, 1e-12)
	assert.Equal(t, map[string]float64{"sense": 1}, res.Values)
	assert.Equal(t, strategy.Genetic, res.Kind)
}

func TestSearchTunesRealStrategy(t *testing.T) {
	doc, m := testutil.SmallProblem()
	e, err := NewEvaluator([]model.Document{doc}, func() score.Scorer { return score.New(m) }, stop.Iterations(3),
		func(o *EvaluatorOptions) {
			o.Repetitions = 2
			o.RandomSeed = seed(1)
		})
	require.NoError(t, err)

	res, err := Search(context.Background(), NewCuckooParameters(), e, stop.Iterations(2), func(o *SearchOptions) {
		o.Nests = 2
		o.RandomSeed = seed(1)
	})
	require.NoError(t, err)
	assert.Equal(t, strategy.Cuckoo, res.Kind)
	assert.Len(t, res.Scores, 2)

	p, err := res.Parameters()
	require.NoError(t, err)
	assert.Equal(t, res.Values, p.Values())
}

func TestSearchCancelled(t *testing.T) {
	corpus, m := fixtureCorpus()
	e, err := NewEvaluator(corpus, func() score.Scorer { return score.New(m) }, stop.Iterations(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Search(ctx, newFixedParameters(0), e, stop.Iterations(5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultPersistence(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	want := &Result{
		Kind:        strategy.Bat,
		Values:      NewBatParameters().Values(),
		Score:       1.25,
		Scores:      []float64{1, 1.5},
		Iterations:  3,
		Evaluations: 9,
	}

	for _, c := range []codec.Codec{codec.GoJSON{}, codec.JSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			require.NoError(t, SaveResult(ctx, store, c, want))
			ok, err := blobstore.Exists(ctx, store, "tuning/bat.json")
			require.NoError(t, err)
			assert.True(t, ok)

			got, err := LoadResult(ctx, store, c, strategy.Bat)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := LoadResult(ctx, store, codec.Default, strategy.Genetic)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
