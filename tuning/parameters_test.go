package tuning

import (
	"testing"

	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
	"github.com/hupe1980/sensego/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParametersBuildsEveryKind(t *testing.T) {
	s := score.New(testutil.NewMatrixMeasure(0))
	defer s.Release()

	for _, kind := range strategy.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			p, err := NewParameters(kind)
			require.NoError(t, err)
			assert.Equal(t, kind, p.Kind())
			assert.Len(t, p.Values(), len(p.Scalars()))

			d, err := p.Build(s, stop.MustNew(stop.Iterations(1)), 1)
			require.NoError(t, err)
			assert.Equal(t, kind, d.Kind())
			require.NoError(t, d.Release())
		})
	}

	_, err := NewParameters(strategy.Kind(0))
	assert.Error(t, err)
}

func TestBatParametersHaveNineScalars(t *testing.T) {
	assert.Len(t, NewBatParameters().Scalars(), 9)
}

func TestPerturbStaysBuildable(t *testing.T) {
	s := score.New(testutil.NewMatrixMeasure(0))
	defer s.Release()
	r := rng.New(1)

	for _, kind := range strategy.Kinds {
		p, err := NewParameters(kind)
		require.NoError(t, err)
		for i := 0; i < 200; i++ {
			p.Perturb(r, 10)
			for _, sp := range p.Scalars() {
				assert.GreaterOrEqual(t, sp.Value, sp.Lower(), sp.Name)
				assert.LessOrEqual(t, sp.Value, sp.Upper(), sp.Name)
			}
			d, err := p.Build(s, stop.MustNew(stop.Iterations(1)), 1)
			require.NoError(t, err, Describe(p))
			require.NoError(t, d.Release())
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewBatParameters()
	c := p.Clone().(*BatParameters)
	c.Bats.Value = 3
	c.MaxRate.Value = 0.5

	assert.Equal(t, 20.0, p.Bats.Value)
	assert.Equal(t, 1.0, p.MaxRate.Value)
	assert.Equal(t, 0.5, c.MinRate.Upper(), "links are rebuilt on the clone")
}

func TestSetValues(t *testing.T) {
	p := NewBatParameters()
	require.NoError(t, p.SetValues(map[string]float64{
		"min_frequency": 50,
		"max_frequency": 80,
		"alpha":         2,
	}))
	assert.Equal(t, 50.0, p.MinFrequency.Value)
	assert.Equal(t, 80.0, p.MaxFrequency.Value)
	assert.Equal(t, 1.0, p.Alpha.Value)

	assert.Error(t, p.SetValues(map[string]float64{"nope": 1}))
}
