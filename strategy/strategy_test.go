package strategy

import (
	"testing"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)

		text, err := k.MarshalText()
		require.NoError(t, err)
		var back Kind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}

	k, err := ParseKind(" ACA ")
	require.NoError(t, err)
	assert.Equal(t, AntColony, k)

	_, err = ParseKind("pso")
	assert.Error(t, err)
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestReleaser(t *testing.T) {
	var r Releaser
	calls := 0
	require.NoError(t, r.Release(func() { calls++ }))
	assert.ErrorIs(t, r.Release(func() { calls++ }), ErrAlreadyReleased)
	assert.Equal(t, 1, calls)
	assert.True(t, r.Released())
}

func TestFinalize(t *testing.T) {
	doc := model.NewDocument("d",
		model.Word{ID: "a", Senses: []model.Sense{{ID: "a1"}, {ID: "a2"}}},
		model.Word{ID: "b"},
	)
	cfg := configuration.New(doc)
	require.NoError(t, cfg.SetSense(0, 1))

	out := Finalize(cfg)
	assert.Same(t, cfg, out)
	assert.True(t, out.Frozen())
	assert.Equal(t, 1.0, out.Confidence(0))
	assert.Equal(t, 0.0, out.Confidence(1))
}

func TestObserverFunc(t *testing.T) {
	var got []float64
	var o Observer = ObserverFunc(func(k Kind, it int, best float64) {
		assert.Equal(t, Bat, k)
		got = append(got, best)
	})
	o.OnIteration(Bat, 1, 0.5)
	NoopObserver{}.OnIteration(Bat, 1, 0.5)
	assert.Equal(t, []float64{0.5}, got)
}

func TestErrInvalidParameter(t *testing.T) {
	err := error(&ErrInvalidParameter{Kind: Genetic, Name: "Population", Value: 1, Reason: "must be >= 2"})
	assert.Equal(t, "strategy: genetic: invalid Population 1: must be >= 2", err.Error())

	var target *ErrInvalidParameter
	assert.ErrorAs(t, err, &target)
}
