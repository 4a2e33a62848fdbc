package aca

import (
	"math"
	"testing"

	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnvironment(t *testing.T, counts ...int) *Environment {
	t.Helper()
	env := NewEnvironment(testutil.DocumentWithCounts("doc", counts...), EnvironmentOptions{
		InitialEnergy:    10,
		InitialPheromone: 0.5,
		VectorLength:     5,
	})
	require.NoError(t, env.Validate())
	return env
}

func TestNewEnvironmentLayout(t *testing.T) {
	env := newTestEnvironment(t, 2, 0, 3)

	// root, w0, s0.0, s0.1, w1, w2, s2.0, s2.1, s2.2
	require.Equal(t, 9, env.Len())
	assert.Equal(t, RootNode, env.Kind(env.Root()))
	assert.Equal(t, "doc", env.ID(env.Root()))
	assert.Equal(t, []int{1, 4, 5}, []int{env.WordNode(0), env.WordNode(1), env.WordNode(2)})
	assert.Equal(t, []int{2, 3}, env.SenseNodes(0))
	assert.Empty(t, env.SenseNodes(1))
	assert.Equal(t, []int{6, 7, 8}, env.SenseNodes(2))
	assert.Equal(t, []int{2, 3, 6, 7, 8}, env.Nests())

	for n := 0; n < env.Len(); n++ {
		assert.Equal(t, 10.0, env.Energy(n))
	}
	assert.Equal(t, 90.0, env.TotalEnergy())

	assert.Equal(t, []int{1, 4, 5}, env.Outgoing(0))
	assert.Equal(t, []int{0, 2, 3}, env.Outgoing(1))
	assert.Equal(t, []int{1}, env.Outgoing(2))
	assert.Equal(t, 0.5, env.Pheromone(1, 2))
	assert.Equal(t, 0.0, env.Pheromone(2, 3))

	assert.True(t, env.IsNest(7))
	assert.False(t, env.IsNest(5))
	assert.Equal(t, 2, env.WordOf(7))
	assert.Equal(t, 1, env.SenseOf(7))
	assert.Equal(t, -1, env.SenseOf(5))
	assert.Equal(t, testutil.SenseID(2, 1), env.SenseSignature(7).String())
	assert.Equal(t, testutil.SenseID(2, 1), env.NodeSignature(7).String())
	assert.Empty(t, env.NodeSignature(5))
}

func TestBridges(t *testing.T) {
	env := newTestEnvironment(t, 2, 0, 3)

	assert.True(t, env.CreateBridge(2, 6))
	assert.False(t, env.CreateBridge(2, 6), "bridge exists")
	assert.False(t, env.CreateBridge(1, 6), "word nodes cannot bridge")
	assert.False(t, env.CreateBridge(6, 6))
	assert.Equal(t, 1, env.Bridges())

	assert.True(t, env.IsBridge(2, 6))
	assert.False(t, env.IsBridge(6, 2))
	assert.False(t, env.IsBridge(1, 2), "tree edges are not bridges")

	assert.True(t, env.IsFriendNest(6, 6))
	assert.True(t, env.IsFriendNest(2, 6))
	assert.False(t, env.IsFriendNest(3, 6))
	assert.False(t, env.IsFriendNest(5, 6))

	assert.Equal(t, 0.0, env.Pheromone(2, 6))
	assert.Contains(t, env.Outgoing(2), 6)
	require.NoError(t, env.Validate())
}

func TestPheromone(t *testing.T) {
	env := newTestEnvironment(t, 2)

	assert.True(t, env.DepositPheromone(1, 2, 0.3, 1))
	assert.InDelta(t, 0.8, env.Pheromone(1, 2), 1e-12)
	assert.True(t, env.DepositPheromone(1, 2, 0.9, 1))
	assert.Equal(t, 1.0, env.Pheromone(1, 2))
	assert.True(t, env.DepositPheromone(1, 2, math.NaN(), 1))
	assert.Equal(t, 1.0, env.Pheromone(1, 2))
	assert.False(t, env.DepositPheromone(2, 3, 0.3, 1), "no edge")

	env.Evaporate(0.1)
	assert.InDelta(t, 0.9, env.Pheromone(1, 2), 1e-12)
	assert.InDelta(t, 0.45, env.Pheromone(2, 1), 1e-12)
	require.NoError(t, env.Validate())
}

func TestEnergyNeverNegative(t *testing.T) {
	env := newTestEnvironment(t, 1)

	assert.Equal(t, 4.0, env.TakeEnergy(2, 4))
	assert.Equal(t, 6.0, env.TakeEnergy(2, 7))
	assert.Equal(t, 0.0, env.TakeEnergy(2, 1))
	assert.Equal(t, 0.0, env.Energy(2))

	env.AddEnergy(2, math.NaN())
	env.AddEnergy(2, -3)
	env.AddEnergy(2, math.Inf(1))
	assert.Equal(t, 0.0, env.Energy(2))
	env.AddEnergy(2, 2.5)
	assert.Equal(t, 2.5, env.Energy(2))
}

func TestDepositSkipsSlotZero(t *testing.T) {
	env := newTestEnvironment(t, 1)
	r := rng.New(1)

	syms := model.SignatureOf("a", "b", "c", "d", "e", "f", "g")
	assert.Equal(t, 4, env.Deposit(1, syms, r))
	assert.Equal(t, model.Symbol{}, env.nodes[1].buffer[0])
	assert.Len(t, env.Buffer(1), 4)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, env.Buffer(1).Values())

	empty := NewEnvironment(testutil.DocumentWithCounts("doc", 1), EnvironmentOptions{VectorLength: 1})
	assert.Equal(t, 0, empty.Deposit(1, syms, r))
}
