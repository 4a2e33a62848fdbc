package aca

import (
	"context"
	"math"
	"testing"

	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name  string
		probs []float64
		draw  float64
		want  int
	}{
		{"second mass exceeds draw", []float64{0.5, 0.3, 0.2}, 0.6, 1},
		{"first", []float64{0.5, 0.3, 0.2}, 0.1, 0},
		{"boundary is not exceeded", []float64{0.5, 0.3, 0.2}, 0.5, 1},
		{"last", []float64{0.5, 0.3, 0.2}, 0.95, 2},
		{"fallback to least probable", []float64{0.5, 0.3, 0.2}, 1, 2},
		{"sorted before walking", []float64{0.2, 0.5, 0.3}, 0.6, 2},
		{"ties keep input order", []float64{0.5, 0.5}, 0.4, 0},
		{"single", []float64{1}, 0.99, 0},
		{"empty", nil, 0.5, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.probs, tt.draw))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []float64{0.25, 0.75}, normalize([]float64{1, 3}))
	assert.Equal(t, []float64{0.5, 0.5}, normalize([]float64{0, 0}))
	assert.Equal(t, []float64{0.5, 0.5}, normalize([]float64{math.NaN(), -1}))
	assert.Equal(t, []float64{0, 1}, normalize([]float64{math.NaN(), 2}))
	for _, p := range normalize([]float64{math.Inf(1), 1}) {
		assert.False(t, math.IsNaN(p))
	}
}

func newUpdater() *Updater {
	return &Updater{
		Measure:                  similarity.NewOverlap(),
		TakeEnergy:               1,
		DepositPheromone:         0.9,
		MaxPheromone:             1,
		DepositedComponentsRatio: 0.9,
	}
}

func TestUpdateHomeDeposit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, 2)
	ant := NewAnt(env, 2, 5, 60, rng.New(1))
	ant.Newborn = false
	ant.Energy = 5
	ant.Returning = true

	require.NoError(t, newUpdater().Update(ctx, ant, env, ant.rand))

	assert.Equal(t, 15.0, env.Energy(2))
	assert.Equal(t, 1, ant.Position, "the only way out of a nest is its word")
	assert.Equal(t, 1.0, ant.Energy)
	assert.Equal(t, 9.0, env.Energy(1))
	assert.Equal(t, 4, ant.Lives)
	assert.InDelta(t, 1.0, env.Pheromone(2, 1), 1e-12)
}

func TestUpdateNewbornKeepsNestEnergy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, 2)
	ant := NewAnt(env, 2, 5, 60, rng.New(1))
	ant.Energy = 5

	require.NoError(t, newUpdater().Update(ctx, ant, env, ant.rand))

	assert.Equal(t, 10.0, env.Energy(2))
	assert.Equal(t, 6.0, ant.Energy)
	assert.False(t, ant.Newborn)
}

func TestUpdateForeignNestBridgesHome(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, 2, 3)
	home := env.SenseNodes(1)[0]
	ant := NewAnt(env, home, 5, 60, rng.New(1))
	ant.Position = env.SenseNodes(0)[1]
	ant.Newborn = false

	require.NoError(t, newUpdater().Update(ctx, ant, env, ant.rand))

	assert.Equal(t, home, ant.Position)
	assert.True(t, env.IsBridge(env.SenseNodes(0)[1], home))
	assert.InDelta(t, 0.9, env.Pheromone(env.SenseNodes(0)[1], home), 1e-12)
	assert.Equal(t, 1, env.Bridges())
}

func TestUpdateDepositModes(t *testing.T) {
	ctx := context.Background()

	t.Run("sense nodes", func(t *testing.T) {
		env := newTestEnvironment(t, 2, 2)
		home := env.SenseNodes(1)[0]
		ant := NewAnt(env, home, 5, 60, rng.New(1))
		ant.Position = env.SenseNodes(0)[0]
		ant.Newborn = false
		ant.Signature = ant.Signature.Merge(ant.Signature).Merge(ant.Signature)

		require.NoError(t, newUpdater().Update(ctx, ant, env, ant.rand))
		assert.Len(t, env.Buffer(home), 2)
	})

	t.Run("path nodes", func(t *testing.T) {
		env := newTestEnvironment(t, 2, 2)
		home := env.SenseNodes(1)[0]
		ant := NewAnt(env, home, 5, 60, rng.New(1))
		ant.Position = env.SenseNodes(0)[0]
		ant.Newborn = false

		u := newUpdater()
		u.Mode = DepositPathNodes
		require.NoError(t, u.Update(ctx, ant, env, ant.rand))
		assert.Empty(t, env.Buffer(home))
	})
}

// Energy only moves between nodes and ants, NaN never enters the graph and
// every bridge leads to the home of some ant.
func TestUpdateInvariants(t *testing.T) {
	ctx := context.Background()
	for s := int64(0); s < 20; s++ {
		r := testutil.NewRNG(s)
		doc := r.Document("doc", 2+r.Intn(6), 0, 4)
		env := NewEnvironment(doc, EnvironmentOptions{InitialEnergy: 10, VectorLength: 20})
		nests := env.Nests()
		if len(nests) == 0 {
			continue
		}
		initial := env.TotalEnergy()
		u := newUpdater()
		u.Measure = similarity.Measure(r.Matrix(doc))

		homes := make(map[int]bool)
		var ants []*Ant
		for a := 0; a < 30; a++ {
			home := nests[r.Intn(len(nests))]
			homes[home] = true
			ants = append(ants, NewAnt(env, home, 40, 60, r.Split()))
		}
		for step := 0; step < 40; step++ {
			for _, ant := range ants {
				if ant.Alive() {
					require.NoError(t, u.Update(ctx, ant, env, ant.rand))
				}
			}
			env.Evaporate(0.1)
		}

		require.NoError(t, env.Validate())
		carried := 0.0
		for _, ant := range ants {
			assert.False(t, ant.Alive())
			assert.GreaterOrEqual(t, ant.Energy, 0.0)
			assert.LessOrEqual(t, ant.Energy, ant.MaxEnergy)
			carried += ant.Energy
		}
		assert.InDelta(t, initial, env.TotalEnergy()+carried, 1e-9)

		for from, nd := range env.nodes {
			for _, e := range nd.out {
				if e.bridge {
					assert.True(t, env.IsNest(from))
					assert.True(t, homes[e.to], "bridge %d->%d does not lead home", from, e.to)
				}
			}
		}
	}
}

// fixedRand always draws the same value.
type fixedRand struct{ draw float64 }

func (r fixedRand) Intn(int) int     { return 0 }
func (r fixedRand) Float64() float64 { return r.draw }

// A draw of zero picks the most probable neighbour. The ant sits on word 0
// of a document with senses (3, 1): node 1, with neighbours root 0 and
// nests 2, 3, 4. Node 6 is the only nest of word 1.
func TestChooseScoring(t *testing.T) {
	ctx := context.Background()

	similarities := map[string]float64{
		testutil.SenseID(0, 0): 0.2,
		testutil.SenseID(0, 1): 0.6,
	}
	measure := similarity.MeasureFunc(func(_ context.Context, a, _ model.Signature) (float64, error) {
		if len(a) == 0 {
			return 0, nil
		}
		return similarities[a[0].Value], nil
	})

	tests := []struct {
		name      string
		returning bool
		home      int
		bridge    bool
		pheromone map[int]float64 // edge 1->n
		energy    map[int]float64 // added on top of the initial 10
		want      int
	}{
		{
			// node scores 1/6, 1/2, 1/6, 1/6; edge scores 0, 0, 1, 0
			name:      "roaming avoids pheromone",
			home:      6,
			pheromone: map[int]float64{0: 1, 2: 1, 4: 1},
			energy:    map[int]float64{2: 20},
			want:      3,
		},
		{
			name:      "roaming with home in reach follows energy",
			home:      4,
			pheromone: map[int]float64{0: 1, 2: 1, 4: 1},
			energy:    map[int]float64{2: 20},
			want:      2,
		},
		{
			name:      "roaming with bridged nest in reach follows energy",
			home:      6,
			bridge:    true,
			pheromone: map[int]float64{0: 1, 2: 1, 4: 1},
			energy:    map[int]float64{2: 20},
			want:      2,
		},
		{
			// node scores 0, 0.2, 0.6, 0; edge scores 0, 1, 0, 0
			name:      "returning follows pheromone",
			returning: true,
			home:      6,
			pheromone: map[int]float64{2: 1},
			want:      2,
		},
		{
			name:      "returning with home in reach follows similarity",
			returning: true,
			home:      4,
			pheromone: map[int]float64{2: 1},
			want:      3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvironment(t, 3, 1)
			require.Equal(t, []int{0, 2, 3, 4}, env.Outgoing(1))
			require.Equal(t, []int{6}, env.SenseNodes(1))

			env.Evaporate(1)
			for n, p := range tt.pheromone {
				require.True(t, env.DepositPheromone(1, n, p, 1))
			}
			for n, e := range tt.energy {
				env.AddEnergy(n, e)
			}
			if tt.bridge {
				require.True(t, env.CreateBridge(4, tt.home))
			}

			ant := NewAnt(env, tt.home, 5, 60, rng.New(1))
			ant.Position = 1
			ant.Newborn = false
			ant.Returning = tt.returning
			ant.Signature = model.SignatureOf("carried")

			u := newUpdater()
			u.Measure = measure
			got, err := u.choose(ctx, ant, env, fixedRand{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChooseWithoutNeighbours(t *testing.T) {
	env := NewEnvironment(testutil.DocumentWithCounts("doc"), EnvironmentOptions{InitialEnergy: 10})
	ant := NewAnt(env, 0, 5, 60, rng.New(1))

	got, err := newUpdater().choose(context.Background(), ant, env, fixedRand{})
	require.NoError(t, err)
	assert.Equal(t, -1, got)
}

func TestUpdateHomeDepositStartsRoaming(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvironment(t, 2)
	ant := NewAnt(env, 2, 5, 60, rng.New(1))
	ant.Newborn = false
	ant.Energy = 5
	ant.Returning = true

	// A zero draw never exceeds the load, so the ant keeps roaming.
	require.NoError(t, newUpdater().Update(ctx, ant, env, fixedRand{}))

	assert.Equal(t, 15.0, env.Energy(2))
	assert.False(t, ant.Returning)
	assert.Equal(t, 1, ant.Position)
	assert.Equal(t, 1.0, ant.Energy)
}

func TestDepositComponentsIncludesFirstSymbol(t *testing.T) {
	env := newTestEnvironment(t, 2)
	ant := NewAnt(env, 2, 5, 60, rng.New(1))
	ant.Signature = model.SignatureOf("first", "second")

	u := newUpdater()
	u.DepositedComponentsRatio = 0.5
	u.depositComponents(ant, env, 3, fixedRand{})

	assert.Equal(t, model.SignatureOf("first"), env.Buffer(3))
}
