package aca

import (
	"context"

	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/strategy"
)

// DepositMode selects which nodes receive signature components.
type DepositMode uint8

const (
	// DepositSenseNodes deposits into the nests an ant enters.
	DepositSenseNodes DepositMode = iota
	// DepositPathNodes deposits into the root and word nodes an ant enters.
	DepositPathNodes
)

func (m DepositMode) String() string {
	if m == DepositPathNodes {
		return "path"
	}
	return "sense"
}

// Updater moves one ant one step.
type Updater struct {
	Measure                  similarity.Measure
	TakeEnergy               float64
	DepositPheromone         float64
	MaxPheromone             float64
	DepositedComponentsRatio float64
	Mode                     DepositMode
}

// Update advances ant by one step on env:
//
//  1. An ant back home after its first move hands its energy to the nest
//     and starts roaming again.
//  2. An ant on a foreign nest heads straight home, bridging the two nests
//     if needed.
//  3. Otherwise the next node is drawn among the outgoing neighbours.
//     Roaming ants follow energy and avoid pheromone, returning ants follow
//     signature similarity and pheromone. With a friend nest in reach only
//     node scores count.
//
// The move then deposits pheromone, takes energy and signature components,
// costs one life and may turn the ant home.
func (u *Updater) Update(ctx context.Context, ant *Ant, env *Environment, r strategy.Rand) error {
	pos := ant.Position
	if pos == ant.Home && !ant.Newborn {
		env.AddEnergy(pos, ant.Energy)
		ant.Energy = 0
		ant.Returning = false
	}

	var target int
	if env.IsNest(pos) && pos != ant.Home {
		env.CreateBridge(pos, ant.Home)
		target = ant.Home
	} else {
		next, err := u.choose(ctx, ant, env, r)
		if err != nil {
			return err
		}
		target = next
	}

	if target >= 0 {
		env.DepositPheromone(pos, target, u.DepositPheromone, u.MaxPheromone)
		ant.Position = target
		ant.Energy += env.TakeEnergy(target, min(u.TakeEnergy, ant.Capacity()))
		if u.receives(env, target) {
			u.depositComponents(ant, env, target, r)
		}
		ant.Newborn = false
	}
	ant.Lives--

	if !ant.Returning && r.Float64() > ant.Load() {
		ant.Returning = true
	}
	return nil
}

func (u *Updater) receives(env *Environment, n int) bool {
	if u.Mode == DepositPathNodes {
		return !env.IsNest(n)
	}
	return env.IsNest(n)
}

// choose returns the next node or -1 when pos has no neighbours.
func (u *Updater) choose(ctx context.Context, ant *Ant, env *Environment, r strategy.Rand) (int, error) {
	neighbours := env.Outgoing(ant.Position)
	if len(neighbours) == 0 {
		return -1, nil
	}

	nodeScores := make([]float64, len(neighbours))
	edgeScores := make([]float64, len(neighbours))
	friend := false
	if ant.Returning {
		for i, n := range neighbours {
			s, err := similarity.Sanitized(ctx, u.Measure, env.NodeSignature(n), ant.Signature)
			if err != nil {
				return -1, err
			}
			nodeScores[i] = s
			edgeScores[i] = env.Pheromone(ant.Position, n)
			friend = friend || env.IsFriendNest(n, ant.Home)
		}
	} else {
		var sum float64
		for i, n := range neighbours {
			nodeScores[i] = env.Energy(n)
			sum += nodeScores[i]
			edgeScores[i] = 1 - env.Pheromone(ant.Position, n)
			friend = friend || env.IsFriendNest(n, ant.Home)
		}
		for i := range nodeScores {
			if sum > 0 {
				nodeScores[i] /= sum
			} else {
				nodeScores[i] = 0
			}
		}
	}

	scores := nodeScores
	if !friend {
		for i := range scores {
			scores[i] += edgeScores[i]
		}
	}
	return neighbours[Select(normalize(scores), r.Float64())], nil
}

// depositComponents copies DepositedComponentsRatio of the ant's symbols,
// drawn without replacement, into node n.
func (u *Updater) depositComponents(ant *Ant, env *Environment, n int, r strategy.Rand) {
	count := min(int(float64(len(ant.Signature))*u.DepositedComponentsRatio), len(ant.Signature))
	if count <= 0 {
		return
	}
	idx := make([]int, len(ant.Signature))
	for i := range idx {
		idx[i] = i
	}
	picked := make([]model.Symbol, count)
	for c := 0; c < count; c++ {
		j := c + r.Intn(len(idx)-c)
		idx[c], idx[j] = idx[j], idx[c]
		picked[c] = ant.Signature[idx[c]]
	}
	env.Deposit(n, picked, r)
}
