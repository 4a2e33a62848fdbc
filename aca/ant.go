package aca

import (
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
)

// Ant is an agent bound to its home nest. It carries energy and the
// signature of its home sense.
type Ant struct {
	Position  int
	Home      int
	Lives     int
	Energy    float64
	MaxEnergy float64
	Returning bool
	// Newborn is set until the ant's first move.
	Newborn   bool
	Signature model.Signature

	rand *rng.Source
}

// NewAnt creates a newborn ant at home.
func NewAnt(env *Environment, home, lives int, maxEnergy float64, r *rng.Source) *Ant {
	return &Ant{
		Position:  home,
		Home:      home,
		Lives:     lives,
		MaxEnergy: maxEnergy,
		Newborn:   true,
		Signature: env.SenseSignature(home),
		rand:      r,
	}
}

// Alive reports whether the ant has lives left.
func (a *Ant) Alive() bool { return a.Lives > 0 }

// Capacity returns how much more energy the ant can carry.
func (a *Ant) Capacity() float64 { return max(a.MaxEnergy-a.Energy, 0) }

// Load returns the carried energy as a fraction of MaxEnergy.
func (a *Ant) Load() float64 {
	if a.MaxEnergy <= 0 {
		return 1
	}
	return a.Energy / a.MaxEnergy
}
