package tuning

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/sensego/aca"
	"github.com/hupe1980/sensego/bat"
	"github.com/hupe1980/sensego/cuckoo"
	"github.com/hupe1980/sensego/genetic"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
)

// Rand is the randomness a perturbation needs.
type Rand interface {
	NormFloat64() float64
}

// Parameters is a point in the parameter space of one strategy.
type Parameters interface {
	// Kind returns the strategy the parameters configure.
	Kind() strategy.Kind
	// Scalars returns the tunable values in a fixed order.
	Scalars() []*ScalarParameter
	// Clone returns an independent copy.
	Clone() Parameters
	// Perturb moves every scalar by a random direction of the given length.
	Perturb(r Rand, distance float64)
	// Values returns the scalar values by name.
	Values() map[string]float64
	// SetValues overwrites the named scalars.
	SetValues(values map[string]float64) error
	// Build creates a strategy configured with the current values.
	Build(scorer score.Scorer, cond *stop.Condition, seed int64) (strategy.Disambiguator, error)
}

// NewParameters returns the default parameters of kind.
func NewParameters(kind strategy.Kind) (Parameters, error) {
	switch kind {
	case strategy.Genetic:
		return NewGeneticParameters(), nil
	case strategy.AntColony:
		return NewColonyParameters(), nil
	case strategy.Cuckoo:
		return NewCuckooParameters(), nil
	case strategy.Bat:
		return NewBatParameters(), nil
	default:
		return nil, fmt.Errorf("tuning: unsupported strategy %v", kind)
	}
}

type set []*ScalarParameter

func (s set) Scalars() []*ScalarParameter { return s }

// Perturb draws a Gaussian direction, scales it so that its largest
// component is one and moves each scalar by distance along it.
func (s set) Perturb(r Rand, distance float64) {
	dir := make([]float64, len(s))
	var largest float64
	for i := range dir {
		dir[i] = r.NormFloat64()
		largest = max(largest, math.Abs(dir[i]))
	}
	if largest == 0 {
		return
	}
	for i, p := range s {
		p.Add(dir[i] / largest * distance)
	}
}

func (s set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, p := range s {
		out[p.Name] = p.Value
	}
	return out
}

func (s set) SetValues(values map[string]float64) error {
	byName := make(map[string]*ScalarParameter, len(s))
	for _, p := range s {
		byName[p.Name] = p
	}
	for name := range values {
		if _, ok := byName[name]; !ok {
			return fmt.Errorf("tuning: unknown parameter %q", name)
		}
	}
	// Two passes let linked bounds settle regardless of order.
	for pass := 0; pass < 2; pass++ {
		for _, p := range s {
			if v, ok := values[p.Name]; ok {
				p.Value = v
				p.Clamp()
			}
		}
	}
	return nil
}

func (s set) copyTo(dst set) {
	for i, p := range s {
		dst[i].Value = p.Value
	}
}

func (s set) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// GeneticParameters tunes the genetic search.
type GeneticParameters struct {
	set
	Population    *ScalarParameter
	CrossoverRate *ScalarParameter
	MutationRate  *ScalarParameter
	ElitismRate   *ScalarParameter
}

// NewGeneticParameters starts from genetic.DefaultOptions.
func NewGeneticParameters() *GeneticParameters {
	def := genetic.DefaultOptions
	p := &GeneticParameters{
		Population:    NewInteger("population", 2, 100, float64(def.Population)),
		CrossoverRate: NewScalar("crossover_rate", 0, 1, def.CrossoverRate),
		MutationRate:  NewScalar("mutation_rate", 0, 1, def.MutationRate),
		ElitismRate:   NewScalar("elitism_rate", 0, 0.9, def.ElitismRate),
	}
	p.set = set{p.Population, p.CrossoverRate, p.MutationRate, p.ElitismRate}
	return p
}

// Kind implements Parameters.
func (p *GeneticParameters) Kind() strategy.Kind { return strategy.Genetic }

// Clone implements Parameters.
func (p *GeneticParameters) Clone() Parameters {
	c := NewGeneticParameters()
	p.copyTo(c.set)
	return c
}

// Apply writes the values of p into o.
func (p *GeneticParameters) Apply(o *genetic.Options) {
	o.Population = p.Population.Int()
	o.CrossoverRate = p.CrossoverRate.Value
	o.MutationRate = p.MutationRate.Value
	o.ElitismRate = p.ElitismRate.Value
	o.TournamentSize = min(o.TournamentSize, o.Population)
}

// Build implements Parameters.
func (p *GeneticParameters) Build(scorer score.Scorer, cond *stop.Condition, seed int64) (strategy.Disambiguator, error) {
	return genetic.New(scorer, cond, p.Apply, func(o *genetic.Options) {
		o.RandomSeed = &seed
	})
}

// CuckooParameters tunes the cuckoo search.
type CuckooParameters struct {
	set
	Nests             *ScalarParameter
	LevyScale         *ScalarParameter
	DestroyedFraction *ScalarParameter
}

// NewCuckooParameters starts from cuckoo.DefaultOptions.
func NewCuckooParameters() *CuckooParameters {
	def := cuckoo.DefaultOptions
	p := &CuckooParameters{
		Nests:             NewInteger("nests", 2, 50, float64(def.Nests)),
		LevyScale:         NewScalar("levy_scale", 0, 10, def.LevyScale),
		DestroyedFraction: NewScalar("destroyed_fraction", 0, 0.9, def.DestroyedFraction),
	}
	p.set = set{p.Nests, p.LevyScale, p.DestroyedFraction}
	return p
}

// Kind implements Parameters.
func (p *CuckooParameters) Kind() strategy.Kind { return strategy.Cuckoo }

// Clone implements Parameters.
func (p *CuckooParameters) Clone() Parameters {
	c := NewCuckooParameters()
	p.copyTo(c.set)
	return c
}

// Apply writes the values of p into o.
func (p *CuckooParameters) Apply(o *cuckoo.Options) {
	o.Nests = p.Nests.Int()
	o.LevyScale = p.LevyScale.Value
	o.DestroyedFraction = p.DestroyedFraction.Value
}

// Build implements Parameters.
func (p *CuckooParameters) Build(scorer score.Scorer, cond *stop.Condition, seed int64) (strategy.Disambiguator, error) {
	return cuckoo.New(scorer, cond, p.Apply, func(o *cuckoo.Options) {
		o.RandomSeed = &seed
	})
}

// BatParameters tunes the bat algorithm. The frequency, loudness and rate
// minima are linked to their maxima.
type BatParameters struct {
	set
	Bats         *ScalarParameter
	MinFrequency *ScalarParameter
	MaxFrequency *ScalarParameter
	MinLoudness  *ScalarParameter
	MaxLoudness  *ScalarParameter
	MinRate      *ScalarParameter
	MaxRate      *ScalarParameter
	Alpha        *ScalarParameter
	Gamma        *ScalarParameter
}

// NewBatParameters starts from bat.DefaultOptions.
func NewBatParameters() *BatParameters {
	def := bat.DefaultOptions
	p := &BatParameters{
		Bats:         NewInteger("bats", 1, 50, float64(def.Bats)),
		MinFrequency: NewScalar("min_frequency", 0, 100, def.MinFrequency),
		MaxFrequency: NewScalar("max_frequency", 0, 100, def.MaxFrequency),
		MinLoudness:  NewScalar("min_loudness", 0, 100, def.MinLoudness),
		MaxLoudness:  NewScalar("max_loudness", 0, 100, def.MaxLoudness),
		MinRate:      NewScalar("min_rate", 0, 1, def.MinRate),
		MaxRate:      NewScalar("max_rate", 0, 1, def.MaxRate),
		Alpha:        NewScalar("alpha", 0.75, 1, def.Alpha),
		Gamma:        NewScalar("gamma", 0.75, 1, def.Gamma),
	}
	p.MinFrequency.LinkMax(p.MaxFrequency)
	p.MinLoudness.LinkMax(p.MaxLoudness)
	p.MinRate.LinkMax(p.MaxRate)
	p.set = set{
		p.Bats,
		p.MinFrequency, p.MaxFrequency,
		p.MinLoudness, p.MaxLoudness,
		p.MinRate, p.MaxRate,
		p.Alpha, p.Gamma,
	}
	return p
}

// Kind implements Parameters.
func (p *BatParameters) Kind() strategy.Kind { return strategy.Bat }

// Clone implements Parameters.
func (p *BatParameters) Clone() Parameters {
	c := NewBatParameters()
	p.copyTo(c.set)
	return c
}

// Apply writes the values of p into o.
func (p *BatParameters) Apply(o *bat.Options) {
	o.Bats = p.Bats.Int()
	o.MinFrequency = p.MinFrequency.Value
	o.MaxFrequency = p.MaxFrequency.Value
	o.MinLoudness = p.MinLoudness.Value
	o.MaxLoudness = p.MaxLoudness.Value
	o.MinRate = p.MinRate.Value
	o.MaxRate = p.MaxRate.Value
	o.Alpha = p.Alpha.Value
	o.Gamma = p.Gamma.Value
}

// Build implements Parameters.
func (p *BatParameters) Build(scorer score.Scorer, cond *stop.Condition, seed int64) (strategy.Disambiguator, error) {
	return bat.New(scorer, cond, p.Apply, func(o *bat.Options) {
		o.RandomSeed = &seed
	})
}

// ColonyParameters tunes the ant colony.
type ColonyParameters struct {
	set
	AntsPerRound             *ScalarParameter
	Lives                    *ScalarParameter
	InitialEnergy            *ScalarParameter
	TakeEnergy               *ScalarParameter
	MaxEnergy                *ScalarParameter
	DepositPheromone         *ScalarParameter
	Evaporation              *ScalarParameter
	DepositedComponentsRatio *ScalarParameter

	// Measure compares node and ant signatures. nil selects the colony's
	// default.
	Measure similarity.Measure
}

// NewColonyParameters starts from aca.DefaultOptions.
func NewColonyParameters() *ColonyParameters {
	def := aca.DefaultOptions
	p := &ColonyParameters{
		AntsPerRound:             NewInteger("ants_per_round", 1, 100, float64(def.AntsPerRound)),
		Lives:                    NewInteger("lives", 1, 100, float64(def.Lives)),
		InitialEnergy:            NewScalar("initial_energy", 0, 100, def.InitialEnergy),
		TakeEnergy:               NewScalar("take_energy", 0, 10, def.TakeEnergy),
		MaxEnergy:                NewScalar("max_energy", 1, 200, def.MaxEnergy),
		DepositPheromone:         NewScalar("deposit_pheromone", 0, 1, def.DepositPheromone),
		Evaporation:              NewScalar("evaporation", 0, 1, def.Evaporation),
		DepositedComponentsRatio: NewScalar("deposited_components_ratio", 0, 1, def.DepositedComponentsRatio),
	}
	p.set = set{
		p.AntsPerRound, p.Lives,
		p.InitialEnergy, p.TakeEnergy, p.MaxEnergy,
		p.DepositPheromone, p.Evaporation, p.DepositedComponentsRatio,
	}
	return p
}

// Kind implements Parameters.
func (p *ColonyParameters) Kind() strategy.Kind { return strategy.AntColony }

// Clone implements Parameters.
func (p *ColonyParameters) Clone() Parameters {
	c := NewColonyParameters()
	p.copyTo(c.set)
	c.Measure = p.Measure
	return c
}

// Apply writes the values of p into o. A nil Measure leaves o.Measure
// untouched.
func (p *ColonyParameters) Apply(o *aca.Options) {
	o.AntsPerRound = p.AntsPerRound.Int()
	o.Lives = p.Lives.Int()
	o.InitialEnergy = p.InitialEnergy.Value
	o.TakeEnergy = p.TakeEnergy.Value
	o.MaxEnergy = p.MaxEnergy.Value
	o.DepositPheromone = p.DepositPheromone.Value
	o.Evaporation = p.Evaporation.Value
	o.DepositedComponentsRatio = p.DepositedComponentsRatio.Value
	if p.Measure != nil {
		o.Measure = p.Measure
	}
}

// Build implements Parameters. Ants move sequentially so that repetitions
// can run in parallel.
func (p *ColonyParameters) Build(scorer score.Scorer, cond *stop.Condition, seed int64) (strategy.Disambiguator, error) {
	return aca.New(scorer, cond, p.Apply, func(o *aca.Options) {
		o.Workers = 1
		o.RandomSeed = &seed
	})
}

// Describe formats the values of p in scalar order.
func Describe(p Parameters) string {
	return set(p.Scalars()).String()
}
