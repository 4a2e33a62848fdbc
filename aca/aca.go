// Package aca implements word sense disambiguation with an ant colony.
//
// The document becomes a graph of one root, one node per word and one nest
// per sense. Ants born in a nest roam the graph collecting energy and
// carrying their sense signature, return home along pheromone trails and
// build bridges between compatible nests. Energy accumulates in the nests
// of mutually related senses; the final configuration picks, per word, the
// nest the extraction policy ranks highest.
package aca

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/internal/workpool"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
)

// Options represents the options for configuring the ant colony.
type Options struct {
	// AntsPerRound is the number of ants born each round.
	AntsPerRound int
	// Lives is the number of moves of an ant.
	Lives int
	// InitialEnergy is the energy of every node of a fresh environment.
	InitialEnergy float64
	// InitialPheromone is the pheromone of every edge of a fresh environment.
	InitialPheromone float64
	// TakeEnergy is the energy an ant takes from each node it enters.
	TakeEnergy float64
	// MaxEnergy is the energy an ant can carry.
	MaxEnergy float64
	// DepositPheromone is the pheromone added to each edge an ant crosses.
	DepositPheromone float64
	// MaxPheromone caps the pheromone of an edge.
	MaxPheromone float64
	// Evaporation is the fraction of pheromone lost after each round.
	Evaporation float64
	// DepositedComponentsRatio is the fraction of the carried signature an
	// ant deposits per move.
	DepositedComponentsRatio float64
	// VectorLength is the size of each node's signature buffer.
	VectorLength int
	DepositMode  DepositMode
	// Workers bounds the number of ants moving concurrently.
	// If 0, runtime.GOMAXPROCS(0) is used.
	Workers int
	// Extractor picks the final senses. Defaults to EnergyExtractor.
	Extractor Extractor
	// Measure compares node and ant signatures. Defaults to Overlap.
	Measure similarity.Measure
	// RandomSeed makes runs reproducible when Workers is 1.
	// nil selects a time-based seed.
	RandomSeed *int64
	Logger     *slog.Logger
	Observer   strategy.Observer
}

// DefaultOptions contains the default options for the ant colony.
var DefaultOptions = Options{
	AntsPerRound:             20,
	Lives:                    25,
	InitialEnergy:            10,
	InitialPheromone:         0,
	TakeEnergy:               1,
	MaxEnergy:                60,
	DepositPheromone:         0.9,
	MaxPheromone:             1,
	Evaporation:              0.1,
	DepositedComponentsRatio: 0.9,
	VectorLength:             100,
	DepositMode:              DepositSenseNodes,
}

func (o Options) validate() error {
	invalid := func(name string, v any, reason string) error {
		return &strategy.ErrInvalidParameter{Kind: strategy.AntColony, Name: name, Value: v, Reason: reason}
	}
	switch {
	case o.AntsPerRound < 1:
		return invalid("AntsPerRound", o.AntsPerRound, "must be >= 1")
	case o.Lives < 1:
		return invalid("Lives", o.Lives, "must be >= 1")
	case o.InitialEnergy < 0:
		return invalid("InitialEnergy", o.InitialEnergy, "must be >= 0")
	case o.InitialPheromone < 0 || o.InitialPheromone > o.MaxPheromone:
		return invalid("InitialPheromone", o.InitialPheromone, "must be in [0,MaxPheromone]")
	case o.TakeEnergy < 0:
		return invalid("TakeEnergy", o.TakeEnergy, "must be >= 0")
	case o.MaxEnergy <= 0:
		return invalid("MaxEnergy", o.MaxEnergy, "must be > 0")
	case o.DepositPheromone < 0:
		return invalid("DepositPheromone", o.DepositPheromone, "must be >= 0")
	case o.MaxPheromone <= 0:
		return invalid("MaxPheromone", o.MaxPheromone, "must be > 0")
	case o.Evaporation < 0 || o.Evaporation > 1:
		return invalid("Evaporation", o.Evaporation, "must be in [0,1]")
	case o.DepositedComponentsRatio < 0 || o.DepositedComponentsRatio > 1:
		return invalid("DepositedComponentsRatio", o.DepositedComponentsRatio, "must be in [0,1]")
	case o.VectorLength < 0:
		return invalid("VectorLength", o.VectorLength, "must be >= 0")
	}
	return nil
}

// Disambiguator is the ant colony strategy.
// It is not safe for concurrent use; run one search at a time.
type Disambiguator struct {
	scorer    score.Scorer
	cond      *stop.Condition
	opts      Options
	rng       *rng.Source
	pool      *workpool.Pool
	updater   *Updater
	extractor Extractor
	logger    *slog.Logger
	observer  strategy.Observer
	releaser  strategy.Releaser

	mu   sync.Mutex
	env  *Environment
	best float64
}

var _ strategy.Disambiguator = (*Disambiguator)(nil)

// New creates an ant colony bounded by cond. The scorer rates the extracted
// configuration for observers and Best.
func New(scorer score.Scorer, cond *stop.Condition, optFns ...func(o *Options)) (*Disambiguator, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if scorer == nil {
		return nil, strategy.ErrNoScorer
	}
	if cond == nil {
		return nil, strategy.ErrNoCondition
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	observer := opts.Observer
	if observer == nil {
		observer = strategy.NoopObserver{}
	}
	measure := opts.Measure
	if measure == nil {
		measure = similarity.NewOverlap()
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = EnergyExtractor{}
	}

	return &Disambiguator{
		scorer: scorer,
		cond:   cond,
		opts:   opts,
		rng:    rng.FromOptional(opts.RandomSeed),
		pool:   workpool.New(opts.Workers),
		updater: &Updater{
			Measure:                  measure,
			TakeEnergy:               opts.TakeEnergy,
			DepositPheromone:         opts.DepositPheromone,
			MaxPheromone:             opts.MaxPheromone,
			DepositedComponentsRatio: opts.DepositedComponentsRatio,
			Mode:                     opts.DepositMode,
		},
		extractor: extractor,
		logger:    logger.With("strategy", strategy.AntColony.String()),
		observer:  observer,
	}, nil
}

// Kind implements strategy.Disambiguator.
func (d *Disambiguator) Kind() strategy.Kind { return strategy.AntColony }

// Best returns the score of the configuration extracted by the last run.
func (d *Disambiguator) Best() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.best
}

// Environment returns the environment of the last run, or nil.
func (d *Disambiguator) Environment() *Environment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.env
}

// Release implements strategy.Disambiguator. It shuts down the worker
// pool; the scorer is owned by the caller.
func (d *Disambiguator) Release() error {
	return d.releaser.Release(d.pool.Close)
}

// Disambiguate implements strategy.Disambiguator.
func (d *Disambiguator) Disambiguate(ctx context.Context, doc model.Document) (*configuration.Configuration, error) {
	if d.releaser.Released() {
		return nil, strategy.ErrReleased
	}
	d.cond.Reset()

	env := NewEnvironment(doc, EnvironmentOptions{
		InitialEnergy:    d.opts.InitialEnergy,
		InitialPheromone: d.opts.InitialPheromone,
		VectorLength:     d.opts.VectorLength,
	})
	d.mu.Lock()
	d.env = env
	d.mu.Unlock()

	nests := env.Nests()
	if len(nests) == 0 {
		cfg := configuration.New(doc)
		cfg.Freeze()
		return cfg, nil
	}

	var ants []*Ant
	for !d.cond.Tick() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for a := 0; a < d.opts.AntsPerRound; a++ {
			home := nests[d.rng.Intn(len(nests))]
			ants = append(ants, NewAnt(env, home, d.opts.Lives, d.opts.MaxEnergy, d.rng.Split()))
		}

		err := d.pool.Run(ctx, len(ants), func(ctx context.Context, i int) error {
			ant := ants[i]
			return d.updater.Update(ctx, ant, env, ant.rand)
		})
		if err != nil {
			return nil, err
		}

		alive := ants[:0]
		for _, ant := range ants {
			if ant.Alive() {
				alive = append(alive, ant)
			}
		}
		clear(ants[len(alive):])
		ants = alive
		env.Evaporate(d.opts.Evaporation)

		if _, ok := d.observer.(strategy.NoopObserver); !ok {
			v, err := d.evaluate(ctx, env)
			if err != nil {
				return nil, err
			}
			d.observer.OnIteration(strategy.AntColony, d.cond.Iterations(), v)
		}
	}

	cfg, err := d.extractor.Extract(ctx, env)
	if err != nil {
		return nil, err
	}
	v, err := d.scorer.Score(ctx, doc, cfg)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.best = v
	d.mu.Unlock()

	d.logger.Debug("ant colony finished",
		"document", doc.ID(),
		"rounds", d.cond.Iterations()-1,
		"elapsed", d.cond.Elapsed(),
		"ants", len(ants),
		"bridges", env.Bridges(),
		"score", v,
	)
	cfg.Freeze()
	return cfg, nil
}

func (d *Disambiguator) evaluate(ctx context.Context, env *Environment) (float64, error) {
	cfg, err := d.extractor.Extract(ctx, env)
	if err != nil {
		return 0, err
	}
	return d.scorer.Score(ctx, env.Document(), cfg)
}
