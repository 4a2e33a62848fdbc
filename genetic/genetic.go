// Package genetic implements word sense disambiguation by genetic search.
//
// A fixed-size population of configurations evolves under elitism,
// tournament selection, crossover and mutation. Fitness is the
// configuration score. The search runs until the stop condition fires and
// returns the fittest configuration.
package genetic

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
)

// Crossover selects the crossover operator.
type Crossover uint8

const (
	// OnePoint exchanges the assignment sub-ranges after a random cut.
	OnePoint Crossover = iota
	// Uniform swaps each word's assignment with probability 1/2.
	Uniform
)

func (c Crossover) String() string {
	if c == Uniform {
		return "uniform"
	}
	return "one-point"
}

// Options represents the options for configuring the genetic search.
type Options struct {
	// Population is the number of individuals.
	Population int
	// CrossoverRate is the probability of crossing a selected pair.
	CrossoverRate float64
	// MutationRate is the probability of mutating a selected pair.
	MutationRate float64
	// ElitismRate is the fraction of fittest individuals copied unchanged.
	ElitismRate float64
	// TournamentSize is the number of contestants per parent selection.
	TournamentSize int
	// Crossover selects the crossover operator.
	Crossover Crossover
	// MutatedGenes is the fraction of mutable words redrawn by a mutation.
	// At least one word is always redrawn.
	MutatedGenes float64
	// RandomSeed makes runs reproducible. nil selects a time-based seed.
	RandomSeed *int64
	Logger     *slog.Logger
	Observer   strategy.Observer
}

// DefaultOptions contains the default options for the genetic search.
var DefaultOptions = Options{
	Population:     10,
	CrossoverRate:  0.9,
	MutationRate:   0.1,
	ElitismRate:    0.2,
	TournamentSize: 2,
	Crossover:      OnePoint,
	MutatedGenes:   0,
}

func (o Options) validate() error {
	invalid := func(name string, v any, reason string) error {
		return &strategy.ErrInvalidParameter{Kind: strategy.Genetic, Name: name, Value: v, Reason: reason}
	}
	switch {
	case o.Population < 2:
		return invalid("Population", o.Population, "must be >= 2")
	case o.CrossoverRate < 0 || o.CrossoverRate > 1:
		return invalid("CrossoverRate", o.CrossoverRate, "must be in [0,1]")
	case o.MutationRate < 0 || o.MutationRate > 1:
		return invalid("MutationRate", o.MutationRate, "must be in [0,1]")
	case o.ElitismRate < 0 || o.ElitismRate >= 1:
		return invalid("ElitismRate", o.ElitismRate, "must be in [0,1)")
	case o.TournamentSize < 1 || o.TournamentSize > o.Population:
		return invalid("TournamentSize", o.TournamentSize, "must be in [1,Population]")
	case o.MutatedGenes < 0 || o.MutatedGenes > 1:
		return invalid("MutatedGenes", o.MutatedGenes, "must be in [0,1]")
	}
	return nil
}

// Disambiguator is the genetic search strategy.
// It is not safe for concurrent use; run one search at a time.
type Disambiguator struct {
	scorer   score.Scorer
	cond     *stop.Condition
	opts     Options
	rng      *rng.Source
	logger   *slog.Logger
	observer strategy.Observer
	releaser strategy.Releaser

	mu   sync.Mutex
	best float64
}

var _ strategy.Disambiguator = (*Disambiguator)(nil)

// New creates a genetic search over scorer bounded by cond.
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

	return &Disambiguator{
		scorer:   scorer,
		cond:     cond,
		opts:     opts,
		rng:      rng.FromOptional(opts.RandomSeed),
		logger:   logger.With("strategy", strategy.Genetic.String()),
		observer: observer,
	}, nil
}

// Kind implements strategy.Disambiguator.
func (d *Disambiguator) Kind() strategy.Kind { return strategy.Genetic }

// Best returns the best fitness of the last run.
func (d *Disambiguator) Best() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.best
}

// Release implements strategy.Disambiguator. The scorer is owned by the
// caller and is not released.
func (d *Disambiguator) Release() error {
	return d.releaser.Release(nil)
}

type individual struct {
	cfg       *configuration.Configuration
	fitness   float64
	evaluated bool
}

func (ind *individual) clone() *individual {
	return &individual{cfg: ind.cfg.Clone(), fitness: ind.fitness, evaluated: ind.evaluated}
}

// Disambiguate implements strategy.Disambiguator.
func (d *Disambiguator) Disambiguate(ctx context.Context, doc model.Document) (*configuration.Configuration, error) {
	if d.releaser.Released() {
		return nil, strategy.ErrReleased
	}
	d.cond.Reset()

	pop := make([]*individual, d.opts.Population)
	for i := range pop {
		pop[i] = &individual{cfg: configuration.Random(doc, d.rng)}
	}
	mutable := strategy.Mutable(pop[0].cfg)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.evaluate(ctx, doc, pop); err != nil {
			return nil, err
		}
		fittest := d.fittest(pop)
		d.setBest(fittest.fitness)

		if d.cond.Tick() {
			break
		}
		d.observer.OnIteration(strategy.Genetic, d.cond.Iterations(), fittest.fitness)
		pop = d.nextGeneration(pop, mutable)
	}

	fittest := d.fittest(pop)
	d.logger.Debug("genetic search finished",
		"document", doc.ID(),
		"generations", d.cond.Iterations()-1,
		"elapsed", d.cond.Elapsed(),
		"best", fittest.fitness,
	)
	return strategy.Finalize(fittest.cfg.Clone()), nil
}

func (d *Disambiguator) setBest(v float64) {
	d.mu.Lock()
	d.best = v
	d.mu.Unlock()
}

func (d *Disambiguator) evaluate(ctx context.Context, doc model.Document, pop []*individual) error {
	for _, ind := range pop {
		if ind.evaluated {
			continue
		}
		f, err := d.scorer.Score(ctx, doc, ind.cfg)
		if err != nil {
			return err
		}
		ind.fitness, ind.evaluated = f, true
	}
	return nil
}

// fittest returns the individual with the highest fitness; ties go to the
// lowest index.
func (d *Disambiguator) fittest(pop []*individual) *individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.fitness > best.fitness {
			best = ind
		}
	}
	return best
}

func (d *Disambiguator) eliteCount(n int) int {
	return int(math.Floor(d.opts.ElitismRate*float64(n) + 1e-9))
}

func (d *Disambiguator) nextGeneration(pop []*individual, mutable []int) []*individual {
	n := len(pop)
	next := make([]*individual, 0, n)

	ranked := slices.Clone(pop)
	slices.SortStableFunc(ranked, func(a, b *individual) int {
		return cmp.Compare(b.fitness, a.fitness)
	})
	for _, ind := range ranked[:d.eliteCount(n)] {
		next = append(next, ind.clone())
	}

	for len(next) < n {
		a, b := d.tournament(pop).clone(), d.tournament(pop).clone()
		if d.rng.Float64() < d.opts.CrossoverRate {
			d.crossover(a, b)
		}
		if d.rng.Float64() < d.opts.MutationRate {
			d.mutate(a, mutable)
			d.mutate(b, mutable)
		}
		next = append(next, a)
		if len(next) < n {
			next = append(next, b)
		}
	}
	return next
}

// tournament picks TournamentSize distinct individuals and returns the
// fittest of them.
func (d *Disambiguator) tournament(pop []*individual) *individual {
	idx := make([]int, len(pop))
	for i := range idx {
		idx[i] = i
	}
	var winner *individual
	for c := 0; c < d.opts.TournamentSize; c++ {
		j := c + d.rng.Intn(len(idx)-c)
		idx[c], idx[j] = idx[j], idx[c]
		if ind := pop[idx[c]]; winner == nil || ind.fitness > winner.fitness {
			winner = ind
		}
	}
	return winner
}

// crossover recombines a and b in place. Assignments are only exchanged
// between the parents, so both children stay within range.
func (d *Disambiguator) crossover(a, b *individual) {
	start, end := a.cfg.Start(), a.cfg.End()
	if end-start < 2 {
		return
	}
	swap := func(i int) {
		x, y := a.cfg.Assignment(i), b.cfg.Assignment(i)
		a.cfg.MustSetSense(i, y)
		b.cfg.MustSetSense(i, x)
	}
	switch d.opts.Crossover {
	case Uniform:
		for i := start; i < end; i++ {
			if d.rng.Float64() < 0.5 {
				swap(i)
			}
		}
	default:
		cut := start + 1 + d.rng.Intn(end-start-1)
		for i := cut; i < end; i++ {
			swap(i)
		}
	}
	a.evaluated, b.evaluated = false, false
}

// mutate redraws MutatedGenes of the mutable words, at least one.
func (d *Disambiguator) mutate(ind *individual, mutable []int) {
	n := max(1, int(math.Round(d.opts.MutatedGenes*float64(len(mutable)))))
	if strategy.Perturb(ind.cfg, d.rng, mutable, n) > 0 {
		ind.evaluated = false
	}
}
