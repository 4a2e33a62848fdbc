// Package cuckoo implements word sense disambiguation by cuckoo search.
//
// Each nest holds a configuration. Every iteration a cuckoo leaves a random
// nest by a Lévy flight, redrawing a heavy-tailed number of words, and lays
// its egg in another random nest if it is fitter there. The worst nests are
// then abandoned and rebuilt at random.
package cuckoo

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

// levyBeta is the stability index of the Lévy distribution.
const levyBeta = 1.5

var levySigma = mantegnaSigma(levyBeta)

// Options represents the options for configuring the cuckoo search.
type Options struct {
	// Nests is the number of nests.
	Nests int
	// LevyScale scales the number of words a flight redraws.
	LevyScale float64
	// DestroyedFraction is the fraction of worst nests abandoned per
	// iteration.
	DestroyedFraction float64
	// RandomSeed makes runs reproducible. nil selects a time-based seed.
	RandomSeed *int64
	Logger     *slog.Logger
	Observer   strategy.Observer
}

// DefaultOptions contains the default options for the cuckoo search.
var DefaultOptions = Options{
	Nests:             15,
	LevyScale:         0.5,
	DestroyedFraction: 0.25,
}

func (o Options) validate() error {
	invalid := func(name string, v any, reason string) error {
		return &strategy.ErrInvalidParameter{Kind: strategy.Cuckoo, Name: name, Value: v, Reason: reason}
	}
	switch {
	case o.Nests < 2:
		return invalid("Nests", o.Nests, "must be >= 2")
	case o.LevyScale < 0 || math.IsInf(o.LevyScale, 0) || math.IsNaN(o.LevyScale):
		return invalid("LevyScale", o.LevyScale, "must be finite and >= 0")
	case o.DestroyedFraction < 0 || o.DestroyedFraction >= 1:
		return invalid("DestroyedFraction", o.DestroyedFraction, "must be in [0,1)")
	}
	return nil
}

// Disambiguator is the cuckoo search strategy.
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

// New creates a cuckoo search over scorer bounded by cond.
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
		logger:   logger.With("strategy", strategy.Cuckoo.String()),
		observer: observer,
	}, nil
}

// Kind implements strategy.Disambiguator.
func (d *Disambiguator) Kind() strategy.Kind { return strategy.Cuckoo }

// Best returns the best score of the last run.
func (d *Disambiguator) Best() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.best
}

// Release implements strategy.Disambiguator.
func (d *Disambiguator) Release() error {
	return d.releaser.Release(nil)
}

type nest struct {
	cfg     *configuration.Configuration
	fitness float64
}

// Disambiguate implements strategy.Disambiguator.
func (d *Disambiguator) Disambiguate(ctx context.Context, doc model.Document) (*configuration.Configuration, error) {
	if d.releaser.Released() {
		return nil, strategy.ErrReleased
	}
	d.cond.Reset()

	nests := make([]*nest, d.opts.Nests)
	for i := range nests {
		n, err := d.randomNest(ctx, doc)
		if err != nil {
			return nil, err
		}
		nests[i] = n
	}
	mutable := strategy.Mutable(nests[0].cfg)
	best := d.fittest(nests).cfg.Clone()
	bestFitness := d.fittest(nests).fitness

	for !d.cond.Tick() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := nests[d.rng.Intn(len(nests))]
		egg := src.cfg.Clone()
		strategy.Perturb(egg, d.rng, mutable, d.flight(len(mutable)))
		f, err := d.scorer.Score(ctx, doc, egg)
		if err != nil {
			return nil, err
		}
		if host := d.rng.Intn(len(nests)); f > nests[host].fitness {
			nests[host] = &nest{cfg: egg, fitness: f}
		}

		if err := d.abandon(ctx, doc, nests); err != nil {
			return nil, err
		}

		if top := d.fittest(nests); top.fitness > bestFitness {
			best, bestFitness = top.cfg.Clone(), top.fitness
		}
		d.observer.OnIteration(strategy.Cuckoo, d.cond.Iterations(), bestFitness)
	}

	d.mu.Lock()
	d.best = bestFitness
	d.mu.Unlock()

	d.logger.Debug("cuckoo search finished",
		"document", doc.ID(),
		"iterations", d.cond.Iterations()-1,
		"elapsed", d.cond.Elapsed(),
		"best", bestFitness,
	)
	return strategy.Finalize(best), nil
}

func (d *Disambiguator) randomNest(ctx context.Context, doc model.Document) (*nest, error) {
	cfg := configuration.Random(doc, d.rng)
	f, err := d.scorer.Score(ctx, doc, cfg)
	if err != nil {
		return nil, err
	}
	return &nest{cfg: cfg, fitness: f}, nil
}

// abandon rebuilds the DestroyedFraction worst nests. At least one nest
// survives.
func (d *Disambiguator) abandon(ctx context.Context, doc model.Document, nests []*nest) error {
	n := min(int(math.Floor(d.opts.DestroyedFraction*float64(len(nests))+1e-9)), len(nests)-1)
	if n <= 0 {
		return nil
	}
	order := make([]int, len(nests))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(nests[a].fitness, nests[b].fitness)
	})
	for _, i := range order[:n] {
		fresh, err := d.randomNest(ctx, doc)
		if err != nil {
			return err
		}
		nests[i] = fresh
	}
	return nil
}

// fittest returns the nest with the highest fitness; ties go to the lowest
// index.
func (d *Disambiguator) fittest(nests []*nest) *nest {
	best := nests[0]
	for _, n := range nests[1:] {
		if n.fitness > best.fitness {
			best = n
		}
	}
	return best
}

// flight returns the number of words a Lévy flight redraws, at least one
// and at most n. Flights shorten as the budget is consumed.
func (d *Disambiguator) flight(n int) int {
	if n == 0 {
		return 0
	}
	step := math.Abs(Levy(d.rng)) * d.opts.LevyScale * (1 - d.cond.Progress())
	if math.IsNaN(step) || step >= float64(n) {
		return n
	}
	return 1 + int(step)
}

// NormRand draws standard normal values.
type NormRand interface {
	NormFloat64() float64
}

// Levy draws a Lévy distributed step of stability index 1.5 with
// Mantegna's algorithm.
func Levy(r NormRand) float64 {
	u := r.NormFloat64() * levySigma
	v := r.NormFloat64()
	return u / math.Pow(math.Abs(v), 1/levyBeta)
}

func mantegnaSigma(beta float64) float64 {
	num := math.Gamma(1+beta) * math.Sin(math.Pi*beta/2)
	den := math.Gamma((1+beta)/2) * beta * math.Pow(2, (beta-1)/2)
	return math.Pow(num/den, 1/beta)
}
