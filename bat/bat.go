// Package bat implements word sense disambiguation with a discrete bat
// algorithm.
//
// Each bat flies towards the global best: its velocity is the number of
// words it copies from the best configuration, grown by a random frequency
// times its distance to the best. Bats whose pulse rate is low take a local
// walk around the best instead, redrawing a number of words scaled by the
// mean loudness. Improvements are accepted with a probability given by the
// bat's loudness, which then decays while its pulse rate rises.
package bat

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
)

// Options represents the options for configuring the bat algorithm.
type Options struct {
	// Bats is the number of bats.
	Bats         int
	MinFrequency float64
	MaxFrequency float64
	// MinLoudness and MaxLoudness bound the initial loudness.
	MinLoudness float64
	MaxLoudness float64
	// MinRate and MaxRate bound the initial pulse rate.
	MinRate float64
	MaxRate float64
	// Alpha is the loudness decay applied on every accepted move.
	Alpha float64
	// Gamma controls how fast the pulse rate approaches its initial value.
	Gamma float64
	// RandomSeed makes runs reproducible. nil selects a time-based seed.
	RandomSeed *int64
	Logger     *slog.Logger
	Observer   strategy.Observer
}

// DefaultOptions contains the default options for the bat algorithm.
var DefaultOptions = Options{
	Bats:         20,
	MinFrequency: 0,
	MaxFrequency: 2,
	MinLoudness:  1,
	MaxLoudness:  2,
	MinRate:      0,
	MaxRate:      1,
	Alpha:        0.9,
	Gamma:        0.9,
}

func (o Options) validate() error {
	invalid := func(name string, v any, reason string) error {
		return &strategy.ErrInvalidParameter{Kind: strategy.Bat, Name: name, Value: v, Reason: reason}
	}
	switch {
	case o.Bats < 1:
		return invalid("Bats", o.Bats, "must be >= 1")
	case o.MinFrequency < 0:
		return invalid("MinFrequency", o.MinFrequency, "must be >= 0")
	case o.MaxFrequency < o.MinFrequency:
		return invalid("MaxFrequency", o.MaxFrequency, "must be >= MinFrequency")
	case o.MinLoudness < 0:
		return invalid("MinLoudness", o.MinLoudness, "must be >= 0")
	case o.MaxLoudness < o.MinLoudness:
		return invalid("MaxLoudness", o.MaxLoudness, "must be >= MinLoudness")
	case o.MinRate < 0 || o.MinRate > 1:
		return invalid("MinRate", o.MinRate, "must be in [0,1]")
	case o.MaxRate < o.MinRate || o.MaxRate > 1:
		return invalid("MaxRate", o.MaxRate, "must be in [MinRate,1]")
	case o.Alpha <= 0 || o.Alpha > 1:
		return invalid("Alpha", o.Alpha, "must be in (0,1]")
	case o.Gamma <= 0:
		return invalid("Gamma", o.Gamma, "must be > 0")
	}
	return nil
}

// Disambiguator is the bat algorithm strategy.
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

// New creates a bat algorithm over scorer bounded by cond.
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
		logger:   logger.With("strategy", strategy.Bat.String()),
		observer: observer,
	}, nil
}

// Kind implements strategy.Disambiguator.
func (d *Disambiguator) Kind() strategy.Kind { return strategy.Bat }

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

type bat struct {
	cfg       *configuration.Configuration
	fitness   float64
	velocity  float64
	loudness  float64
	rate      float64
	startRate float64
}

// Disambiguate implements strategy.Disambiguator.
func (d *Disambiguator) Disambiguate(ctx context.Context, doc model.Document) (*configuration.Configuration, error) {
	if d.releaser.Released() {
		return nil, strategy.ErrReleased
	}
	d.cond.Reset()

	bats := make([]*bat, d.opts.Bats)
	for i := range bats {
		cfg := configuration.Random(doc, d.rng)
		f, err := d.scorer.Score(ctx, doc, cfg)
		if err != nil {
			return nil, err
		}
		r0 := d.between(d.opts.MinRate, d.opts.MaxRate)
		bats[i] = &bat{
			cfg:       cfg,
			fitness:   f,
			loudness:  d.between(d.opts.MinLoudness, d.opts.MaxLoudness),
			rate:      r0,
			startRate: r0,
		}
	}
	mutable := strategy.Mutable(bats[0].cfg)

	best, bestFitness := bats[0].cfg.Clone(), bats[0].fitness
	for _, b := range bats[1:] {
		if b.fitness > bestFitness {
			best, bestFitness = b.cfg.Clone(), b.fitness
		}
	}

	for !d.cond.Tick() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := d.cond.Iterations()
		loudness := meanLoudness(bats)

		for _, b := range bats {
			candidate := d.fly(b, best, mutable)
			if d.rng.Float64() > b.rate {
				candidate = best.Clone()
				walk := max(1, int(math.Round(math.Abs(2*d.rng.Float64()-1)*loudness)))
				strategy.Perturb(candidate, d.rng, mutable, walk)
			}

			f, err := d.scorer.Score(ctx, doc, candidate)
			if err != nil {
				return nil, err
			}
			if f > b.fitness && d.rng.Float64() < b.loudness {
				b.cfg, b.fitness = candidate, f
				b.loudness *= d.opts.Alpha
				b.rate = b.startRate * (1 - math.Exp(-d.opts.Gamma*float64(t)))
			}
			if f > bestFitness {
				best, bestFitness = candidate.Clone(), f
			}
		}
		d.observer.OnIteration(strategy.Bat, t, bestFitness)
	}

	d.mu.Lock()
	d.best = bestFitness
	d.mu.Unlock()

	d.logger.Debug("bat algorithm finished",
		"document", doc.ID(),
		"iterations", d.cond.Iterations()-1,
		"elapsed", d.cond.Elapsed(),
		"best", bestFitness,
	)
	return strategy.Finalize(best), nil
}

// fly moves a copy of b towards best. The velocity grows by a random
// frequency times the number of words b differs from best and is the
// number of those words copied over.
func (d *Disambiguator) fly(b *bat, best *configuration.Configuration, mutable []int) *configuration.Configuration {
	var diff []int
	for _, i := range mutable {
		if b.cfg.Assignment(i) != best.Assignment(i) {
			diff = append(diff, i)
		}
	}
	freq := d.between(d.opts.MinFrequency, d.opts.MaxFrequency)
	b.velocity = min(b.velocity+float64(len(diff))*freq, float64(len(mutable)))

	cfg := b.cfg.Clone()
	n := min(int(math.Round(b.velocity)), len(diff))
	for c := 0; c < n; c++ {
		j := c + d.rng.Intn(len(diff)-c)
		diff[c], diff[j] = diff[j], diff[c]
	}
	strategy.CopyWords(cfg, best, diff[:n])
	return cfg
}

func (d *Disambiguator) between(lo, hi float64) float64 {
	return lo + (hi-lo)*d.rng.Float64()
}

func meanLoudness(bats []*bat) float64 {
	var sum float64
	for _, b := range bats {
		sum += b.loudness
	}
	return sum / float64(len(bats))
}
