package sensego

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/sensego/aca"
	"github.com/hupe1980/sensego/bat"
	"github.com/hupe1980/sensego/blobstore"
	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/cuckoo"
	"github.com/hupe1980/sensego/genetic"
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
	"github.com/hupe1980/sensego/tuning"
)

// Result is the outcome of one disambiguation run.
type Result struct {
	// RunID identifies the run in logs.
	RunID    string        `json:"run_id"`
	Kind     strategy.Kind `json:"kind"`
	Document string        `json:"document"`
	// Configuration is frozen.
	Configuration *configuration.Configuration `json:"-"`
	// Senses holds the chosen sense index per word, -1 for unassigned.
	Senses  []int         `json:"senses"`
	Score   float64       `json:"score"`
	Elapsed time.Duration `json:"elapsed"`
}

// Engine disambiguates documents with one shared memoising scorer.
//
// Runs are serialised: the scorer cache is bound to one document at a
// time. Tune runs on scorers of its own and may overlap with runs.
type Engine struct {
	measure similarity.Measure
	opts    options
	scorer  *score.CachedScorer
	logger  *Logger
	metrics MetricsCollector
	rng     *rng.Source

	mu sync.Mutex

	tunedMu sync.RWMutex
	tuned   map[strategy.Kind]tuning.Parameters

	closed atomic.Bool
}

// New creates an engine scoring with measure.
func New(measure similarity.Measure, optFns ...Option) (*Engine, error) {
	if measure == nil {
		return nil, ErrNoMeasure
	}
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.budget.Validate(); err != nil {
		return nil, translateError(err)
	}
	if !slices.Contains(strategy.Kinds, opts.kind) {
		return nil, fmt.Errorf("%w: unknown strategy %v", ErrInvalidConfiguration, opts.kind)
	}
	if opts.autoSnapshot && opts.store == nil {
		return nil, ErrNoStore
	}
	if opts.limits != nil {
		measure = similarity.Throttled(measure, *opts.limits)
	}

	scorer := score.New(measure, func(o *score.Options) {
		o.Workers = opts.workers
		o.Compression = opts.compression
		o.Logger = opts.logger.Logger
	})

	return &Engine{
		measure: measure,
		opts:    opts,
		scorer:  scorer,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
		rng:     rng.FromOptional(opts.seed),
		tuned:   make(map[strategy.Kind]tuning.Parameters),
	}, nil
}

// Disambiguate runs the configured strategy on doc.
func (e *Engine) Disambiguate(ctx context.Context, doc model.Document) (*Result, error) {
	return e.DisambiguateWith(ctx, doc, e.opts.kind)
}

// DisambiguateWith runs the strategy kind on doc.
func (e *Engine) DisambiguateWith(ctx context.Context, doc model.Document, kind strategy.Kind) (*Result, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	runID := uuid.NewString()
	logger := e.logger.WithRunID(runID).WithStrategy(kind)

	start := time.Now()
	res, err := e.run(ctx, doc, kind, logger)
	elapsed := time.Since(start)

	var best float64
	if res != nil {
		best = res.Score
	}
	e.metrics.RecordDisambiguate(kind, elapsed, best, err)
	e.metrics.RecordScorer(e.scorer.Stats())
	logger.LogDisambiguate(ctx, doc.ID(), best, elapsed, err)
	if err != nil {
		return nil, translateError(err)
	}

	res.RunID = runID
	res.Elapsed = elapsed
	return res, nil
}

// DisambiguateAll runs the configured strategy on every document in order
// and stops at the first error.
func (e *Engine) DisambiguateAll(ctx context.Context, docs []model.Document) ([]*Result, error) {
	results := make([]*Result, 0, len(docs))
	for _, doc := range docs {
		res, err := e.Disambiguate(ctx, doc)
		if err != nil {
			return results, fmt.Errorf("document %s: %w", doc.ID(), err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) run(ctx context.Context, doc model.Document, kind strategy.Kind, logger *Logger) (*Result, error) {
	if e.opts.autoSnapshot {
		if err := e.loadScores(ctx, doc); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			return nil, err
		}
	}

	cond, err := e.opts.budget.New()
	if err != nil {
		return nil, err
	}
	d, err := e.build(kind, cond, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = d.Release() }()

	cfg, err := d.Disambiguate(ctx, doc)
	if err != nil {
		return nil, err
	}
	v, err := e.scorer.Score(ctx, doc, cfg)
	if err != nil {
		return nil, err
	}

	if e.opts.autoSnapshot {
		if err := e.saveScores(ctx, doc); err != nil {
			return nil, err
		}
	}
	return &Result{
		Kind:          kind,
		Document:      doc.ID(),
		Configuration: cfg,
		Senses:        cfg.Assignments(),
		Score:         v,
	}, nil
}

// compose orders option functions so that tuned values override user
// options and the engine's logger, observer and seed are applied last.
func compose[O any](user []func(*O), tuned func(*O), ambient func(*O)) []func(*O) {
	fns := slices.Clone(user)
	if tuned != nil {
		fns = append(fns, tuned)
	}
	return append(fns, ambient)
}

func (e *Engine) build(kind strategy.Kind, cond *stop.Condition, logger *Logger) (strategy.Disambiguator, error) {
	seed := e.rng.Int63()
	tuned := e.tunedParameters(kind)

	switch kind {
	case strategy.Genetic:
		var apply func(*genetic.Options)
		if p, ok := tuned.(*tuning.GeneticParameters); ok {
			apply = p.Apply
		}
		return genetic.New(e.scorer, cond, compose(e.opts.genetic, apply, func(o *genetic.Options) {
			o.RandomSeed = &seed
			o.Logger = logger.Logger
			o.Observer = e.metrics
		})...)
	case strategy.AntColony:
		var apply func(*aca.Options)
		if p, ok := tuned.(*tuning.ColonyParameters); ok {
			apply = p.Apply
		}
		return aca.New(e.scorer, cond, compose(e.opts.colony, apply, func(o *aca.Options) {
			if o.Workers == 0 {
				o.Workers = e.opts.workers
			}
			o.RandomSeed = &seed
			o.Logger = logger.Logger
			o.Observer = e.metrics
		})...)
	case strategy.Cuckoo:
		var apply func(*cuckoo.Options)
		if p, ok := tuned.(*tuning.CuckooParameters); ok {
			apply = p.Apply
		}
		return cuckoo.New(e.scorer, cond, compose(e.opts.cuckoo, apply, func(o *cuckoo.Options) {
			o.RandomSeed = &seed
			o.Logger = logger.Logger
			o.Observer = e.metrics
		})...)
	case strategy.Bat:
		var apply func(*bat.Options)
		if p, ok := tuned.(*tuning.BatParameters); ok {
			apply = p.Apply
		}
		return bat.New(e.scorer, cond, compose(e.opts.bat, apply, func(o *bat.Options) {
			o.RandomSeed = &seed
			o.Logger = logger.Logger
			o.Observer = e.metrics
		})...)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %v", ErrInvalidConfiguration, kind)
	}
}

// Score returns the score of cfg for doc with the engine's scorer.
func (e *Engine) Score(ctx context.Context, doc model.Document, cfg *configuration.Configuration) (float64, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	v, err := e.scorer.Score(ctx, doc, cfg)
	e.metrics.RecordScore(time.Since(start), err)
	return v, translateError(err)
}

// Stats returns the scorer counters.
func (e *Engine) Stats() score.Stats {
	return e.scorer.Stats()
}

// SaveScores writes the score cache snapshot of doc to the store. The
// cache must hold doc, i.e. doc was the last document scored.
func (e *Engine) SaveScores(ctx context.Context, doc model.Document) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return translateError(e.saveScores(ctx, doc))
}

// LoadScores restores the score cache snapshot of doc from the store.
// A missing snapshot returns an error satisfying
// errors.Is(err, blobstore.ErrNotFound).
func (e *Engine) LoadScores(ctx context.Context, doc model.Document) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return translateError(e.loadScores(ctx, doc))
}

func (e *Engine) saveScores(ctx context.Context, doc model.Document) error {
	if e.opts.store == nil {
		return ErrNoStore
	}
	start := time.Now()
	err := e.scorer.SaveSnapshot(ctx, e.opts.store, doc)
	e.metrics.RecordSnapshot("save", time.Since(start), err)
	e.logger.LogSnapshot(ctx, "save", score.SnapshotName(doc.ID()), err)
	return err
}

func (e *Engine) loadScores(ctx context.Context, doc model.Document) error {
	if e.opts.store == nil {
		return ErrNoStore
	}
	start := time.Now()
	err := e.scorer.LoadSnapshot(ctx, e.opts.store, doc)
	if errors.Is(err, blobstore.ErrNotFound) {
		return err
	}
	e.metrics.RecordSnapshot("load", time.Since(start), err)
	e.logger.LogSnapshot(ctx, "load", score.SnapshotName(doc.ID()), err)
	return err
}

// Parameters returns a copy of the parameters used for kind: the tuned
// ones if any, the strategy defaults otherwise.
func (e *Engine) Parameters(kind strategy.Kind) (tuning.Parameters, error) {
	if p := e.tunedParameters(kind); p != nil {
		return p.Clone(), nil
	}
	p, err := tuning.NewParameters(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return p, nil
}

// SetParameters makes later runs of p.Kind() use a copy of p.
func (e *Engine) SetParameters(p tuning.Parameters) {
	e.tunedMu.Lock()
	defer e.tunedMu.Unlock()
	e.tuned[p.Kind()] = p.Clone()
}

func (e *Engine) tunedParameters(kind strategy.Kind) tuning.Parameters {
	e.tunedMu.RLock()
	defer e.tunedMu.RUnlock()
	return e.tuned[kind]
}

// Tune searches the parameters of kind over corpus. Every candidate is
// evaluated with the engine's budget per strategy run; search bounds the
// parameter search itself. The best parameters are used by later runs and
// saved to the store when one is configured.
func (e *Engine) Tune(ctx context.Context, kind strategy.Kind, corpus []model.Document, search stop.Budget) (*tuning.Result, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	runID := uuid.NewString()
	logger := e.logger.WithRunID(runID).WithStrategy(kind)

	start := time.Now()
	res, err := e.tune(ctx, kind, corpus, search, logger)
	var evaluations int
	var best float64
	if res != nil {
		evaluations, best = res.Evaluations, res.Score
	}
	e.metrics.RecordTuning(kind, evaluations, time.Since(start), err)
	logger.LogTuning(ctx, kind, evaluations, best, err)
	if err != nil {
		return nil, translateError(err)
	}
	return res, nil
}

func (e *Engine) tune(ctx context.Context, kind strategy.Kind, corpus []model.Document, search stop.Budget, logger *Logger) (*tuning.Result, error) {
	initial, err := e.Parameters(kind)
	if err != nil {
		return nil, err
	}

	evalSeed, searchSeed := e.rng.Int63(), e.rng.Int63()
	newScorer := func() score.Scorer {
		return score.New(e.measure, func(o *score.Options) {
			o.Workers = e.opts.workers
			o.Logger = logger.Logger
		})
	}
	eval, err := tuning.NewEvaluator(corpus, newScorer, e.opts.budget, append([]func(*tuning.EvaluatorOptions){
		func(o *tuning.EvaluatorOptions) {
			o.RandomSeed = &evalSeed
			o.Logger = logger.Logger
		},
	}, e.opts.evaluator...)...)
	if err != nil {
		return nil, err
	}

	res, err := tuning.Search(ctx, initial, eval, search, append([]func(*tuning.SearchOptions){
		func(o *tuning.SearchOptions) {
			o.RandomSeed = &searchSeed
			o.Logger = logger.Logger
		},
	}, e.opts.search...)...)
	if err != nil {
		return nil, err
	}

	p, err := res.Parameters()
	if err != nil {
		return nil, err
	}
	e.SetParameters(p)

	if e.opts.store != nil {
		if err := tuning.SaveResult(ctx, e.opts.store, e.opts.codec, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// LoadTuned reads the saved tuning result of kind from the store and makes
// later runs use its parameters.
func (e *Engine) LoadTuned(ctx context.Context, kind strategy.Kind) (*tuning.Result, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if e.opts.store == nil {
		return nil, ErrNoStore
	}
	res, err := tuning.LoadResult(ctx, e.opts.store, e.opts.codec, kind)
	if err != nil {
		return nil, err
	}
	p, err := res.Parameters()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	e.SetParameters(p)
	return res, nil
}
