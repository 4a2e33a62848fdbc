package tuning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/stop"
)

var (
	// ErrEmptyCorpus is returned when an evaluator has no documents.
	ErrEmptyCorpus = errors.New("tuning: empty corpus")
	// ErrNoScorerFactory is returned when an evaluator cannot build scorers.
	ErrNoScorerFactory = errors.New("tuning: no scorer factory")
)

// EvaluatorOptions represents the options for configuring an Evaluator.
type EvaluatorOptions struct {
	// Repetitions is the number of independent runs per evaluation.
	Repetitions int
	// Parallelism bounds the repetitions running at once.
	// If 0, runtime.GOMAXPROCS(0) is used.
	Parallelism int
	// RandomSeed makes evaluations reproducible. nil selects a time-based
	// seed.
	RandomSeed *int64
	Logger     *slog.Logger
}

// DefaultEvaluatorOptions contains the default evaluator options.
var DefaultEvaluatorOptions = EvaluatorOptions{
	Repetitions: 4,
}

// Evaluation is the outcome of one parameter evaluation.
type Evaluation struct {
	// Scores holds the mean document score of each repetition.
	Scores []float64 `json:"scores"`
	Mean   float64   `json:"mean"`
}

// Evaluator scores parameter sets by running the strategy they build over a
// corpus. Every repetition owns a fresh scorer, stop condition and strategy.
type Evaluator struct {
	corpus    []model.Document
	newScorer func() score.Scorer
	budget    stop.Budget
	opts      EvaluatorOptions
	rng       *rng.Source
	logger    *slog.Logger
}

// NewEvaluator creates an evaluator over corpus. newScorer is called once
// per repetition; budget bounds each strategy run.
func NewEvaluator(corpus []model.Document, newScorer func() score.Scorer, budget stop.Budget, optFns ...func(o *EvaluatorOptions)) (*Evaluator, error) {
	opts := DefaultEvaluatorOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}
	if newScorer == nil {
		return nil, ErrNoScorerFactory
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if opts.Repetitions < 1 {
		return nil, fmt.Errorf("tuning: repetitions must be >= 1, got %d", opts.Repetitions)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{
		corpus:    corpus,
		newScorer: newScorer,
		budget:    budget,
		opts:      opts,
		rng:       rng.FromOptional(opts.RandomSeed),
		logger:    logger,
	}, nil
}

// Evaluate runs the repetitions for p in parallel and averages them.
func (e *Evaluator) Evaluate(ctx context.Context, p Parameters) (Evaluation, error) {
	seeds := make([]int64, e.opts.Repetitions)
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}
	scores := make([]float64, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)
	for i, seed := range seeds {
		params := p.Clone()
		g.Go(func() error {
			v, err := e.repetition(gctx, params, seed)
			if err != nil {
				return fmt.Errorf("repetition %d: %w", i, err)
			}
			scores[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Evaluation{}, err
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	ev := Evaluation{Scores: scores, Mean: sum / float64(len(scores))}
	e.logger.Debug("parameters evaluated",
		"strategy", p.Kind().String(),
		"parameters", Describe(p),
		"mean", ev.Mean,
	)
	return ev, nil
}

// repetition returns the mean score of one strategy run per document.
func (e *Evaluator) repetition(ctx context.Context, p Parameters, seed int64) (float64, error) {
	scorer := e.newScorer()
	defer scorer.Release()

	cond, err := e.budget.New()
	if err != nil {
		return 0, err
	}
	d, err := p.Build(scorer, cond, seed)
	if err != nil {
		return 0, err
	}
	defer func() { _ = d.Release() }()

	var total float64
	for _, doc := range e.corpus {
		cfg, err := d.Disambiguate(ctx, doc)
		if err != nil {
			return 0, err
		}
		v, err := scorer.Score(ctx, doc, cfg)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total / float64(len(e.corpus)), nil
}
