package tuning

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/hupe1980/sensego/cuckoo"
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/stop"
)

// SearchOptions represents the options for configuring a parameter search.
type SearchOptions struct {
	// Nests is the number of parameter sets kept alive.
	Nests int
	// Distance scales the Lévy flights through parameter space, in steps.
	Distance float64
	// DestroyedFraction is the fraction of worst sets replaced per
	// iteration by long flights from the best set.
	DestroyedFraction float64
	// RandomSeed makes searches reproducible. nil selects a time-based seed.
	RandomSeed *int64
	Logger     *slog.Logger
	// OnIteration is called after every iteration with the best result so
	// far.
	OnIteration func(iteration int, best *Result)
}

// DefaultSearchOptions contains the default search options.
var DefaultSearchOptions = SearchOptions{
	Nests:             5,
	Distance:          1,
	DestroyedFraction: 0.25,
}

type candidate struct {
	params Parameters
	eval   Evaluation
}

// Search tunes the parameters of one strategy with a cuckoo search over
// parameter sets, starting from initial and bounded by budget. Every
// candidate is scored by eval.
func Search(ctx context.Context, initial Parameters, eval *Evaluator, budget stop.Budget, optFns ...func(o *SearchOptions)) (*Result, error) {
	opts := DefaultSearchOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Nests = max(opts.Nests, 1)
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cond, err := budget.New()
	if err != nil {
		return nil, err
	}
	r := rng.FromOptional(opts.RandomSeed)
	evaluations := 0

	evaluate := func(p Parameters) (*candidate, error) {
		ev, err := eval.Evaluate(ctx, p)
		if err != nil {
			return nil, err
		}
		evaluations++
		return &candidate{params: p, eval: ev}, nil
	}

	nests := make([]*candidate, opts.Nests)
	for i := range nests {
		p := initial.Clone()
		if i > 0 {
			p.Perturb(r, opts.Distance*math.Abs(cuckoo.Levy(r)))
		}
		if nests[i], err = evaluate(p); err != nil {
			return nil, err
		}
	}
	best := fittest(nests)

	result := func(iterations int) *Result {
		return &Result{
			Kind:        best.params.Kind(),
			Values:      best.params.Values(),
			Score:       best.eval.Mean,
			Scores:      best.eval.Scores,
			Iterations:  iterations,
			Evaluations: evaluations,
		}
	}

	for !cond.Tick() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := nests[r.Intn(len(nests))].params.Clone()
		p.Perturb(r, opts.Distance*math.Abs(cuckoo.Levy(r)))
		egg, err := evaluate(p)
		if err != nil {
			return nil, err
		}
		if host := r.Intn(len(nests)); egg.eval.Mean > nests[host].eval.Mean {
			nests[host] = egg
		}

		destroyed := min(int(math.Floor(opts.DestroyedFraction*float64(len(nests))+1e-9)), len(nests)-1)
		if destroyed > 0 {
			slices.SortStableFunc(nests, func(a, b *candidate) int {
				return cmp.Compare(a.eval.Mean, b.eval.Mean)
			})
			for i := 0; i < destroyed; i++ {
				p := best.params.Clone()
				p.Perturb(r, opts.Distance*(1+math.Abs(cuckoo.Levy(r))))
				if nests[i], err = evaluate(p); err != nil {
					return nil, err
				}
			}
		}

		if top := fittest(nests); top.eval.Mean > best.eval.Mean {
			best = top
		}
		logger.Info("tuning iteration",
			"strategy", best.params.Kind().String(),
			"iteration", cond.Iterations(),
			"best", best.eval.Mean,
			"parameters", Describe(best.params),
		)
		if opts.OnIteration != nil {
			opts.OnIteration(cond.Iterations(), result(cond.Iterations()))
		}
	}
	return result(cond.Iterations() - 1), nil
}

func fittest(nests []*candidate) *candidate {
	best := nests[0]
	for _, c := range nests[1:] {
		if c.eval.Mean > best.eval.Mean {
			best = c
		}
	}
	return best
}
