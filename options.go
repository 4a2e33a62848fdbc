package sensego

import (
	"github.com/hupe1980/sensego/aca"
	"github.com/hupe1980/sensego/bat"
	"github.com/hupe1980/sensego/blobstore"
	"github.com/hupe1980/sensego/codec"
	"github.com/hupe1980/sensego/cuckoo"
	"github.com/hupe1980/sensego/genetic"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
	"github.com/hupe1980/sensego/tuning"
)

type options struct {
	store            blobstore.Store
	codec            codec.Codec
	logger           *Logger
	metricsCollector MetricsCollector
	workers          int
	compression      score.Compression
	budget           stop.Budget
	kind             strategy.Kind
	seed             *int64
	limits           *similarity.Limits
	autoSnapshot     bool

	genetic []func(*genetic.Options)
	colony  []func(*aca.Options)
	cuckoo  []func(*cuckoo.Options)
	bat     []func(*bat.Options)

	evaluator []func(*tuning.EvaluatorOptions)
	search    []func(*tuning.SearchOptions)
}

func defaultOptions() options {
	return options{
		codec:            codec.Default,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		compression:      score.DefaultOptions.Compression,
		budget:           stop.Iterations(100),
		kind:             strategy.Genetic,
	}
}

// Option configures Engine construction.
type Option func(*options)

// WithStore configures the blob store used for score cache snapshots and
// tuning results.
func WithStore(s blobstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithCodec configures the codec used for tuning results.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures the logger. Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &sensego.BasicMetricsCollector{}
//	eng, _ := sensego.New(measure, sensego.WithMetricsCollector(metrics))
//	// ... run disambiguations ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithWorkers bounds the number of rows the scorer computes concurrently
// and the number of ants moving at once. If workers <= 0,
// runtime.GOMAXPROCS(0) is used.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithCompression selects the compression of score cache snapshots.
func WithCompression(c score.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBudget bounds every disambiguation run. Defaults to 100 iterations.
func WithBudget(b stop.Budget) Option {
	return func(o *options) {
		o.budget = b
	}
}

// WithStrategy selects the strategy used by Disambiguate. Defaults to
// strategy.Genetic.
func WithStrategy(kind strategy.Kind) Option {
	return func(o *options) {
		o.kind = kind
	}
}

// WithRandomSeed makes runs reproducible. Each run draws its strategy seed
// from a source seeded with seed.
func WithRandomSeed(seed int64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithThrottle bounds the calls made to the similarity measure.
func WithThrottle(limits similarity.Limits) Option {
	return func(o *options) {
		o.limits = &limits
	}
}

// WithAutoSnapshot loads the score cache snapshot of a document before it
// is disambiguated and saves it afterwards. Requires WithStore.
func WithAutoSnapshot() Option {
	return func(o *options) {
		o.autoSnapshot = true
	}
}

// WithGeneticOptions configures the genetic search.
func WithGeneticOptions(optFns ...func(*genetic.Options)) Option {
	return func(o *options) {
		o.genetic = append(o.genetic, optFns...)
	}
}

// WithColonyOptions configures the ant colony.
func WithColonyOptions(optFns ...func(*aca.Options)) Option {
	return func(o *options) {
		o.colony = append(o.colony, optFns...)
	}
}

// WithCuckooOptions configures the cuckoo search.
func WithCuckooOptions(optFns ...func(*cuckoo.Options)) Option {
	return func(o *options) {
		o.cuckoo = append(o.cuckoo, optFns...)
	}
}

// WithBatOptions configures the bat algorithm.
func WithBatOptions(optFns ...func(*bat.Options)) Option {
	return func(o *options) {
		o.bat = append(o.bat, optFns...)
	}
}

// WithEvaluatorOptions configures the evaluator used by Tune.
func WithEvaluatorOptions(optFns ...func(*tuning.EvaluatorOptions)) Option {
	return func(o *options) {
		o.evaluator = append(o.evaluator, optFns...)
	}
}

// WithSearchOptions configures the parameter search used by Tune.
func WithSearchOptions(optFns ...func(*tuning.SearchOptions)) Option {
	return func(o *options) {
		o.search = append(o.search, optFns...)
	}
}
