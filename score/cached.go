package score

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/internal/paircache"
	"github.com/hupe1980/sensego/internal/workpool"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/similarity"
)

// CachedScorer is a memoising parallel Scorer.
//
// The pair cache is bound to one document at a time. Scoring a different
// document reallocates it. Scoring configurations of the same document
// concurrently is safe.
type CachedScorer struct {
	measure similarity.Measure
	pool    *workpool.Pool
	logger  *slog.Logger
	opts    Options

	mu    sync.Mutex // guards doc and cache
	doc   model.Document
	cache *paircache.Cache

	scores      atomic.Uint64
	oracleCalls atomic.Uint64
	rebinds     atomic.Uint64
}

var _ Scorer = (*CachedScorer)(nil)

// New creates a CachedScorer over the given similarity measure.
func New(measure similarity.Measure, optFns ...func(o *Options)) *CachedScorer {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &CachedScorer{
		measure: measure,
		pool:    workpool.New(opts.Workers),
		logger:  logger,
		opts:    opts,
	}
}

// Workers returns the size of the worker pool.
func (s *CachedScorer) Workers() int { return s.pool.Size() }

// Document returns the currently bound document, or nil.
func (s *CachedScorer) Document() model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// bind returns the cache for doc, reallocating it when another document
// is bound.
func (s *CachedScorer) bind(doc model.Document) *paircache.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && s.doc == doc {
		return s.cache
	}
	if s.cache != nil {
		s.rebinds.Add(1)
		s.logger.Debug("score cache reallocated",
			"previous", s.doc.ID(),
			"document", doc.ID(),
			"entries", s.cache.Stats().Entries,
		)
	}
	s.doc = doc
	s.cache = paircache.New(senseCounts(doc))
	return s.cache
}

// Bind binds the scorer to doc, reallocating the cache if another
// document was bound.
func (s *CachedScorer) Bind(doc model.Document) {
	s.bind(doc)
}

// Reset drops every cached pair while keeping the binding.
func (s *CachedScorer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil {
		s.cache = paircache.New(senseCounts(s.doc))
	}
}

func senseCounts(doc model.Document) []int {
	counts := make([]int, doc.Len())
	for i := range counts {
		counts[i] = doc.SenseCount(i)
	}
	return counts
}

// Score sums the similarities of every assigned pair (i, j), i < j, in the
// configuration's range. Words that are unassigned or have no senses
// contribute zero. Oracle failures are collected over all rows and
// returned joined; failed pairs are never cached.
func (s *CachedScorer) Score(ctx context.Context, doc model.Document, cfg *configuration.Configuration) (float64, error) {
	if s.pool.Closed() {
		return 0, ErrReleased
	}
	if cfg.Document() != doc {
		return 0, ErrDocumentMismatch
	}

	cache := s.bind(doc)
	start, end := cfg.Start(), cfg.End()
	rows := end - start - 1
	if rows <= 0 {
		s.scores.Add(1)
		return 0, nil
	}

	partials := make([]float64, rows)
	err := s.pool.Run(ctx, rows, func(ctx context.Context, r int) error {
		v, err := s.row(ctx, doc, cfg, cache, start+r, end)
		partials[r] = v
		return err
	})
	if errors.Is(err, workpool.ErrClosed) {
		return 0, ErrReleased
	}
	if err != nil {
		return 0, err
	}

	var total float64
	for _, v := range partials {
		total += v
	}
	s.scores.Add(1)
	return total, nil
}

func (s *CachedScorer) row(ctx context.Context, doc model.Document, cfg *configuration.Configuration, cache *paircache.Cache, i, end int) (float64, error) {
	k := cfg.Assignment(i)
	if k == configuration.Unassigned || doc.SenseCount(i) == 0 {
		return 0, nil
	}
	if k < 0 || k >= doc.SenseCount(i) {
		return 0, &configuration.ErrOutOfRange{Word: i, Sense: k, SenseCount: doc.SenseCount(i)}
	}
	a := doc.Senses(i)[k].Signature

	var (
		sum  float64
		errs []error
	)
	for j := i + 1; j < end; j++ {
		l := cfg.Assignment(j)
		if l == configuration.Unassigned || doc.SenseCount(j) == 0 {
			continue
		}
		if l < 0 || l >= doc.SenseCount(j) {
			errs = append(errs, &configuration.ErrOutOfRange{Word: j, Sense: l, SenseCount: doc.SenseCount(j)})
			continue
		}
		if v, ok := cache.Get(i, j, k, l); ok {
			sum += v
			continue
		}

		s.oracleCalls.Add(1)
		raw, err := s.measure.Compute(ctx, a, doc.Senses(j)[l].Signature)
		if err != nil {
			errs = append(errs, &PairError{I: i, J: j, K: k, L: l, Err: err})
			continue
		}
		sum += cache.Put(i, j, k, l, similarity.Sanitize(raw))
	}
	return sum, errors.Join(errs...)
}

// Stats returns a snapshot of the counters.
func (s *CachedScorer) Stats() Stats {
	s.mu.Lock()
	cache := s.cache
	s.mu.Unlock()

	st := Stats{
		Scores:      s.scores.Load(),
		OracleCalls: s.oracleCalls.Load(),
		Rebinds:     s.rebinds.Load(),
	}
	if cache != nil {
		cs := cache.Stats()
		st.CacheHits = cs.Hits
		st.CacheMisses = cs.Misses
		st.Entries = cs.Entries
	}
	return st
}

// Release shuts down the worker pool. It waits for running batches and
// is safe to call more than once.
func (s *CachedScorer) Release() {
	s.pool.Close()
}
