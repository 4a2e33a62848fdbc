package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/similarity"
)

// RNG wraps a seeded source with fixture generators.
// It is thread-safe.
type RNG struct {
	*rng.Source
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{Source: rng.New(seed)}
}

// SenseID returns the fixture identifier of sense k of word i.
func SenseID(i, k int) string {
	return fmt.Sprintf("w%d.s%d", i, k)
}

// DocumentWithCounts builds a document whose word i has counts[i] senses.
// Every sense signature is the single symbol SenseID(i, k), so a
// MatrixMeasure can address senses by identifier.
func DocumentWithCounts(id string, counts ...int) *model.MemoryDocument {
	words := make([]model.Word, len(counts))
	for i, n := range counts {
		senses := make([]model.Sense, n)
		for k := range senses {
			sid := SenseID(i, k)
			senses[k] = model.Sense{ID: sid, Signature: model.SignatureOf(sid)}
		}
		words[i] = model.Word{ID: fmt.Sprintf("w%d", i), Lemma: fmt.Sprintf("lemma%d", i), Senses: senses}
	}
	return model.NewDocument(id, words...)
}

// Document builds a document of n words with a uniform sense count in
// [minSenses, maxSenses] per word.
func (r *RNG) Document(id string, n, minSenses, maxSenses int) *model.MemoryDocument {
	counts := make([]int, n)
	for i := range counts {
		counts[i] = minSenses + r.Intn(maxSenses-minSenses+1)
	}
	return DocumentWithCounts(id, counts...)
}

// Matrix returns a MatrixMeasure with a uniform [0, 1) similarity for
// every sense pair of distinct words of doc.
func (r *RNG) Matrix(doc model.Document) *MatrixMeasure {
	m := NewMatrixMeasure(0)
	for i := 0; i < doc.Len(); i++ {
		for j := i + 1; j < doc.Len(); j++ {
			for _, a := range doc.Senses(i) {
				for _, b := range doc.Senses(j) {
					m.Set(a.Signature.String(), b.Signature.String(), r.Float64())
				}
			}
		}
	}
	return m
}

// MatrixMeasure is a symmetric lookup table keyed by signature text.
type MatrixMeasure struct {
	mu       sync.RWMutex
	values   map[[2]string]float64
	fallback float64
}

// NewMatrixMeasure creates an empty table returning fallback for
// unknown pairs.
func NewMatrixMeasure(fallback float64) *MatrixMeasure {
	return &MatrixMeasure{values: map[[2]string]float64{}, fallback: fallback}
}

// Set stores the similarity of a and b in both directions.
func (m *MatrixMeasure) Set(a, b string, v float64) *MatrixMeasure {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[[2]string{a, b}] = v
	m.values[[2]string{b, a}] = v
	return m
}

// Compute implements similarity.Measure.
func (m *MatrixMeasure) Compute(_ context.Context, a, b model.Signature) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[[2]string{a.String(), b.String()}]; ok {
		return v, nil
	}
	return m.fallback, nil
}

// CountingMeasure counts calls to the wrapped measure.
type CountingMeasure struct {
	inner similarity.Measure
	calls atomic.Int64
}

// Count wraps m in a CountingMeasure.
func Count(m similarity.Measure) *CountingMeasure {
	return &CountingMeasure{inner: m}
}

// Compute implements similarity.Measure.
func (c *CountingMeasure) Compute(ctx context.Context, a, b model.Signature) (float64, error) {
	c.calls.Add(1)
	return c.inner.Compute(ctx, a, b)
}

// Calls returns the number of Compute calls so far.
func (c *CountingMeasure) Calls() int64 { return c.calls.Load() }

// Score computes the total pairwise similarity of an assignment directly,
// without caching or parallelism. Unassigned words and words without
// senses contribute zero.
func Score(ctx context.Context, doc model.Document, assignment []int, m similarity.Measure) (float64, error) {
	var total float64
	for i := 0; i < doc.Len(); i++ {
		si := assignment[i]
		if si == configuration.Unassigned {
			continue
		}
		for j := i + 1; j < doc.Len(); j++ {
			sj := assignment[j]
			if sj == configuration.Unassigned {
				continue
			}
			v, err := similarity.Sanitized(ctx, m, doc.Senses(i)[si].Signature, doc.Senses(j)[sj].Signature)
			if err != nil {
				return 0, err
			}
			total += v
		}
	}
	return total, nil
}

// BruteForce enumerates every assignment of doc and returns one with the
// maximal Score. Words without senses stay unassigned. Intended for tiny
// documents only.
func BruteForce(ctx context.Context, doc model.Document, m similarity.Measure) ([]int, float64, error) {
	n := doc.Len()
	current := make([]int, n)
	for i := range current {
		if doc.SenseCount(i) == 0 {
			current[i] = configuration.Unassigned
		}
	}

	var (
		best      []int
		bestScore float64
	)
	for {
		s, err := Score(ctx, doc, current, m)
		if err != nil {
			return nil, 0, err
		}
		if best == nil || s > bestScore {
			best = append([]int(nil), current...)
			bestScore = s
		}

		// Odometer increment over words with senses.
		i := 0
		for ; i < n; i++ {
			if doc.SenseCount(i) == 0 {
				continue
			}
			current[i]++
			if current[i] < doc.SenseCount(i) {
				break
			}
			current[i] = 0
		}
		if i == n {
			return best, bestScore, nil
		}
	}
}

// SmallProblem returns a three word, two sense document together with a
// fixed similarity table whose unique optimum is [1 1 0].
func SmallProblem() (*model.MemoryDocument, *MatrixMeasure) {
	doc := DocumentWithCounts("small", 2, 2, 2)
	m := NewMatrixMeasure(0).
		Set(SenseID(0, 0), SenseID(1, 0), 0.2).
		Set(SenseID(0, 0), SenseID(1, 1), 0.1).
		Set(SenseID(0, 1), SenseID(1, 0), 0.3).
		Set(SenseID(0, 1), SenseID(1, 1), 0.9).
		Set(SenseID(0, 0), SenseID(2, 0), 0.4).
		Set(SenseID(0, 1), SenseID(2, 0), 0.1).
		Set(SenseID(0, 1), SenseID(2, 1), 0.6).
		Set(SenseID(1, 0), SenseID(2, 1), 0.5).
		Set(SenseID(1, 1), SenseID(2, 0), 0.7).
		Set(SenseID(1, 1), SenseID(2, 1), 0.1)
	return doc, m
}
