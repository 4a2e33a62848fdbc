// Package score computes the fitness of a configuration: the sum of the
// pairwise similarities of the senses it assigns.
//
// CachedScorer memoises every computed pair for the document it is bound
// to and spreads the rows of the pair triangle over a bounded worker pool.
// Row partials are summed in row order, so the total is bit-identical for
// any worker count.
//
//	s := score.New(similarity.NewOverlap(), func(o *score.Options) {
//	    o.Workers = 8
//	})
//	defer s.Release()
//
//	total, err := s.Score(ctx, doc, cfg)
//
// Snapshots of the pair cache can be persisted to a blobstore.Store and
// restored for later runs over the same document.
package score
