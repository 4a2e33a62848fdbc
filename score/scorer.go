package score

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/model"
)

var (
	// ErrReleased is returned by Score after Release.
	ErrReleased = errors.New("score: scorer released")

	// ErrDocumentMismatch is returned when a configuration does not belong
	// to the scored document.
	ErrDocumentMismatch = errors.New("score: configuration belongs to another document")
)

// Scorer computes the total score of a configuration.
type Scorer interface {
	// Score returns the sum of pairwise similarities over the
	// configuration's range. Higher is better.
	Score(ctx context.Context, doc model.Document, cfg *configuration.Configuration) (float64, error)
	// Release frees pooled resources. Later Score calls fail.
	Release()
}

// PairError reports a failed oracle call for one pair.
type PairError struct {
	I, J int // word indices
	K, L int // sense indices
	Err  error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("score: pair (%d:%d, %d:%d): %v", e.I, e.K, e.J, e.L, e.Err)
}

func (e *PairError) Unwrap() error { return e.Err }

// Options configures a CachedScorer.
type Options struct {
	// Workers bounds the number of rows scored concurrently.
	// If <= 0, runtime.GOMAXPROCS(0) is used.
	Workers int
	// Compression selects the snapshot compression.
	Compression Compression
	// Logger receives debug output. nil discards.
	Logger *slog.Logger
}

// DefaultOptions contains the default options for New.
var DefaultOptions = Options{
	Workers:     0,
	Compression: CompressionZSTD,
}

// Stats holds scorer counters.
type Stats struct {
	Scores      uint64 // completed Score calls
	OracleCalls uint64
	CacheHits   uint64
	CacheMisses uint64
	Entries     uint64 // cached pairs for the bound document
	Rebinds     uint64 // cache reallocations on document change
}
