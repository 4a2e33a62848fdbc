package tuning

import (
	"context"
	"fmt"

	"github.com/hupe1980/sensego/blobstore"
	"github.com/hupe1980/sensego/codec"
	"github.com/hupe1980/sensego/strategy"
)

// Result is the outcome of a parameter search.
type Result struct {
	Kind        strategy.Kind      `json:"kind" yaml:"kind"`
	Values      map[string]float64 `json:"values" yaml:"values"`
	Score       float64            `json:"score" yaml:"score"`
	Scores      []float64          `json:"scores" yaml:"scores"`
	Iterations  int                `json:"iterations" yaml:"iterations"`
	Evaluations int                `json:"evaluations" yaml:"evaluations"`
}

// Parameters returns the parameters described by r.
func (r *Result) Parameters() (Parameters, error) {
	p, err := NewParameters(r.Kind)
	if err != nil {
		return nil, err
	}
	if err := p.SetValues(r.Values); err != nil {
		return nil, err
	}
	return p, nil
}

// ResultName returns the blob name under which the result of kind is kept.
func ResultName(kind strategy.Kind) string {
	return blobstore.Join("tuning", kind.String()+".json")
}

// SaveResult encodes r with c and writes it to store under ResultName.
func SaveResult(ctx context.Context, store blobstore.Store, c codec.Codec, r *Result) error {
	data, err := c.Marshal(r)
	if err != nil {
		return fmt.Errorf("tuning: encode result: %w", err)
	}
	return store.Put(ctx, ResultName(r.Kind), data)
}

// LoadResult reads the result of kind from store.
func LoadResult(ctx context.Context, store blobstore.Store, c codec.Codec, kind strategy.Kind) (*Result, error) {
	data, err := store.Get(ctx, ResultName(kind))
	if err != nil {
		return nil, err
	}
	var r Result
	if err := c.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("tuning: decode result: %w", err)
	}
	return &r, nil
}
