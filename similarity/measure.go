package similarity

import (
	"context"
	"math"

	"github.com/hupe1980/sensego/model"
)

// Worst is the sentinel similarity substituted for undefined results.
const Worst = -1.0

// Measure computes the similarity of two sense signatures.
// Results are conventionally in [-1, 1] but may be unbounded.
type Measure interface {
	Compute(ctx context.Context, a, b model.Signature) (float64, error)
}

// MeasureFunc adapts a plain function to the Measure interface.
type MeasureFunc func(ctx context.Context, a, b model.Signature) (float64, error)

// Compute calls f(ctx, a, b).
func (f MeasureFunc) Compute(ctx context.Context, a, b model.Signature) (float64, error) {
	return f(ctx, a, b)
}

// Sanitize replaces NaN and infinite values with Worst.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Worst
	}
	return v
}

// Sanitized computes m and sanitizes the result.
func Sanitized(ctx context.Context, m Measure, a, b model.Signature) (float64, error) {
	v, err := m.Compute(ctx, a, b)
	if err != nil {
		return 0, err
	}
	return Sanitize(v), nil
}
