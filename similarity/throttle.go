package similarity

import (
	"context"

	"github.com/hupe1980/sensego/model"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limits bounds the calls made to a wrapped measure.
type Limits struct {
	// RatePerSec is the sustained number of calls per second.
	// If 0, unlimited.
	RatePerSec float64

	// Burst is the maximum burst size. If 0, defaults to 1.
	Burst int

	// MaxInFlight is the maximum number of concurrent calls.
	// If 0, unlimited.
	MaxInFlight int64
}

// ThrottledMeasure wraps a Measure with a rate limiter and an in-flight bound.
type ThrottledMeasure struct {
	inner    Measure
	limiter  *rate.Limiter       // nil if unlimited
	inFlight *semaphore.Weighted // nil if unlimited
}

// Throttled wraps m with the given limits.
func Throttled(m Measure, limits Limits) *ThrottledMeasure {
	t := &ThrottledMeasure{inner: m}
	if limits.RatePerSec > 0 {
		burst := limits.Burst
		if burst <= 0 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(limits.RatePerSec), burst)
	}
	if limits.MaxInFlight > 0 {
		t.inFlight = semaphore.NewWeighted(limits.MaxInFlight)
	}
	return t
}

// Compute waits for a slot and a token, then calls the wrapped measure.
func (t *ThrottledMeasure) Compute(ctx context.Context, a, b model.Signature) (float64, error) {
	if t.inFlight != nil {
		if err := t.inFlight.Acquire(ctx, 1); err != nil {
			return 0, err
		}
		defer t.inFlight.Release(1)
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}
	return t.inner.Compute(ctx, a, b)
}
