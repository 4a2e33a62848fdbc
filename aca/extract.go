package aca

import (
	"context"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/similarity"
)

// Extractor turns the final environment into a configuration.
type Extractor interface {
	Extract(ctx context.Context, env *Environment) (*configuration.Configuration, error)
}

// EnergyExtractor assigns every word the nest holding the most energy.
// Ties go to the lowest sense index. Confidence is the winner's share of
// the word's nest energy.
type EnergyExtractor struct{}

// Extract implements Extractor.
func (EnergyExtractor) Extract(_ context.Context, env *Environment) (*configuration.Configuration, error) {
	return extract(env, func(n int) (float64, error) { return env.Energy(n), nil })
}

// SignatureExtractor assigns every word the nest whose deposited symbols
// are most similar to its own sense signature. Confidence is the winner's
// share of the word's non-negative similarities.
type SignatureExtractor struct {
	Measure similarity.Measure
}

// Extract implements Extractor.
func (e SignatureExtractor) Extract(ctx context.Context, env *Environment) (*configuration.Configuration, error) {
	m := e.Measure
	if m == nil {
		m = similarity.NewOverlap()
	}
	return extract(env, func(n int) (float64, error) {
		return similarity.Sanitized(ctx, m, env.Buffer(n), env.SenseSignature(n))
	})
}

func extract(env *Environment, value func(n int) (float64, error)) (*configuration.Configuration, error) {
	cfg := configuration.New(env.Document())
	for i := 0; i < cfg.Len(); i++ {
		nests := env.SenseNodes(i)
		if len(nests) == 0 {
			continue
		}
		best, bestValue, total := 0, 0.0, 0.0
		for k, n := range nests {
			v, err := value(n)
			if err != nil {
				return nil, err
			}
			if k == 0 || v > bestValue {
				best, bestValue = k, v
			}
			total += max(v, 0)
		}
		if err := cfg.SetSense(i, best); err != nil {
			return nil, err
		}
		confidence := 1 / float64(len(nests))
		if total > 0 {
			confidence = max(bestValue, 0) / total
		}
		if err := cfg.SetConfidence(i, confidence); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
