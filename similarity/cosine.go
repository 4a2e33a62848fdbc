package similarity

import (
	"context"
	"math"

	"github.com/hupe1980/sensego/model"
)

// WeightedCosine computes the cosine between the weight vectors of two
// signatures, summing weights of repeated symbols.
type WeightedCosine struct{}

// Compute implements Measure.
func (WeightedCosine) Compute(_ context.Context, a, b model.Signature) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	wa := weights(a)
	wb := weights(b)

	var dot, na, nb float64
	for k, v := range wa {
		na += v * v
		if w, ok := wb[k]; ok {
			dot += v * w
		}
	}
	for _, v := range wb {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

func weights(sig model.Signature) map[string]float64 {
	m := make(map[string]float64, len(sig))
	for _, sym := range sig {
		m[sym.Value] += sym.Weight
	}
	return m
}
