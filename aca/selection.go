package aca

import (
	"cmp"
	"math"
	"slices"
)

// Select picks a candidate by roulette over probabilities sorted in
// descending order: it returns the index of the first candidate whose
// cumulative probability strictly exceeds draw, or the least probable one
// if none does. Equal probabilities keep their input order. It returns -1
// for an empty slice.
func Select(probabilities []float64, draw float64) int {
	if len(probabilities) == 0 {
		return -1
	}
	order := make([]int, len(probabilities))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(probabilities[b], probabilities[a])
	})
	var cum float64
	for _, i := range order {
		cum += probabilities[i]
		if cum > draw {
			return i
		}
	}
	return order[len(order)-1]
}

// normalize turns scores into probabilities in place. Negative and NaN
// scores count as zero; a degenerate total yields a uniform distribution.
func normalize(scores []float64) []float64 {
	var total float64
	for i, s := range scores {
		switch {
		case math.IsNaN(s) || s < 0:
			s = 0
		case math.IsInf(s, 1):
			s = math.MaxFloat64 / float64(len(scores))
		}
		scores[i] = s
		total += s
	}
	if !(total > 0) || math.IsInf(total, 1) {
		u := 1 / float64(len(scores))
		for i := range scores {
			scores[i] = u
		}
		return scores
	}
	for i := range scores {
		scores[i] /= total
	}
	return scores
}
