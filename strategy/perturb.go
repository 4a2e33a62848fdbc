package strategy

import "github.com/hupe1980/sensego/configuration"

// Rand is the randomness the shared operators need.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Mutable returns the indices in cfg's range of words with more than one
// sense, the only words whose assignment a search can change.
func Mutable(cfg *configuration.Configuration) []int {
	doc := cfg.Document()
	var idx []int
	for i := cfg.Start(); i < cfg.End(); i++ {
		if doc.SenseCount(i) > 1 {
			idx = append(idx, i)
		}
	}
	return idx
}

// Redraw assigns a uniformly drawn sense to word i. Words without senses
// are left untouched.
func Redraw(cfg *configuration.Configuration, r Rand, i int) {
	if k := cfg.Document().SenseCount(i); k > 0 {
		cfg.MustSetSense(i, r.Intn(k))
	}
}

// Perturb redraws the senses of n distinct mutable words chosen at random
// and returns how many words were redrawn. Draws stay within each word's
// candidate range.
func Perturb(cfg *configuration.Configuration, r Rand, mutable []int, n int) int {
	n = min(n, len(mutable))
	if n <= 0 {
		return 0
	}
	// Partial Fisher-Yates over a copy keeps the words distinct.
	pick := append([]int(nil), mutable...)
	for c := 0; c < n; c++ {
		j := c + r.Intn(len(pick)-c)
		pick[c], pick[j] = pick[j], pick[c]
		Redraw(cfg, r, pick[c])
	}
	return n
}

// CopyWords copies the assignments of the given words from src to dst.
func CopyWords(dst, src *configuration.Configuration, words []int) {
	for _, i := range words {
		dst.MustSetSense(i, src.Assignment(i))
	}
}
