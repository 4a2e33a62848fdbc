// Package rng provides a seeded, thread-safe pseudo-random source shared by
// the search strategies.
package rng

import (
	"math/rand"
	"sync"
	"time"
)

// Source wraps a math/rand generator with a mutex and remembers its seed.
// It is safe for concurrent use.
type Source struct {
	mu   sync.Mutex
	rand *rand.Rand
	seed int64
}

// New creates a Source with the given seed.
func New(seed int64) *Source {
	return &Source{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// FromOptional creates a Source from an optional seed.
// A nil seed selects a time-based seed.
func FromOptional(seed *int64) *Source {
	if seed != nil {
		return New(*seed)
	}
	return New(time.Now().UnixNano())
}

// Seed returns the initial seed.
func (s *Source) Seed() int64 {
	return s.seed
}

// Reset rewinds the source to its initial seed.
func (s *Source) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rand.Seed(s.seed)
}

// Intn returns a pseudo-random number in [0,n). It panics if n <= 0.
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(n)
}

// Int63 returns a non-negative pseudo-random 63-bit integer.
func (s *Source) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Int63()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

// NormFloat64 returns a standard normally distributed value.
func (s *Source) NormFloat64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.NormFloat64()
}

// Perm returns a pseudo-random permutation of [0,n).
func (s *Source) Perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Perm(n)
}

// Split derives an independent Source seeded from s.
// Splitting is deterministic given the state of s.
func (s *Source) Split() *Source {
	return New(s.Int63())
}
