package rng

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestReset(t *testing.T) {
	s := New(7)
	first := []float64{s.Float64(), s.Float64(), s.Float64()}
	s.Reset()
	second := []float64{s.Float64(), s.Float64(), s.Float64()}
	assert.Equal(t, first, second)
}

func TestSplitDeterministic(t *testing.T) {
	a := New(1).Split()
	b := New(1).Split()
	assert.Equal(t, a.Seed(), b.Seed())
	assert.Equal(t, a.Int63(), b.Int63())
}

func TestConcurrentUse(t *testing.T) {
	s := New(3)
	var wg sync.WaitGroup
	wg.Add(8)
	for i := 0; i < 8; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				v := s.Intn(10)
				if v < 0 || v >= 10 {
					t.Errorf("out of range: %d", v)
				}
			}
		}()
	}
	wg.Wait()
}
