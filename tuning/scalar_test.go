package tuning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarClamp(t *testing.T) {
	p := NewScalar("x", 0, 1, 3)
	assert.Equal(t, 1.0, p.Value)

	p.Add(-5) // 5 steps of 0.1
	assert.InDelta(t, 0.5, p.Value, 1e-12)
	p.Add(-20)
	assert.Equal(t, 0.0, p.Value)
	p.Add(math.NaN())
	assert.Equal(t, 0.0, p.Value)
	assert.Equal(t, "x=0", p.String())
}

func TestIntegerScalar(t *testing.T) {
	p := NewInteger("n", 1, 50, 20)
	p.Add(0.3) // 1.47
	assert.Equal(t, 21.0, p.Value)
	assert.Equal(t, 21, p.Int())
	p.Add(100)
	assert.Equal(t, 50.0, p.Value)
	assert.Equal(t, "n=50", p.String())
}

func TestLinkedBounds(t *testing.T) {
	lo := NewScalar("lo", 0, 100, 10)
	hi := NewScalar("hi", 0, 100, 20)
	lo.LinkMax(hi)

	assert.Equal(t, 20.0, lo.Upper())
	assert.Equal(t, 10.0, hi.Lower())

	lo.Add(5) // +50, capped by hi
	assert.Equal(t, 20.0, lo.Value)
	hi.Add(-5) // -50, floored by lo
	assert.Equal(t, 20.0, hi.Value)
	assert.LessOrEqual(t, lo.Value, hi.Value)
}
