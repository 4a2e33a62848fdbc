package tuning

import (
	"fmt"
	"math"
)

// stepDivisor splits a parameter's range into unit steps for Add.
const stepDivisor = 10

// ScalarParameter is a tunable value in [Min, Max]. Bounds may be linked
// to another parameter's value, so that for example a minimum frequency
// never exceeds the maximum frequency.
type ScalarParameter struct {
	Name    string
	Min     float64
	Max     float64
	Value   float64
	Integer bool

	lower *ScalarParameter
	upper *ScalarParameter
}

// NewScalar creates a parameter clamped to [min, max].
func NewScalar(name string, min, max, value float64) *ScalarParameter {
	p := &ScalarParameter{Name: name, Min: min, Max: max, Value: value}
	p.Clamp()
	return p
}

// NewInteger creates a parameter that only takes integral values.
func NewInteger(name string, min, max, value float64) *ScalarParameter {
	p := &ScalarParameter{Name: name, Min: min, Max: max, Value: value, Integer: true}
	p.Clamp()
	return p
}

// LinkMax bounds p from above by the value of q and q from below by the
// value of p.
func (p *ScalarParameter) LinkMax(q *ScalarParameter) {
	p.upper = q
	q.lower = p
}

// Lower returns the effective lower bound.
func (p *ScalarParameter) Lower() float64 {
	if p.lower != nil {
		return max(p.Min, p.lower.Value)
	}
	return p.Min
}

// Upper returns the effective upper bound.
func (p *ScalarParameter) Upper() float64 {
	if p.upper != nil {
		return min(p.Max, p.upper.Value)
	}
	return p.Max
}

// Step returns the size of one unit move.
func (p *ScalarParameter) Step() float64 {
	return (p.Max - p.Min) / stepDivisor
}

// Add moves the value by delta steps and clamps it.
func (p *ScalarParameter) Add(delta float64) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	p.Value += delta * p.Step()
	p.Clamp()
}

// Clamp brings the value back into its effective bounds.
func (p *ScalarParameter) Clamp() {
	lo, hi := p.Lower(), p.Upper()
	if hi < lo {
		hi = lo
	}
	p.Value = min(max(p.Value, lo), hi)
	if p.Integer {
		p.Value = math.Round(p.Value)
		if p.Value > hi {
			p.Value = math.Floor(hi)
		}
		if p.Value < lo {
			p.Value = math.Ceil(lo)
		}
	}
}

// Int returns the value truncated to an int.
func (p *ScalarParameter) Int() int { return int(p.Value) }

func (p *ScalarParameter) String() string {
	if p.Integer {
		return fmt.Sprintf("%s=%d", p.Name, p.Int())
	}
	return fmt.Sprintf("%s=%g", p.Name, p.Value)
}
