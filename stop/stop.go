// Package stop provides the termination predicate shared by every search
// strategy.
//
// A Condition is a two-state machine (Running -> Stopped) bounded by an
// iteration budget, a wall-clock budget, or both. Strategies call
// IncrementIterations and UpdateMilliseconds once per iteration and use Stop
// as their sole termination predicate.
package stop

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnbounded is returned when a budget has neither an iteration nor a
// time bound.
var ErrUnbounded = errors.New("stop: budget must bound iterations or duration")

// State is the state of a Condition.
type State uint8

const (
	// Running means the budget has not been exceeded.
	Running State = iota
	// Stopped means the budget has been exceeded. It is sticky until Reset.
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Budget describes the bounds of a search run.
// A zero field disables that bound.
type Budget struct {
	Iterations int           `json:"iterations" yaml:"iterations"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Iterations returns a budget bounded by n iterations.
func Iterations(n int) Budget { return Budget{Iterations: n} }

// Duration returns a budget bounded by wall-clock time d.
func Duration(d time.Duration) Budget { return Budget{Duration: d} }

// Validate checks that at least one bound is set.
func (b Budget) Validate() error {
	if b.Iterations <= 0 && b.Duration <= 0 {
		return ErrUnbounded
	}
	return nil
}

// New returns a fresh Condition for this budget.
func (b Budget) New(optFns ...func(o *Options)) (*Condition, error) {
	return New(b, optFns...)
}

// Options configures a Condition.
type Options struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// WithClock sets the clock used to measure elapsed time.
func WithClock(clock func() time.Time) func(o *Options) {
	return func(o *Options) {
		o.Clock = clock
	}
}

// Condition tracks elapsed iterations and time against a Budget.
//
// A Condition is owned by a single search run and is not safe for
// concurrent use.
type Condition struct {
	budget     Budget
	clock      func() time.Time
	started    time.Time
	elapsed    time.Duration
	iterations int
	state      State
}

// New creates a Condition in the Running state.
func New(b Budget, optFns ...func(o *Options)) (*Condition, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	opts := Options{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	c := &Condition{budget: b, clock: opts.Clock}
	c.Reset()
	return c, nil
}

// MustNew is like New but panics on an invalid budget.
func MustNew(b Budget, optFns ...func(o *Options)) *Condition {
	c, err := New(b, optFns...)
	if err != nil {
		panic(err)
	}
	return c
}

// Budget returns the configured budget.
func (c *Condition) Budget() Budget { return c.budget }

// Reset returns the condition to Running and restarts both counters.
func (c *Condition) Reset() {
	c.started = c.clock()
	c.elapsed = 0
	c.iterations = 0
	c.state = Running
}

// IncrementIterations records one completed iteration.
func (c *Condition) IncrementIterations() {
	c.iterations++
}

// UpdateMilliseconds refreshes the elapsed time from the clock.
func (c *Condition) UpdateMilliseconds() {
	c.elapsed = c.clock().Sub(c.started)
}

// Stop evaluates the counters against the budget. It returns true once
// either bound is exceeded and keeps returning true until Reset.
func (c *Condition) Stop() bool {
	if c.state == Stopped {
		return true
	}
	if c.budget.Iterations > 0 && c.iterations > c.budget.Iterations {
		c.state = Stopped
	}
	if c.budget.Duration > 0 && c.elapsed > c.budget.Duration {
		c.state = Stopped
	}
	return c.state == Stopped
}

// Tick increments the iteration counter, refreshes the elapsed time and
// evaluates Stop.
func (c *Condition) Tick() bool {
	c.IncrementIterations()
	c.UpdateMilliseconds()
	return c.Stop()
}

// State returns the current state.
func (c *Condition) State() State { return c.state }

// Iterations returns the number of recorded iterations.
func (c *Condition) Iterations() int { return c.iterations }

// Elapsed returns the elapsed time at the last UpdateMilliseconds call.
func (c *Condition) Elapsed() time.Duration { return c.elapsed }

// Progress returns the consumed fraction of the budget in [0, 1], taking
// the larger of the iteration and time fractions.
func (c *Condition) Progress() float64 {
	var p float64
	if c.budget.Iterations > 0 {
		p = float64(c.iterations) / float64(c.budget.Iterations)
	}
	if c.budget.Duration > 0 {
		p = max(p, float64(c.elapsed)/float64(c.budget.Duration))
	}
	return min(p, 1)
}
