// Package strategy defines the interface shared by every search strategy
// and the helpers they have in common.
//
// Strategies are tagged variants (Genetic, AntColony, Cuckoo, Bat) behind
// one Disambiguator interface. All of them take the same score.Scorer and
// *stop.Condition, so callers and parameter tuners stay strategy-agnostic.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/model"
)

var (
	// ErrAlreadyReleased is returned by a second Release call.
	ErrAlreadyReleased = errors.New("strategy: already released")

	// ErrReleased is returned by Disambiguate after Release.
	ErrReleased = errors.New("strategy: released")

	// ErrNoScorer is returned when a strategy is built without a scorer.
	ErrNoScorer = errors.New("strategy: scorer is required")

	// ErrNoCondition is returned when a strategy is built without a stop
	// condition.
	ErrNoCondition = errors.New("strategy: stop condition is required")
)

// ErrInvalidParameter reports an option outside its valid domain.
type ErrInvalidParameter struct {
	Kind   Kind
	Name   string
	Value  any
	Reason string
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("strategy: %s: invalid %s %v: %s", e.Kind, e.Name, e.Value, e.Reason)
}

// Kind tags a strategy variant.
type Kind uint8

const (
	// Genetic is the population-based genetic search.
	Genetic Kind = iota + 1
	// AntColony is the agent-graph search.
	AntColony
	// Cuckoo is cuckoo search with Lévy flights.
	Cuckoo
	// Bat is the bat algorithm.
	Bat
)

// Kinds lists every strategy variant.
var Kinds = []Kind{Genetic, AntColony, Cuckoo, Bat}

func (k Kind) String() string {
	switch k {
	case Genetic:
		return "genetic"
	case AntColony:
		return "ant-colony"
	case Cuckoo:
		return "cuckoo"
	case Bat:
		return "bat"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses the String form of a Kind. "aca" and "ant" are
// accepted for AntColony.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "genetic", "ga":
		return Genetic, nil
	case "ant-colony", "aca", "ant":
		return AntColony, nil
	case "cuckoo":
		return Cuckoo, nil
	case "bat":
		return Bat, nil
	default:
		return 0, fmt.Errorf("strategy: unknown kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Disambiguator searches for the configuration of a document with the
// highest score.
type Disambiguator interface {
	// Disambiguate runs the search until the stop condition fires and
	// returns the best configuration found. The result is frozen.
	Disambiguate(ctx context.Context, doc model.Document) (*configuration.Configuration, error)
	// Kind returns the strategy variant.
	Kind() Kind
	// Release frees resources owned by the strategy. It must be called
	// exactly once; a second call returns ErrAlreadyReleased.
	Release() error
}

// Observer receives per-iteration progress.
type Observer interface {
	OnIteration(kind Kind, iteration int, best float64)
}

// NoopObserver discards all events.
type NoopObserver struct{}

// OnIteration implements Observer.
func (NoopObserver) OnIteration(Kind, int, float64) {}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(kind Kind, iteration int, best float64)

// OnIteration implements Observer.
func (f ObserverFunc) OnIteration(kind Kind, iteration int, best float64) { f(kind, iteration, best) }

// Releaser implements the exactly-once Release contract.
type Releaser struct {
	released atomic.Bool
}

// Release marks the owner released and runs fn. Later calls return
// ErrAlreadyReleased without running fn.
func (r *Releaser) Release(fn func()) error {
	if !r.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	if fn != nil {
		fn()
	}
	return nil
}

// Released reports whether Release has been called.
func (r *Releaser) Released() bool { return r.released.Load() }

// Finalize sets confidence 1 on every assigned word in range, freezes cfg
// and returns it.
func Finalize(cfg *configuration.Configuration) *configuration.Configuration {
	for i := cfg.Start(); i < cfg.End(); i++ {
		if cfg.Assignment(i) != configuration.Unassigned {
			_ = cfg.SetConfidence(i, 1)
		}
	}
	cfg.Freeze()
	return cfg
}
