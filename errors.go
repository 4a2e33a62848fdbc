package sensego

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
)

var (
	// ErrClosed is returned by every Engine method after Close.
	ErrClosed = errors.New("sensego: engine closed")

	// ErrInvalidConfiguration is returned when options, budgets or
	// assignments are outside their valid domain.
	ErrInvalidConfiguration = errors.New("sensego: invalid configuration")

	// ErrNoStore is returned by persistence methods when the engine was
	// created without WithStore.
	ErrNoStore = errors.New("sensego: no store configured")

	// ErrNoMeasure is returned by New when the measure is nil.
	ErrNoMeasure = errors.New("sensego: similarity measure is required")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, strategy.ErrReleased) || errors.Is(err, score.ErrReleased) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	var ip *strategy.ErrInvalidParameter
	if errors.As(err, &ip) {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	var oor *configuration.ErrOutOfRange
	if errors.As(err, &oor) {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	var wi *configuration.ErrWordIndex
	if errors.As(err, &wi) {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	var ir *configuration.ErrInvalidRange
	if errors.As(err, &ir) {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if errors.Is(err, stop.ErrUnbounded) || errors.Is(err, score.ErrDocumentMismatch) || errors.Is(err, configuration.ErrFrozen) {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	return err
}
