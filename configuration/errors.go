package configuration

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned when mutating a configuration that has been returned
// as a final result.
var ErrFrozen = errors.New("configuration: frozen")

// ErrOutOfRange indicates a sense index outside a word's candidate range.
// It is an invariant violation, never a valid random draw.
type ErrOutOfRange struct {
	Word       int
	Sense      int
	SenseCount int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("configuration: sense %d out of range [0,%d) for word %d", e.Sense, e.SenseCount, e.Word)
}

// ErrWordIndex indicates a word index outside the document.
type ErrWordIndex struct {
	Word int
	Len  int
}

func (e *ErrWordIndex) Error() string {
	return fmt.Sprintf("configuration: word index %d out of range [0,%d)", e.Word, e.Len)
}

// ErrInvalidRange indicates invalid start/end bounds.
type ErrInvalidRange struct {
	Start, End, Len int
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("configuration: invalid range [%d,%d) for document of length %d", e.Start, e.End, e.Len)
}
