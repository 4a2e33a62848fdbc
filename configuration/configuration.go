// Package configuration holds the sense assignment vector that every search
// strategy reads and writes.
package configuration

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/sensego/model"
)

// Unassigned marks a word without a chosen sense.
const Unassigned = -1

// Rand is the randomness a configuration needs to seed itself.
type Rand interface {
	Intn(n int) int
}

// Configuration assigns a sense index to each word of a document.
//
// Invariant: 0 <= Assignment(i) < SenseCount(i) whenever assigned. The
// configuration applies to the sub-range [Start, End) of the document.
// It is not safe for concurrent mutation.
type Configuration struct {
	doc         model.Document
	assignments []int
	confidence  []float64
	start, end  int
	frozen      bool
}

// New creates a configuration covering the whole document with every word
// unassigned.
func New(doc model.Document) *Configuration {
	c, _ := NewRange(doc, 0, doc.Len())
	return c
}

// NewRange creates an unassigned configuration restricted to [start, end).
func NewRange(doc model.Document, start, end int) (*Configuration, error) {
	n := doc.Len()
	if start < 0 || end > n || start > end {
		return nil, &ErrInvalidRange{Start: start, End: end, Len: n}
	}
	c := &Configuration{
		doc:         doc,
		assignments: make([]int, n),
		confidence:  make([]float64, n),
		start:       start,
		end:         end,
	}
	c.fill(Unassigned)
	return c, nil
}

// Random creates a configuration with a uniformly drawn sense for every
// word that has candidates. Words without senses stay unassigned.
func Random(doc model.Document, r Rand) *Configuration {
	c := New(doc)
	for i := c.start; i < c.end; i++ {
		if k := doc.SenseCount(i); k > 0 {
			c.assignments[i] = r.Intn(k)
		}
	}
	return c
}

// FirstSense creates a configuration choosing the first candidate of every
// word. With frequency-ordered dictionaries this is the most-frequent-sense
// baseline.
func FirstSense(doc model.Document) *Configuration {
	c := New(doc)
	for i := c.start; i < c.end; i++ {
		if doc.SenseCount(i) > 0 {
			c.assignments[i] = 0
			c.confidence[i] = 1
		}
	}
	return c
}

func (c *Configuration) fill(v int) {
	for i := range c.assignments {
		c.assignments[i] = v
	}
}

// Document returns the document the configuration belongs to.
func (c *Configuration) Document() model.Document { return c.doc }

// Len returns the number of word slots (the document length).
func (c *Configuration) Len() int { return len(c.assignments) }

// Start returns the first word index covered by the configuration.
func (c *Configuration) Start() int { return c.start }

// End returns one past the last word index covered by the configuration.
func (c *Configuration) End() int { return c.end }

// Assignment returns the sense index of word i, or Unassigned.
func (c *Configuration) Assignment(i int) int { return c.assignments[i] }

// Confidence returns the confidence of word i.
func (c *Configuration) Confidence(i int) float64 { return c.confidence[i] }

// SetSense assigns sense s to word i.
// Out-of-range indices are defects and fail fast.
func (c *Configuration) SetSense(i, s int) error {
	if c.frozen {
		return ErrFrozen
	}
	if i < 0 || i >= len(c.assignments) {
		return &ErrWordIndex{Word: i, Len: len(c.assignments)}
	}
	if s != Unassigned {
		if k := c.doc.SenseCount(i); s < 0 || s >= k {
			return &ErrOutOfRange{Word: i, Sense: s, SenseCount: k}
		}
	}
	c.assignments[i] = s
	return nil
}

// MustSetSense is like SetSense but panics on error.
// Strategies use it where the index was drawn from the valid range.
func (c *Configuration) MustSetSense(i, s int) {
	if err := c.SetSense(i, s); err != nil {
		panic(err)
	}
}

// SetConfidence sets the confidence of word i.
func (c *Configuration) SetConfidence(i int, confidence float64) error {
	if c.frozen {
		return ErrFrozen
	}
	if i < 0 || i >= len(c.confidence) {
		return &ErrWordIndex{Word: i, Len: len(c.confidence)}
	}
	c.confidence[i] = confidence
	return nil
}

// Initialize sets every assignment to v. v must be Unassigned or valid for
// every word in range.
func (c *Configuration) Initialize(v int) error {
	if c.frozen {
		return ErrFrozen
	}
	for i := range c.assignments {
		if err := c.SetSense(i, v); err != nil {
			return err
		}
	}
	return nil
}

// CountUnassigned returns the number of unassigned words in [Start, End).
func (c *Configuration) CountUnassigned() int {
	n := 0
	for i := c.start; i < c.end; i++ {
		if c.assignments[i] == Unassigned {
			n++
		}
	}
	return n
}

// Assignments returns a copy of the assignment vector.
func (c *Configuration) Assignments() []int {
	return slices.Clone(c.assignments)
}

// Validate checks the range invariant of every assignment.
func (c *Configuration) Validate() error {
	for i, s := range c.assignments {
		if s == Unassigned {
			continue
		}
		if k := c.doc.SenseCount(i); s < 0 || s >= k {
			return &ErrOutOfRange{Word: i, Sense: s, SenseCount: k}
		}
	}
	return nil
}

// Clone returns an unfrozen deep copy.
func (c *Configuration) Clone() *Configuration {
	return &Configuration{
		doc:         c.doc,
		assignments: slices.Clone(c.assignments),
		confidence:  slices.Clone(c.confidence),
		start:       c.start,
		end:         c.end,
	}
}

// CopyFrom overwrites the assignments and confidences of c with those of o.
// Both must belong to the same document.
func (c *Configuration) CopyFrom(o *Configuration) error {
	if c.frozen {
		return ErrFrozen
	}
	if o.doc != c.doc {
		return fmt.Errorf("configuration: copy across documents %q and %q", o.doc.ID(), c.doc.ID())
	}
	copy(c.assignments, o.assignments)
	copy(c.confidence, o.confidence)
	c.start, c.end = o.start, o.end
	return nil
}

// Equal reports whether both configurations carry the same assignments.
func (c *Configuration) Equal(o *Configuration) bool {
	return c.start == o.start && c.end == o.end && slices.Equal(c.assignments, o.assignments)
}

// Freeze makes the configuration immutable.
func (c *Configuration) Freeze() { c.frozen = true }

// Frozen reports whether the configuration is immutable.
func (c *Configuration) Frozen() bool { return c.frozen }

// String returns the assignments as a space separated list.
func (c *Configuration) String() string {
	var sb strings.Builder
	for i, s := range c.assignments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", s)
	}
	return sb.String()
}
