package model

import (
	"fmt"
	"strings"
)

// DefaultWeight is the weight assigned to symbols added without one.
const DefaultWeight = 1.0

// Symbol is a single weighted element of a semantic signature.
type Symbol struct {
	Value  string  `json:"value" yaml:"value"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Signature is a weighted multiset of symbols.
// The order of symbols is stable and meaningful for slot-based consumers.
type Signature []Symbol

// SignatureOf builds a signature from plain symbol values with DefaultWeight.
func SignatureOf(values ...string) Signature {
	sig := make(Signature, 0, len(values))
	for _, v := range values {
		sig = append(sig, Symbol{Value: v, Weight: DefaultWeight})
	}
	return sig
}

// ParseSignature splits s on whitespace and returns the resulting signature.
func ParseSignature(s string) Signature {
	return SignatureOf(strings.Fields(s)...)
}

// Len returns the number of symbols.
func (s Signature) Len() int { return len(s) }

// Values returns the symbol values in order.
func (s Signature) Values() []string {
	out := make([]string, len(s))
	for i, sym := range s {
		out[i] = sym.Value
	}
	return out
}

// Weights returns the symbol weights in order.
func (s Signature) Weights() []float64 {
	out := make([]float64, len(s))
	for i, sym := range s {
		out[i] = sym.Weight
	}
	return out
}

// Merge returns a new signature containing the symbols of s followed by other.
// Neither input is modified.
func (s Signature) Merge(other Signature) Signature {
	out := make(Signature, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

// String returns the space separated symbol values.
func (s Signature) String() string {
	return strings.Join(s.Values(), " ")
}

// Sense is a candidate meaning of a word.
type Sense struct {
	ID        string    `json:"id" yaml:"id"`
	Signature Signature `json:"signature" yaml:"signature"`
}

// Word is a document position together with its ordered candidate senses.
// Senses may be empty (nothing loaded) or contain a single entry (unambiguous).
type Word struct {
	ID     string  `json:"id" yaml:"id"`
	Lemma  string  `json:"lemma,omitempty" yaml:"lemma,omitempty"`
	POS    string  `json:"pos,omitempty" yaml:"pos,omitempty"`
	Senses []Sense `json:"senses" yaml:"senses"`
}

// String returns a short description of the word.
func (w Word) String() string {
	return fmt.Sprintf("Word(%s %q, %d senses)", w.ID, w.Lemma, len(w.Senses))
}

// Document provides read-only access to the word slots of a text.
//
// Word indices are dense, 0-based and contiguous. Implementations must be
// comparable (typically pointer types): scorers bind their caches to a
// document by identity.
type Document interface {
	// ID returns the document identifier.
	ID() string
	// Len returns the number of word slots.
	Len() int
	// Word returns the word at index i.
	Word(i int) Word
	// Senses returns the candidate senses of word i.
	Senses(i int) []Sense
	// SenseCount returns the number of candidate senses of word i.
	SenseCount(i int) int
}
