package model

// MemoryDocument is an in-memory Document.
type MemoryDocument struct {
	id    string
	words []Word
}

// compile-time check
var _ Document = (*MemoryDocument)(nil)

// NewDocument creates a document from the given words.
// The word slice is copied; sense slices are shared and must not be modified.
func NewDocument(id string, words ...Word) *MemoryDocument {
	ws := make([]Word, len(words))
	copy(ws, words)
	return &MemoryDocument{id: id, words: ws}
}

// ID returns the document identifier.
func (d *MemoryDocument) ID() string { return d.id }

// Len returns the number of word slots.
func (d *MemoryDocument) Len() int { return len(d.words) }

// Word returns the word at index i.
func (d *MemoryDocument) Word(i int) Word { return d.words[i] }

// Senses returns the candidate senses of word i.
func (d *MemoryDocument) Senses(i int) []Sense { return d.words[i].Senses }

// SenseCount returns the number of candidate senses of word i.
func (d *MemoryDocument) SenseCount(i int) int { return len(d.words[i].Senses) }

// Words returns a copy of the word slots.
func (d *MemoryDocument) Words() []Word {
	out := make([]Word, len(d.words))
	copy(out, d.words)
	return out
}

// Ambiguous returns the number of words with more than one candidate sense.
func Ambiguous(d Document) int {
	n := 0
	for i := 0; i < d.Len(); i++ {
		if d.SenseCount(i) > 1 {
			n++
		}
	}
	return n
}

// SearchSpace returns the number of distinct configurations of d as a
// float64, counting words without senses as a single choice.
func SearchSpace(d Document) float64 {
	space := 1.0
	for i := 0; i < d.Len(); i++ {
		if k := d.SenseCount(i); k > 1 {
			space *= float64(k)
		}
	}
	return space
}
