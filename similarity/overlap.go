package similarity

import (
	"context"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sensego/model"
)

// Dictionary interns symbol values into dense uint32 identifiers.
// It is safe for concurrent use.
type Dictionary struct {
	mu  sync.RWMutex
	ids map[string]uint32
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{ids: make(map[string]uint32)}
}

// ID returns the identifier of value, interning it on first use.
func (d *Dictionary) ID(value string) uint32 {
	d.mu.RLock()
	id, ok := d.ids[value]
	d.mu.RUnlock()
	if ok {
		return id
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.ids[value]; ok {
		return id
	}
	id = uint32(len(d.ids))
	d.ids[value] = id
	return id
}

// Len returns the number of interned values.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.ids)
}

// Bitmap returns the set of distinct symbols of sig.
func (d *Dictionary) Bitmap(sig model.Signature) *roaring.Bitmap {
	bm := roaring.New()
	for _, sym := range sig {
		bm.Add(d.ID(sym.Value))
	}
	return bm
}

// Overlap is the Lesk measure: the number of distinct symbols shared by
// both signatures.
type Overlap struct {
	dict *Dictionary

	// Normalize divides the overlap by the size of the smaller set.
	Normalize bool
}

// NewOverlap creates an overlap measure with its own dictionary.
func NewOverlap() *Overlap {
	return &Overlap{dict: NewDictionary()}
}

// Compute implements Measure.
func (o *Overlap) Compute(_ context.Context, a, b model.Signature) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	ba, bb := o.dict.Bitmap(a), o.dict.Bitmap(b)
	common := float64(ba.AndCardinality(bb))
	if !o.Normalize {
		return common, nil
	}
	smaller := min(ba.GetCardinality(), bb.GetCardinality())
	return common / float64(smaller), nil
}

// Tversky is the Tversky index over distinct symbols:
//
//	common / (common + Alpha*|A\B| + Beta*|B\A|)   when Ratio is true
//	common - Alpha*|A\B| - Beta*|B\A|              otherwise
type Tversky struct {
	dict *Dictionary

	Alpha float64
	Beta  float64
	Ratio bool
}

// NewTversky creates a Tversky measure. Alpha = Beta = 0.5 yields the Dice
// coefficient when ratio is true.
func NewTversky(alpha, beta float64, ratio bool) *Tversky {
	return &Tversky{dict: NewDictionary(), Alpha: alpha, Beta: beta, Ratio: ratio}
}

// Compute implements Measure.
func (t *Tversky) Compute(_ context.Context, a, b model.Signature) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	ba, bb := t.dict.Bitmap(a), t.dict.Bitmap(b)
	common := float64(ba.AndCardinality(bb))
	onlyA := float64(ba.GetCardinality()) - common
	onlyB := float64(bb.GetCardinality()) - common

	if !t.Ratio {
		return common - t.Alpha*onlyA - t.Beta*onlyB, nil
	}
	denom := common + t.Alpha*onlyA + t.Beta*onlyB
	if denom == 0 {
		return 0, nil
	}
	return common / denom, nil
}
