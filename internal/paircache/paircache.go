// Package paircache implements a lock-free memo table for pairwise sense
// similarities of one document.
//
// Keys are (i, j, k, l) with word indices i < j and sense indices k, l.
// Each row i is a flat slice of atomic cells allocated on first use and
// laid out as [k][senses of words > i]. A cell holds the value bits XORed
// with a reserved NaN pattern, so the zero cell reads as absent and a
// present cell is always fully formed.
package paircache

import (
	"math"
	"sync/atomic"
)

// absent is the reserved NaN bit pattern. Stored values are sanitised
// before they reach the cache, so this pattern never encodes a real value.
const absent uint64 = 0x7ff8_dead_beef_0001

type row struct {
	cells []atomic.Uint64
}

// Stats holds cache counters.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries uint64
}

// HitRate returns hits / (hits + misses), or 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a pair cache sized for a fixed shape of sense counts.
// It is safe for concurrent use.
type Cache struct {
	counts []int
	prefix []int // prefix[i] = sum(counts[:i])
	rows   []atomic.Pointer[row]

	hits    atomic.Uint64
	misses  atomic.Uint64
	entries atomic.Uint64
}

// New creates an empty cache for words with the given sense counts.
func New(counts []int) *Cache {
	c := &Cache{
		counts: append([]int(nil), counts...),
		prefix: make([]int, len(counts)+1),
		rows:   make([]atomic.Pointer[row], len(counts)),
	}
	for i, k := range counts {
		c.prefix[i+1] = c.prefix[i] + k
	}
	return c
}

// Len returns the number of words.
func (c *Cache) Len() int { return len(c.counts) }

// Counts returns a copy of the sense counts the cache was sized for.
func (c *Cache) Counts() []int { return append([]int(nil), c.counts...) }

// Matches reports whether the cache was sized for exactly these counts.
func (c *Cache) Matches(counts []int) bool {
	if len(counts) != len(c.counts) {
		return false
	}
	for i := range counts {
		if counts[i] != c.counts[i] {
			return false
		}
	}
	return true
}

func (c *Cache) stride(i int) int {
	return c.prefix[len(c.counts)] - c.prefix[i+1]
}

func (c *Cache) offset(i, j, k, l int) int {
	return k*c.stride(i) + c.prefix[j] - c.prefix[i+1] + l
}

func (c *Cache) valid(i, j, k, l int) bool {
	return i >= 0 && i < j && j < len(c.counts) &&
		k >= 0 && k < c.counts[i] && l >= 0 && l < c.counts[j]
}

func (c *Cache) load(i int) *row {
	return c.rows[i].Load()
}

func (c *Cache) loadOrCreate(i int) *row {
	if r := c.rows[i].Load(); r != nil {
		return r
	}
	r := &row{cells: make([]atomic.Uint64, c.counts[i]*c.stride(i))}
	if c.rows[i].CompareAndSwap(nil, r) {
		return r
	}
	return c.rows[i].Load()
}

// Get returns the cached similarity of sense k of word i and sense l of
// word j. Out-of-shape keys are reported absent.
func (c *Cache) Get(i, j, k, l int) (float64, bool) {
	if !c.valid(i, j, k, l) {
		return 0, false
	}
	r := c.load(i)
	if r == nil {
		c.misses.Add(1)
		return 0, false
	}
	cell := r.cells[c.offset(i, j, k, l)].Load()
	if cell == 0 {
		c.misses.Add(1)
		return 0, false
	}
	c.hits.Add(1)
	return math.Float64frombits(cell ^ absent), true
}

// Put stores v unless the key already holds a value, and returns the value
// held afterwards. The first write wins; later writes never overwrite it.
// NaN values and out-of-shape keys are not stored.
func (c *Cache) Put(i, j, k, l int, v float64) float64 {
	if math.IsNaN(v) || !c.valid(i, j, k, l) {
		return v
	}
	cell := &c.loadOrCreate(i).cells[c.offset(i, j, k, l)]
	enc := math.Float64bits(v) ^ absent
	if cell.CompareAndSwap(0, enc) {
		c.entries.Add(1)
		return v
	}
	return math.Float64frombits(cell.Load() ^ absent)
}

// Range calls fn for every present entry in key order until fn returns
// false. Entries written concurrently may or may not be visited.
func (c *Cache) Range(fn func(i, j, k, l int, v float64) bool) {
	for i := range c.counts {
		r := c.load(i)
		if r == nil {
			continue
		}
		for k := 0; k < c.counts[i]; k++ {
			for j := i + 1; j < len(c.counts); j++ {
				for l := 0; l < c.counts[j]; l++ {
					cell := r.cells[c.offset(i, j, k, l)].Load()
					if cell == 0 {
						continue
					}
					if !fn(i, j, k, l, math.Float64frombits(cell^absent)) {
						return
					}
				}
			}
		}
	}
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.entries.Load(),
	}
}

// Capacity returns the number of distinct keys the shape admits.
func (c *Cache) Capacity() int {
	var n int
	for i := range c.counts {
		n += c.counts[i] * c.stride(i)
	}
	return n
}
