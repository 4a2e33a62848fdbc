package aca

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/strategy"
)

// NodeKind classifies environment nodes.
type NodeKind uint8

const (
	// RootNode stands for the whole text.
	RootNode NodeKind = iota
	// WordNode stands for one word position.
	WordNode
	// SenseNode stands for one candidate sense. Sense nodes are the nests.
	SenseNode
)

func (k NodeKind) String() string {
	switch k {
	case RootNode:
		return "root"
	case WordNode:
		return "word"
	case SenseNode:
		return "sense"
	default:
		return fmt.Sprintf("NodeKind(%d)", k)
	}
}

// EnvironmentOptions configures the graph built for a document.
type EnvironmentOptions struct {
	InitialEnergy    float64
	InitialPheromone float64
	// VectorLength is the number of slots of each node's signature buffer.
	VectorLength int
}

type edge struct {
	to   int
	bits atomic.Uint64 // math.Float64bits of the pheromone
	// bridge marks an edge added by CreateBridge.
	bridge bool
}

func (e *edge) pheromone() float64 { return math.Float64frombits(e.bits.Load()) }

type node struct {
	kind  NodeKind
	word  int
	sense int
	id    string

	mu     sync.Mutex // guards energy and buffer
	energy float64
	buffer []model.Symbol

	signature model.Signature // sense signature, nests only

	adjMu sync.RWMutex // guards out
	out   []*edge
}

// Environment is the graph the ants walk: one root, one node per word and
// one nest per sense. Node 0 is the root; each word node is followed by its
// sense nodes in document order.
//
// All methods are safe for concurrent use.
type Environment struct {
	doc    model.Document
	nodes  []*node
	words  []int   // word index -> node index
	senses [][]int // word index -> sense node indices

	bridges atomic.Int64
}

// NewEnvironment builds the graph for doc. Root and word nodes as well as
// word and sense nodes are linked in both directions with the initial
// pheromone. Every node starts with the initial energy.
func NewEnvironment(doc model.Document, opts EnvironmentOptions) *Environment {
	n := doc.Len()
	env := &Environment{
		doc:    doc,
		words:  make([]int, n),
		senses: make([][]int, n),
	}
	root := env.addNode(opts, RootNode, -1, -1, doc.ID(), nil)
	for i := 0; i < n; i++ {
		w := doc.Word(i)
		wn := env.addNode(opts, WordNode, i, -1, w.ID, nil)
		env.words[i] = wn
		env.link(root, wn, opts.InitialPheromone)
		env.link(wn, root, opts.InitialPheromone)
		for k, s := range w.Senses {
			sn := env.addNode(opts, SenseNode, i, k, s.ID, s.Signature)
			env.senses[i] = append(env.senses[i], sn)
			env.link(wn, sn, opts.InitialPheromone)
			env.link(sn, wn, opts.InitialPheromone)
		}
	}
	return env
}

func (env *Environment) addNode(opts EnvironmentOptions, kind NodeKind, word, sense int, id string, sig model.Signature) int {
	env.nodes = append(env.nodes, &node{
		kind:      kind,
		word:      word,
		sense:     sense,
		id:        id,
		energy:    opts.InitialEnergy,
		buffer:    make([]model.Symbol, max(opts.VectorLength, 0)),
		signature: sig,
	})
	return len(env.nodes) - 1
}

func (env *Environment) link(from, to int, pheromone float64) *edge {
	e := &edge{to: to}
	e.bits.Store(math.Float64bits(pheromone))
	n := env.nodes[from]
	n.adjMu.Lock()
	n.out = append(n.out, e)
	n.adjMu.Unlock()
	return e
}

func (env *Environment) edge(from, to int) *edge {
	n := env.nodes[from]
	n.adjMu.RLock()
	defer n.adjMu.RUnlock()
	for _, e := range n.out {
		if e.to == to {
			return e
		}
	}
	return nil
}

// Document returns the document the environment was built for.
func (env *Environment) Document() model.Document { return env.doc }

// Len returns the number of nodes.
func (env *Environment) Len() int { return len(env.nodes) }

// Root returns the index of the root node.
func (env *Environment) Root() int { return 0 }

// Kind returns the kind of node n.
func (env *Environment) Kind(n int) NodeKind { return env.nodes[n].kind }

// ID returns the text, word or sense identifier of node n.
func (env *Environment) ID(n int) string { return env.nodes[n].id }

// WordOf returns the word index of node n, or -1 for the root.
func (env *Environment) WordOf(n int) int { return env.nodes[n].word }

// SenseOf returns the sense index of node n, or -1 if n is not a nest.
func (env *Environment) SenseOf(n int) int { return env.nodes[n].sense }

// WordNode returns the node of word i.
func (env *Environment) WordNode(i int) int { return env.words[i] }

// SenseNodes returns the nests of word i in sense order.
func (env *Environment) SenseNodes(i int) []int { return env.senses[i] }

// Nests returns every sense node.
func (env *Environment) Nests() []int {
	var out []int
	for _, s := range env.senses {
		out = append(out, s...)
	}
	return out
}

// IsNest reports whether n is a sense node.
func (env *Environment) IsNest(n int) bool { return env.nodes[n].kind == SenseNode }

// Energy returns the energy stored at node n.
func (env *Environment) Energy(n int) float64 {
	nd := env.nodes[n]
	nd.mu.Lock()
	defer nd.mu.Unlock()
	return nd.energy
}

// AddEnergy adds amount to node n. Non-finite or negative amounts are ignored.
func (env *Environment) AddEnergy(n int, amount float64) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return
	}
	nd := env.nodes[n]
	nd.mu.Lock()
	nd.energy += amount
	nd.mu.Unlock()
}

// TakeEnergy removes up to amount from node n and returns what was taken.
// A node never goes below zero.
func (env *Environment) TakeEnergy(n int, amount float64) float64 {
	if !(amount > 0) {
		return 0
	}
	nd := env.nodes[n]
	nd.mu.Lock()
	defer nd.mu.Unlock()
	taken := min(amount, nd.energy)
	if taken <= 0 {
		return 0
	}
	nd.energy -= taken
	return taken
}

// TotalEnergy returns the energy summed over all nodes.
func (env *Environment) TotalEnergy() float64 {
	var sum float64
	for n := range env.nodes {
		sum += env.Energy(n)
	}
	return sum
}

// Outgoing returns the targets of the edges leaving n.
func (env *Environment) Outgoing(n int) []int {
	nd := env.nodes[n]
	nd.adjMu.RLock()
	defer nd.adjMu.RUnlock()
	out := make([]int, len(nd.out))
	for i, e := range nd.out {
		out[i] = e.to
	}
	return out
}

// HasEdge reports whether an edge from -> to exists.
func (env *Environment) HasEdge(from, to int) bool { return env.edge(from, to) != nil }

// Pheromone returns the pheromone on edge from -> to, or 0 if there is none.
func (env *Environment) Pheromone(from, to int) float64 {
	if e := env.edge(from, to); e != nil {
		return e.pheromone()
	}
	return 0
}

// DepositPheromone adds amount to edge from -> to, capped at limit.
// It reports whether the edge exists.
func (env *Environment) DepositPheromone(from, to int, amount, limit float64) bool {
	e := env.edge(from, to)
	if e == nil {
		return false
	}
	if math.IsNaN(amount) {
		return true
	}
	for {
		old := e.bits.Load()
		v := min(math.Float64frombits(old)+amount, limit)
		if v < 0 {
			v = 0
		}
		if e.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return true
		}
	}
}

// Evaporate scales the pheromone of every edge by 1-rate.
func (env *Environment) Evaporate(rate float64) {
	if !(rate > 0) {
		return
	}
	keep := max(1-rate, 0)
	for _, nd := range env.nodes {
		nd.adjMu.RLock()
		for _, e := range nd.out {
			for {
				old := e.bits.Load()
				if e.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)*keep)) {
					break
				}
			}
		}
		nd.adjMu.RUnlock()
	}
}

// IsBridge reports whether a bridge leads from nest to home.
func (env *Environment) IsBridge(nest, home int) bool {
	e := env.edge(nest, home)
	return e != nil && e.bridge
}

// CreateBridge links nest directly to home. Both must be distinct sense
// nodes. It reports whether a new bridge was created.
func (env *Environment) CreateBridge(nest, home int) bool {
	if nest == home || !env.IsNest(nest) || !env.IsNest(home) {
		return false
	}
	nd := env.nodes[nest]
	nd.adjMu.Lock()
	defer nd.adjMu.Unlock()
	for _, e := range nd.out {
		if e.to == home {
			return false
		}
	}
	e := &edge{to: home, bridge: true}
	nd.out = append(nd.out, e)
	env.bridges.Add(1)
	return true
}

// Bridges returns the number of bridges created so far.
func (env *Environment) Bridges() int { return int(env.bridges.Load()) }

// IsFriendNest reports whether n is home itself or a nest bridged to home.
func (env *Environment) IsFriendNest(n, home int) bool {
	if !env.IsNest(n) {
		return false
	}
	return n == home || env.IsBridge(n, home)
}

// NodeSignature returns the signature of node n: the sense signature of a
// nest followed by the symbols deposited into its buffer.
func (env *Environment) NodeSignature(n int) model.Signature {
	nd := env.nodes[n]
	nd.mu.Lock()
	defer nd.mu.Unlock()
	sig := make(model.Signature, 0, len(nd.signature)+len(nd.buffer))
	sig = append(sig, nd.signature...)
	for _, sym := range nd.buffer {
		if sym.Value != "" {
			sig = append(sig, sym)
		}
	}
	return sig
}

// Buffer returns the deposited symbols of node n.
func (env *Environment) Buffer(n int) model.Signature {
	nd := env.nodes[n]
	nd.mu.Lock()
	defer nd.mu.Unlock()
	var sig model.Signature
	for _, sym := range nd.buffer {
		if sym.Value != "" {
			sig = append(sig, sym)
		}
	}
	return sig
}

// SenseSignature returns the sense signature of nest n.
func (env *Environment) SenseSignature(n int) model.Signature { return env.nodes[n].signature }

// Deposit writes symbols into distinct random slots of node n's buffer.
// Slot 0 is never written. Surplus symbols are dropped.
func (env *Environment) Deposit(n int, symbols []model.Symbol, r strategy.Rand) int {
	nd := env.nodes[n]
	nd.mu.Lock()
	defer nd.mu.Unlock()
	free := len(nd.buffer) - 1
	if free <= 0 {
		return 0
	}
	slots := make([]int, free)
	for i := range slots {
		slots[i] = i + 1
	}
	written := 0
	for _, sym := range symbols {
		if written == free {
			break
		}
		j := written + r.Intn(free-written)
		slots[written], slots[j] = slots[j], slots[written]
		nd.buffer[slots[written]] = sym
		written++
	}
	return written
}

// Validate checks the structural invariants of the graph.
func (env *Environment) Validate() error {
	if len(env.nodes) == 0 || env.nodes[0].kind != RootNode {
		return fmt.Errorf("aca: node 0 is not the root")
	}
	for i, wn := range env.words {
		if !env.HasEdge(0, wn) || !env.HasEdge(wn, 0) {
			return fmt.Errorf("aca: word %d not linked to root", i)
		}
		for _, sn := range env.senses[i] {
			if !env.HasEdge(wn, sn) || !env.HasEdge(sn, wn) {
				return fmt.Errorf("aca: sense node %d not linked to word %d", sn, i)
			}
		}
	}
	for from, nd := range env.nodes {
		if e := env.Energy(from); math.IsNaN(e) || e < 0 {
			return fmt.Errorf("aca: node %d has energy %v", from, e)
		}
		nd.adjMu.RLock()
		for _, e := range nd.out {
			p := e.pheromone()
			if math.IsNaN(p) || p < 0 {
				nd.adjMu.RUnlock()
				return fmt.Errorf("aca: edge %d->%d has pheromone %v", from, e.to, p)
			}
			if e.bridge && (nd.kind != SenseNode || env.nodes[e.to].kind != SenseNode) {
				nd.adjMu.RUnlock()
				return fmt.Errorf("aca: bridge %d->%d does not join two nests", from, e.to)
			}
		}
		nd.adjMu.RUnlock()
	}
	return nil
}
