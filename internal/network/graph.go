// Package network builds the contact network agents exchange messages over.
// The network is an undirected graph over agent indices; once built it is
// never mutated.
package network

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/nvandessel/beliefsim/internal/simerr"
)

// Edge is an undirected edge with U < V.
type Edge struct {
	U int `json:"source"`
	V int `json:"target"`
}

// Graph is an immutable undirected graph over nodes 0..n-1.
type Graph struct {
	adj   [][]int
	edges int
}

// Config describes a small-world topology request.
type Config struct {
	// Nodes is the number of agents. Must be > 0.
	Nodes int

	// KNeighbors is the ring-lattice degree before rewiring. Each node joins
	// KNeighbors/2 nearest nodes on either side, so an odd value rounds down.
	KNeighbors int

	// RewireProb is the per-edge probability of rewiring to a random node.
	RewireProb float64
}

// Validate checks that the topology can be built. Counts and probabilities
// outside their domain are InvalidParameter; a population too small for the
// requested lattice is InvalidTopologyParameters.
func (c Config) Validate() error {
	if err := simerr.CheckPositive("n_agents", c.Nodes); err != nil {
		return err
	}
	if c.KNeighbors < 1 {
		return simerr.InvalidParameter("k_neighbors", c.KNeighbors, "must be at least 1")
	}
	if err := simerr.CheckUnit("rewire_prob", c.RewireProb); err != nil {
		return err
	}
	if c.Nodes < c.KNeighbors+1 {
		return simerr.InvalidTopology("n_agents", c.Nodes,
			fmt.Sprintf("small-world graph needs at least k_neighbors+1 = %d nodes", c.KNeighbors+1))
	}
	return nil
}

// NewGraph builds a graph with n nodes from an explicit edge list. Self-loops
// are rejected and duplicate edges collapse into one.
func NewGraph(n int, edges []Edge) (*Graph, error) {
	if n < 0 {
		return nil, simerr.InvalidParameter("n_agents", n, "must be non-negative")
	}
	b := newBuilder(n)
	for _, e := range edges {
		if e.U < 0 || e.U >= n || e.V < 0 || e.V >= n {
			return nil, fmt.Errorf("network: edge %d-%d out of range for %d nodes", e.U, e.V, n)
		}
		if e.U == e.V {
			return nil, fmt.Errorf("network: self-loop on node %d", e.U)
		}
		b.add(e.U, e.V)
	}
	return b.freeze(), nil
}

// Complete returns the complete graph on n nodes.
func Complete(n int) *Graph {
	b := newBuilder(n)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			b.add(u, v)
		}
	}
	return b.freeze()
}

// BuildSmallWorld builds a Watts-Strogatz graph: a ring lattice where every
// node joins its KNeighbors/2 nearest nodes on each side, after which each
// lattice edge (u, u+j) is independently rewired to (u, w) with probability
// RewireProb. w is drawn uniformly among nodes that are neither u nor already
// adjacent to u; a node already adjacent to every other node keeps its edge.
// A zero RewireProb consumes no randomness, so rng may be nil in that case.
func BuildSmallWorld(rng *rand.Rand, cfg Config) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Nodes
	half := cfg.KNeighbors / 2
	b := newBuilder(n)

	for j := 1; j <= half; j++ {
		for u := 0; u < n; u++ {
			b.add(u, (u+j)%n)
		}
	}

	if cfg.RewireProb == 0 {
		return b.freeze(), nil
	}

	for j := 1; j <= half; j++ {
		for u := 0; u < n; u++ {
			v := (u + j) % n
			if rng.Float64() >= cfg.RewireProb {
				continue
			}
			w := rng.IntN(n)
			rewire := true
			for w == u || b.has(u, w) {
				w = rng.IntN(n)
				if len(b.adj[u]) >= n-1 {
					rewire = false
					break
				}
			}
			if rewire {
				b.remove(u, v)
				b.add(u, w)
			}
		}
	}

	return b.freeze(), nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Neighbors returns the neighbors of node i in ascending order. The returned
// slice is shared with the graph and must not be modified.
func (g *Graph) Neighbors(i int) []int {
	return g.adj[i]
}

// Degree returns the number of neighbors of node i.
func (g *Graph) Degree(i int) int {
	return len(g.adj[i])
}

// Edges returns every edge once, ordered by (U, V).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for u, nbrs := range g.adj {
		for _, v := range nbrs {
			if u < v {
				out = append(out, Edge{U: u, V: v})
			}
		}
	}
	return out
}

// MeanDegree returns the average node degree, or 0 for an empty graph.
func (g *Graph) MeanDegree() float64 {
	if len(g.adj) == 0 {
		return 0
	}
	return 2 * float64(g.edges) / float64(len(g.adj))
}

// builder accumulates adjacency sets during construction.
type builder struct {
	adj []map[int]struct{}
}

func newBuilder(n int) *builder {
	adj := make([]map[int]struct{}, n)
	for i := range adj {
		adj[i] = make(map[int]struct{})
	}
	return &builder{adj: adj}
}

func (b *builder) add(u, v int) {
	b.adj[u][v] = struct{}{}
	b.adj[v][u] = struct{}{}
}

func (b *builder) remove(u, v int) {
	delete(b.adj[u], v)
	delete(b.adj[v], u)
}

func (b *builder) has(u, v int) bool {
	_, ok := b.adj[u][v]
	return ok
}

// freeze converts adjacency sets into sorted slices.
func (b *builder) freeze() *Graph {
	adj := make([][]int, len(b.adj))
	total := 0
	for u, set := range b.adj {
		nbrs := make([]int, 0, len(set))
		for v := range set {
			nbrs = append(nbrs, v)
		}
		sort.Ints(nbrs)
		adj[u] = nbrs
		total += len(nbrs)
	}
	return &Graph{adj: adj, edges: total / 2}
}
