// Package motif defines the immutable pattern graph searched for in a host
// graph, its declarative source formats, and the interestingness ranking
// used to pick the order in which motif nodes are bound.
package motif

import (
	"fmt"
	"log/slog"
	"sort"
)

// Predicate is an attribute-equality constraint on a node or edge.
// Every key must be present in the host attributes with an equal value.
// Only equality is supported; comparator forms are rejected at parse time.
type Predicate map[string]any

// Matches reports whether the host attributes satisfy the predicate.
// An empty or nil predicate matches anything.
func (p Predicate) Matches(attrs map[string]any) bool {
	for key, want := range p {
		got, ok := attrs[key]
		if !ok {
			return false
		}
		if !scalarEqual(want, got) {
			return false
		}
	}
	return true
}

// scalarEqual compares predicate values against host attribute values.
// Numeric values are compared as float64 so that YAML/JSON decoding
// differences (int vs float64) do not cause spurious mismatches.
func scalarEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// Edge is a single motif edge. Directionality is a property of the whole
// motif, not of individual edges.
type Edge struct {
	From      string
	To        string
	Predicate Predicate
}

// Motif is an immutable pattern graph. Construct with New (or one of the
// source-format frontends); never mutate after construction.
type Motif struct {
	directed bool
	nodes    []string // sorted, unique
	edges    []Edge

	out map[string][]string // successors (directed) / neighbors (undirected)
	in  map[string][]string // predecessors (directed) / neighbors (undirected)
	und map[string][]string // neighbors ignoring direction, sorted, unique

	nodePreds map[string]Predicate
	edgePreds map[edgeKey]Predicate
	selfLoops map[string]bool
	degree    map[string]int
}

// edgeKey identifies a motif edge. For undirected motifs the endpoints are
// stored in sorted order so (a,b) and (b,a) collide.
type edgeKey struct {
	a, b string
}

func (m *Motif) key(from, to string) edgeKey {
	if !m.directed && to < from {
		return edgeKey{to, from}
	}
	return edgeKey{from, to}
}

// New constructs a motif from explicit node and edge sets.
// Node predicates may be nil. Returns a MalformedMotifError when the
// structure is invalid (duplicate nodes, edges over undeclared nodes,
// empty node set, non-equality predicates).
func New(directed bool, nodes []string, nodePreds map[string]Predicate, edges []Edge) (*Motif, error) {
	if len(nodes) == 0 {
		return nil, &MalformedMotifError{Message: "motif has no nodes"}
	}

	m := &Motif{
		directed:  directed,
		out:       make(map[string][]string),
		in:        make(map[string][]string),
		und:       make(map[string][]string),
		nodePreds: make(map[string]Predicate),
		edgePreds: make(map[edgeKey]Predicate),
		selfLoops: make(map[string]bool),
		degree:    make(map[string]int),
	}

	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n == "" {
			return nil, &MalformedMotifError{Message: "empty node identifier"}
		}
		if seen[n] {
			return nil, &MalformedMotifError{Node: n, Message: "duplicate node"}
		}
		seen[n] = true
		m.nodes = append(m.nodes, n)
	}
	sort.Strings(m.nodes)

	for n, pred := range nodePreds {
		if !seen[n] {
			return nil, &MalformedMotifError{Node: n, Message: "predicate references undeclared node"}
		}
		if err := validatePredicate(pred); err != nil {
			return nil, &MalformedMotifError{Node: n, Message: err.Error()}
		}
		if len(pred) > 0 {
			m.nodePreds[n] = pred
		}
	}

	for _, e := range edges {
		if !seen[e.From] {
			return nil, &MalformedMotifError{Node: e.From, Message: "edge references undeclared node"}
		}
		if !seen[e.To] {
			return nil, &MalformedMotifError{Node: e.To, Message: "edge references undeclared node"}
		}
		if err := validatePredicate(e.Predicate); err != nil {
			return nil, &MalformedMotifError{Node: e.From, Message: fmt.Sprintf("edge %s->%s: %v", e.From, e.To, err)}
		}
		k := m.key(e.From, e.To)
		if _, dup := m.edgePreds[k]; dup {
			return nil, &MalformedMotifError{Node: e.From, Message: fmt.Sprintf("duplicate edge %s->%s", e.From, e.To)}
		}
		m.edgePreds[k] = e.Predicate
		m.edges = append(m.edges, e)

		if e.From == e.To {
			m.selfLoops[e.From] = true
			m.degree[e.From]++
			continue
		}

		m.out[e.From] = append(m.out[e.From], e.To)
		m.in[e.To] = append(m.in[e.To], e.From)
		m.und[e.From] = appendUnique(m.und[e.From], e.To)
		m.und[e.To] = appendUnique(m.und[e.To], e.From)
		m.degree[e.From]++
		m.degree[e.To]++
	}

	for _, adj := range []map[string][]string{m.out, m.in, m.und} {
		for n := range adj {
			sort.Strings(adj[n])
		}
	}

	if !m.connected() {
		// Legal but slow: the expansion engine falls back to unrestricted
		// host enumeration for components not yet touched by the candidate.
		slog.Warn("motif is disconnected; search will enumerate unrestricted host nodes for detached components")
	}

	return m, nil
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// validatePredicate rejects anything but scalar equality values.
// Nested maps or lists are the shape comparator operators take in
// declarative sources, and those are out of scope.
func validatePredicate(p Predicate) error {
	for key, v := range p {
		switch v.(type) {
		case string, bool, int, int64, float64, float32:
		default:
			return fmt.Errorf("predicate %q: only attribute equality is supported", key)
		}
	}
	return nil
}

func (m *Motif) connected() bool {
	if len(m.nodes) <= 1 {
		return true
	}
	visited := map[string]bool{m.nodes[0]: true}
	frontier := []string{m.nodes[0]}
	for len(frontier) > 0 {
		n := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, nb := range m.und[n] {
			if !visited[nb] {
				visited[nb] = true
				frontier = append(frontier, nb)
			}
		}
	}
	return len(visited) == len(m.nodes)
}

// Directed reports whether motif edges are directional.
func (m *Motif) Directed() bool { return m.directed }

// Nodes returns the motif node identifiers in sorted order.
// The returned slice must not be mutated.
func (m *Motif) Nodes() []string { return m.nodes }

// Len returns the number of motif nodes.
func (m *Motif) Len() int { return len(m.nodes) }

// Edges returns the motif edges in declaration order.
func (m *Motif) Edges() []Edge { return m.edges }

// HasNode reports whether the identifier names a motif node.
func (m *Motif) HasNode(n string) bool {
	i := sort.SearchStrings(m.nodes, n)
	return i < len(m.nodes) && m.nodes[i] == n
}

// HasEdge reports whether the motif requires an edge from a to b.
// For undirected motifs the order of a and b is irrelevant.
func (m *Motif) HasEdge(a, b string) bool {
	_, ok := m.edgePreds[m.key(a, b)]
	return ok
}

// Degree returns the motif-degree of a node (self-loops count once).
func (m *Motif) Degree(n string) int { return m.degree[n] }

// Neighbors returns the neighbors of n ignoring edge direction,
// excluding n itself. Sorted, unique.
func (m *Motif) Neighbors(n string) []string { return m.und[n] }

// OutNeighbors returns the targets of edges leaving n.
func (m *Motif) OutNeighbors(n string) []string { return m.out[n] }

// InNeighbors returns the sources of edges entering n.
func (m *Motif) InNeighbors(n string) []string { return m.in[n] }

// HasSelfLoop reports whether the motif requires a self-loop on n.
func (m *Motif) HasSelfLoop(n string) bool { return m.selfLoops[n] }

// NodePredicate returns the attribute predicate for a node (nil if none).
func (m *Motif) NodePredicate(n string) Predicate { return m.nodePreds[n] }

// EdgePredicate returns the attribute predicate for the edge from a to b
// (nil if the edge exists without a predicate or does not exist).
func (m *Motif) EdgePredicate(a, b string) Predicate { return m.edgePreds[m.key(a, b)] }
