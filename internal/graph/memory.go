package graph

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Memory is an in-memory host graph backed by gonum's simple graphs, with a
// string-identifier layer on top (gonum nodes are int64). Build it up with
// AddNode/AddEdge, then share it read-only between workers.
//
// Self-loops are tracked outside the gonum structure (simple graphs reject
// self-edges) and surface only through HasEdge, which is the only place the
// expansion engine needs them.
type Memory struct {
	directed bool
	dg       *simple.DirectedGraph
	ug       *simple.UndirectedGraph

	ids   map[string]int64
	names map[int64]string
	next  int64

	nodeAttrs map[string]Attrs
	edgeAttrs map[[2]string]Attrs
	selfLoops map[string]Attrs
}

// NewMemory creates an empty in-memory host graph.
func NewMemory(directed bool) *Memory {
	m := &Memory{
		directed:  directed,
		ids:       make(map[string]int64),
		names:     make(map[int64]string),
		nodeAttrs: make(map[string]Attrs),
		edgeAttrs: make(map[[2]string]Attrs),
		selfLoops: make(map[string]Attrs),
	}
	if directed {
		m.dg = simple.NewDirectedGraph()
	} else {
		m.ug = simple.NewUndirectedGraph()
	}
	return m
}

// Directed reports whether host edges are directional.
func (m *Memory) Directed() bool { return m.directed }

func (m *Memory) edgeKey(a, b string) [2]string {
	if !m.directed && b < a {
		return [2]string{b, a}
	}
	return [2]string{a, b}
}

func (m *Memory) ensureNode(id string) int64 {
	if gid, ok := m.ids[id]; ok {
		return gid
	}
	gid := m.next
	m.next++
	m.ids[id] = gid
	m.names[gid] = id
	if m.directed {
		m.dg.AddNode(simple.Node(gid))
	} else {
		m.ug.AddNode(simple.Node(gid))
	}
	return gid
}

// AddNode declares a host node with optional attributes.
// Adding an existing node merges the attributes.
func (m *Memory) AddNode(id string, attrs Attrs) {
	m.ensureNode(id)
	if len(attrs) == 0 {
		return
	}
	if m.nodeAttrs[id] == nil {
		m.nodeAttrs[id] = make(Attrs, len(attrs))
	}
	for k, v := range attrs {
		m.nodeAttrs[id][k] = v
	}
}

// AddEdge declares a host edge, creating endpoints as needed.
// Re-adding an edge replaces its attributes.
func (m *Memory) AddEdge(a, b string, attrs Attrs) {
	if a == b {
		m.ensureNode(a)
		m.selfLoops[a] = attrs
		if attrs == nil {
			m.selfLoops[a] = Attrs{}
		}
		return
	}
	fa, fb := m.ensureNode(a), m.ensureNode(b)
	if m.directed {
		m.dg.SetEdge(simple.Edge{F: simple.Node(fa), T: simple.Node(fb)})
	} else {
		m.ug.SetEdge(simple.Edge{F: simple.Node(fa), T: simple.Node(fb)})
	}
	m.edgeAttrs[m.edgeKey(a, b)] = attrs
}

// AllNodes implements Accessor.
func (m *Memory) AllNodes(context.Context) ([]string, error) {
	nodes := make([]string, 0, len(m.ids))
	for id := range m.ids {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes, nil
}

func (m *Memory) collect(it graph.Nodes) []string {
	var out []string
	for it.Next() {
		out = append(out, m.names[it.Node().ID()])
	}
	sort.Strings(out)
	return out
}

// Neighbors implements Accessor.
func (m *Memory) Neighbors(_ context.Context, node string, dir Direction) ([]string, error) {
	gid, ok := m.ids[node]
	if !ok {
		return nil, nil
	}
	if !m.directed {
		return m.collect(m.ug.From(gid)), nil
	}
	switch dir {
	case Out:
		return m.collect(m.dg.From(gid)), nil
	case In:
		return m.collect(m.dg.To(gid)), nil
	default:
		seen := make(map[string]bool)
		var out []string
		for _, n := range m.collect(m.dg.From(gid)) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
		for _, n := range m.collect(m.dg.To(gid)) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
		sort.Strings(out)
		return out, nil
	}
}

// HasEdge implements Accessor.
func (m *Memory) HasEdge(_ context.Context, a, b string, dir Direction) (bool, Attrs, error) {
	if a == b {
		attrs, ok := m.selfLoops[a]
		return ok, attrs, nil
	}
	ga, aok := m.ids[a]
	gb, bok := m.ids[b]
	if !aok || !bok {
		return false, nil, nil
	}
	if !m.directed {
		if m.ug.HasEdgeBetween(ga, gb) {
			return true, m.edgeAttrs[m.edgeKey(a, b)], nil
		}
		return false, nil, nil
	}
	switch dir {
	case Out:
		if m.dg.HasEdgeFromTo(ga, gb) {
			return true, m.edgeAttrs[[2]string{a, b}], nil
		}
	case In:
		if m.dg.HasEdgeFromTo(gb, ga) {
			return true, m.edgeAttrs[[2]string{b, a}], nil
		}
	default:
		if m.dg.HasEdgeFromTo(ga, gb) {
			return true, m.edgeAttrs[[2]string{a, b}], nil
		}
		if m.dg.HasEdgeFromTo(gb, ga) {
			return true, m.edgeAttrs[[2]string{b, a}], nil
		}
	}
	return false, nil, nil
}

// NodeAttrs implements Accessor.
func (m *Memory) NodeAttrs(_ context.Context, node string) (Attrs, error) {
	return m.nodeAttrs[node], nil
}

// NodeCount returns the number of declared host nodes.
func (m *Memory) NodeCount() int { return len(m.ids) }
