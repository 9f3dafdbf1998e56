package motif

// Doc is the serialized, wire-level form of a motif: a node/edge list with
// the directedness flag and inline attribute predicates. It is the shape
// carried inside queue task payloads and result records, and also the shape
// of the YAML and CUE source files.
type Doc struct {
	Directed bool      `json:"directed" yaml:"directed"`
	Nodes    []NodeDoc `json:"nodes" yaml:"nodes"`
	Edges    []EdgeDoc `json:"edges" yaml:"edges"`
}

// NodeDoc declares one motif node with optional attribute predicates.
type NodeDoc struct {
	ID    string         `json:"id" yaml:"id"`
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// EdgeDoc declares one motif edge with optional attribute predicates.
type EdgeDoc struct {
	From  string         `json:"from" yaml:"from"`
	To    string         `json:"to" yaml:"to"`
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Doc returns the serialized form of the motif. Nodes are emitted in sorted
// order and edges in declaration order, so equal motifs serialize equally.
func (m *Motif) Doc() Doc {
	d := Doc{Directed: m.directed}
	for _, n := range m.nodes {
		nd := NodeDoc{ID: n}
		if p := m.nodePreds[n]; len(p) > 0 {
			nd.Attrs = p
		}
		d.Nodes = append(d.Nodes, nd)
	}
	for _, e := range m.edges {
		ed := EdgeDoc{From: e.From, To: e.To}
		if len(e.Predicate) > 0 {
			ed.Attrs = e.Predicate
		}
		d.Edges = append(d.Edges, ed)
	}
	return d
}

// FromDoc reconstructs an immutable Motif from its serialized form.
func FromDoc(d Doc) (*Motif, error) {
	nodes := make([]string, 0, len(d.Nodes))
	preds := make(map[string]Predicate, len(d.Nodes))
	for _, n := range d.Nodes {
		nodes = append(nodes, n.ID)
		if len(n.Attrs) > 0 {
			preds[n.ID] = Predicate(n.Attrs)
		}
	}
	edges := make([]Edge, 0, len(d.Edges))
	for _, e := range d.Edges {
		edges = append(edges, Edge{From: e.From, To: e.To, Predicate: Predicate(e.Attrs)})
	}
	return New(d.Directed, nodes, preds, edges)
}
