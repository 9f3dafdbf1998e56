// Package iso implements the candidate-expansion engine at the heart of
// the motif search: growing partial injective motif-to-host mappings one
// bound node at a time.
package iso

import (
	"sort"

	"github.com/motiq/motiq/internal/motif"
)

// Candidate is a partial injective mapping from motif nodes to host nodes.
// The empty map is the root of every search. Candidates are never mutated
// after creation; Extend copies.
type Candidate map[string]string

// Extend returns a new candidate with one additional binding.
// The receiver is not modified.
func (c Candidate) Extend(node, host string) Candidate {
	child := make(Candidate, len(c)+1)
	for k, v := range c {
		child[k] = v
	}
	child[node] = host
	return child
}

// UsesHost reports whether a host node is already bound. Used to enforce
// injectivity: no two motif nodes may map to the same host node.
func (c Candidate) UsesHost(h string) bool {
	for _, v := range c {
		if v == h {
			return true
		}
	}
	return false
}

// Complete reports whether every motif node is bound.
func (c Candidate) Complete(m *motif.Motif) bool {
	return len(c) == m.Len()
}

// BoundNodes returns the bound motif nodes in sorted order.
func (c Candidate) BoundNodes() []string {
	nodes := make([]string, 0, len(c))
	for n := range c {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}
