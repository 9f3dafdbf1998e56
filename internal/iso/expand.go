package iso

import (
	"context"
	"sort"

	"github.com/motiq/motiq/internal/graph"
	"github.com/motiq/motiq/internal/motif"
)

// Expand produces every candidate reachable from cand by binding exactly one
// additional motif node, in host-value order. It is a pure function of its
// inputs and is safe to re-run on the same candidate (queue redelivery).
//
// A complete candidate expands to nothing: completed mappings are committed,
// never grown. Dead ends return an empty slice, not an error; the only error
// a well-formed input can produce is an I/O failure from the host accessor.
// A candidate binding nodes outside the motif returns InvalidCandidateError.
func Expand(ctx context.Context, cand Candidate, m *motif.Motif, host graph.Accessor, order []string) ([]Candidate, error) {
	for n := range cand {
		if !m.HasNode(n) {
			return nil, &InvalidCandidateError{Node: n}
		}
	}
	if cand.Complete(m) {
		return nil, nil
	}

	order = normalizeOrder(m, order)
	next, restricted := selectNode(cand, m, order)

	values, err := hostValues(ctx, cand, m, host, next, restricted)
	if err != nil {
		return nil, err
	}

	var children []Candidate
	for _, h := range values {
		ok, err := feasible(ctx, cand, m, host, next, h)
		if err != nil {
			return nil, err
		}
		if ok {
			children = append(children, cand.Extend(next, h))
		}
	}
	return children, nil
}

// normalizeOrder filters the ranking down to motif nodes and appends any
// motif nodes the ranking missed, so selection always terminates even on a
// degenerate ranking from an old task payload.
func normalizeOrder(m *motif.Motif, order []string) []string {
	out := make([]string, 0, m.Len())
	seen := make(map[string]bool, m.Len())
	for _, n := range order {
		if m.HasNode(n) && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range m.Nodes() {
		if !seen[n] {
			out = append(out, n)
		}
	}
	return out
}

// selectNode picks the next motif node to bind: the first unbound node in
// ranking order with at least one already-bound motif neighbor, so host
// candidates can be drawn from that neighbor's host neighborhood. When no
// unbound node touches the bound set (empty or disconnected candidate),
// selection falls back to plain ranking order with unrestricted generation.
func selectNode(cand Candidate, m *motif.Motif, order []string) (next string, restricted bool) {
	for _, n := range order {
		if _, bound := cand[n]; bound {
			continue
		}
		for _, nb := range m.Neighbors(n) {
			if _, bound := cand[nb]; bound {
				return n, true
			}
		}
	}
	for _, n := range order {
		if _, bound := cand[n]; !bound {
			return n, false
		}
	}
	return "", false // unreachable: caller rejects complete candidates
}

// hostValues generates the tentative host assignments for next: the
// intersection of the appropriate host neighbor sets of every bound motif
// neighbor, or the full host node set when unrestricted.
func hostValues(ctx context.Context, cand Candidate, m *motif.Motif, host graph.Accessor, next string, restricted bool) ([]string, error) {
	if !restricted {
		return host.AllNodes(ctx)
	}

	var sets [][]string
	for _, b := range m.Neighbors(next) {
		hb, bound := cand[b]
		if !bound {
			continue
		}
		if m.Directed() {
			// A motif edge b->next pins h(next) among the successors of
			// h(b); next->b pins it among the predecessors.
			if m.HasEdge(b, next) {
				s, err := host.Neighbors(ctx, hb, graph.Out)
				if err != nil {
					return nil, err
				}
				sets = append(sets, s)
			}
			if m.HasEdge(next, b) {
				s, err := host.Neighbors(ctx, hb, graph.In)
				if err != nil {
					return nil, err
				}
				sets = append(sets, s)
			}
		} else {
			s, err := host.Neighbors(ctx, hb, graph.Any)
			if err != nil {
				return nil, err
			}
			sets = append(sets, s)
		}
	}
	return intersect(sets), nil
}

// intersect returns the sorted intersection of the given node sets.
func intersect(sets [][]string) []string {
	if len(sets) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, set := range sets {
		seen := make(map[string]bool, len(set))
		for _, v := range set {
			if !seen[v] {
				seen[v] = true
				counts[v]++
			}
		}
	}
	var out []string
	for v, c := range counts {
		if c == len(sets) {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// feasible applies the per-assignment consistency checks: injectivity, the
// node attribute predicate, the self-loop requirement, and every motif edge
// between next and an already-bound node (existence, direction, and edge
// attribute predicate).
func feasible(ctx context.Context, cand Candidate, m *motif.Motif, host graph.Accessor, next, h string) (bool, error) {
	if cand.UsesHost(h) {
		return false, nil
	}

	if pred := m.NodePredicate(next); len(pred) > 0 {
		attrs, err := host.NodeAttrs(ctx, h)
		if err != nil {
			return false, err
		}
		if !pred.Matches(attrs) {
			return false, nil
		}
	}

	if m.HasSelfLoop(next) {
		ok, attrs, err := host.HasEdge(ctx, h, h, graph.Any)
		if err != nil {
			return false, err
		}
		if !ok || !m.EdgePredicate(next, next).Matches(attrs) {
			return false, nil
		}
	}

	for _, b := range m.Neighbors(next) {
		hb, bound := cand[b]
		if !bound {
			continue
		}
		if m.Directed() {
			if m.HasEdge(next, b) {
				ok, attrs, err := host.HasEdge(ctx, h, hb, graph.Out)
				if err != nil {
					return false, err
				}
				if !ok || !m.EdgePredicate(next, b).Matches(attrs) {
					return false, nil
				}
			}
			if m.HasEdge(b, next) {
				ok, attrs, err := host.HasEdge(ctx, hb, h, graph.Out)
				if err != nil {
					return false, err
				}
				if !ok || !m.EdgePredicate(b, next).Matches(attrs) {
					return false, nil
				}
			}
		} else {
			ok, attrs, err := host.HasEdge(ctx, h, hb, graph.Any)
			if err != nil {
				return false, err
			}
			if !ok || !m.EdgePredicate(next, b).Matches(attrs) {
				return false, nil
			}
		}
	}
	return true, nil
}
