package motif

import "sort"

// Ranker orders motif nodes by how constrained they are; the expansion
// engine binds nodes in this order. Implementations must be deterministic:
// equal motifs yield identical orderings. Implemented by DegreeRanker
// (production default) and by test rankers with fixed orders.
type Ranker interface {
	Rank(m *Motif) []string
}

// DegreeRanker ranks motif nodes by descending degree, ties broken by
// lexicographic node identifier. More-connected nodes are bound first
// because they constrain the host-side candidate sets the most.
type DegreeRanker struct{}

// Rank returns all motif node identifiers, most-constrained first.
func (DegreeRanker) Rank(m *Motif) []string {
	order := make([]string, len(m.nodes))
	copy(order, m.nodes)
	sort.SliceStable(order, func(i, j int) bool {
		di, dj := m.degree[order[i]], m.degree[order[j]]
		if di != dj {
			return di > dj
		}
		return order[i] < order[j]
	})
	return order
}

// FixedRanker returns a caller-supplied order. Useful for substituting a
// host-informed ranking and in tests.
type FixedRanker struct {
	Order []string
}

func (r FixedRanker) Rank(*Motif) []string { return r.Order }

// RankMap converts an ordering into the wire form carried in task payloads:
// node identifier to zero-based rank.
func RankMap(order []string) map[string]int {
	ranks := make(map[string]int, len(order))
	for i, n := range order {
		ranks[n] = i
	}
	return ranks
}

// OrderFromRankMap reconstructs an ordering from its wire form.
// Nodes missing from the map sort last; all ties break by identifier, so
// the result is deterministic even for partial or degenerate maps.
// Returns ok=false if the map is empty or names nodes outside the motif,
// in which case the caller should recompute the ranking.
func OrderFromRankMap(m *Motif, ranks map[string]int) ([]string, bool) {
	if len(ranks) == 0 {
		return nil, false
	}
	for n := range ranks {
		if !m.HasNode(n) {
			return nil, false
		}
	}
	order := make([]string, len(m.nodes))
	copy(order, m.nodes)
	sort.SliceStable(order, func(i, j int) bool {
		ri, iok := ranks[order[i]]
		rj, jok := ranks[order[j]]
		if iok != jok {
			return iok // ranked nodes first
		}
		if iok && ri != rj {
			return ri < rj
		}
		return order[i] < order[j]
	})
	return order, true
}
