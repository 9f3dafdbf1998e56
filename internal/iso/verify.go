package iso

import (
	"context"
	"fmt"

	"github.com/motiq/motiq/internal/graph"
	"github.com/motiq/motiq/internal/motif"
)

// Verify independently re-validates a completed mapping against the host:
// completeness, injectivity, node predicates, and every motif edge
// (existence, direction, attribute predicates). It shares no logic with
// Expand beyond the predicate types, so it can catch engine bugs.
func Verify(ctx context.Context, cand Candidate, m *motif.Motif, host graph.Accessor) error {
	if !cand.Complete(m) {
		return fmt.Errorf("verify: candidate binds %d of %d motif nodes", len(cand), m.Len())
	}

	used := make(map[string]string, len(cand))
	for n, h := range cand {
		if !m.HasNode(n) {
			return &InvalidCandidateError{Node: n}
		}
		if prev, dup := used[h]; dup {
			return fmt.Errorf("verify: host node %q bound by both %q and %q", h, prev, n)
		}
		used[h] = n

		if pred := m.NodePredicate(n); len(pred) > 0 {
			attrs, err := host.NodeAttrs(ctx, h)
			if err != nil {
				return err
			}
			if !pred.Matches(attrs) {
				return fmt.Errorf("verify: node %q -> %q fails attribute predicate", n, h)
			}
		}
	}

	for _, e := range m.Edges() {
		dir := graph.Any
		if m.Directed() {
			dir = graph.Out
		}
		ok, attrs, err := host.HasEdge(ctx, cand[e.From], cand[e.To], dir)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("verify: motif edge %s->%s has no host edge %s->%s",
				e.From, e.To, cand[e.From], cand[e.To])
		}
		if !e.Predicate.Matches(attrs) {
			return fmt.Errorf("verify: motif edge %s->%s fails attribute predicate", e.From, e.To)
		}
	}
	return nil
}
