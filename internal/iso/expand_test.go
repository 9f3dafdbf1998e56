package iso

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motiq/motiq/internal/graph"
	"github.com/motiq/motiq/internal/motif"
)

func mustMotif(t *testing.T, directed bool, nodes []string, preds map[string]motif.Predicate, edges []motif.Edge) *motif.Motif {
	t.Helper()
	m, err := motif.New(directed, nodes, preds, edges)
	require.NoError(t, err)
	return m
}

// search runs the expansion to exhaustion, breadth-first, and returns every
// completed mapping. This is what the worker fleet does collectively; doing
// it in-process makes end-to-end correctness assertions cheap.
func search(t *testing.T, m *motif.Motif, host graph.Accessor) []Candidate {
	t.Helper()
	ctx := context.Background()
	order := motif.DegreeRanker{}.Rank(m)

	var complete []Candidate
	frontier := []Candidate{{}}
	for len(frontier) > 0 {
		cand := frontier[0]
		frontier = frontier[1:]

		children, err := Expand(ctx, cand, m, host, order)
		require.NoError(t, err)
		for _, child := range children {
			if child.Complete(m) {
				complete = append(complete, child)
			} else {
				frontier = append(frontier, child)
			}
		}
	}
	return complete
}

// mappingSet renders mappings as sorted "A=x,B=y" strings for comparison.
func mappingSet(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		parts := make([]string, 0, len(c))
		for _, n := range c.BoundNodes() {
			parts = append(parts, fmt.Sprintf("%s=%s", n, c[n]))
		}
		out = append(out, strings.Join(parts, ","))
	}
	sort.Strings(out)
	return out
}

func directedCycleHost(names ...string) *graph.Memory {
	g := graph.NewMemory(true)
	for i, n := range names {
		g.AddEdge(n, names[(i+1)%len(names)], nil)
	}
	return g
}

func TestSearch_DirectedTriangleFindsAllRotations(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B", "C"}, nil, []motif.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "C", To: "A"},
	})
	host := directedCycleHost("x", "y", "z")

	got := mappingSet(search(t, m, host))
	assert.Equal(t, []string{
		"A=x,B=y,C=z",
		"A=y,B=z,C=x",
		"A=z,B=x,C=y",
	}, got)
}

func TestSearch_SingleEdgeOverDisjointHostEdges(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B"}, nil, []motif.Edge{
		{From: "A", To: "B"},
	})
	host := graph.NewMemory(true)
	host.AddEdge("1", "2", nil)
	host.AddEdge("3", "4", nil)

	got := mappingSet(search(t, m, host))
	assert.Equal(t, []string{"A=1,B=2", "A=3,B=4"}, got)
}

func TestSearch_EdgePredicateFilters(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B"}, nil, []motif.Edge{
		{From: "A", To: "B", Predicate: motif.Predicate{"weight": 5}},
	})
	host := graph.NewMemory(true)
	host.AddEdge("1", "2", graph.Attrs{"weight": 5})
	host.AddEdge("1", "3", graph.Attrs{"weight": 7})

	got := mappingSet(search(t, m, host))
	assert.Equal(t, []string{"A=1,B=2"}, got)
}

func TestSearch_TriangleIntoSingleEdgeDeadEnds(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B", "C"}, nil, []motif.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "C", To: "A"},
	})
	host := graph.NewMemory(true)
	host.AddEdge("1", "2", nil)

	assert.Empty(t, search(t, m, host))
}

func TestSearch_UndirectedEdgeMatchesBothOrientations(t *testing.T) {
	m := mustMotif(t, false, []string{"A", "B"}, nil, []motif.Edge{
		{From: "A", To: "B"},
	})
	host := graph.NewMemory(false)
	host.AddEdge("x", "y", nil)

	got := mappingSet(search(t, m, host))
	assert.Equal(t, []string{"A=x,B=y", "A=y,B=x"}, got)
}

func TestSearch_NodePredicateFilters(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B"},
		map[string]motif.Predicate{"B": {"kind": "router"}},
		[]motif.Edge{{From: "A", To: "B"}})
	host := graph.NewMemory(true)
	host.AddNode("r1", graph.Attrs{"kind": "router"})
	host.AddNode("s1", graph.Attrs{"kind": "switch"})
	host.AddEdge("a", "r1", nil)
	host.AddEdge("a", "s1", nil)

	got := mappingSet(search(t, m, host))
	assert.Equal(t, []string{"A=a,B=r1"}, got)
}

func TestSearch_SelfLoopRequiresHostLoop(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B"}, nil, []motif.Edge{
		{From: "A", To: "A"},
		{From: "A", To: "B"},
	})
	host := graph.NewMemory(true)
	host.AddEdge("p", "p", nil) // p has a self-loop
	host.AddEdge("p", "q", nil)
	host.AddEdge("q", "r", nil) // q does not

	got := mappingSet(search(t, m, host))
	assert.Equal(t, []string{"A=p,B=q"}, got)
}

func TestExpand_ChildrenGrowByExactlyOne(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B", "C"}, nil, []motif.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "C", To: "A"},
	})
	host := directedCycleHost("x", "y", "z")
	order := motif.DegreeRanker{}.Rank(m)

	children, err := Expand(context.Background(), Candidate{}, m, host, order)
	require.NoError(t, err)
	require.NotEmpty(t, children)
	for _, child := range children {
		assert.Len(t, child, 1)
	}

	grand, err := Expand(context.Background(), children[0], m, host, order)
	require.NoError(t, err)
	for _, g := range grand {
		assert.Len(t, g, 2)
	}
}

func TestExpand_InjectivityEnforced(t *testing.T) {
	// Undirected 2-path A-B-C on a host triangle: no mapping may reuse a
	// host node even though every host node neighbors every other.
	m := mustMotif(t, false, []string{"A", "B", "C"}, nil, []motif.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
	})
	host := graph.NewMemory(false)
	host.AddEdge("x", "y", nil)
	host.AddEdge("y", "z", nil)
	host.AddEdge("z", "x", nil)

	for _, c := range search(t, m, host) {
		seen := make(map[string]bool)
		for _, h := range c {
			assert.False(t, seen[h], "host node %s bound twice in %v", h, c)
			seen[h] = true
		}
	}
}

func TestExpand_CompleteCandidateYieldsNothing(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B"}, nil, []motif.Edge{
		{From: "A", To: "B"},
	})
	host := graph.NewMemory(true)
	host.AddEdge("1", "2", nil)

	children, err := Expand(context.Background(),
		Candidate{"A": "1", "B": "2"}, m, host, []string{"A", "B"})
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestExpand_UnknownMotifNodeInCandidate(t *testing.T) {
	m := mustMotif(t, true, []string{"A", "B"}, nil, []motif.Edge{
		{From: "A", To: "B"},
	})
	host := graph.NewMemory(true)

	_, err := Expand(context.Background(), Candidate{"ghost": "1"}, m, host, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidCandidate(err))
}

func TestExpand_Idempotent(t *testing.T) {
	// Redelivered tasks re-expand the same candidate; the result must be
	// identical every time.
	m := mustMotif(t, true, []string{"A", "B", "C"}, nil, []motif.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "C", To: "A"},
	})
	host := directedCycleHost("x", "y", "z")
	order := motif.DegreeRanker{}.Rank(m)
	cand := Candidate{"A": "x"}

	first, err := Expand(context.Background(), cand, m, host, order)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Expand(context.Background(), cand, m, host, order)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSearch_DisconnectedMotifStillCompletes(t *testing.T) {
	// Two independent edges; the engine falls back to unrestricted host
	// enumeration when it crosses the component boundary.
	m := mustMotif(t, true, []string{"A", "B", "C", "D"}, nil, []motif.Edge{
		{From: "A", To: "B"},
		{From: "C", To: "D"},
	})
	host := graph.NewMemory(true)
	host.AddEdge("1", "2", nil)
	host.AddEdge("3", "4", nil)

	got := mappingSet(search(t, m, host))
	assert.Equal(t, []string{"A=1,B=2,C=3,D=4", "A=3,B=4,C=1,D=2"}, got)
}
