package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_DirectedNeighbors(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(true)
	g.AddEdge("a", "b", nil)
	g.AddEdge("a", "c", nil)
	g.AddEdge("d", "a", nil)

	out, err := g.Neighbors(ctx, "a", Out)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, out)

	in, err := g.Neighbors(ctx, "a", In)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, in)

	any, err := g.Neighbors(ctx, "a", Any)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, any)
}

func TestMemory_UndirectedNeighborsIgnoreDirection(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(false)
	g.AddEdge("a", "b", nil)
	g.AddEdge("c", "a", nil)

	for _, dir := range []Direction{Any, Out, In} {
		nbs, err := g.Neighbors(ctx, "a", dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, nbs)
	}
}

func TestMemory_HasEdgeDirected(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(true)
	g.AddEdge("a", "b", Attrs{"weight": 5})

	ok, attrs, err := g.HasEdge(ctx, "a", "b", Out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Attrs{"weight": 5}, attrs)

	ok, _, err = g.HasEdge(ctx, "b", "a", Out)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _, err = g.HasEdge(ctx, "b", "a", In)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = g.HasEdge(ctx, "b", "a", Any)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_HasEdgeUndirectedSymmetric(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(false)
	g.AddEdge("a", "b", Attrs{"rel": "peer"})

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		ok, attrs, err := g.HasEdge(ctx, pair[0], pair[1], Any)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, Attrs{"rel": "peer"}, attrs)
	}
}

func TestMemory_SelfLoopOnlyVisibleThroughHasEdge(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(true)
	g.AddEdge("a", "a", Attrs{"kind": "loop"})
	g.AddEdge("a", "b", nil)

	ok, attrs, err := g.HasEdge(ctx, "a", "a", Any)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Attrs{"kind": "loop"}, attrs)

	// Neighbor sets never include the node itself.
	out, err := g.Neighbors(ctx, "a", Out)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, out)

	ok, _, err = g.HasEdge(ctx, "b", "b", Any)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_NodeAttrsMergeOnReAdd(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(true)
	g.AddNode("a", Attrs{"kind": "router"})
	g.AddNode("a", Attrs{"zone": "eu"})

	attrs, err := g.NodeAttrs(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, Attrs{"kind": "router", "zone": "eu"}, attrs)
}

func TestMemory_AllNodesSorted(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(false)
	g.AddEdge("z", "a", nil)
	g.AddNode("m", nil)

	nodes, err := g.AllNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, nodes)
	assert.Equal(t, 3, g.NodeCount())
}

func TestMemory_UnknownNodeIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(true)

	nbs, err := g.Neighbors(ctx, "ghost", Any)
	require.NoError(t, err)
	assert.Empty(t, nbs)

	ok, _, err := g.HasEdge(ctx, "ghost", "spook", Any)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseYAML_HostGraph(t *testing.T) {
	ctx := context.Background()
	g, err := ParseYAML([]byte(`
directed: true
nodes:
  - id: r1
    attrs:
      kind: router
edges:
  - from: r1
    to: s1
    attrs:
      weight: 5
`))
	require.NoError(t, err)

	assert.True(t, g.Directed())
	attrs, err := g.NodeAttrs(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, Attrs{"kind": "router"}, attrs)

	ok, eattrs, err := g.HasEdge(ctx, "r1", "s1", Out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Attrs{"weight": 5}, eattrs)
}

func TestParseYAML_RejectsEmptyIdentifiers(t *testing.T) {
	_, err := ParseYAML([]byte("nodes:\n  - id: \"\"\n"))
	assert.Error(t, err)

	_, err = ParseYAML([]byte("edges:\n  - from: a\n    to: \"\"\n"))
	assert.Error(t, err)
}
