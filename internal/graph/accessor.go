// Package graph provides the read-only host-graph capability consumed by
// the expansion engine, with an in-memory implementation for hosts that fit
// in a process and a SQLite-backed implementation for hosts that do not.
package graph

import "context"

// Direction selects which host edges a query considers.
type Direction int

const (
	// Any matches an edge in either orientation. This is the only
	// direction an undirected host distinguishes.
	Any Direction = iota
	// Out matches edges leaving the queried node (a -> b).
	Out
	// In matches edges entering the queried node (b -> a).
	In
)

// Attrs are the attributes attached to a host node or edge.
type Attrs map[string]any

// Accessor is the narrow capability contract over the host graph. The host
// graph is read-only and safely shared by all concurrent workers; the
// expansion engine depends on nothing beyond this interface.
//
// All methods take a context because implementations may be backed by
// storage that performs I/O per call.
type Accessor interface {
	// AllNodes returns every host node identifier in sorted order.
	// Only the root expansion (empty candidate) enumerates the whole host.
	AllNodes(ctx context.Context) ([]string, error)

	// Neighbors returns the host nodes adjacent to node in the given
	// direction, sorted and without duplicates. Self-loops are not
	// reported as neighbors. Unknown nodes yield an empty slice.
	Neighbors(ctx context.Context, node string, dir Direction) ([]string, error)

	// HasEdge reports whether a host edge from a to b exists in the given
	// direction, along with its attributes. A self-loop is queried with
	// a == b.
	HasEdge(ctx context.Context, a, b string, dir Direction) (bool, Attrs, error)

	// NodeAttrs returns the attributes of a host node (nil if none or if
	// the node is unknown).
	NodeAttrs(ctx context.Context, node string) (Attrs, error)
}
