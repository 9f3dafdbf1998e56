package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	id    TEXT PRIMARY KEY,
	attrs TEXT
);

CREATE TABLE IF NOT EXISTS edges (
	src   TEXT NOT NULL,
	dst   TEXT NOT NULL,
	attrs TEXT,
	PRIMARY KEY (src, dst)
);

CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst);
`

// SQLite is a host graph stored in a SQLite database, for hosts too large
// to materialize in memory. The source database's B-tree is the adjacency
// index; queries go straight to it with no in-process copy.
//
// For undirected hosts a single orientation is stored and both are queried.
type SQLite struct {
	db       *sql.DB
	directed bool
}

// OpenSQLite opens an existing host-graph database read-only.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open host graph: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open host graph: %w", err)
	}
	db.SetMaxOpenConns(4)

	var directed string
	err = db.QueryRow(`SELECT value FROM meta WHERE key = 'directed'`).Scan(&directed)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open host graph: read directedness: %w", err)
	}
	return &SQLite{db: db, directed: directed == "true"}, nil
}

// CreateSQLite creates (or opens) a writable host-graph database and applies
// the schema. Used by import tooling; workers use OpenSQLite.
func CreateSQLite(path string, directed bool) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("create host graph: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create host graph: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("create host graph: %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create host graph: apply schema: %w", err)
	}
	dirVal := "false"
	if directed {
		dirVal = "true"
	}
	if _, err := db.Exec(
		`INSERT INTO meta (key, value) VALUES ('directed', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, dirVal,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("create host graph: write meta: %w", err)
	}
	return &SQLite{db: db, directed: directed}, nil
}

// Close closes the underlying database.
func (g *SQLite) Close() error { return g.db.Close() }

// Directed reports whether host edges are directional.
func (g *SQLite) Directed() bool { return g.directed }

func marshalAttrs(attrs Attrs) (any, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal attrs: %w", err)
	}
	return string(b), nil
}

func unmarshalAttrs(raw sql.NullString) (Attrs, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var attrs Attrs
	if err := json.Unmarshal([]byte(raw.String), &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	return attrs, nil
}

// AddNode inserts a host node, replacing attributes if it already exists.
func (g *SQLite) AddNode(ctx context.Context, id string, attrs Attrs) error {
	attrsJSON, err := marshalAttrs(attrs)
	if err != nil {
		return err
	}
	_, err = g.db.ExecContext(ctx,
		`INSERT INTO nodes (id, attrs) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET attrs = excluded.attrs`, id, attrsJSON)
	if err != nil {
		return fmt.Errorf("add node %s: %w", id, err)
	}
	return nil
}

// AddEdge inserts a host edge, creating endpoints as needed.
// Undirected edges are normalized to a single stored orientation.
func (g *SQLite) AddEdge(ctx context.Context, a, b string, attrs Attrs) error {
	if !g.directed && b < a {
		a, b = b, a
	}
	for _, n := range []string{a, b} {
		if _, err := g.db.ExecContext(ctx,
			`INSERT INTO nodes (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, n); err != nil {
			return fmt.Errorf("add edge endpoint %s: %w", n, err)
		}
	}
	attrsJSON, err := marshalAttrs(attrs)
	if err != nil {
		return err
	}
	_, err = g.db.ExecContext(ctx,
		`INSERT INTO edges (src, dst, attrs) VALUES (?, ?, ?)
		 ON CONFLICT(src, dst) DO UPDATE SET attrs = excluded.attrs`, a, b, attrsJSON)
	if err != nil {
		return fmt.Errorf("add edge %s->%s: %w", a, b, err)
	}
	return nil
}

// ImportMemory copies an in-memory host graph into the database.
func (g *SQLite) ImportMemory(ctx context.Context, src *Memory) error {
	nodes, err := src.AllNodes(ctx)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		attrs, err := src.NodeAttrs(ctx, n)
		if err != nil {
			return err
		}
		if err := g.AddNode(ctx, n, attrs); err != nil {
			return err
		}
		if ok, attrs, err := src.HasEdge(ctx, n, n, Any); err != nil {
			return err
		} else if ok {
			if err := g.AddEdge(ctx, n, n, attrs); err != nil {
				return err
			}
		}
	}
	for _, a := range nodes {
		succ, err := src.Neighbors(ctx, a, Out)
		if err != nil {
			return err
		}
		for _, b := range succ {
			if !src.Directed() && b < a {
				continue // stored once per undirected pair
			}
			_, attrs, err := src.HasEdge(ctx, a, b, Out)
			if err != nil {
				return err
			}
			if err := g.AddEdge(ctx, a, b, attrs); err != nil {
				return err
			}
		}
	}
	return nil
}

// AllNodes implements Accessor.
func (g *SQLite) AllNodes(ctx context.Context) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT id FROM nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("all nodes: %w", err)
	}
	defer rows.Close()
	var nodes []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("all nodes: %w", err)
		}
		nodes = append(nodes, id)
	}
	return nodes, rows.Err()
}

// Neighbors implements Accessor.
func (g *SQLite) Neighbors(ctx context.Context, node string, dir Direction) ([]string, error) {
	var query string
	args := []any{node}
	switch {
	case !g.directed:
		query = `SELECT dst FROM edges WHERE src = ?1 AND dst != ?1
		         UNION SELECT src FROM edges WHERE dst = ?1 AND src != ?1
		         ORDER BY 1`
	case dir == Out:
		query = `SELECT dst FROM edges WHERE src = ?1 AND dst != ?1 ORDER BY dst`
	case dir == In:
		query = `SELECT src FROM edges WHERE dst = ?1 AND src != ?1 ORDER BY src`
	default:
		query = `SELECT dst FROM edges WHERE src = ?1 AND dst != ?1
		         UNION SELECT src FROM edges WHERE dst = ?1 AND src != ?1
		         ORDER BY 1`
	}
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("neighbors of %s: %w", node, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("neighbors of %s: %w", node, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (g *SQLite) edgeRow(ctx context.Context, src, dst string) (bool, Attrs, error) {
	var raw sql.NullString
	err := g.db.QueryRowContext(ctx,
		`SELECT attrs FROM edges WHERE src = ? AND dst = ?`, src, dst).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("edge %s->%s: %w", src, dst, err)
	}
	attrs, err := unmarshalAttrs(raw)
	return true, attrs, err
}

// HasEdge implements Accessor.
func (g *SQLite) HasEdge(ctx context.Context, a, b string, dir Direction) (bool, Attrs, error) {
	if a == b {
		return g.edgeRow(ctx, a, a)
	}
	if !g.directed {
		x, y := a, b
		if y < x {
			x, y = y, x
		}
		return g.edgeRow(ctx, x, y)
	}
	switch dir {
	case Out:
		return g.edgeRow(ctx, a, b)
	case In:
		return g.edgeRow(ctx, b, a)
	default:
		if ok, attrs, err := g.edgeRow(ctx, a, b); err != nil || ok {
			return ok, attrs, err
		}
		return g.edgeRow(ctx, b, a)
	}
}

// NodeAttrs implements Accessor.
func (g *SQLite) NodeAttrs(ctx context.Context, node string) (Attrs, error) {
	var raw sql.NullString
	err := g.db.QueryRowContext(ctx, `SELECT attrs FROM nodes WHERE id = ?`, node).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("node attrs %s: %w", node, err)
	}
	return unmarshalAttrs(raw)
}
