package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// hostDoc is the YAML node/edge list format for host graphs. It is shaped
// like the motif source format, but attributes here are data, not
// predicates.
type hostDoc struct {
	Directed bool `yaml:"directed"`
	Nodes    []struct {
		ID    string         `yaml:"id"`
		Attrs map[string]any `yaml:"attrs,omitempty"`
	} `yaml:"nodes"`
	Edges []struct {
		From  string         `yaml:"from"`
		To    string         `yaml:"to"`
		Attrs map[string]any `yaml:"attrs,omitempty"`
	} `yaml:"edges"`
}

// ParseYAML builds an in-memory host graph from a YAML edge list.
// Edge endpoints need not be declared as nodes first.
func ParseYAML(data []byte) (*Memory, error) {
	var d hostDoc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse host graph: %w", err)
	}
	m := NewMemory(d.Directed)
	for _, n := range d.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("parse host graph: empty node identifier")
		}
		m.AddNode(n.ID, Attrs(n.Attrs))
	}
	for _, e := range d.Edges {
		if e.From == "" || e.To == "" {
			return nil, fmt.Errorf("parse host graph: edge with empty endpoint")
		}
		m.AddEdge(e.From, e.To, Attrs(e.Attrs))
	}
	return m, nil
}

// LoadYAMLFile builds an in-memory host graph from a YAML file on disk.
func LoadYAMLFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host graph: %w", err)
	}
	return ParseYAML(data)
}
