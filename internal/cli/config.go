package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/motiq/motiq/internal/graph"
)

// Config are the file-configurable defaults for long-lived commands.
// Flags override file values; a missing file yields plain defaults, so a
// bare `motiq worker` works out of the box.
type Config struct {
	Queue        string `yaml:"queue"`
	Results      string `yaml:"results"`
	Host         string `yaml:"host"`
	LeaseSeconds int    `yaml:"lease_seconds"`
	Workers      int    `yaml:"workers"`
	Listen       string `yaml:"listen"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Queue:        "motiq-queue.db",
		Results:      "motiq-results.db",
		LeaseSeconds: 30,
		Workers:      4,
		Listen:       ":8080",
	}
}

// LoadConfig reads a YAML config file over the defaults.
// An empty path or a missing file returns the defaults unchanged; a file
// that exists but does not parse is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Lease returns the configured lease window as a duration.
func (c Config) Lease() time.Duration {
	return time.Duration(c.LeaseSeconds) * time.Second
}

// openHost opens a host graph by path, dispatching on extension:
// .db/.sqlite opens the SQLite backend, everything else loads a YAML edge
// list into memory. The returned closer is a no-op for memory hosts.
func openHost(path string) (graph.Accessor, func() error, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("host graph path is required")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		g, err := graph.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		g, err := graph.LoadYAMLFile(path)
		if err != nil {
			return nil, nil, err
		}
		return g, func() error { return nil }, nil
	}
}
