package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 30*time.Second, cfg.Lease())
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "motiq-queue.db", cfg.Queue)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ":8080", cfg.Listen)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motiq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
queue: /var/lib/motiq/q.db
host: host.db
lease_seconds: 60
workers: 8
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/motiq/q.db", cfg.Queue)
	assert.Equal(t, "host.db", cfg.Host)
	assert.Equal(t, time.Minute, cfg.Lease())
	assert.Equal(t, 8, cfg.Workers)
	// Untouched keys keep their defaults.
	assert.Equal(t, "motiq-results.db", cfg.Results)
}

func TestLoadConfig_ParseErrorSurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestOpenHost_RequiresPath(t *testing.T) {
	_, _, err := openHost("")
	assert.Error(t, err)
}

func TestOpenHost_YAMLFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
directed: true
edges:
  - from: a
    to: b
`), 0o644))

	g, closeFn, err := openHost(path)
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, g)
}
