package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/archdna/internal/model"
)

func writeConfig(t *testing.T, content string) m.Path {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return m.Path(path)
}

func TestLoadConfig_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, m.DefaultConfig(), cfg)
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	path := writeConfig(t, "metrics:\n  loc_threshold: 300\nrules:\n  layer_order: [Core, Api]\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Metrics.LOCThreshold)
	assert.Equal(t, []string{"Core", "Api"}, cfg.Rules.LayerOrder)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.8, cfg.Metrics.LCOMThreshold)
	assert.Equal(t, 7, cfg.Dependencies.MaxPerClass)
}

func TestLoadConfig_OutOfRangeValueFails(t *testing.T) {
	path := writeConfig(t, "metrics:\n  lcom_threshold: 1.5\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lcom_threshold")
}

func TestLoadConfig_MalformedYAMLFails(t *testing.T) {
	path := writeConfig(t, "metrics: [not: a map\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	_, err := LoadConfig(m.Path(filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
}
