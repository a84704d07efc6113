package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	m "github.com/mouse-blink/archdna/internal/model"
)

// LoadConfig reads an audit configuration from a YAML file and validates it.
// An empty path yields the defaults; keys missing from the file keep their
// default values. A file that exists but cannot be read or parsed is an
// error, as is any out-of-range value.
func LoadConfig(path m.Path) (m.Config, error) {
	cfg := m.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(string(path))
	if err != nil {
		return m.Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return m.Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return m.Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}
