package model

import "fmt"

// MetricsConfig holds thresholds for the metric-driven rules.
type MetricsConfig struct {
	LCOMThreshold             float64 `yaml:"lcom_threshold"`
	LOCThreshold              int     `yaml:"loc_threshold"`
	CyclomaticComplexityLimit int     `yaml:"cyclomatic_complexity_limit"`
}

// DependenciesConfig holds dependency-count limits.
type DependenciesConfig struct {
	MaxPerClass     int `yaml:"max_per_class"`
	MaxPerNamespace int `yaml:"max_per_namespace"`
}

// PatternsConfig holds feature flags for optional analysis capabilities.
type PatternsConfig struct {
	IncludePartialClasses  bool `yaml:"include_partial_classes"`
	ExtractDIRegistrations bool `yaml:"extract_di_registrations"`
	DetectAsyncPatterns    bool `yaml:"detect_async_patterns"`
	DetectDesignPatterns   bool `yaml:"detect_design_patterns"`
}

// RulesConfig holds rule-specific settings.
type RulesConfig struct {
	// LayerOrder lists architectural layers from innermost to outermost.
	// Dependencies must flow toward the front of the list.
	LayerOrder []string `yaml:"layer_order"`
	// EventHandlerPattern exempts matching method names from the
	// async-void rule.
	EventHandlerPattern string `yaml:"event_handler_pattern"`
}

// Config is the immutable configuration for one analysis run. It is passed
// explicitly into every component; nothing reads ambient state.
type Config struct {
	Metrics      MetricsConfig      `yaml:"metrics"`
	Dependencies DependenciesConfig `yaml:"dependencies"`
	Patterns     PatternsConfig     `yaml:"patterns"`
	Rules        RulesConfig        `yaml:"rules"`
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		Metrics: MetricsConfig{
			LCOMThreshold:             0.8,
			LOCThreshold:              500,
			CyclomaticComplexityLimit: 15,
		},
		Dependencies: DependenciesConfig{
			MaxPerClass:     7,
			MaxPerNamespace: 50,
		},
		Patterns: PatternsConfig{
			IncludePartialClasses:  true,
			ExtractDIRegistrations: true,
			DetectAsyncPatterns:    true,
			DetectDesignPatterns:   true,
		},
		Rules: RulesConfig{
			LayerOrder:          []string{"Domain", "Application", "Infrastructure", "Web"},
			EventHandlerPattern: "(^On[A-Z]|EventHandler$)",
		},
	}
}

// Validate rejects configurations that would invalidate every downstream
// decision. Invalid configuration is the only fatal error class.
func (c Config) Validate() error {
	if c.Metrics.LCOMThreshold < 0 || c.Metrics.LCOMThreshold > 1 {
		return fmt.Errorf("lcom_threshold must be in [0,1], got %v", c.Metrics.LCOMThreshold)
	}
	if c.Metrics.LOCThreshold <= 0 {
		return fmt.Errorf("loc_threshold must be positive, got %d", c.Metrics.LOCThreshold)
	}
	if c.Metrics.CyclomaticComplexityLimit <= 0 {
		return fmt.Errorf("cyclomatic_complexity_limit must be positive, got %d", c.Metrics.CyclomaticComplexityLimit)
	}
	if c.Dependencies.MaxPerClass <= 0 {
		return fmt.Errorf("max_per_class must be positive, got %d", c.Dependencies.MaxPerClass)
	}
	if c.Dependencies.MaxPerNamespace <= 0 {
		return fmt.Errorf("max_per_namespace must be positive, got %d", c.Dependencies.MaxPerNamespace)
	}
	if len(c.Rules.LayerOrder) == 0 {
		return fmt.Errorf("layer_order must name at least one layer")
	}
	return nil
}
