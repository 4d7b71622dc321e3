package model

import (
	"fmt"
	"time"
)

// Config is the complete rootcheck configuration
type Config struct {
	Policy    PolicyConfig    `mapstructure:"policy" yaml:"policy"`
	Execution ExecutionConfig `mapstructure:"execution" yaml:"execution"`
	Boundary  BoundaryConfig  `mapstructure:"boundary" yaml:"boundary"`
	Probe     ProbeConfig     `mapstructure:"probe" yaml:"probe"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
}

// PolicyConfig holds the verdict thresholds
type PolicyConfig struct {
	// HighConfidenceThreshold is how many suspicious high-confidence findings make a device rooted
	HighConfidenceThreshold int `mapstructure:"high_confidence_threshold" json:"high_confidence_threshold" yaml:"high_confidence_threshold"`

	// MediumConfidenceCount is how many suspicious medium-confidence findings make a device rooted
	MediumConfidenceCount int `mapstructure:"medium_confidence_count" json:"medium_confidence_count" yaml:"medium_confidence_count"`
}

// ExecutionConfig controls how heuristics are run
type ExecutionConfig struct {
	PerCheckTimeoutMS int  `mapstructure:"per_check_timeout_ms" yaml:"per_check_timeout_ms"`
	Sequential        bool `mapstructure:"sequential" yaml:"sequential"`
	Workers           int  `mapstructure:"workers" yaml:"workers"` // 0 = one per heuristic
}

// PerCheckTimeout returns the per-check timeout as a duration
func (e ExecutionConfig) PerCheckTimeout() time.Duration {
	return time.Duration(e.PerCheckTimeoutMS) * time.Millisecond
}

// BoundaryConfig controls verdict reuse at the host boundary
type BoundaryConfig struct {
	CacheTTL         time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`                     // 0 disables caching
	MaxRunsPerMinute int           `mapstructure:"max_runs_per_minute" yaml:"max_runs_per_minute"` // 0 = unlimited
}

// ProbeConfig controls where probes read from
type ProbeConfig struct {
	Root string `mapstructure:"root" yaml:"root"` // "/" for the live device, or a mounted image
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format"` // text, json, yaml
	Detail  bool   `mapstructure:"detail" yaml:"detail"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Policy: PolicyConfig{
			HighConfidenceThreshold: 1,
			MediumConfidenceCount:   2,
		},
		Execution: ExecutionConfig{
			PerCheckTimeoutMS: 50,
			Sequential:        false,
			Workers:           0,
		},
		Boundary: BoundaryConfig{
			CacheTTL:         30 * time.Second,
			MaxRunsPerMinute: 60,
		},
		Probe: ProbeConfig{
			Root: "/",
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the checker cannot run with
func (c *Config) Validate() error {
	if c.Policy.HighConfidenceThreshold < 1 {
		return fmt.Errorf("policy.high_confidence_threshold must be >= 1, got %d", c.Policy.HighConfidenceThreshold)
	}
	if c.Policy.MediumConfidenceCount < 1 {
		return fmt.Errorf("policy.medium_confidence_count must be >= 1, got %d", c.Policy.MediumConfidenceCount)
	}
	if c.Execution.PerCheckTimeoutMS <= 0 {
		return fmt.Errorf("execution.per_check_timeout_ms must be > 0, got %d", c.Execution.PerCheckTimeoutMS)
	}
	if c.Execution.Workers < 0 {
		return fmt.Errorf("execution.workers must be >= 0, got %d", c.Execution.Workers)
	}
	if c.Boundary.CacheTTL < 0 {
		return fmt.Errorf("boundary.cache_ttl must be >= 0, got %s", c.Boundary.CacheTTL)
	}
	if c.Boundary.MaxRunsPerMinute < 0 {
		return fmt.Errorf("boundary.max_runs_per_minute must be >= 0, got %d", c.Boundary.MaxRunsPerMinute)
	}
	if c.Probe.Root == "" {
		return fmt.Errorf("probe.root must not be empty")
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be one of text, json, yaml; got %q", c.Output.Format)
	}
	return nil
}
