// Package config loads .nilguard.yaml, the per-repository settings for
// candidate discovery: rules, opt-in filters, type substitutions and
// filter plugins.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the conventional config file name.
const FileName = ".nilguard.yaml"

// Config is the top-level configuration.
type Config struct {
	// Rules are regex include/exclude directives, applied in order.
	Rules []Rule `yaml:"rules"`

	// Filters toggles the opt-in built-in filters.
	Filters Filters `yaml:"filters"`

	// Denylist lists type full names to exclude outright.
	Denylist []string `yaml:"denylist"`

	// Substitutions maps a requested type name to the type name to
	// construct instead, as for generic type arguments.
	Substitutions map[string]string `yaml:"substitutions"`

	// StandIns maps a constraint, as written, to the type argument that
	// closes type parameters constrained by it.
	StandIns map[string]string `yaml:"stand_ins"`

	// Binding selects which members are enumerated.
	Binding Binding `yaml:"binding"`

	// Specimens configures argument construction.
	Specimens Specimens `yaml:"specimens"`

	// Plugins configures filter plugin discovery.
	Plugins Plugins `yaml:"plugins"`

	// Parallel runs cases as parallel subtests, at most Parallel at
	// once. Zero means sequential.
	Parallel int `yaml:"parallel"`
}

// Rule is one regex directive. At least one pattern must be set.
type Rule struct {
	Name    string `yaml:"name"`
	Include bool   `yaml:"include"`
	Type    string `yaml:"type"`
	Method  string `yaml:"method"`
	Param   string `yaml:"param"`
}

// Filters toggles opt-in filters.
type Filters struct {
	// NilableValues skips pointer-to-scalar parameters.
	NilableValues bool `yaml:"nilable_values"`

	// Defaulted skips members whose nil-able parameters all fall back
	// to a non-nil default, unless a rule selects them.
	Defaulted bool `yaml:"defaulted"`
}

// Binding mirrors the member binding flags.
type Binding struct {
	Unexported bool `yaml:"unexported"`
	Promoted   bool `yaml:"promoted"`
}

// Specimens configures argument construction.
type Specimens struct {
	// MaxDepth bounds recursive construction.
	MaxDepth int `yaml:"max_depth"`

	// Constructors builds receivers through the package's NewX
	// functions when set.
	Constructors bool `yaml:"constructors"`
}

// Plugins configures filter plugin discovery.
type Plugins struct {
	// Dir is scanned for *.go filter sources. Empty disables plugins.
	Dir string `yaml:"dir"`

	// Include, when set, restricts loading to matching paths.
	Include []string `yaml:"include"`

	// Exclude skips matching paths.
	Exclude []string `yaml:"exclude"`

	// Timeout bounds the directory scan. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Binding: Binding{Unexported: true},
		Specimens: Specimens{
			MaxDepth:     8,
			Constructors: true,
		},
		Plugins: Plugins{
			Exclude: []string{"testdata/**", "*_test.go"},
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads path over the defaults. A missing file yields the
// defaults; a malformed or invalid one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and rule shapes.
func (c *Config) Validate() error {
	for i, r := range c.Rules {
		if r.Type == "" && r.Method == "" && r.Param == "" {
			return fmt.Errorf("rules[%d] %q: no type, method or param pattern", i, r.Name)
		}
	}
	if c.Specimens.MaxDepth < 1 {
		return fmt.Errorf("specimens.max_depth %d is invalid: must be at least 1", c.Specimens.MaxDepth)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("parallel %d is invalid: must not be negative", c.Parallel)
	}
	if c.Plugins.Timeout < 0 {
		return fmt.Errorf("plugins.timeout %s is invalid: must not be negative", c.Plugins.Timeout)
	}
	for from, to := range c.Substitutions {
		if from == "" || to == "" {
			return fmt.Errorf("substitution %q -> %q: empty type name", from, to)
		}
	}
	return nil
}
