// Package scenario loads named encounter variants for parameter sweeps.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"offtank-sim/internal/config"
)

// Scenario is a named set of config overrides applied over a base encounter.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Overrides   yaml.Node `yaml:"overrides,omitempty"`
}

// File is a sweep definition.
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load reads a YAML sweep definition from disk.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(b)
}

// Parse decodes a sweep definition. Names must be present and unique.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, errors.New("parse scenario: no scenarios defined")
	}
	seen := make(map[string]bool, len(f.Scenarios))
	for i, s := range f.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("parse scenario: scenario %d has no name", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("parse scenario: duplicate name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return &f, nil
}

// Apply returns base with the scenario's overrides decoded over it. The
// overrides are checked against the config schema and the result is validated.
func (s Scenario) Apply(base config.Config) (config.Config, error) {
	cfg := base
	if s.Overrides.Kind == 0 {
		return cfg, cfg.Validate()
	}
	raw, err := yaml.Marshal(&s.Overrides)
	if err != nil {
		return base, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	if err := config.ValidateWithCue(s.Name, raw, config.DefaultSchema()); err != nil {
		return base, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return base, fmt.Errorf("scenario %s: %w: %v", s.Name, config.ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return base, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return cfg, nil
}

// Find returns the scenario called name.
func (f *File) Find(name string) (Scenario, bool) {
	for _, s := range f.Scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
