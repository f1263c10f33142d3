// Package config holds the externally tuned configuration data of the
// dialogue core, chiefly the per-model confidence threshold table used by the
// dialogue manager. Thresholds are empirically tuned per model; they are
// loaded once at startup from YAML (or taken from the built-in defaults) and
// never derived from a formula.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds is one row of the confidence table.
//
//	High  — at or above: the manager trusts the candidate outright
//	Min   — below: the turn falls back
//	Delta — ambiguity margin: a runner-up closer than Delta triggers a
//	        disambiguation question
type Thresholds struct {
	High  float64 `yaml:"high"`
	Min   float64 `yaml:"min"`
	Delta float64 `yaml:"delta"`
}

// Table maps model identifiers to threshold rows. The Default row is
// mandatory and serves every model without a dedicated row.
type Table struct {
	Default Thresholds            `yaml:"default"`
	Models  map[string]Thresholds `yaml:"models"`
}

// DefaultTable returns the built-in threshold table.
func DefaultTable() Table {
	return Table{
		Default: Thresholds{High: 0.85, Min: 0.45, Delta: 0.15},
		Models: map[string]Thresholds{
			"gpt-4o-mini":        {High: 0.80, Min: 0.40, Delta: 0.12},
			"gpt-4o":             {High: 0.85, Min: 0.45, Delta: 0.15},
			"claude-3-5-haiku":   {High: 0.82, Min: 0.42, Delta: 0.12},
			"claude-sonnet-4-0":  {High: 0.88, Min: 0.48, Delta: 0.15},
		},
	}
}

// Load reads a threshold table from a YAML file. The file must carry a
// default row; model rows are optional.
func Load(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read thresholds: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML threshold table.
func Parse(raw []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Table{}, fmt.Errorf("parse thresholds: %w", err)
	}
	if err := t.validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func (t Table) validate() error {
	rows := map[string]Thresholds{"default": t.Default}
	for name, row := range t.Models {
		rows[name] = row
	}
	for name, row := range rows {
		if row.High <= 0 || row.High > 1 || row.Min <= 0 || row.Min > 1 || row.Delta <= 0 || row.Delta > 1 {
			return fmt.Errorf("thresholds row %q: values must lie in (0,1]", name)
		}
		if row.Min >= row.High {
			return fmt.Errorf("thresholds row %q: min %.2f must be below high %.2f", name, row.Min, row.High)
		}
	}
	return nil
}

// Lookup returns the row for modelID, falling back to the default row for
// unknown models.
func (t Table) Lookup(modelID string) Thresholds {
	if row, ok := t.Models[modelID]; ok {
		return row
	}
	return t.Default
}
