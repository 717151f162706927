// Package config loads the optional .civcrc project file (spec §A): default
// output directory, whether to emit a disassembly listing alongside the
// compiled output, and default verbosity — all overridable by CLI flags.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config mirrors the subset of .civcrc fields the compile command consults.
type Config struct {
	OutputDir   string `yaml:"output_dir"`
	Disassemble bool   `yaml:"disassemble"`
	Verbose     bool   `yaml:"verbose"`
}

// Load reads and parses path. A missing file is not an error — it returns
// the zero Config so callers can layer CLI flags on top of it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
