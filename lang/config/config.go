// Package config collects the interpreter-wide defaults that a library
// caller builds by hand or loads from YAML (SPEC_FULL.md §2): the default
// `$fn/$fa/$fs` special variables, reference-kernel resolution knobs, the
// trace switch, and the list of preload files lowered before user source.
// The CLI's render command starts from Default() and sets only Trace.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for one interpreter run.
type Config struct {
	// Fn, Fa, Fs are the default `$fn`/`$fa`/`$fs` curve-resolution
	// variables (spec §6); zero means "not overridden", in which case
	// lang/builtins' own defaults (999, 0.001, 0.001) apply.
	Fn float64 `yaml:"fn"`
	Fa float64 `yaml:"fa"`
	Fs float64 `yaml:"fs"`

	// GridSamples controls the reference kernel's fallback numerical
	// integration resolution for Volume() when no closed form applies
	// (see lang/kernel; higher is more accurate and slower). interp.New
	// assigns a non-zero value to kernel.GridResolution, a package-level
	// variable, so the setting applies process-wide, not to one Interp.
	GridSamples int `yaml:"grid_samples"`

	// Preload lists SDL files that interp.New lowers, in order, each as a
	// static scope nested beneath the previous one (the first beneath the
	// built-in root); entry files are lowered beneath the last, so preload
	// declarations are visible to them (spec §6's preload hook; mirrors
	// buildscad's `--include` startup files, see original_source).
	Preload []string `yaml:"preload"`

	// Trace turns on tracing for the whole run: interp.New sets the root
	// $trace to true and Interp.Run attaches a trace.Writer on stdout. The
	// CLI's --trace flag sets it.
	Trace bool `yaml:"trace"`
}

// Default returns the zero-value Config: no overrides, no preload files.
func Default() Config {
	return Config{}
}

// Load reads a YAML config file at path, starting from Default().
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
