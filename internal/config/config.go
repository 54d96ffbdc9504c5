// Package config loads onco-map's configuration from (highest to lowest
// priority): command-line flags, environment variables (EVAL_DATA_ROOT,
// EVAL_STRICT, plus ONCO_MAP_* for everything the dataset layer doesn't
// already own), project config (.onco-map/config.yaml in cwd), home config
// (~/.onco-map/config.yaml), and built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/clinterm/onco-map/internal/dataset"
	"github.com/clinterm/onco-map/internal/gate"
	"github.com/clinterm/onco-map/internal/mapping"
)

// Config holds all onco-map configuration.
type Config struct {
	// Output controls the default output format (table, json, jsonl, markdown).
	Output string `yaml:"output" json:"output"`

	// DataRoot is the directory datasets and baselines are read from/written to.
	DataRoot string `yaml:"data_root" json:"data_root"`

	// Strict aborts loading on a dataset checksum mismatch rather than warning.
	Strict bool `yaml:"strict" json:"strict"`

	// StrictSet tracks whether Strict was explicitly configured in this layer
	// (YAML file or env var), so a lower-precedence layer's true can be
	// overridden back to false by a higher one instead of merge() only ever
	// being able to force it on.
	StrictSet bool `yaml:"-" json:"-"`

	// Verbose enables verbose diagnostics on stderr.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// VerboseSet mirrors StrictSet for Verbose.
	VerboseSet bool `yaml:"-" json:"-"`

	// Thresholds gates the mapping engine's auto-map/needs-review cutoffs.
	Thresholds mapping.MappingThresholds `yaml:"thresholds" json:"thresholds"`

	// Gate holds the declarative minimum-metric configuration for C10.
	Gate gate.Thresholds `yaml:"gate" json:"gate"`
}

const defaultOutput = "table"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output:     defaultOutput,
		DataRoot:   dataset.DefaultDataRoot,
		Strict:     false,
		Verbose:    false,
		Thresholds: mapping.DefaultThresholds(),
		Gate:       gate.Thresholds{},
	}
}

// Load resolves configuration with full precedence: flags > env > project >
// home > defaults. flagOverrides may be nil.
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	if home, _ := loadFromPath(homeConfigPath()); home != nil {
		cfg = merge(cfg, home)
	}
	if project, _ := loadFromPath(projectConfigPath()); project != nil {
		cfg = merge(cfg, project)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".onco-map", "config.yaml")
}

func projectConfigPath() string {
	if override := os.Getenv("ONCO_MAP_CONFIG"); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".onco-map", "config.yaml")
}

func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// yaml:"-" excludes StrictSet/VerboseSet from the struct decode above, so
	// presence has to be checked against a raw key set instead.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err == nil {
		if _, ok := raw["strict"]; ok {
			cfg.StrictSet = true
		}
		if _, ok := raw["verbose"]; ok {
			cfg.VerboseSet = true
		}
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("ONCO_MAP_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if _, set := os.LookupEnv("EVAL_DATA_ROOT"); set {
		cfg.DataRoot = dataset.DataRoot()
	}
	if v, ok := os.LookupEnv("EVAL_STRICT"); ok {
		cfg.Strict = v == "true" || v == "1"
		cfg.StrictSet = true
	}
	if v, ok := os.LookupEnv("ONCO_MAP_VERBOSE"); ok {
		cfg.Verbose = v == "true" || v == "1"
		cfg.VerboseSet = true
	}
	if v, ok := envFloat("ONCO_MAP_AUTO_MAP_MIN"); ok {
		cfg.Thresholds.AutoMapMin = v
	}
	if v, ok := envFloat("ONCO_MAP_NEEDS_REVIEW_MIN"); ok {
		cfg.Thresholds.NeedsReviewMin = v
	}
	return cfg
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// merge overlays src onto dst, with non-zero src fields taking precedence.
func merge(dst, src *Config) *Config {
	if src.Output != "" {
		dst.Output = src.Output
	}
	if src.DataRoot != "" {
		dst.DataRoot = src.DataRoot
	}
	// StrictSet/VerboseSet distinguish "explicitly configured in this layer"
	// from the zero value, so a higher-precedence layer can override a lower
	// one's true back to false. A layer that doesn't track the Set field
	// (flag overrides) falls back to the old force-true-only behavior.
	if src.StrictSet {
		dst.Strict = src.Strict
		dst.StrictSet = true
	} else if src.Strict {
		dst.Strict = true
	}
	if src.VerboseSet {
		dst.Verbose = src.Verbose
		dst.VerboseSet = true
	} else if src.Verbose {
		dst.Verbose = true
	}
	if src.Thresholds.AutoMapMin != 0 {
		dst.Thresholds.AutoMapMin = src.Thresholds.AutoMapMin
	}
	if src.Thresholds.NeedsReviewMin != 0 {
		dst.Thresholds.NeedsReviewMin = src.Thresholds.NeedsReviewMin
	}
	for k, v := range src.Gate {
		if dst.Gate == nil {
			dst.Gate = gate.Thresholds{}
		}
		dst.Gate[k] = v
	}
	return dst
}
