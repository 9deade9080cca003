// Package config loads refcheck settings from a .refcheck.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working
// directory when no path is given.
const DefaultFileName = ".refcheck.yaml"

// ReferencePathEnv lists extra reference directories, separated by
// the OS path-list separator.
const ReferencePathEnv = "REFCHECK_REFERENCE_PATH"

// Config holds all refcheck settings.
type Config struct {
	// Observatory is used when decomposing reference file names.
	// Empty means the observatory named by the context.
	Observatory string `yaml:"observatory"`

	// MappingDir is where mapping names resolve. Empty means the
	// directory of the context file.
	MappingDir string `yaml:"mapping_dir"`

	// ReferenceDirs are searched, in order, for reference files.
	ReferenceDirs []string `yaml:"reference_dirs"`

	// ScratchDir holds staged aliases and scratch mappings. Empty
	// means the OS temp directory.
	ScratchDir string `yaml:"scratch_dir"`

	// Verbose emits diagnostics for every reference.
	Verbose bool `yaml:"verbose"`

	Diff     DiffConfig     `yaml:"diff"`
	Metadata MetadataConfig `yaml:"metadata"`
}

// DiffConfig selects how mapping diffs are produced.
type DiffConfig struct {
	// Command is an external diff utility, e.g. [diff, -c]. Empty
	// means the built-in context diff.
	Command []string `yaml:"command"`

	// ContextLines is the context size of the built-in diff. Zero
	// means 3.
	ContextLines int `yaml:"context_lines"`
}

// MetadataConfig selects how reference metadata is dumped.
type MetadataConfig struct {
	// Command is an external metadata tool; "{path}" is replaced by
	// the reference path. Empty means the built-in header dump.
	Command []string `yaml:"command"`

	// Dir is the command's working directory.
	Dir string `yaml:"dir"`

	// Timeout bounds the command.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Diff: DiffConfig{
			ContextLines: 3,
		},
		Metadata: MetadataConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads the config at path over DefaultConfig. An empty path
// tries DefaultFileName in the working directory and falls back to
// defaults when it does not exist; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	if env := os.Getenv(ReferencePathEnv); env != "" {
		for _, dir := range filepath.SplitList(env) {
			if dir != "" {
				cfg.ReferenceDirs = append(cfg.ReferenceDirs, dir)
			}
		}
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Diff.ContextLines < 0 {
		return fmt.Errorf("invalid diff.context_lines %d: must be >= 0", c.Diff.ContextLines)
	}
	if c.Metadata.Timeout < 0 {
		return fmt.Errorf("invalid metadata.timeout %s: must be >= 0", c.Metadata.Timeout)
	}
	return nil
}

// expandPaths resolves a leading ~ in every configured directory.
func (c *Config) expandPaths() error {
	var err error
	for _, p := range []*string{&c.MappingDir, &c.ScratchDir, &c.Metadata.Dir} {
		if *p, err = homedir.Expand(*p); err != nil {
			return fmt.Errorf("expanding %q: %w", *p, err)
		}
	}
	for i, dir := range c.ReferenceDirs {
		if c.ReferenceDirs[i], err = homedir.Expand(dir); err != nil {
			return fmt.Errorf("expanding %q: %w", dir, err)
		}
	}
	return nil
}
