// Package config loads the reqaz.json configuration and merges command-line
// overrides into it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "reqaz.json"

const (
	DefaultPort    = 5000
	DefaultOnError = "skip"
)

// DefaultModifiers is the chain used when the file names none.
var DefaultModifiers = []string{"script"}

// Config is the top-level configuration. The JSON layout matches the
// historical reqaz.json; YAML files with the same keys are accepted too.
type Config struct {
	Root      string          `yaml:"root,omitempty"`
	Port      int             `yaml:"port,omitempty"`
	Log       bool            `yaml:"log,omitempty"`
	Modifiers []string        `yaml:"modifiers,omitempty"`
	Generate  *GenerateConfig `yaml:"generate,omitempty"`

	// source is the file the config was read from, empty for defaults.
	source string
}

// GenerateConfig describes the batch generation workflow.
type GenerateConfig struct {
	OutputDir string          `yaml:"output_dir"`
	Pipelines []PipelineEntry `yaml:"pipelines"`
	// OnError is "skip" (log and continue) or "fail" (error after all entries ran).
	OnError string `yaml:"on_error,omitempty"`
	Workers int    `yaml:"workers,omitempty"`
}

// PipelineEntry maps an input source identifier to an output path relative
// to OutputDir.
type PipelineEntry struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

// Load reads path, expanding ${VAR} references after loading .env files.
// When path is empty the default file is used if present, otherwise defaults.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !explicit {
				return Default(), nil
			}
			return nil, ferrors.ConfigError("configuration file not found").
				WithCause(err).WithContext("path", path).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration file").
			Fatal().WithContext("path", path).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse configuration file").
			Fatal().WithContext("path", path).Build()
	}
	cfg.source = path
	return cfg, nil
}

// Parse decodes JSON or YAML bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	var cfg Config
	if strings.TrimSpace(expanded) != "" {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if len(c.Modifiers) == 0 {
		c.Modifiers = append([]string(nil), DefaultModifiers...)
	}
	if c.Generate != nil && c.Generate.OnError == "" {
		c.Generate.OnError = DefaultOnError
	}
}

// Source returns the file the configuration was loaded from, if any.
func (c *Config) Source() string { return c.source }

// Overrides holds command-line values; nil fields leave the file value alone.
type Overrides struct {
	Root    *string
	Port    *int
	Log     *bool
	OnError *string
	Workers *int
}

// ApplyOverrides merges o into c. Command-line values always win.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Root != nil && *o.Root != "" {
		c.Root = *o.Root
	}
	if o.Port != nil && *o.Port != 0 {
		c.Port = *o.Port
	}
	if o.Log != nil {
		c.Log = *o.Log
	}
	if c.Generate != nil {
		if o.OnError != nil && *o.OnError != "" {
			c.Generate.OnError = *o.OnError
		}
		if o.Workers != nil && *o.Workers > 0 {
			c.Generate.Workers = *o.Workers
		}
	}
}

// ResolvedRoot returns the absolute root, defaulting to the working directory.
func (c *Config) ResolvedRoot() (string, error) {
	root := c.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryConfig, "no root path provided").Fatal().Build()
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "resolve root").
			Fatal().WithContext("root", root).Build()
	}
	return abs, nil
}

// ResolvedOutputDir returns the absolute generation output directory.
// Relative paths are taken from the working directory.
func (g *GenerateConfig) ResolvedOutputDir() (string, error) {
	abs, err := filepath.Abs(g.OutputDir)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "resolve output directory").
			Fatal().WithContext("output_dir", g.OutputDir).Build()
	}
	return abs, nil
}

// Authority is the host:port used for canonical source URIs.
func (c *Config) Authority() string {
	return fmt.Sprintf("localhost:%d", c.Port)
}

// ListenAddr is the loopback address the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}
