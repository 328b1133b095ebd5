package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
)

// Validate checks ranges and required fields. known lists the registered
// modifier names; nil skips the modifier check.
func (c *Config) Validate(known []string) error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 1-65535", c.Port))
	}
	if known != nil {
		for _, name := range c.Modifiers {
			if !slices.Contains(known, name) {
				errs = append(errs, fmt.Errorf("unknown modifier %q (available: %s)", name, strings.Join(known, ", ")))
			}
		}
	}
	if g := c.Generate; g != nil {
		errs = append(errs, g.validate()...)
	}
	if len(errs) == 0 {
		return nil
	}
	b := ferrors.ValidationError("invalid configuration").WithCause(errors.Join(errs...))
	if c.source != "" {
		b = b.WithContext("path", c.source)
	}
	return b.Build()
}

func (g *GenerateConfig) validate() []error {
	var errs []error
	if strings.TrimSpace(g.OutputDir) == "" {
		errs = append(errs, errors.New("generate.output_dir is required"))
	}
	switch g.OnError {
	case "", "skip", "fail":
	default:
		errs = append(errs, fmt.Errorf("generate.on_error %q must be skip or fail", g.OnError))
	}
	if g.Workers < 0 {
		errs = append(errs, fmt.Errorf("generate.workers %d must not be negative", g.Workers))
	}
	for i, p := range g.Pipelines {
		if strings.TrimSpace(p.Input) == "" {
			errs = append(errs, fmt.Errorf("generate.pipelines[%d].input is required", i))
		}
		switch {
		case strings.TrimSpace(p.Output) == "":
			errs = append(errs, fmt.Errorf("generate.pipelines[%d].output is required", i))
		case filepath.IsAbs(p.Output):
			errs = append(errs, fmt.Errorf("generate.pipelines[%d].output %q must be relative", i, p.Output))
		}
	}
	return errs
}
