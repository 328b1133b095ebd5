package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/reqaz/internal/config"
	"git.home.luguber.info/inful/reqaz/internal/foundation/errors"
	"git.home.luguber.info/inful/reqaz/internal/generate"
	"git.home.luguber.info/inful/reqaz/internal/modifier"
)

// GenerateCmd implements the 'generate' command for batch output.
type GenerateCmd struct {
	OnError string `name:"on-error" help:"What to do when an entry fails: skip (log and continue) or fail (non-zero exit after all entries ran)."`
	Workers int    `name:"workers" help:"Entries processed in parallel (defaults to GOMAXPROCS)."`
}

func (c *GenerateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return c.generate(ctx, g, cfg)
}

func (c *GenerateCmd) generate(ctx context.Context, g *Global, cfg *config.Config) error {
	if cfg.Generate == nil {
		return errors.ConfigError("configuration has no generate section").
			WithContext("config", cfg.Source()).Build()
	}
	cfg.ApplyOverrides(config.Overrides{OnError: &c.OnError, Workers: &c.Workers})
	return runGenerate(ctx, g, cfg)
}

func runGenerate(ctx context.Context, g *Global, cfg *config.Config) error {
	logger := g.logger()
	collector := &modifier.ScriptCollector{}
	resolver, err := newResolver(cfg, resolverDeps{collector: collector, logger: logger})
	if err != nil {
		return err
	}

	policy, err := generate.ParsePolicy(cfg.Generate.OnError)
	if err != nil {
		return err
	}
	outDir, err := cfg.Generate.ResolvedOutputDir()
	if err != nil {
		return err
	}
	gen, err := generate.New(resolver, outDir,
		generate.WithPolicy(policy),
		generate.WithWorkers(cfg.Generate.Workers),
		generate.WithLogger(logger))
	if err != nil {
		return err
	}

	entries := make([]generate.Entry, 0, len(cfg.Generate.Pipelines))
	for _, p := range cfg.Generate.Pipelines {
		entries = append(entries, generate.Entry{Input: p.Input, Output: p.Output})
	}

	report, err := gen.Run(ctx, entries)
	if report != nil {
		logger.Debug("Inline scripts extracted", slog.Int("count", len(collector.Scripts())))
		_, _ = fmt.Fprintf(g.out(), "Generated %d pipelines.\n", report.Generated)
	}
	return err
}
