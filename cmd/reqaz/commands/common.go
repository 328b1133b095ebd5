package commands

import (
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/reqaz/internal/config"
	"git.home.luguber.info/inful/reqaz/internal/foundation/errors"
	"git.home.luguber.info/inful/reqaz/internal/metrics"
	"git.home.luguber.info/inful/reqaz/internal/modifier"
	"git.home.luguber.info/inful/reqaz/internal/source"
)

// Global is shared state handed to every command's Run.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing output such as the generation summary.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Path    string `short:"C" name:"path" help:"Root directory sources are resolved from (defaults to the working directory)."`
	Port    int    `short:"p" name:"port" help:"Port to listen on; also the authority of canonical source URIs (default 5000)."`
	Log     bool   `name:"log" help:"Log every HTTP request."`
	Config  string `short:"c" name:"config" help:"Configuration file (JSON or YAML). Defaults to ./reqaz.json when present."`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run      RunCmd      `cmd:"" default:"1" help:"Generate when the configuration has a generate section, otherwise serve"`
	Serve    ServeCmd    `cmd:"" help:"Serve sources over HTTP"`
	Generate GenerateCmd `cmd:"" help:"Resolve every configured pipeline entry and write the results"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// LoadConfig reads the configuration file and applies the global flags on top.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	ov := config.Overrides{Root: &c.Path, Port: &c.Port}
	if c.Log {
		ov.Log = &c.Log
	}
	cfg.ApplyOverrides(ov)
	return cfg, nil
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// resolverDeps bundles what a resolver needs beyond the configuration.
type resolverDeps struct {
	extra     []string
	collector *modifier.ScriptCollector
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// newResolver validates cfg and builds a resolver over its root with the
// configured modifier chain followed by deps.extra.
func newResolver(cfg *config.Config, deps resolverDeps) (*source.Resolver, error) {
	if err := cfg.Validate(modifier.Registered()); err != nil {
		return nil, err
	}
	root, err := cfg.ResolvedRoot()
	if err != nil {
		return nil, err
	}

	names := append(append([]string(nil), cfg.Modifiers...), deps.extra...)
	opts := modifier.Options{LiveReloadPath: liveReloadScriptPath}
	if deps.collector != nil {
		opts.Scripts = deps.collector
	}
	factories, err := modifier.Build(names, opts)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "build modifier chain").Build()
	}

	return source.NewResolver(root, cfg.Authority(),
		source.WithModifiers(factories...),
		source.WithRecorder(deps.recorder),
		source.WithLogger(deps.logger))
}
