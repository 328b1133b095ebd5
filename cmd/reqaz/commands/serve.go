package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/reqaz/internal/config"
	"git.home.luguber.info/inful/reqaz/internal/metrics"
	"git.home.luguber.info/inful/reqaz/internal/modifier"
	"git.home.luguber.info/inful/reqaz/internal/server"
)

const (
	liveReloadScriptPath   = server.LiveReloadScriptPath
	defaultShutdownTimeout = 10 * time.Second
)

// ServeCmd serves sources over HTTP until interrupted.
type ServeCmd struct {
	LiveReload      bool          `name:"live-reload" help:"Inject a reload script into HTML pages and reload them when files under the root change."`
	Metrics         bool          `name:"metrics" help:"Expose Prometheus metrics on /metrics."`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" default:"10s" help:"Grace period for in-flight requests on shutdown."`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return s.serve(ctx, g.logger(), cfg)
}

func (s *ServeCmd) serve(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	srv, err := s.buildServer(cfg, logger)
	if err != nil {
		return err
	}
	return srv.Serve(ctx, s.ShutdownTimeout)
}

// buildServer wires resolver, metrics and live reload into an unstarted server.
func (s *ServeCmd) buildServer(cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	var (
		reg *prom.Registry
		rec metrics.Recorder = metrics.NoopRecorder{}
	)
	if s.Metrics {
		reg = prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec = metrics.NewPrometheusRecorder(reg)
	}

	deps := resolverDeps{recorder: rec, logger: logger}
	if s.LiveReload {
		deps.extra = []string{modifier.LiveReloadModifierName}
	}
	resolver, err := newResolver(cfg, deps)
	if err != nil {
		return nil, err
	}

	opts := server.Options{
		Addr:       cfg.ListenAddr(),
		AccessLog:  cfg.Log,
		LiveReload: s.LiveReload,
		Registry:   reg,
		Recorder:   rec,
		Logger:     logger,
	}
	if s.LiveReload {
		opts.WatchRoot = resolver.Root()
	}
	logger.Debug("Server configured",
		slog.String("root", resolver.Root()),
		slog.String("authority", resolver.Authority()),
		slog.Any("modifiers", cfg.Modifiers))
	return server.New(resolver, opts), nil
}
