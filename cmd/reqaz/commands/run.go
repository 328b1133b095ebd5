package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// RunCmd picks the workflow from the configuration: generate when it has a
// generate section, serve otherwise.
type RunCmd struct{}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Generate != nil {
		return runGenerate(ctx, g, cfg)
	}
	serve := &ServeCmd{ShutdownTimeout: defaultShutdownTimeout}
	return serve.serve(ctx, g.logger(), cfg)
}
