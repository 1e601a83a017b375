// Command ripd runs a single routing daemon instance against one
// configuration file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ripdaemon/ripd/internal/config"
	"github.com/ripdaemon/ripd/internal/logging"
	"github.com/ripdaemon/ripd/internal/metrics"
	"github.com/ripdaemon/ripd/internal/router"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ripd <config-file>",
		Short: "A userspace distance-vector routing daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Wrong argument count is the only error that should print
			// usage; once we're past Args validation, silence it so a
			// runtime fault doesn't dump the flag synopsis.
			cmd.SilenceUsage = true
			return run(args[0], verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func run(configPath string, verbose bool) error {
	log, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsPort != nil {
		m = metrics.New()
	}

	r, err := router.New(cfg, log, m)
	if err != nil {
		return fmt.Errorf("start router: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("router started",
		zap.Uint16("router_id", uint16(cfg.RouterID)),
		zap.Int("neighbors", len(cfg.Neighbors)),
	)

	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("router stopped: %w", err)
	}

	log.Info("router shut down cleanly")
	return nil
}
