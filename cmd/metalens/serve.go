package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/metalens/pkg/middleware"
	"github.com/vango-dev/metalens/pkg/server"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr      string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		Long: `Start the metalens web server.

The server hosts the live analysis page, a plain form fallback for
browsers without JavaScript, and a JSON API under /api. Analyses are
stored in the SQLite history database unless --no-history is set.

Examples:
  metalens serve
  metalens serve --addr :3000
  METALENS_METRICS_ENABLED=true metalens serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Address = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, a, !noHistory)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not open the history database")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, a *app, history bool) error {
	out := cmd.OutOrStdout()
	opts := []server.Option{server.WithLogger(a.logger)}

	if history {
		db, err := a.openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, server.WithStore(db))
		info(out, "History: %s", db.Path())
	} else {
		warn(out, "History disabled: analyses are not stored")
	}

	if a.cfg.Metrics.Enabled {
		m := middleware.NewMetrics(middleware.WithNamespace(a.cfg.Metrics.Namespace))
		opts = append(opts, server.WithMetrics(m, nil))
		info(out, "Metrics: /metrics")
	}

	if a.cfg.Export.Bucket != "" {
		exp, err := a.newExporter(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithExporter(exp))
		info(out, "Export: s3://%s/%s", a.cfg.Export.Bucket, a.cfg.Export.Prefix)
	}

	srv := server.New(a.cfg, a.newAnalyzer(), opts...)

	printBanner(out)
	success(out, "Listening on %s", a.cfg.Server.Address)

	if err := srv.Run(ctx); err != nil {
		return err
	}
	info(out, "Server stopped")
	return nil
}
