package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/planner"
	"dailyplanner/internal/web"
)

func (a *App) serveCmd() *cobra.Command {
	var (
		listen string
		now    bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and regenerate on a schedule",
		Long: `Serve the planner over HTTP and regenerate today's planner on the
configured cron schedule (schedule: "0 5 * * *" by default).

Endpoints:
  GET  /health
  GET  /api/planner?date=YYYY-MM-DD
  GET  /planner.pdf?date=YYYY-MM-DD
  POST /api/generate?date=YYYY-MM-DD&upload=0|1`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			p, err := a.newPlanner(cfg, cfg.Remarkable.Upload)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			sched := planner.NewScheduler(p, cfg.Schedule, planner.Options{Upload: cfg.Remarkable.Upload})
			if now {
				if _, err := sched.RunOnce(ctx); err != nil {
					return fmt.Errorf("initial generation: %w", err)
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return sched.Run(gctx) })
			g.Go(func() error { return web.NewServer(cfg, p).Serve(gctx) })
			err = g.Wait()
			appLog.Info("dailyplanner exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&now, "now", false, "Generate once immediately before waiting for the schedule")
	return cmd
}
