package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dailyplanner/internal/config"
	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/planner"
	"dailyplanner/internal/remarkable"
)

func defaultPlanner(cfg *config.Config, upload bool) (*planner.Planner, error) {
	var opts []planner.Option
	if upload {
		up, err := remarkable.New(cfg.Remarkable.Command, cfg.Remarkable.Folder)
		if err != nil {
			return nil, err
		}
		opts = append(opts, planner.WithUploader(up))
	}
	return planner.New(cfg, opts...)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (a *App) runGenerate(cmd *cobra.Command, flags runFlags) error {
	opts, err := flags.options()
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	opts.Upload = !flags.noUpload && cfg.Remarkable.Upload

	p, err := a.newPlanner(cfg, opts.Upload)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := p.Generate(ctx, opts)
	if res != nil && res.SourceErrors != nil {
		appLog.Warn("some sources failed; the page may be incomplete", "error", res.SourceErrors)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", colorOK.Sprint("✓"), colorHeader.Sprintf("Planner for %s", res.Date))
	fmt.Fprintf(out, "  %d events, %d todos, %s\n", res.Events, res.Todos, humanize.Bytes(uint64(res.Bytes)))
	fmt.Fprintf(out, "  saved to %s\n", res.Path)
	if res.Uploaded {
		fmt.Fprintf(out, "  uploaded to reMarkable folder %q\n", cfg.Remarkable.Folder)
	}
	return nil
}
