package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dailyplanner/internal/remarkable"
)

func (a *App) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register-remarkable",
		Short: "Run the one-time rmapi device registration",
		Long: `Runs rmapi interactively. If rmapi is not authenticated yet it asks for
a one-time code from https://my.remarkable.com/device/browser/connect.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			up, err := remarkable.New(cfg.Remarkable.Command, cfg.Remarkable.Folder)
			if err != nil {
				return err
			}
			if err := up.Available(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, colorHeader.Sprint("rmapi device registration"))
			ctx, cancel := signalContext()
			defer cancel()
			if err := up.Register(ctx, cmd.InOrStdin(), out, cmd.ErrOrStderr()); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s If you see a file listing above, rmapi is authenticated.\n", colorOK.Sprint("✓"))
			return nil
		},
	}
}
