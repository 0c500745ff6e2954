// Package cli implements the dailyplanner command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dailyplanner/internal/config"
	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
	"dailyplanner/internal/planner"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	root       *cobra.Command
	configPath string
	verbose    bool
	noColor    bool

	// newPlanner builds the planner for a loaded config. Tests swap it to
	// inject sources and clocks.
	newPlanner func(cfg *config.Config, upload bool) (*planner.Planner, error)
}

// NewApp creates the CLI. Running the root command generates a planner.
func NewApp() *App {
	a := &App{newPlanner: defaultPlanner}

	var flags runFlags
	a.root = &cobra.Command{
		Use:   "dailyplanner",
		Short: "Generate a one-page daily planner PDF",
		Long: `dailyplanner collects the day's calendar events (CalDAV, ICS feeds) and
due todos (Tracks), lays them out on a single A4 page and writes a PDF.
The PDF is uploaded to a reMarkable tablet unless --no-upload is given.

Examples:
  dailyplanner
  dailyplanner --date 2026-02-16 --no-upload -o today.pdf`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.verbose {
				appLog.SetLevel(appLog.LevelDebug)
			}
			if a.noColor {
				DisableColor()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd, flags)
		},
	}
	pf := a.root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", config.DefaultConfigPath(), "Path to config.yaml")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable color output")
	flags.bind(a.root, true)

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.agendaCmd())
	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.registerCmd())
	return a
}

// SetOutput redirects command output, for tests.
func (a *App) SetOutput(w io.Writer) {
	a.root.SetOut(w)
	a.root.SetErr(w)
}

// SetArgs overrides os.Args[1:], for tests.
func (a *App) SetArgs(args []string) { a.root.SetArgs(args) }

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dailyplanner %s (commit: %s)\n", Version, Commit)
		},
	}
}

// runFlags are shared by commands that plan a single day.
type runFlags struct {
	date       string
	output     string
	noUpload   bool
	skipCalDAV bool
	skipTracks bool
	skipICS    bool
}

func (f *runFlags) bind(cmd *cobra.Command, generate bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.date, "date", "", "Target date in YYYY-MM-DD format (default: today)")
	fs.BoolVar(&f.skipCalDAV, "skip-caldav", false, "Skip CalDAV calendar fetching")
	fs.BoolVar(&f.skipTracks, "skip-tracks", false, "Skip Tracks todo fetching")
	fs.BoolVar(&f.skipICS, "skip-ics", false, "Skip ICS subscriptions")
	if generate {
		fs.StringVarP(&f.output, "output", "o", "", "Output PDF path (default: <output_dir>/planner-YYYY-MM-DD.pdf)")
		fs.BoolVar(&f.noUpload, "no-upload", false, "Generate the PDF only, do not upload to reMarkable")
	}
}

func (f runFlags) options() (planner.Options, error) {
	opts := planner.Options{
		Output:     f.output,
		SkipCalDAV: f.skipCalDAV,
		SkipTracks: f.skipTracks,
		SkipICS:    f.skipICS,
	}
	if f.date != "" {
		d, err := model.ParseDate(f.date)
		if err != nil {
			return opts, fmt.Errorf("--date: %w", err)
		}
		opts.Date = d
	}
	return opts, nil
}

func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	appLog.Debug("config loaded", "path", a.configPath, "timezone", cfg.Timezone,
		"hours", fmt.Sprintf("%d-%d", cfg.DayStartHour, cfg.DayEndHour),
		"caldav", cfg.CalDAV.Enabled(), "tracks", cfg.Tracks.Enabled(), "ics", len(cfg.ICS))
	return cfg, nil
}
