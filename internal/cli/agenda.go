package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dailyplanner/internal/model"
	"dailyplanner/internal/todo"
)

func (a *App) agendaCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the day's events and due todos",
		Long: `Collect the same data the planner page would show and print it to the
terminal instead of writing a PDF.

Example:
  dailyplanner agenda --date 2026-02-16 --skip-tracks`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			p, err := a.newPlanner(cfg, false)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			data, srcErr := p.Collect(ctx, opts)
			if data == nil {
				return srcErr
			}
			printAgenda(cmd.OutOrStdout(), data, termWidth())
			if srcErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", colorOverdue.Sprint("warning:"), srcErr)
			}
			return nil
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func printAgenda(w io.Writer, data *model.PlannerData, width int) {
	day := data.Date.In(time.UTC).Format("Monday, 2 January 2006")
	fmt.Fprintf(w, "=== %s ===\n\n", colorHeader.Sprint(day))

	textWidth := width - 20
	if textWidth < 20 {
		textWidth = 20
	}

	allDay := data.AllDayEvents()
	timed := data.TimedEvents()
	if len(allDay) == 0 && len(timed) == 0 {
		fmt.Fprintln(w, colorMuted.Sprint("No events."))
	}
	for _, ev := range allDay {
		fmt.Fprintf(w, "%s  %s  %s\n", colorAllDay.Sprint("all day    "), clip(ev.Title, textWidth), colorMuted.Sprintf("(%s)", ev.CalendarName))
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Start.Hours() < timed[j].Start.Hours()
	})
	for _, ev := range timed {
		span := ev.Start.String()
		if ev.End != nil {
			span += "-" + ev.End.String()
		}
		line := clip(ev.Title, textWidth)
		if ev.Location != "" {
			line += colorMuted.Sprintf("  @ %s", ev.Location)
		}
		fmt.Fprintf(w, "%s  %s  %s\n", colorTime.Sprintf("%-11s", span), line, colorMuted.Sprintf("(%s)", ev.CalendarName))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, colorHeader.Sprint("Tasks"))
	if len(data.Todos) == 0 {
		fmt.Fprintln(w, colorMuted.Sprint("No tasks due."))
		return
	}
	for _, t := range data.Todos {
		var tags []string
		if t.Context != "" {
			tags = append(tags, "@"+t.Context)
		}
		if t.Project != "" {
			tags = append(tags, "» "+t.Project)
		}
		due := ""
		switch {
		case todo.Overdue(t, data.Date):
			due = colorOverdue.Sprintf("! %s", t.Due.In(time.UTC).Format("02.01.2006"))
		case todo.DueToday(t, data.Date):
			due = colorToday.Sprint("due today")
		}
		fmt.Fprintf(w, "  [ ] %s  %s %s\n", clip(t.Description, textWidth), colorMuted.Sprint(strings.Join(tags, " ")), due)
	}
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
