package cli

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across commands.
var (
	colorHeader  = color.New(color.Bold)
	colorTime    = color.New(color.FgCyan)
	colorAllDay  = color.New(color.FgMagenta, color.Bold)
	colorOverdue = color.New(color.FgRed, color.Bold)
	colorToday   = color.New(color.FgYellow)
	colorOK      = color.New(color.FgGreen)
	colorMuted   = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}
