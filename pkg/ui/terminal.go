package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Banner printed at the start of an interactive run
const Banner = `
  ┌─────────────────────────────────────────┐
  │  bskyscraper · Bluesky timeline to CSV  │
  └─────────────────────────────────────────┘
`

// Color functions for terminal output. fatih/color disables them
// automatically when stdout is not a terminal or NO_COLOR is set.
var (
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Yellow  = color.New(color.FgYellow).SprintFunc()
	Red     = color.New(color.FgRed).SprintFunc()
	Green   = color.New(color.FgGreen).SprintFunc()
	Magenta = color.New(color.FgMagenta).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
	Bold    = color.New(color.Bold).SprintFunc()
)

var (
	quiet  bool
	output io.Writer = os.Stdout
)

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	quiet = q
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	return quiet
}

// SetOutput redirects terminal output, mainly for tests
func SetOutput(w io.Writer) {
	output = w
}

// Output returns the current terminal writer
func Output() io.Writer {
	return output
}

// DisableColor turns off color output regardless of the terminal
func DisableColor() {
	color.NoColor = true
}

// PrintBanner prints the banner in cyan
func PrintBanner() {
	if quiet {
		return
	}
	fmt.Fprint(output, Cyan(Banner))
}

// PrintError prints an error message in red. Errors are shown in quiet mode too.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(output, Red(msg+": "+fmt.Sprint(args[0])))
	} else {
		fmt.Fprintln(output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(output, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(output, Yellow(msg+": "+fmt.Sprint(args[0])))
	} else {
		fmt.Fprintln(output, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(output, Magenta(msg))
}
