package commands

import (
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// printSuccess prints a success line in green with a checkmark prefix
func printSuccess(format string, a ...any) {
	green.Printf("✓ "+format+"\n", a...)
}

// printStep prints a progress line in cyan
func printStep(format string, a ...any) {
	cyan.Printf("→ "+format+"\n", a...)
}

func printWarning(format string, a ...any) {
	yellow.Printf("⚠ "+format+"\n", a...)
}

func printFailure(format string, a ...any) {
	red.Fprintf(os.Stderr, "✗ "+format+"\n", a...)
}
