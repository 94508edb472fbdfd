package main

import (
	"fmt"
	"io"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(w io.Writer, label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(w, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

// printFailure renders the error panel of a one-shot command.
func printFailure(w io.Writer, msg string) {
	fmt.Fprintln(w, colorize(colorRed, "✗ "+msg))
}
