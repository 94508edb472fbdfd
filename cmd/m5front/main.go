package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "m5front",
	Short: "Front end for the M5 demand forecasting service",
	Long: `m5front collects an item, a store and a date, asks the prediction
service for the purchase probability and shows it as a percentage.

The form is served as a web page (serve) or run in the terminal (tui);
predict, options and status call the service directly.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("NO_COLOR") != "" {
			noColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(serveCmd, tuiCmd, predictCmd, optionsCmd, statusCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
