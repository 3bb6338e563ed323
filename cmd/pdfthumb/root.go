package main

import (
	"log/slog"

	"github.com/drummonds/resuminds/config"
	"github.com/spf13/cobra"
)

const app = "pdfthumb"

// Logger is set up before any command runs
var Logger *slog.Logger

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "pdfthumb renders the first page of a PDF to PNG with the resuminds rasterizer",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			Logger = config.SetupCLI(verbose)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every rasterizer stage")
}
