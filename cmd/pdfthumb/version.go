package main

import (
	"fmt"

	"github.com/drummonds/resuminds/internal/build"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, build.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
