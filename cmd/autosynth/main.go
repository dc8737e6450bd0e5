package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	settingsPath string
	rootCmd      = &cobra.Command{
		Use:   "autosynth",
		Short: "Autosynth - Automated client library regeneration",
		Long: `Autosynth regenerates client libraries from their API definitions.
It runs the generator for each configured library, pushes any changes to a
pull request, and tracks persistent failures as GitHub issues.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "tool settings file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
