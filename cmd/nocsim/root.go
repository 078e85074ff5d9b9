package main

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nocsim",
	Short: "nocsim simulates on-chip interconnection networks.",
	Long: `nocsim simulates on-chip interconnection networks cycle by ` +
		`cycle. It builds a mesh, torus or arbitrary network of routers, ` +
		`drives it with synthetic traffic and reports packet latency.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
