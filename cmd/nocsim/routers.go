package main

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/router/routers"
	"github.com/sarchlab/nocsim/noc/routing"
	"github.com/sarchlab/nocsim/noc/traffic"
	"github.com/spf13/cobra"
)

var routersCmd = &cobra.Command{
	Use:   "routers",
	Short: "List the router types, routing functions and traffic patterns.",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Router types:")
		for _, name := range routers.NewDefaultFactory().Names() {
			fmt.Fprintf(out, "  %s\n", name)
		}

		fmt.Fprintln(out, "Routing functions:")
		for _, name := range routing.Names() {
			fmt.Fprintf(out, "  %s\n", name)
		}

		fmt.Fprintln(out, "Traffic patterns:")
		for _, name := range traffic.PatternNames() {
			fmt.Fprintf(out, "  %s\n", name)
		}
	},
}

func init() {
	rootCmd.AddCommand(routersCmd)
}
