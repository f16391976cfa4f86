package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/razyhost/razy/internal/distributor"
)

var composeCmd = &cobra.Command{
	Use:   "compose CODE",
	Short: "Build the distributor for CODE and report its resolved module graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		a, err := buildApplication()
		if err != nil {
			return err
		}
		return a.Compose(args[0], func(dist *distributor.Distributor) error {
			fmt.Fprintf(c.OutOrStdout(), "%s mounted at %s\n", dist.Identifier, dist.MountPath)
			for _, m := range dist.LoadedModules() {
				fmt.Fprintf(c.OutOrStdout(), "  loaded: %s@%s\n", m.Info.Code, m.Info.Version)
			}
			for code, reason := range dist.FailureReasons {
				fmt.Fprintf(c.OutOrStdout(), "  failed: %s (%s)\n", code, reason)
			}
			return nil
		})
	},
}
