package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateSitesCmd = &cobra.Command{
	Use:   "update-sites",
	Short: "Force a fresh SiteRegistry load on the next host/query/dispatch call",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		a, err := buildApplication()
		if err != nil {
			return err
		}
		if err := a.UpdateSites(); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "site registry will reload on next use")
		return nil
	},
}
