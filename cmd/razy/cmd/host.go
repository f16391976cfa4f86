package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hostCmd = &cobra.Command{
	Use:   "host FQDN",
	Short: "Resolve FQDN to its matched domain and list its mounts",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		a, err := buildApplication()
		if err != nil {
			return err
		}
		d, err := a.Host(args[0])
		if err != nil {
			return err
		}
		if d == nil {
			fmt.Fprintf(c.OutOrStdout(), "no domain matched %s\n", args[0])
			return nil
		}
		fmt.Fprintf(c.OutOrStdout(), "matched domain key: %s\n", d.FQDN)
		for _, m := range d.Mounts {
			fmt.Fprintf(c.OutOrStdout(), "  %s -> %s\n", m.URLPath, m.Identifier)
		}
		return nil
	},
}
