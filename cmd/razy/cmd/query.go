package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/razyhost/razy/internal/razyerr"
	"github.com/razyhost/razy/internal/reqctx"
)

var queryMethod string

var queryCmd = &cobra.Command{
	Use:   "query FQDN URLPATH",
	Short: "Host FQDN then dispatch URLPATH against the resolved distributor",
	Args:  cobra.ExactArgs(2),
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
			c.SilenceErrors = true
			return fmt.Errorf("no domain matched")
		}
		result, err := a.Query(queryMethod, args[1], &reqctx.Context{Values: map[string]any{}})
		var signal *razyerr.HttpSignal
		if errors.As(err, &signal) && signal.NotFound {
			fmt.Fprintln(c.OutOrStdout(), "404 not found")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "%v\n", result)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryMethod, "method", "GET", "HTTP method to dispatch with")
}
