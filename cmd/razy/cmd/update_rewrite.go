package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateRewriteFromFile string

var updateRewriteCmd = &cobra.Command{
	Use:   "update-rewrite",
	Short: "Persist a rendered rewrite-rule document (read from --from, or stdin)",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		data, err := readDocument(updateRewriteFromFile)
		if err != nil {
			return err
		}
		a, err := buildApplication()
		if err != nil {
			return err
		}
		if err := a.UpdateRewriteRules(data); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "rewrite rules written")
		return nil
	},
}

func init() {
	updateRewriteCmd.Flags().StringVar(&updateRewriteFromFile, "from", "", "path to read the document from; empty reads stdin")
}
