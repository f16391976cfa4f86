package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var writeConfigFromFile string

var writeConfigCmd = &cobra.Command{
	Use:   "write-config",
	Short: "Persist a rendered site-config document (read from --from, or stdin)",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		data, err := readDocument(writeConfigFromFile)
		if err != nil {
			return err
		}
		a, err := buildApplication()
		if err != nil {
			return err
		}
		if err := a.WriteSiteConfig(data); err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), "site config written")
		return nil
	},
}

func init() {
	writeConfigCmd.Flags().StringVar(&writeConfigFromFile, "from", "", "path to read the document from; empty reads stdin")
}

func readDocument(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
