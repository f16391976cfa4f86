package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/razyhost/razy/internal/distributor"
	"github.com/razyhost/razy/internal/domain"
	"github.com/razyhost/razy/internal/siteconfig"
	"github.com/razyhost/razy/modules"
)

// collectingLogger gathers every Printf call instead of writing to a file,
// so doctor can report every siteconfig/distconfig problem at once rather
// than the single-entry-at-a-time logging the core normally does.
type collectingLogger struct {
	lines []string
}

func (c *collectingLogger) Printf(format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Load the site config and every mounted distributor, reporting all validation failures at once",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		a, err := buildApplication()
		if err != nil {
			return err
		}
		collector := &collectingLogger{}
		a.Logger = collector

		sitesDirFS := os.DirFS(filepath.Join(flagRoot, flagSitesRoot))
		sites, err := siteconfig.Load(a.ConfigFS, flagSiteConfigPath, sitesDirFS, collector)
		if err != nil {
			return err
		}

		registry := distributor.NewControllerRegistry()
		if err := modules.Register(registry); err != nil {
			return err
		}
		problems := 0

		domainKeys := make([]string, 0, len(sites.Mounts))
		for k := range sites.Mounts {
			domainKeys = append(domainKeys, k)
		}
		sort.Strings(domainKeys)

		for _, key := range domainKeys {
			mounts := sites.Mounts[key]
			d := domain.New(key, mounts, sitesDirFS, registry, collector)
			for _, mount := range mounts {
				dist, err := d.MatchQuery(mount.URLPath)
				if err != nil {
					fmt.Fprintf(c.OutOrStdout(), "ERROR %s %s: %v\n", key, mount.URLPath, err)
					problems++
					continue
				}
				if dist == nil {
					continue
				}
				for code, reason := range dist.FailureReasons {
					fmt.Fprintf(c.OutOrStdout(), "ERROR %s %s: module %s: %s\n", key, mount.URLPath, code, reason)
					problems++
				}
			}
		}

		for _, line := range collector.lines {
			fmt.Fprintf(c.OutOrStdout(), "WARN %s\n", line)
		}

		if problems > 0 {
			return fmt.Errorf("doctor: %d problem(s) found", problems)
		}
		fmt.Fprintln(c.OutOrStdout(), "OK")
		return nil
	},
}
