// Package cmd implements the razy CLI: the cobra-based binary that drives
// an Application through exactly the surface the core exposes (host,
// query, updateSites, writeSiteConfig, updateRewriteRules, compose), plus
// a handful of operator-facing commands (doctor, inspect, serve) that sit
// on top of that surface without extending the core itself.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/razyhost/razy/internal/app"
	"github.com/razyhost/razy/internal/distributor"
	"github.com/razyhost/razy/internal/logging"
	"github.com/razyhost/razy/internal/runtime"
	"github.com/razyhost/razy/modules"
)

// Exit codes, matching the standard convention the CLI surface commits to.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 2
	ExitNotFound    = 3
	ExitInvalidArgs = 4
)

var (
	flagRoot              string
	flagSitesRoot         string
	flagSiteConfigPath    string
	flagRewriteConfigPath string
	flagLogDir            string
	flagWorker            bool
	flagRevalidateEvery   int
)

var rootCmd = &cobra.Command{
	Use:   "razy",
	Short: "Host and route multi-tenant module-based web applications",
	Long: `razy hosts a multi-tenant application graph: one or more domains,
each mounting one or more distributors, each loading a set of modules that
register routes, commands, and events against it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "filesystem root the site config and sites directory are resolved under")
	rootCmd.PersistentFlags().StringVar(&flagSitesRoot, "sites-root", "sites", "directory (relative to --root) holding {code}/dist.yaml trees")
	rootCmd.PersistentFlags().StringVar(&flagSiteConfigPath, "site-config", "sites.yaml", "path (relative to --root) of the domain/alias mapping file")
	rootCmd.PersistentFlags().StringVar(&flagRewriteConfigPath, "rewrite-config", "rewrite.yaml", "path (relative to --root) of the rewrite-rule document")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "directory to append razy.log to; empty disables logging")
	rootCmd.PersistentFlags().BoolVar(&flagWorker, "worker", false, "enable the worker-mode distributor cache (Lock the Application before dispatch)")
	rootCmd.PersistentFlags().IntVar(&flagRevalidateEvery, "revalidate-every", 100, "worker-mode cache fingerprint revalidation interval")

	rootCmd.AddCommand(hostCmd, queryCmd, updateSitesCmd, writeConfigCmd, updateRewriteCmd, composeCmd, doctorCmd, inspectCmd, serveCmd)
}

// Execute runs the root command and exits the process with ExitError if it
// returns any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

type dirWriter struct {
	root string
}

func (w dirWriter) WriteFile(path string, data []byte) error {
	full := filepath.Join(w.root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// buildApplication constructs an Application rooted at --root, wired to a
// ControllerRegistry preloaded with the sample Controllers in the modules
// package (a dist.yaml manifest is free to name any other code too, which
// falls back to modulert.BaseController), and a file logger under
// --log-dir.
func buildApplication() (*app.Application, error) {
	logger, err := logging.New(flagLogDir)
	if err != nil {
		return nil, err
	}
	rt := runtime.Runtime{
		SitesRoot:         flagSitesRoot,
		SiteConfigPath:    flagSiteConfigPath,
		RewriteConfigPath: flagRewriteConfigPath,
		WorkerMode:        flagWorker,
		RevalidateEvery:   flagRevalidateEvery,
		LogDir:            flagLogDir,
	}
	registry := distributor.NewControllerRegistry()
	if err := modules.Register(registry); err != nil {
		return nil, err
	}
	configFS := os.DirFS(flagRoot)
	a := app.New(rt, configFS, registry, logger)
	a.Writer = dirWriter{root: flagRoot}
	return a, nil
}
