package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/transitnet/pkg/buildinfo"
	"github.com/matzehuels/transitnet/pkg/config"
	"github.com/matzehuels/transitnet/pkg/errors"
	"github.com/matzehuels/transitnet/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "transitnet"

// Execute runs the transitnet CLI with ctx and returns the first command
// error. Cancelling ctx aborts a running build.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	err := newRootCmd().ExecuteContext(ctx)
	if loc, ok := errors.LocationOf(err); ok && loc.Row > 0 {
		printDetail("check %s, row %d", loc.File, loc.Row)
	}
	return err
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:   appName,
		Short: "transitnet builds multi-layer transit network graphs",
		Long: `transitnet assembles a node table and an arc table from bus stop, line and
demand tables: boarding nodes per line, line arcs between consecutive stops,
walking links between nearby stops and guaranteed walking links from every
population center and facility to the stop network.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if configPath != "" {
				logger.Debug("loaded config", "path", configPath)
			}

			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.toml, .yaml)")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newStageCmd(pipeline.StageLines))
	root.AddCommand(newStageCmd(pipeline.StageWalk))
	root.AddCommand(newStageCmd(pipeline.StageDemand))
	root.AddCommand(newInspectCmd())
	root.AddCommand(newCacheCmd())

	return root
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/transitnet/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// cacheLocation returns the configured cache directory, falling back to
// cacheDir.
func cacheLocation(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}
