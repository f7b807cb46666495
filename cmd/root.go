// Package cmd implements the bizadmin command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/eci4ever/bizadmin/internal/config"
	"github.com/eci4ever/bizadmin/pkg/logger"
)

// DefaultConfigPath is read when --config is not given.
const DefaultConfigPath = "./config.yml"

// BuildInfo is stamped by the linker.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootOptions struct {
	configPath string
	build      BuildInfo
}

// NewRootCmd builds the command tree.
func NewRootCmd(build BuildInfo) *cobra.Command {
	opts := &rootOptions{build: build}

	root := &cobra.Command{
		Use:   "bizadmin",
		Short: "bizadmin - business admin API",
		Long: `bizadmin serves the customers, invoices and analytics JSON API
with session authentication and role based admin actions.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", DefaultConfigPath, "config file")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newCreateAdminCmd(opts),
		newUsersCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// ExecuteCLI runs the command line and exits non-zero on failure.
func ExecuteCLI(version, commit, date string) {
	root := NewRootCmd(BuildInfo{Version: version, Commit: commit, Date: date})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies its logging settings to
// the shared logger.
func (o *rootOptions) loadConfig() (*config.Config, *log.Logger, error) {
	logger.GetLogger().ConfigureFromEnv()
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	l := logger.GetLogger()
	l.SetLogLevel(cfg.General.LogLevel)
	l.SetFormat(cfg.General.LogFormat)
	if cfg.General.LogFile != "" {
		l.SetFile(logger.FileOptions{
			Path:       cfg.General.LogFile,
			MaxSizeMB:  cfg.General.LogMaxSizeMB,
			MaxBackups: cfg.General.LogMaxBackups,
			MaxAgeDays: cfg.General.LogMaxAgeDays,
		})
	}
	return cfg, l.Logger, nil
}
