// Package main provides hyprbarctl, the command line companion of hyprbar.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/store"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		dbPath     string
		configPath string
	}
	logger *slog.Logger

	// historyStore is opened on first use; notify and config never touch it.
	historyStore *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "hyprbarctl",
	Short: "Query and control the hyprbar shell",
	Long: `hyprbarctl reads and edits the notification history written by hyprbar,
sends notifications through the session bus, and manages configuration.

Running hyprbarctl without a subcommand opens the history browser.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if historyStore != nil {
			return historyStore.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.dbPath, "db", "",
		"Path to the history database (default: ~/.local/share/hyprbar/notifications.db)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/hyprbar/hyprbarctl.toml)")
}

func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// stdout stays clean for output
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func dbPath() string {
	if globalOpts.dbPath != "" {
		return globalOpts.dbPath
	}
	return store.DBPath()
}

// openStore opens the history database. Unlike the shell, the CLI does not
// fall back to memory: an unreadable database is an error.
func openStore() (*store.Store, error) {
	if historyStore != nil {
		return historyStore, nil
	}
	p, err := store.OpenSQLite(dbPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	historyStore = store.NewStore(p, logger)
	return historyStore, nil
}
