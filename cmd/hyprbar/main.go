// Package main is the entry point for the hyprbar shell.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hyprbar/internal/config"
)

const (
	appID   = "io.github.jmylchreest.hyprbar"
	appName = "hyprbar"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Status bar, notification daemon and context switcher for Hyprland",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.ShellConfigPath()
			}

			cfg, cfgErr := config.LoadShellConfig(configPath)
			if cfgErr != nil {
				cfg = config.DefaultShellConfig()
			}

			if logLevel == "" {
				logLevel = cfg.Log.Level
			}
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			if cfgErr != nil {
				logger.Error("failed to load config, using defaults", "path", configPath, "error", cfgErr)
			}

			return run(runOptions{
				config:     cfg,
				configPath: configPath,
				configErr:  cfgErr,
				logger:     logger,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/hyprbar/hyprbar.toml)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	return cmd
}

// newLogger builds the process logger at the named level.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}
