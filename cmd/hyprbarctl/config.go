package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hyprbar/internal/config"
)

var configOpts struct {
	force bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default configuration files",
	Long: `Write the default shell config (hyprbar.toml) and CLI config
(hyprbarctl.toml). Existing files are left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration and data paths",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shell:   %s\n", config.ShellConfigPath())
		fmt.Printf("cli:     %s\n", cliConfigPath())
		fmt.Printf("history: %s\n", dbPath())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configPathCmd)

	configInitCmd.Flags().BoolVar(&configOpts.force, "force", false,
		"Overwrite existing files")
}

func cliConfigPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	shellPath := config.ShellConfigPath()
	wrote, err := writeIfAbsent(shellPath, configOpts.force, func() error {
		return config.SaveShellConfig(shellPath, config.DefaultShellConfig())
	})
	if err != nil {
		return err
	}
	report(shellPath, wrote)

	cliPath := cliConfigPath()
	wrote, err = writeIfAbsent(cliPath, configOpts.force, func() error {
		return config.DefaultConfig().Save(cliPath)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", cliPath, err)
	}
	report(cliPath, wrote)
	return nil
}

// writeIfAbsent runs write unless path exists and force is off.
func writeIfAbsent(path string, force bool, write func() error) (bool, error) {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}
	return true, write()
}

func report(path string, wrote bool) {
	if wrote {
		fmt.Printf("wrote %s\n", path)
	} else {
		fmt.Printf("kept %s (use --force to overwrite)\n", path)
	}
}
