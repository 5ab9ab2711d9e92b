package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/hyprbar/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"tui"},
	Short:   "Browse notification history interactively",
	Long: `Open the terminal history browser.

The list follows the history database, so notifications recorded by a running
hyprbar appear as they arrive. The search box accepts plain text or a filter
expression such as 'app=slack,urgency>=normal'.

Key bindings:
  j/k, ↑/↓    Navigate list
  enter       View details (marks read)
  m / M       Toggle read / mark all read
  a           Show or hide read notifications
  c / s       Copy body / summary
  D           Delete notification
  /           Search or filter
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	return tui.Run(tui.RunOptions{
		Config: cfg,
		Store:  s,
		DBPath: dbPath(),
		Logger: logger,
	})
}
