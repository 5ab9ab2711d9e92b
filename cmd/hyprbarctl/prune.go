package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hyprbar/internal/core"
	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/store"
)

var pruneOpts struct {
	olderThan string
	keep      int
	dryRun    bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old notifications from history",
	Long: `Remove old notifications from the history database.

Without flags the [prune] settings of the config file apply.

Examples:
  # Remove notifications older than 7 days
  hyprbarctl prune --older-than 7d

  # Keep only the 100 most recent notifications
  hyprbarctl prune --keep 100

  # Preview what would be removed
  hyprbarctl prune --older-than 48h --dry-run`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneOpts.olderThan, "older-than", "",
		"Remove notifications older than this duration (e.g., 48h, 7d, 1w)")
	pruneCmd.Flags().IntVar(&pruneOpts.keep, "keep", 0,
		"Keep only the N most recent notifications (0=unlimited)")
	pruneCmd.Flags().BoolVar(&pruneOpts.dryRun, "dry-run", false,
		"Show what would be removed without removing it")
}

func runPrune(cmd *cobra.Command, args []string) error {
	olderThan, keep := pruneOpts.olderThan, pruneOpts.keep
	if !cmd.Flags().Changed("older-than") && !cmd.Flags().Changed("keep") {
		olderThan, keep = cfg.Prune.OlderThan, cfg.Prune.Keep
	}

	maxAge, err := core.ParseDuration(olderThan)
	if err != nil {
		return err
	}
	if maxAge == 0 && keep <= 0 {
		return fmt.Errorf("specify --older-than or --keep")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	s, err := openStore()
	if err != nil {
		return err
	}

	if pruneOpts.dryRun {
		all, err := s.List(ctx, store.FilterOptions{})
		if err != nil {
			return err
		}
		victims := pruneCandidates(all, time.Now().Add(-maxAge), maxAge > 0, keep)
		if len(victims) == 0 {
			fmt.Println("No notifications to remove")
			return nil
		}
		fmt.Printf("Would remove %d notification(s):\n", len(victims))
		for i, n := range victims {
			if i >= 10 {
				fmt.Printf("  ... and %d more\n", len(victims)-10)
				break
			}
			fmt.Printf("  - #%d [%s] %s (%s)\n", n.ID, n.AppName, n.Summary, n.RelativeTime())
		}
		return nil
	}

	removed, err := s.Prune(ctx, maxAge, keep)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d notification(s)\n", removed)
	return nil
}

// pruneCandidates mirrors the store's prune rule: rows created before
// cutoff, plus everything past the keep newest. The highest id always
// survives.
func pruneCandidates(notifications []model.Notification, cutoff time.Time, useCutoff bool, keep int) []model.Notification {
	sorted := append([]model.Notification(nil), notifications...)
	core.Sort(sorted, core.DefaultSortOptions())

	var maxID uint64
	for _, n := range sorted {
		maxID = max(maxID, n.ID)
	}

	var out []model.Notification
	for i, n := range sorted {
		old := useCutoff && n.CreatedTime().Before(cutoff)
		excess := keep > 0 && i >= keep
		if (old || excess) && n.ID != maxID {
			out = append(out, n)
		}
	}
	return out
}
