package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/jmylchreest/hyprbar/internal/adapter/output"
	"github.com/jmylchreest/hyprbar/internal/core"
)

var readOpts struct {
	all bool
}

var readCmd = &cobra.Command{
	Use:   "read [id...]",
	Short: "Mark notifications as read",
	Long: `Mark notifications as read.

IDs may be given as arguments, comma separated, or piped on stdin one per line
(dmenu lines are accepted). --all marks every notification.

Examples:
  hyprbarctl read 12 13
  hyprbarctl read --all
  hyprbarctl history -f dmenu | fuzzel -d | hyprbarctl read`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetRead(cmd, args, true)
	},
}

var unreadCmd = &cobra.Command{
	Use:   "unread [id...]",
	Short: "Mark notifications as unread",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetRead(cmd, args, false)
	},
}

func init() {
	rootCmd.AddCommand(readCmd, unreadCmd)

	for _, c := range []*cobra.Command{readCmd, unreadCmd} {
		c.Flags().BoolVarP(&readOpts.all, "all", "a", false, "Apply to every notification")
	}
}

func runSetRead(cmd *cobra.Command, args []string, read bool) error {
	var ids []uint64
	if !readOpts.all {
		if len(args) == 0 && !isTerminal(os.Stdin) {
			refs, err := readSelections(cmd.InOrStdin())
			if err != nil {
				return err
			}
			args = refs
		}
		if len(args) == 0 {
			return fmt.Errorf("specify notification ids or --all")
		}

		var err error
		if ids, err = core.ParseIDs(args); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	s, err := openStore()
	if err != nil {
		return err
	}

	// An empty id list means every row.
	n, err := s.SetRead(ctx, ids, read)
	if err != nil {
		return err
	}

	state := "read"
	if !read {
		state = "unread"
	}
	fmt.Printf("Marked %d notification(s) %s\n", n, state)
	return nil
}

// readSelections reads one reference per line, accepting dmenu lines.
func readSelections(r io.Reader) ([]string, error) {
	var refs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ref := output.ParseSelection(scanner.Text()); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs, scanner.Err()
}

func isTerminal(f *os.File) bool {
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	return err == nil
}
