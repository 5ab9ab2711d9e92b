package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/store"
)

// tooltipLines caps the notifications listed in the tooltip.
const tooltipLines = 5

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the unread notification count in Waybar's custom module JSON format.

  "custom/notifications": {
    "exec": "hyprbarctl status",
    "interval": 5,
    "return-type": "json",
    "on-click": "hyprbarctl browse"
  }

alt and class carry the highest unread urgency (low, normal, critical), or
"empty" when everything is read.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	s, err := openStore()
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return writeStatus(os.Stdout, WaybarStatus{Alt: "error", Class: "error", Tooltip: err.Error()})
	}

	unread, err := s.List(ctx, store.FilterOptions{Unread: true})
	if err != nil {
		return writeStatus(os.Stdout, WaybarStatus{Alt: "error", Class: "error", Tooltip: err.Error()})
	}
	return writeStatus(os.Stdout, buildStatus(unread))
}

// buildStatus summarises unread notifications, newest first.
func buildStatus(unread []model.Notification) WaybarStatus {
	if len(unread) == 0 {
		return WaybarStatus{Alt: "empty", Class: "empty", Tooltip: "No unread notifications"}
	}

	highest := model.UrgencyLow
	for _, n := range unread {
		highest = max(highest, n.Urgency)
	}
	class := model.UrgencyNames[highest]

	lines := []string{fmt.Sprintf("%d unread", len(unread))}
	for i := range min(len(unread), tooltipLines) {
		n := unread[i]
		lines = append(lines, fmt.Sprintf("%s: %s", n.AppName, n.Summary))
	}
	if len(unread) > tooltipLines {
		lines = append(lines, fmt.Sprintf("... and %d more", len(unread)-tooltipLines))
	}

	return WaybarStatus{
		Text:       fmt.Sprint(len(unread)),
		Alt:        class,
		Tooltip:    strings.Join(lines, "\n"),
		Class:      class,
		Percentage: min(len(unread), 100),
	}
}

func writeStatus(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}
