package tui

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/jmylchreest/hyprbar/internal/config"
)

// clipboardCandidates are tried in order when no command is configured.
var clipboardCandidates = []string{
	"wl-copy",
	"xclip -selection clipboard",
	"xsel --clipboard --input",
}

// copyText pipes text into the clipboard command.
func copyText(text string, cfg *config.Config) error {
	parts := strings.Fields(detectClipboardCommand(cfg, exec.LookPath))
	if len(parts) == 0 {
		return errors.New("no clipboard command available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := exec.CommandContext(ctx, parts[0], parts[1:]...)
	c.Stdin = strings.NewReader(text)
	return c.Run()
}

// detectClipboardCommand returns the configured command, or the first
// candidate whose binary is on PATH.
func detectClipboardCommand(cfg *config.Config, lookPath func(string) (string, error)) string {
	if cfg != nil && cfg.Clipboard.Command != "" {
		return cfg.Clipboard.Command
	}
	for _, cmd := range clipboardCandidates {
		bin, _, _ := strings.Cut(cmd, " ")
		if _, err := lookPath(bin); err == nil {
			return cmd
		}
	}
	return ""
}
