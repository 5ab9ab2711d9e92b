package switcher

import (
	"context"
	"fmt"

	"github.com/jmylchreest/hyprbar/internal/poll"
)

// Gcloud switches the active gcloud configuration through the gcloud CLI.
type Gcloud struct {
	Run    poll.Runner
	Binary string
}

// NewGcloud creates a gcloud provider. A nil runner uses poll.Exec.
func NewGcloud(run poll.Runner) *Gcloud {
	if run == nil {
		run = poll.Exec
	}
	return &Gcloud{Run: run, Binary: "gcloud"}
}

// Name implements Provider.
func (g *Gcloud) Name() string { return "gcloud" }

// Appearance implements Describer.
func (g *Gcloud) Appearance() Appearance {
	return Appearance{
		Widget:      "gcloud-config",
		Prefix:      "gcloud",
		Icon:        "☁",
		Fallback:    "no config",
		MaxLabelLen: 20,
	}
}

// Current implements Provider.
func (g *Gcloud) Current(ctx context.Context) (string, error) {
	out, err := g.Run(ctx, g.Binary, "config", "configurations", "list",
		"--filter=is_active=true", "--format=value(name)")
	if err != nil {
		return "", err
	}
	names := ParseConfigurations(out)
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}

// List implements Provider.
func (g *Gcloud) List(ctx context.Context) ([]string, error) {
	out, err := g.Run(ctx, g.Binary, "config", "configurations", "list", "--format=value(name)")
	if err != nil {
		return nil, err
	}
	return ParseConfigurations(out), nil
}

// Activate implements Provider.
func (g *Gcloud) Activate(ctx context.Context, candidate string) error {
	if _, err := g.Run(ctx, g.Binary, "config", "configurations", "activate", candidate); err != nil {
		return fmt.Errorf("failed to activate gcloud configuration %q: %w", candidate, err)
	}
	return nil
}

// ParseConfigurations parses `--format=value(name)` output: one name per line.
func ParseConfigurations(out []byte) []string {
	return poll.Lines(out)
}
