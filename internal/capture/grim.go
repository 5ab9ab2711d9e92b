package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// GrimProducer captures an output with grim, writing PPM straight into the
// memfd.
type GrimProducer struct {
	Command string
}

// NewGrimProducer creates a producer running command, "grim" when empty.
func NewGrimProducer(command string) *GrimProducer {
	if command == "" {
		command = "grim"
	}
	return &GrimProducer{Command: command}
}

// Produce implements Producer.
func (g *GrimProducer) Produce(ctx context.Context, output string, dst *os.File) error {
	cmd := exec.CommandContext(ctx, g.Command, "-t", "ppm", "-o", output, "-")
	cmd.Stdout = dst
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", g.Command, err, msg)
		}
		return fmt.Errorf("%s: %w", g.Command, err)
	}
	return nil
}
