// Package output formats notification history for hyprbarctl.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// Formatter formats notifications for output.
type Formatter interface {
	// Format writes formatted notifications to the writer.
	Format(w io.Writer, notifications []model.Notification) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
	FormatIDs   FormatType = "ids"
	FormatYAML  FormatType = "yaml"
)

// Formats returns every supported format.
func Formats() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatIDs, FormatDmenu, FormatYAML}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (FormatType, error) {
	f := FormatType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q, must be one of: %v", s, Formats())
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template       string // Go template for dmenu and plain
	ShowIndex      bool   // Show 1-based index prefix
	ShowTime       bool   // Show relative time
	ShowApp        bool   // Show app name
	BodyMaxLen     int    // Maximum body length (0 = unlimited)
	Separator      string // Field separator for dmenu format
	IncludeNewline bool   // Keep newlines in body
}

// DefaultFormatterOptions returns the options used when nothing is configured.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:  true,
		ShowTime:   true,
		ShowApp:    true,
		BodyMaxLen: 80,
		Separator:  " | ",
	}
}

// NewFormatter creates a formatter for the given format. An invalid
// template is an error rather than a silent fallback.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatIDs:
		return NewIDsFormatter(), nil
	case FormatPlain:
		return NewPlainFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
