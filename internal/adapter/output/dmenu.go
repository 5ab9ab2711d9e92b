package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// DmenuFormatter writes one line per notification for dmenu, rofi or fuzzel.
// Lines start with the notification ID so a selection can be fed back to
// hyprbarctl.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) (*DmenuFormatter, error) {
	tmpl, err := parseTemplate("dmenu", opts.Template)
	if err != nil {
		return nil, err
	}
	return &DmenuFormatter{opts: opts, template: tmpl}, nil
}

// Format implements Formatter.
func (f *DmenuFormatter) Format(w io.Writer, notifications []model.Notification) error {
	for i := range notifications {
		line, err := f.formatLine(i+1, &notifications[i])
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (f *DmenuFormatter) formatLine(index int, n *model.Notification) (string, error) {
	if f.template != nil {
		var sb strings.Builder
		if err := f.template.Execute(&sb, templateData{Notification: n, Index: index}); err != nil {
			return "", err
		}
		return strings.ReplaceAll(sb.String(), "\n", " "), nil
	}

	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	var parts []string
	if f.opts.ShowIndex {
		parts = append(parts, strconv.FormatUint(n.ID, 10))
	}
	if f.opts.ShowTime {
		parts = append(parts, compactAge(n.CreatedAt))
	}
	if f.opts.ShowApp && n.AppName != "" {
		parts = append(parts, n.AppName)
	}

	content := n.Summary
	if body := flatten(n.Body, f.opts.BodyMaxLen, false); body != "" {
		content += ": " + body
	}
	parts = append(parts, content)

	return strings.Join(parts, sep), nil
}

// ParseSelection extracts the notification reference from a line picked in
// dmenu: the text before the first separator, or the whole line.
func ParseSelection(selection string) string {
	selection = strings.TrimSpace(selection)
	if head, _, found := strings.Cut(selection, "|"); found {
		return strings.TrimSpace(head)
	}
	return selection
}
