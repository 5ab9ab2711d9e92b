package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// PlainFormatter writes a two line human readable entry per notification.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a plain text formatter.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	tmpl, err := parseTemplate("plain", opts.Template)
	if err != nil {
		return nil, err
	}
	return &PlainFormatter{opts: opts, template: tmpl}, nil
}

// Format implements Formatter.
func (f *PlainFormatter) Format(w io.Writer, notifications []model.Notification) error {
	for i := range notifications {
		if err := f.formatNotification(w, i+1, &notifications[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatNotification(w io.Writer, index int, n *model.Notification) error {
	if f.template != nil {
		if err := f.template.Execute(w, templateData{Notification: n, Index: index}); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}
	fmt.Fprintf(&sb, "#%d ", n.ID)
	if !n.Read {
		sb.WriteString("* ")
	}
	if f.opts.ShowApp && n.AppName != "" {
		fmt.Fprintf(&sb, "<%s> ", n.AppName)
	}
	sb.WriteString(n.Summary)
	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " (%s)", humanize.Time(n.CreatedTime()))
	}
	sb.WriteString("\n")

	if body := flatten(n.Body, f.opts.BodyMaxLen, f.opts.IncludeNewline); body != "" {
		for line := range strings.SplitSeq(body, "\n") {
			sb.WriteString("    " + line + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatField returns a single field of a notification.
func FormatField(n *model.Notification, field string) (string, error) {
	switch strings.ToLower(field) {
	case "id":
		return fmt.Sprint(n.ID), nil
	case "uid", "ulid":
		return n.UID, nil
	case "app", "app_name", "appname":
		return n.AppName, nil
	case "summary":
		return n.Summary, nil
	case "body":
		return n.Body, nil
	case "category":
		return n.Category, nil
	case "icon", "app_icon":
		return n.AppIcon, nil
	case "urgency":
		return n.UrgencyName(), nil
	case "time":
		return n.CreatedTime().Format(TimeLayout), nil
	case "all", "full":
		return n.Summary + "\n" + n.Body, nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}
