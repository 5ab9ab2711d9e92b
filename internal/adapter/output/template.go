package output

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// TimeLayout is used by the formatTime template function and the plain format.
const TimeLayout = "2006-01-02 15:04"

// templateData is what custom templates see: every notification field and
// method, plus the list position.
type templateData struct {
	*model.Notification
	Index int
}

// Ago returns a humanized creation time such as "3 minutes ago".
func (d templateData) Ago() string {
	return humanize.Time(d.CreatedTime())
}

func parseTemplate(name, text string) (*template.Template, error) {
	if text == "" {
		return nil, nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s template: %w", name, err)
	}
	return tmpl, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"formatTime": func(ts int64) string {
			if ts == 0 {
				return ""
			}
			return time.Unix(ts, 0).Format(TimeLayout)
		},
		"reltime": compactAge,
		"ago": func(ts int64) string {
			return humanize.Time(time.Unix(ts, 0))
		},
		"urgencyIcon": func(urgency int) string {
			switch urgency {
			case model.UrgencyLow:
				return "L"
			case model.UrgencyCritical:
				return "!"
			default:
				return "-"
			}
		},
	}
}

// compactAge returns a short age such as "now", "5m", "2h", "3d" or "1w".
func compactAge(ts int64) string {
	if ts == 0 {
		return "unknown"
	}

	d := time.Since(time.Unix(ts, 0))
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw", int(d.Hours()/24/7))
	}
}

// truncate cuts s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// flatten collapses whitespace for single-line display and truncates.
func flatten(body string, maxLen int, keepNewlines bool) string {
	if keepNewlines {
		lines := strings.Split(body, "\n")
		for i, l := range lines {
			lines[i] = strings.Join(strings.Fields(l), " ")
		}
		body = strings.TrimSpace(strings.Join(lines, "\n"))
	} else {
		body = strings.Join(strings.Fields(body), " ")
	}
	return truncate(body, maxLen)
}
