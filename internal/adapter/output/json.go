package output

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// Record is the machine readable shape of a notification shared by the JSON
// and YAML formats.
type Record struct {
	ID           uint64         `json:"id" yaml:"id"`
	UID          string         `json:"uid" yaml:"uid"`
	AppName      string         `json:"app_name" yaml:"app_name"`
	AppIcon      string         `json:"app_icon,omitempty" yaml:"app_icon,omitempty"`
	Summary      string         `json:"summary" yaml:"summary"`
	Body         string         `json:"body,omitempty" yaml:"body,omitempty"`
	Urgency      string         `json:"urgency" yaml:"urgency"`
	Category     string         `json:"category,omitempty" yaml:"category,omitempty"`
	DesktopEntry string         `json:"desktop_entry,omitempty" yaml:"desktop_entry,omitempty"`
	Actions      []model.Action `json:"actions,omitempty" yaml:"actions,omitempty"`
	Created      time.Time      `json:"created" yaml:"created"`
	Closed       *time.Time     `json:"closed,omitempty" yaml:"closed,omitempty"`
	CloseReason  string         `json:"close_reason,omitempty" yaml:"close_reason,omitempty"`
	Read         bool           `json:"read" yaml:"read"`
}

// NewRecord converts a notification.
func NewRecord(n *model.Notification) Record {
	r := Record{
		ID:           n.ID,
		UID:          n.UID,
		AppName:      n.AppName,
		AppIcon:      n.AppIcon,
		Summary:      n.Summary,
		Body:         n.Body,
		Urgency:      n.UrgencyName(),
		Category:     n.Category,
		DesktopEntry: n.DesktopEntry,
		Actions:      n.Actions,
		Created:      n.CreatedTime(),
		Read:         n.Read,
	}
	if n.IsClosed() {
		closed := time.Unix(n.ClosedAt, 0)
		r.Closed = &closed
		r.CloseReason = n.CloseReason.String()
	}
	return r
}

func records(notifications []model.Notification) []Record {
	out := make([]Record, len(notifications))
	for i := range notifications {
		out[i] = NewRecord(&notifications[i])
	}
	return out
}

// JSONFormatter writes an indented JSON array.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, notifications []model.Notification) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records(notifications))
}

// YAMLFormatter writes a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format implements Formatter.
func (f *YAMLFormatter) Format(w io.Writer, notifications []model.Notification) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(records(notifications)); err != nil {
		return err
	}
	return encoder.Close()
}
