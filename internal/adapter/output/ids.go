package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// IDsFormatter writes notification IDs, one per line, for piping into
// hyprbarctl read.
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format implements Formatter.
func (f *IDsFormatter) Format(w io.Writer, notifications []model.Notification) error {
	for _, n := range notifications {
		if _, err := fmt.Fprintln(w, n.ID); err != nil {
			return err
		}
	}
	return nil
}
