package shell

import (
	"regexp"
	"strings"
)

// PlayerWindowSelector builds a focuswindow selector matching any window
// whose class equals one of hints, ignoring case. It returns "" without hints.
func PlayerWindowSelector(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	quoted := make([]string, len(hints))
	for i, h := range hints {
		quoted[i] = regexp.QuoteMeta(h)
	}
	return "class:(?i)^(" + strings.Join(quoted, "|") + ")$"
}
