package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// LookupByID finds a notification by bus ID or ULID. Returns nil if not found.
func LookupByID(notifications []model.Notification, ref string) *model.Notification {
	id, numeric := parseID(ref)
	for i := range notifications {
		n := &notifications[i]
		if numeric && n.ID == id {
			return n
		}
		if strings.EqualFold(n.UID, ref) {
			return n
		}
	}
	return nil
}

// LookupByIndex finds a notification by its 1-based position.
func LookupByIndex(notifications []model.Notification, index int) *model.Notification {
	idx := index - 1
	if idx < 0 || idx >= len(notifications) {
		return nil
	}
	return &notifications[idx]
}

// ParseIDs parses command line ID arguments, one per argument or comma
// separated within one.
func ParseIDs(args []string) ([]uint64, error) {
	var ids []uint64
	for _, arg := range args {
		for part := range strings.SplitSeq(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, ok := parseID(part)
			if !ok {
				return nil, fmt.Errorf("invalid notification id: %s", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// Search returns notifications whose summary, body or app name contains
// term, case-insensitively.
func Search(notifications []model.Notification, term string) []model.Notification {
	if term == "" {
		return notifications
	}

	term = strings.ToLower(term)
	var result []model.Notification
	for _, n := range notifications {
		if strings.Contains(strings.ToLower(n.Summary), term) ||
			strings.Contains(strings.ToLower(n.Body), term) ||
			strings.Contains(strings.ToLower(n.AppName), term) {
			result = append(result, n)
		}
	}
	return result
}

// UniqueApps returns the distinct app names, sorted case-insensitively.
func UniqueApps(notifications []model.Notification) []string {
	seen := make(map[string]bool)
	var apps []string
	for _, n := range notifications {
		if n.AppName != "" && !seen[n.AppName] {
			seen[n.AppName] = true
			apps = append(apps, n.AppName)
		}
	}
	slices.SortFunc(apps, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return apps
}
