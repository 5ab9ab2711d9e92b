package core

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByTimestamp SortField = "timestamp"
	SortByApp       SortField = "app"
	SortByUrgency   SortField = "urgency"
	SortByID        SortField = "id"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions returns newest first.
func DefaultSortOptions() SortOptions {
	return SortOptions{Field: SortByTimestamp, Order: SortDesc}
}

// Sort sorts notifications in place. Ties fall back to ID so the order is
// stable across runs.
func Sort(notifications []model.Notification, opts SortOptions) {
	slices.SortStableFunc(notifications, func(a, b model.Notification) int {
		var c int
		switch opts.Field {
		case SortByApp:
			c = strings.Compare(strings.ToLower(a.AppName), strings.ToLower(b.AppName))
		case SortByUrgency:
			c = cmp.Compare(a.Urgency, b.Urgency)
		case SortByID:
			c = cmp.Compare(a.ID, b.ID)
		default:
			c = cmp.Compare(a.CreatedAt, b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if opts.Order == SortDesc {
			return -c
		}
		return c
	})
}

// ParseSortField parses a sort field, defaulting to timestamp.
func ParseSortField(s string) SortField {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "app", "appname", "a":
		return SortByApp
	case "urgency", "u":
		return SortByUrgency
	case "id", "i":
		return SortByID
	default:
		return SortByTimestamp
	}
}

// ParseSortOrder parses a sort order, defaulting to descending.
func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "a":
		return SortAsc
	default:
		return SortDesc
	}
}
