package shell

import (
	"github.com/jmylchreest/hyprbar/internal/config"
)

// Edges is a set of screen edges.
type Edges struct {
	Top, Bottom, Left, Right bool
}

// Placement is where one toast window sits: the edges it is anchored to and
// its margin from each anchored edge.
type Placement struct {
	Anchor                   Edges
	Top, Bottom, Left, Right int
}

// StackPlacement places the index-th toast of a stack, 0 being the newest
// and closest to the anchor corner. Each toast takes nc.Height plus nc.Gap.
func StackPlacement(nc config.NotificationConfig, index int) Placement {
	along := nc.OffsetY + index*(nc.Height+nc.Gap)
	across := nc.OffsetX

	var p Placement
	switch config.Position(nc.Position) {
	case config.PositionTopLeft:
		p.Anchor = Edges{Top: true, Left: true}
		p.Top, p.Left = along, across
	case config.PositionTopCenter:
		p.Anchor = Edges{Top: true}
		p.Top = along
	case config.PositionBottomRight:
		p.Anchor = Edges{Bottom: true, Right: true}
		p.Bottom, p.Right = along, across
	case config.PositionBottomLeft:
		p.Anchor = Edges{Bottom: true, Left: true}
		p.Bottom, p.Left = along, across
	case config.PositionBottomCenter:
		p.Anchor = Edges{Bottom: true}
		p.Bottom = along
	default:
		p.Anchor = Edges{Top: true, Right: true}
		p.Top, p.Right = along, across
	}
	return p
}

// ExpiryFromConfig builds the toast expiry policy from the notification
// settings. Unset durations fall back to the defaults.
func ExpiryFromConfig(nc config.NotificationConfig) ExpiryPolicy {
	p := DefaultExpiryPolicy()
	if d := nc.Timeout.Duration(); d > 0 {
		p.Timeout = d
	}
	if d := nc.ActionTimeout.Duration(); d > 0 {
		p.ActionTimeout = d
	}
	return p
}
