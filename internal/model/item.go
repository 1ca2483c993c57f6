// Package model defines the status-item data model: immutable per-scan item
// snapshots, placement buckets, synthetic identity construction, and
// best-effort matching of items across scans where the OS gives us no stable
// handle to track them by.
package model

import (
	"fmt"
	"image"
	"strings"

	"github.com/tidybar/tidybar/internal/geometry"
)

// Placement is the bucket a status item belongs to.
type Placement int

const (
	// PlacementVisible items sit in the ordinary, always-shown stretch of
	// the menu bar.
	PlacementVisible Placement = iota
	// PlacementHidden items sit behind the hidden-section divider and are
	// revealed on demand.
	PlacementHidden
	// PlacementFloating items are pinned always-hidden; those additionally
	// flagged for the bar are rendered on the synthetic floating panel.
	PlacementFloating
)

func (p Placement) String() string {
	switch p {
	case PlacementVisible:
		return "visible"
	case PlacementHidden:
		return "hidden"
	case PlacementFloating:
		return "floating"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// ParsePlacement converts a flag value to a Placement.
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visible":
		return PlacementVisible, nil
	case "hidden":
		return PlacementHidden, nil
	case "floating", "always-hidden":
		return PlacementFloating, nil
	default:
		return PlacementVisible, fmt.Errorf("unknown placement: %q (expected visible, hidden, or floating)", s)
	}
}

// AXHandle is an opaque live reference into the owning process's
// accessibility tree. It is valid only while that process is running and the
// underlying element persists; an app relaunch invalidates it.
type AXHandle any

// ItemSnapshot is an immutable read of one status item at one instant.
type ItemSnapshot struct {
	// ID is the synthetic identity assigned by AssignIDs. Unique within one
	// scan result, not guaranteed stable across scans.
	ID string `yaml:"id" json:"id"`
	// WindowID is the window-server id of the item's backing window, zero
	// when it could not be resolved this scan.
	WindowID int `yaml:"window_id,omitempty" json:"window_id,omitempty"`
	// Handle is the live accessibility element for the item.
	Handle AXHandle `yaml:"-" json:"-"`
	// Frame is the on-screen rect in top-left-origin global space.
	Frame geometry.Rect `yaml:"frame" json:"frame"`
	// FrameBL is the same rect in bottom-left-origin display space.
	FrameBL geometry.Rect `yaml:"frame_bl" json:"frame_bl"`
	// Owner is the bundle identifier of the owning app.
	Owner string `yaml:"owner" json:"owner"`
	// OwnerPID is the owning process id, zero if unknown.
	OwnerPID int `yaml:"owner_pid,omitempty" json:"owner_pid,omitempty"`
	// Identifier is the element's accessibility identifier, if any.
	Identifier string `yaml:"identifier,omitempty" json:"identifier,omitempty"`
	// Title and Detail are textual hints used for identity fallback.
	Title  string `yaml:"title,omitempty" json:"title,omitempty"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
	// Index is the item's position among its owner's status items, in
	// discovery order.
	Index int `yaml:"index" json:"index"`
	// Icon is a captured bitmap, nil unless an icon pass ran and produced a
	// usable capture.
	Icon image.Image `yaml:"-" json:"-"`
}

// MidX returns the horizontal midpoint used for bucket classification.
func (s ItemSnapshot) MidX() float64 { return s.Frame.MidX() }
