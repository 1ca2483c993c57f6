package platform

import (
	"time"

	"github.com/tidybar/tidybar/internal/geometry"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Modifier is a keyboard modifier held during a synthesized pointer event.
type Modifier int

// ModNone means no modifier held.
const ModNone Modifier = 0

const (
	ModCommand Modifier = 1 << iota
	ModShift
	ModOption
	ModControl
)

// AppInfo identifies a running application.
type AppInfo struct {
	BundleID string
	PID      int
}

// WindowInfo describes one window-server window.
type WindowInfo struct {
	ID     int
	PID    int
	Owner  string
	Layer  int
	Bounds geometry.Rect // top-left-origin global space
}

// StatusWindowLayer is the window-server layer status-item backing windows
// live on.
const StatusWindowLayer = 25

// PopupWindowLayer is the layer menus and other transient popups live on.
const PopupWindowLayer = 101

// DragOptions tunes a synthesized pointer drag.
type DragOptions struct {
	Button    MouseButton
	Modifiers Modifier
	Steps     int           // interpolation steps, 0 = default
	Duration  time.Duration // total drag animation time, 0 = default
}
