package platform

import (
	"image"
	"time"

	"github.com/tidybar/tidybar/internal/geometry"
)

// Common accessibility attribute and action names the engine reads.
const (
	AttrIdentifier  = "AXIdentifier"
	AttrTitle       = "AXTitle"
	AttrDescription = "AXDescription"
	AttrPosition    = "AXPosition"
	AttrSize        = "AXSize"
	AttrExpanded    = "AXExpanded"
	AttrMenuShown   = "AXShownMenuUIElement"

	ActionPress    = "AXPress"
	ActionShowMenu = "AXShowMenu"
	ActionCancel   = "AXCancel"

	RoleMenuBarItem = "AXMenuBarItem"
	RoleMenu        = "AXMenu"
)

// Element is an opaque handle into one process's accessibility tree. All
// queries are fallible: a dead process or a stale handle yields the zero
// value and false, never a panic.
type Element interface {
	// Role returns the element's accessibility role.
	Role() (string, bool)
	// Attr decodes the named attribute through the validated AXValue layer.
	Attr(name string) (AXValue, bool)
	// Children enumerates child elements, nil when unavailable.
	Children() []Element
	// Actions lists the action names the element supports.
	Actions() []string
	// Perform executes an accessibility action on the element.
	Perform(action string) error
	// PID returns the owning process id, 0 if unknown.
	PID() int
}

// ElementFrame reads an element's on-screen rect (top-left-origin global
// space) from its position and size attributes.
func ElementFrame(el Element) (geometry.Rect, bool) {
	pv, ok := el.Attr(AttrPosition)
	if !ok {
		return geometry.Rect{}, false
	}
	p, ok := pv.AsPoint()
	if !ok {
		return geometry.Rect{}, false
	}
	sv, ok := el.Attr(AttrSize)
	if !ok {
		return geometry.Rect{}, false
	}
	s, ok := sv.AsSize()
	if !ok {
		return geometry.Rect{}, false
	}
	return geometry.Rect{X: p.X, Y: p.Y, Width: s.Width, Height: s.Height}, true
}

// MenuBarReader queries the accessibility trees of menu-bar-extras owners.
type MenuBarReader interface {
	// RunningApps lists currently running applications with bundle ids.
	RunningApps() ([]AppInfo, error)
	// AppRunning reports whether any running app has the given bundle id.
	AppRunning(bundleID string) bool
	// ExtrasRoot returns the app's "extras menu bar" accessibility root.
	ExtrasRoot(bundleID string) (Element, bool)
	// MenuBarRoot returns the app's generic menu-bar root, the fallback for
	// the canonical system hosts and our own bundle.
	MenuBarRoot(bundleID string) (Element, bool)
}

// WindowServer exposes window-server geometry and capture.
type WindowServer interface {
	// Windows lists on-screen windows on the given layer.
	Windows(layer int) ([]WindowInfo, error)
	// CaptureWindow captures one window's full image.
	CaptureWindow(windowID int) (image.Image, error)
	// Displays enumerates active displays.
	Displays() ([]geometry.Display, error)
	// WindowAt returns the topmost window whose bounds contain p, searching
	// the given layer only.
	WindowAt(p geometry.Point, layer int) (WindowInfo, bool)
}

// Input synthesizes pointer and keyboard events at the hardware event tap.
type Input interface {
	MoveCursor(p geometry.Point) error
	Click(p geometry.Point, button MouseButton) error
	Drag(from, to geometry.Point, opts DragOptions) error
	KeyPress(key string) error
	HideCursor()
	ShowCursor()
	// CursorLocation returns the current pointer position in top-left-origin
	// global space.
	CursorLocation() geometry.Point
}

// UIState answers heuristic questions about the current interaction state.
type UIState interface {
	// MenuTrackingActive reports whether the process's main run loop is in
	// the event-tracking mode menus use.
	MenuTrackingActive() bool
	// TimeSinceLastInput reports how long ago the user last produced any
	// pointer or keyboard event.
	TimeSinceLastInput() time.Duration
	// DarkAppearance reports whether the system appearance is dark, used to
	// namespace cached icons.
	DarkAppearance() bool
}

// Permissions reports and requests the OS permissions the engine degrades
// without.
type Permissions interface {
	AccessibilityTrusted() bool
	ScreenRecordingGranted() bool
	// Request triggers the OS permission prompts where possible.
	Request()
}
