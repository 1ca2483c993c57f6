// Package fake provides an in-memory platform.Provider backed by a scripted
// menu bar, so the scanner, resolver, and engines can be tested without an
// OS. Drags move items, AX actions open scripted menus, and every synthesized
// event is recorded for assertions.
package fake

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/platform"
)

// Item is one scripted status item.
type Item struct {
	Owner      string
	PID        int
	Identifier string
	Title      string
	Detail     string
	Frame      geometry.Rect // top-left-origin global space
	WindowID   int
	Actions    []string
	MenuOpen   bool
	Gone       bool // removed from the bar, skipped by roots
}

// DragRecord captures one synthesized drag.
type DragRecord struct {
	From, To geometry.Point
	Opts     platform.DragOptions
}

// ClickRecord captures one synthesized click.
type ClickRecord struct {
	At     geometry.Point
	Button platform.MouseButton
}

// Provider is a scriptable implementation of every platform interface.
type Provider struct {
	mu sync.Mutex

	Apps          []platform.AppInfo
	Items         []*Item
	ExtrasOwners  map[string]bool // owners exposing an extras root
	MenuBarOwners map[string]bool // owners exposing only a generic menu-bar root
	DisplayList   []geometry.Display

	StatusWindowList []platform.WindowInfo
	Captures         map[int]image.Image
	PopupWindowList  []platform.WindowInfo

	Cursor        geometry.Point
	Tracking      bool
	SinceInput    time.Duration
	Dark          bool
	AXTrusted     bool
	ScreenGranted bool

	Drags  []DragRecord
	Clicks []ClickRecord
	Keys   []string

	// OnDrag replaces the default drag behavior (move the item under the
	// start point so its center lands on the end point).
	OnDrag func(from, to geometry.Point, opts platform.DragOptions)
	// OnPerform intercepts AX actions; return handled=true to skip the
	// default (open the item's menu on press/show-menu).
	OnPerform func(it *Item, action string) (handled bool, err error)

	WindowsErr     error
	RunningAppsErr error
}

// New returns a provider with one 1920x1080 display and both permissions
// granted.
func New() *Provider {
	return &Provider{
		ExtrasOwners:  make(map[string]bool),
		MenuBarOwners: make(map[string]bool),
		Captures:      make(map[int]image.Image),
		DisplayList: []geometry.Display{
			{ID: 1, Frame: geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		},
		AXTrusted:     true,
		ScreenGranted: true,
		SinceInput:    time.Hour,
	}
}

// Provider bundles the fake into a platform.Provider.
func (p *Provider) Provider(ownBundleID string) *platform.Provider {
	return &platform.Provider{
		Reader:      p,
		Windows:     p,
		Input:       p,
		UI:          p,
		Permissions: p,
		OwnBundleID: ownBundleID,
	}
}

// AddItem registers an item and makes its owner expose an extras root.
func (p *Provider) AddItem(it *Item) *Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Items = append(p.Items, it)
	p.ExtrasOwners[it.Owner] = true
	found := false
	for _, a := range p.Apps {
		if a.BundleID == it.Owner {
			found = true
			break
		}
	}
	if !found {
		p.Apps = append(p.Apps, platform.AppInfo{BundleID: it.Owner, PID: it.PID})
	}
	return it
}

// ItemByIdentifier finds a scripted item by its accessibility identifier.
func (p *Provider) ItemByIdentifier(id string) *Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.Items {
		if it.Identifier == id {
			return it
		}
	}
	return nil
}

// --- platform.MenuBarReader ---

func (p *Provider) RunningApps() ([]platform.AppInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.RunningAppsErr != nil {
		return nil, p.RunningAppsErr
	}
	return append([]platform.AppInfo(nil), p.Apps...), nil
}

func (p *Provider) AppRunning(bundleID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.Apps {
		if a.BundleID == bundleID {
			return true
		}
	}
	return false
}

func (p *Provider) ExtrasRoot(bundleID string) (platform.Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.AXTrusted || !p.ExtrasOwners[bundleID] {
		return nil, false
	}
	return &rootElement{p: p, owner: bundleID}, true
}

func (p *Provider) MenuBarRoot(bundleID string) (platform.Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.AXTrusted || (!p.MenuBarOwners[bundleID] && !p.ExtrasOwners[bundleID]) {
		return nil, false
	}
	return &rootElement{p: p, owner: bundleID}, true
}

// --- platform.WindowServer ---

func (p *Provider) Windows(layer int) ([]platform.WindowInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WindowsErr != nil {
		return nil, p.WindowsErr
	}
	var src []platform.WindowInfo
	switch layer {
	case platform.StatusWindowLayer:
		src = p.StatusWindowList
	case platform.PopupWindowLayer:
		src = p.PopupWindowList
	}
	return append([]platform.WindowInfo(nil), src...), nil
}

func (p *Provider) CaptureWindow(windowID int) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ScreenGranted {
		return nil, fmt.Errorf("screen recording not granted")
	}
	img, ok := p.Captures[windowID]
	if !ok {
		return nil, fmt.Errorf("no capture for window %d", windowID)
	}
	return img, nil
}

func (p *Provider) Displays() ([]geometry.Display, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]geometry.Display(nil), p.DisplayList...), nil
}

func (p *Provider) WindowAt(pt geometry.Point, layer int) (platform.WindowInfo, bool) {
	windows, err := p.Windows(layer)
	if err != nil {
		return platform.WindowInfo{}, false
	}
	for _, w := range windows {
		if w.Bounds.Contains(pt) {
			return w, true
		}
	}
	return platform.WindowInfo{}, false
}

// --- platform.Input ---

func (p *Provider) MoveCursor(pt geometry.Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cursor = pt
	return nil
}

func (p *Provider) Click(pt geometry.Point, button platform.MouseButton) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cursor = pt
	p.Clicks = append(p.Clicks, ClickRecord{At: pt, Button: button})
	return nil
}

func (p *Provider) Drag(from, to geometry.Point, opts platform.DragOptions) error {
	p.mu.Lock()
	p.Drags = append(p.Drags, DragRecord{From: from, To: to, Opts: opts})
	p.Cursor = to
	hook := p.OnDrag
	p.mu.Unlock()

	if hook != nil {
		hook(from, to, opts)
		return nil
	}
	p.moveItemUnder(from, to)
	return nil
}

// moveItemUnder recenters the item whose frame contains from onto to,
// simulating the OS relayout after a command-drag.
func (p *Provider) moveItemUnder(from, to geometry.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.Items {
		if it.Gone || !it.Frame.Contains(from) {
			continue
		}
		it.Frame.X = to.X - it.Frame.Width/2
		it.Frame.Y = to.Y - it.Frame.Height/2
		return
	}
}

func (p *Provider) KeyPress(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Keys = append(p.Keys, key)
	if key == "escape" {
		for _, it := range p.Items {
			it.MenuOpen = false
		}
		p.PopupWindowList = nil
	}
	return nil
}

func (p *Provider) HideCursor() {}
func (p *Provider) ShowCursor() {}

func (p *Provider) CursorLocation() geometry.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Cursor
}

// --- platform.UIState ---

func (p *Provider) MenuTrackingActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Tracking
}

func (p *Provider) TimeSinceLastInput() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.SinceInput
}

func (p *Provider) DarkAppearance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Dark
}

// --- platform.Permissions ---

func (p *Provider) AccessibilityTrusted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.AXTrusted
}

func (p *Provider) ScreenRecordingGranted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ScreenGranted
}

func (p *Provider) Request() {}

// OpenMenu marks an item's menu open and publishes a popup window for it.
func (p *Provider) OpenMenu(it *Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it.MenuOpen = true
	p.PopupWindowList = append(p.PopupWindowList, platform.WindowInfo{
		ID:    90000 + len(p.PopupWindowList),
		PID:   it.PID,
		Owner: it.Owner,
		Layer: platform.PopupWindowLayer,
		Bounds: geometry.Rect{
			X: it.Frame.X, Y: it.Frame.MaxY(),
			Width: 200, Height: 300,
		},
	})
}

// CloseMenus closes every scripted menu and removes popup windows.
func (p *Provider) CloseMenus() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.Items {
		it.MenuOpen = false
	}
	p.PopupWindowList = nil
}
