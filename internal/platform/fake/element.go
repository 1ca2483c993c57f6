package fake

import (
	"fmt"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/platform"
)

// rootElement is an owner's extras/menu-bar root; its children are the
// owner's live items.
type rootElement struct {
	p     *Provider
	owner string
}

func (r *rootElement) Role() (string, bool) { return "AXMenuBar", true }

func (r *rootElement) Attr(string) (platform.AXValue, bool) {
	return platform.AXValue{}, false
}

func (r *rootElement) Children() []platform.Element {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	var children []platform.Element
	for _, it := range r.p.Items {
		if it.Owner == r.owner && !it.Gone {
			children = append(children, &itemElement{p: r.p, it: it})
		}
	}
	return children
}

func (r *rootElement) Actions() []string { return nil }

func (r *rootElement) Perform(action string) error {
	return fmt.Errorf("unsupported action %q on menu bar root", action)
}

func (r *rootElement) PID() int { return 0 }

// itemElement is the live AX handle for one scripted item. Frames are read
// through the item pointer so a drag-induced move is visible to holders of
// an old handle, matching the OS behavior.
type itemElement struct {
	p  *Provider
	it *Item
}

func (e *itemElement) Role() (string, bool) { return platform.RoleMenuBarItem, true }

func (e *itemElement) Attr(name string) (platform.AXValue, bool) {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	switch name {
	case platform.AttrIdentifier:
		if e.it.Identifier == "" {
			return platform.AXValue{}, false
		}
		return platform.StringVal(e.it.Identifier), true
	case platform.AttrTitle:
		if e.it.Title == "" {
			return platform.AXValue{}, false
		}
		return platform.StringVal(e.it.Title), true
	case platform.AttrDescription:
		if e.it.Detail == "" {
			return platform.AXValue{}, false
		}
		return platform.StringVal(e.it.Detail), true
	case platform.AttrPosition:
		return platform.PointVal(geometry.Point{X: e.it.Frame.X, Y: e.it.Frame.Y}), true
	case platform.AttrSize:
		return platform.SizeVal(geometry.Size{Width: e.it.Frame.Width, Height: e.it.Frame.Height}), true
	case platform.AttrExpanded:
		return platform.BoolVal(e.it.MenuOpen), true
	case platform.AttrMenuShown:
		if !e.it.MenuOpen {
			return platform.AXValue{}, false
		}
		return platform.ElementVal(&menuElement{}), true
	default:
		return platform.AXValue{}, false
	}
}

func (e *itemElement) Children() []platform.Element {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	if e.it.MenuOpen {
		return []platform.Element{&menuElement{}}
	}
	return nil
}

func (e *itemElement) Actions() []string {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	if e.it.Actions != nil {
		return append([]string(nil), e.it.Actions...)
	}
	return []string{platform.ActionPress}
}

func (e *itemElement) Perform(action string) error {
	e.p.mu.Lock()
	hook := e.p.OnPerform
	e.p.mu.Unlock()

	if hook != nil {
		if handled, err := hook(e.it, action); handled {
			return err
		}
	}
	switch action {
	case platform.ActionPress, platform.ActionShowMenu:
		e.p.OpenMenu(e.it)
		return nil
	case platform.ActionCancel:
		e.p.CloseMenus()
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

func (e *itemElement) PID() int {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	return e.it.PID
}

// menuElement is the open menu child of an item.
type menuElement struct{}

func (m *menuElement) Role() (string, bool)                      { return platform.RoleMenu, true }
func (m *menuElement) Attr(string) (platform.AXValue, bool)      { return platform.AXValue{}, false }
func (m *menuElement) Children() []platform.Element              { return nil }
func (m *menuElement) Actions() []string                         { return []string{platform.ActionCancel} }
func (m *menuElement) Perform(action string) error               { return nil }
func (m *menuElement) PID() int                                  { return 0 }
