// Package scanner enumerates menu-bar status items across every running app
// via the accessibility API and resolves their backing windows and icons.
// A scan is best effort and never fails as a whole: owners that refuse
// accessibility queries simply contribute no items.
package scanner

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/icon"
	"github.com/tidybar/tidybar/internal/model"
	"github.com/tidybar/tidybar/internal/placement"
	"github.com/tidybar/tidybar/internal/platform"
)

// Status items outside these bounds are menu-bar furniture (full-width
// backdrops, hairline separators), not real items.
const (
	minItemWidth  = 3.0
	maxItemWidth  = 180.0
	minItemHeight = 3.0
	maxItemHeight = 50.0
)

const (
	// runningAppsTTL bounds how stale the running-app list may be. App
	// launches are rare relative to scan frequency.
	runningAppsTTL = 2 * time.Second
	// rootProbeTTL caches per-app "has no extras root" verdicts; probing
	// every running app's accessibility tree each scan is the expensive part.
	rootProbeTTL = 30 * time.Second

	// minIconOverlap is the share of an item's frame a layer-25 window must
	// cover to be matched as the item's backing window.
	minIconOverlap = 0.5

	maxTreeDepth = 4
)

// canonicalOwners host most system status items and are probed every scan,
// bypassing the negative root cache.
var canonicalOwners = []string{
	"com.apple.controlcenter",
	"com.apple.systemuiserver",
}

const runningAppsKey = "apps"

// Accessibility identifiers of the divider items this process publishes.
const (
	DividerHiddenID = "tidybar.divider.hidden"
	DividerAlwaysID = "tidybar.divider.always"
)

// Scanner produces ItemSnapshot lists from the live menu bar.
type Scanner struct {
	provider *platform.Provider
	log      zerolog.Logger

	apps  *expirable.LRU[string, []platform.AppInfo]
	roots *expirable.LRU[string, bool]

	// OwnControlTokens are identifier fragments of this process's own
	// status items (divider controls), excluded from scan results.
	OwnControlTokens []string
}

// New creates a scanner over the given provider.
func New(p *platform.Provider, log zerolog.Logger) *Scanner {
	return &Scanner{
		provider:         p,
		log:              log.With().Str("component", "scanner").Logger(),
		apps:             expirable.NewLRU[string, []platform.AppInfo](1, nil, runningAppsTTL),
		roots:            expirable.NewLRU[string, bool](512, nil, rootProbeTTL),
		OwnControlTokens: []string{"tidybar."},
	}
}

// Options tunes one scan.
type Options struct {
	// Icons enables the window-capture pass. Backing windows are matched
	// regardless; only the capture itself is gated.
	Icons bool
	// Owners restricts the scan to the given bundle ids. Empty means every
	// candidate owner.
	Owners []string
}

// Scan walks every candidate owner's accessibility tree and returns the
// current status items, sorted by x position with unique ids assigned.
func (s *Scanner) Scan(opts Options) []model.ItemSnapshot {
	displays, err := s.provider.Windows.Displays()
	if err != nil {
		s.log.Warn().Err(err).Msg("display enumeration failed")
	}

	owners := opts.Owners
	if len(owners) == 0 {
		owners = s.owners()
	}
	var items []model.ItemSnapshot
	for _, owner := range owners {
		items = append(items, s.scanOwner(owner, displays)...)
	}

	s.matchWindows(items, opts.Icons)
	model.AssignIDs(items)
	return items
}

// owners returns the bundle ids worth probing this scan: the canonical
// system hosts, our own bundle, then every other running app.
func (s *Scanner) owners() []string {
	out := make([]string, 0, 16)
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, owner := range canonicalOwners {
		add(owner)
	}
	add(s.provider.OwnBundleID)

	apps, ok := s.apps.Get(runningAppsKey)
	if !ok {
		var err error
		apps, err = s.provider.Reader.RunningApps()
		if err != nil {
			s.log.Warn().Err(err).Msg("running-app enumeration failed")
			apps = nil
		}
		s.apps.Add(runningAppsKey, apps)
	}
	for _, a := range apps {
		add(a.BundleID)
	}
	return out
}

func (s *Scanner) scanOwner(owner string, displays []geometry.Display) []model.ItemSnapshot {
	root, ok := s.ownerRoot(owner)
	if !ok {
		return nil
	}

	pid := 0
	var items []model.ItemSnapshot
	index := 0
	walkStatusItems(root, 0, func(el platform.Element) {
		if pid == 0 {
			pid = el.PID()
		}
		snap, ok := s.readItem(owner, el, index, displays)
		index++
		if !ok {
			return
		}
		snap.OwnerPID = pid
		items = append(items, snap)
	})
	return items
}

// ownerRoot resolves an owner's extras root, falling back to the generic
// menu-bar root for the canonical hosts and our own bundle. Negative
// verdicts for ordinary apps are cached so their trees aren't re-probed
// every scan.
func (s *Scanner) ownerRoot(owner string) (platform.Element, bool) {
	privileged := owner == s.provider.OwnBundleID
	for _, c := range canonicalOwners {
		if owner == c {
			privileged = true
		}
	}

	if !privileged {
		if has, ok := s.roots.Get(owner); ok && !has {
			return nil, false
		}
	}

	root, ok := s.provider.Reader.ExtrasRoot(owner)
	if !ok && privileged {
		root, ok = s.provider.Reader.MenuBarRoot(owner)
	}
	if !privileged {
		s.roots.Add(owner, ok)
	}
	return root, ok
}

// walkStatusItems visits every menu-bar-item element under root. Items are
// leaves of this walk; their menu subtrees are not descended into.
func walkStatusItems(el platform.Element, depth int, visit func(platform.Element)) {
	if depth > maxTreeDepth {
		return
	}
	for _, child := range el.Children() {
		if role, ok := child.Role(); ok && role == platform.RoleMenuBarItem {
			visit(child)
			continue
		}
		walkStatusItems(child, depth+1, visit)
	}
}

func (s *Scanner) readItem(owner string, el platform.Element, index int, displays []geometry.Display) (model.ItemSnapshot, bool) {
	frame, ok := platform.ElementFrame(el)
	if !ok {
		return model.ItemSnapshot{}, false
	}
	if frame.Width <= minItemWidth || frame.Width >= maxItemWidth ||
		frame.Height <= minItemHeight || frame.Height >= maxItemHeight {
		return model.ItemSnapshot{}, false
	}

	snap := model.ItemSnapshot{
		Handle:  el,
		Frame:   frame,
		FrameBL: geometry.ToBottomLeft(displays, frame),
		Owner:   owner,
		Index:   index,
	}
	if v, ok := el.Attr(platform.AttrIdentifier); ok {
		snap.Identifier, _ = v.AsString()
	}
	if v, ok := el.Attr(platform.AttrTitle); ok {
		snap.Title, _ = v.AsString()
	}
	if v, ok := el.Attr(platform.AttrDescription); ok {
		snap.Detail, _ = v.AsString()
	}

	if owner == s.provider.OwnBundleID {
		if s.isOwnControl(snap.Identifier) {
			return model.ItemSnapshot{}, false
		}
		// Our own process also exposes its application menus; everything in
		// the left half of the display is menu, not status item.
		if disp, ok := geometry.DisplayForRect(displays, frame); ok &&
			frame.MidX() < disp.Frame.MidX() {
			return model.ItemSnapshot{}, false
		}
	}
	return snap, true
}

func (s *Scanner) isOwnControl(identifier string) bool {
	for _, tok := range s.OwnControlTokens {
		if tok != "" && strings.Contains(identifier, tok) {
			return true
		}
	}
	return false
}

// Dividers locates this process's divider control items in its own
// accessibility tree and returns their frames. Ordinary scans exclude them;
// placement classification needs them.
func (s *Scanner) Dividers() placement.DividerFrames {
	root, ok := s.ownerRoot(s.provider.OwnBundleID)
	if !ok {
		return placement.DividerFrames{}
	}
	var d placement.DividerFrames
	walkStatusItems(root, 0, func(el platform.Element) {
		v, ok := el.Attr(platform.AttrIdentifier)
		if !ok {
			return
		}
		id, _ := v.AsString()
		if id != DividerHiddenID && id != DividerAlwaysID {
			return
		}
		frame, ok := platform.ElementFrame(el)
		if !ok {
			return
		}
		if id == DividerHiddenID {
			d.Hidden, d.HiddenKnown = frame, true
		} else {
			d.Always, d.AlwaysKnown = frame, true
		}
	})
	return d
}

// matchWindows resolves each item's backing status window by best frame
// overlap and, when capture is requested and permitted, captures and cleans
// its icon.
func (s *Scanner) matchWindows(items []model.ItemSnapshot, capture bool) {
	windows, err := s.provider.Windows.Windows(platform.StatusWindowLayer)
	if err != nil {
		s.log.Debug().Err(err).Msg("status window enumeration failed")
		return
	}
	if len(windows) == 0 {
		return
	}
	capture = capture && s.provider.Permissions.ScreenRecordingGranted()

	for i := range items {
		win, ok := bestOverlap(windows, items[i].Frame)
		if !ok {
			continue
		}
		items[i].WindowID = win.ID
		if !capture {
			continue
		}
		img, err := s.provider.Windows.CaptureWindow(win.ID)
		if err != nil {
			s.log.Debug().Err(err).Int("window", win.ID).Msg("window capture failed")
			continue
		}
		if icon.Suspicious(img) {
			continue
		}
		items[i].Icon = icon.RemoveBackground(img)
	}
}

// bestOverlap picks the window covering the largest share of frame, if that
// share reaches the overlap floor.
func bestOverlap(windows []platform.WindowInfo, frame geometry.Rect) (platform.WindowInfo, bool) {
	area := frame.Area()
	if area <= 0 {
		return platform.WindowInfo{}, false
	}
	var best platform.WindowInfo
	bestShare := 0.0
	for _, w := range windows {
		share := w.Bounds.Intersection(frame).Area() / area
		if share > bestShare {
			best, bestShare = w, share
		}
	}
	if bestShare < minIconOverlap {
		return platform.WindowInfo{}, false
	}
	return best, true
}
