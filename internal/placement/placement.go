// Package placement classifies scanned status items into visible, hidden,
// and floating lanes by their position relative to the two divider items.
// Classification is total: every item gets a lane, and when divider geometry
// is unknown the resolver fails open to visible rather than hiding items it
// cannot place.
package placement

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/model"
)

// DividerFrames carries the current frames of the two divider items. A
// divider missing this scan (owner mid-relayout, item collapsed) is reported
// unknown and the resolver falls back to the last frame it saw.
type DividerFrames struct {
	Hidden      geometry.Rect
	HiddenKnown bool
	Always      geometry.Rect
	AlwaysKnown bool
}

// Lanes is one scan's worth of items bucketed by placement, each lane in
// ascending x order.
type Lanes struct {
	Visible  []model.ItemSnapshot `yaml:"visible" json:"visible"`
	Hidden   []model.ItemSnapshot `yaml:"hidden" json:"hidden"`
	Floating []model.ItemSnapshot `yaml:"floating" json:"floating"`
}

// Resolver assigns lanes. It is owned by the manager's run loop and is not
// safe for concurrent use.
type Resolver struct {
	log zerolog.Logger

	pending      map[string]model.Placement
	alwaysHidden map[string]bool

	lastHidden   geometry.Rect
	lastHiddenOK bool
	lastAlways   geometry.Rect
	lastAlwaysOK bool
	alwaysOff    bool

	cacheSig uint64
	cache    Lanes
	cached   bool
}

// New creates an empty resolver. Until dividers are reported, everything
// resolves visible.
func New(log zerolog.Logger) *Resolver {
	return &Resolver{
		log:          log.With().Str("component", "placement").Logger(),
		pending:      make(map[string]model.Placement),
		alwaysHidden: make(map[string]bool),
	}
}

// SetDividers records divider geometry from the latest scan. Unknown sides
// keep the last frame seen.
func (r *Resolver) SetDividers(d DividerFrames) {
	if d.HiddenKnown {
		r.lastHidden = d.Hidden
		r.lastHiddenOK = true
	}
	if d.AlwaysKnown {
		r.lastAlways = d.Always
		r.lastAlwaysOK = true
	}
	r.cached = false
}

// SetAlwaysSection enables or disables the always-hidden divider. While
// disabled its corridor is ignored, as if the divider did not exist; the
// last-known frame is kept for re-enabling.
func (r *Resolver) SetAlwaysSection(enabled bool) {
	r.alwaysOff = !enabled
	r.cached = false
}

// SetAlwaysHidden replaces the set of item ids pinned to the floating lane
// regardless of position.
func (r *Resolver) SetAlwaysHidden(ids []string) {
	r.alwaysHidden = make(map[string]bool, len(ids))
	for _, id := range ids {
		r.alwaysHidden[id] = true
	}
	r.cached = false
}

// SetPending records an in-flight relocation's target lane for an item, so
// queries made while the OS settles report the intended placement instead of
// the stale position.
func (r *Resolver) SetPending(id string, p model.Placement) {
	r.pending[id] = p
	r.cached = false
}

// ClearPending drops an item's pending override.
func (r *Resolver) ClearPending(id string) {
	if _, ok := r.pending[id]; ok {
		delete(r.pending, id)
		r.cached = false
	}
}

// RemapPending moves a pending override to a new id after reconciliation.
func (r *Resolver) RemapPending(oldID, newID string) {
	if p, ok := r.pending[oldID]; ok {
		delete(r.pending, oldID)
		r.pending[newID] = p
		r.cached = false
	}
}

// Place resolves one item's lane. Priority: pending relocation override,
// always-hidden pin, then position against the divider corridors.
func (r *Resolver) Place(item model.ItemSnapshot) model.Placement {
	if p, ok := r.pending[item.ID]; ok {
		return p
	}
	if r.alwaysHidden[item.ID] {
		return model.PlacementFloating
	}
	return r.classify(item.MidX())
}

// Effective returns the divider frames classification currently runs
// against, with last-known fallbacks applied.
func (r *Resolver) Effective() DividerFrames {
	return DividerFrames{
		Hidden: r.lastHidden, HiddenKnown: r.lastHiddenOK,
		Always: r.lastAlways, AlwaysKnown: r.lastAlwaysOK && !r.alwaysOff,
	}
}

// classify fails open: until both dividers have been seen at least once
// (the always side only counting while its section is enabled), items stay
// visible rather than being hidden against half-known geometry.
func (r *Resolver) classify(m float64) model.Placement {
	if !r.lastHiddenOK {
		return model.PlacementVisible
	}
	if !r.lastAlwaysOK && !r.alwaysOff {
		return model.PlacementVisible
	}
	return Classify(r.Effective(), m)
}

// Classify buckets a midpoint against explicit divider frames. With both
// dividers known the bar's direction is discovered from their relative
// order; with one known a left-to-right bar is assumed (the hidden-only
// branch is what classification runs on while the always-hidden section is
// disabled); with none the item is visible. The Resolver additionally fails
// open to visible until it has seen each relevant divider at least once.
func Classify(d DividerFrames, m float64) model.Placement {
	h, a := d.Hidden.MidX(), d.Always.MidX()
	switch {
	case d.HiddenKnown && d.AlwaysKnown:
		if a <= h {
			// Left-to-right: floating corridor, hidden corridor, visible.
			if m < a {
				return model.PlacementFloating
			}
			if m < h {
				return model.PlacementHidden
			}
			return model.PlacementVisible
		}
		if m > a {
			return model.PlacementFloating
		}
		if m > h {
			return model.PlacementHidden
		}
		return model.PlacementVisible
	case d.HiddenKnown:
		if m < h {
			return model.PlacementHidden
		}
		return model.PlacementVisible
	case d.AlwaysKnown:
		if m < a {
			return model.PlacementFloating
		}
		return model.PlacementVisible
	default:
		return model.PlacementVisible
	}
}

// Lanes buckets a scan result. The computation is memoized on a signature of
// the items and resolver state, so repeated queries against an unchanged bar
// are free.
func (r *Resolver) Lanes(items []model.ItemSnapshot) Lanes {
	sig := r.signature(items)
	if r.cached && sig == r.cacheSig {
		return r.cache
	}

	var out Lanes
	for _, it := range items {
		switch r.Place(it) {
		case model.PlacementHidden:
			out.Hidden = append(out.Hidden, it)
		case model.PlacementFloating:
			out.Floating = append(out.Floating, it)
		default:
			out.Visible = append(out.Visible, it)
		}
	}

	r.cacheSig = sig
	r.cache = out
	r.cached = true
	return out
}

func (r *Resolver) signature(items []model.ItemSnapshot) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeF := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	writeS := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	for _, it := range items {
		writeS(it.ID)
		writeF(it.Frame.X)
		writeF(it.Frame.Width)
	}
	writeF(r.lastHidden.X)
	writeF(r.lastAlways.X)
	if r.lastHiddenOK {
		h.Write([]byte{1})
	}
	if r.lastAlwaysOK {
		h.Write([]byte{2})
	}
	if r.alwaysOff {
		h.Write([]byte{3})
	}

	keys := make([]string, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeS(k)
		h.Write([]byte{byte(r.pending[k])})
	}

	pins := make([]string, 0, len(r.alwaysHidden))
	for k := range r.alwaysHidden {
		pins = append(pins, k)
	}
	sort.Strings(pins)
	for _, k := range pins {
		writeS(k)
	}
	return h.Sum64()
}
