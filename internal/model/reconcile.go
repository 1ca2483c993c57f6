package model

import (
	"math"
	"strings"

	"github.com/tidybar/tidybar/internal/geometry"
)

// TrackedItem is what the manager remembers about an item whose scan id has
// gone missing: the last snapshot it resolved for that id.
type TrackedItem struct {
	ID         string
	Owner      string
	Identifier string
	Title      string
	Detail     string
	Index      int
	Frame      geometry.Rect
}

// Tracked builds a TrackedItem from a snapshot.
func Tracked(s ItemSnapshot) TrackedItem {
	return TrackedItem{
		ID:         s.ID,
		Owner:      s.Owner,
		Identifier: s.Identifier,
		Title:      s.Title,
		Detail:     s.Detail,
		Index:      s.Index,
		Frame:      s.Frame,
	}
}

// proximityLimit is how far an item's midpoint may have moved between scans
// and still be considered the same item on geometric evidence alone.
const proximityLimit = 220.0

// MatchDrifted finds the candidate most likely to be the tracked item after
// an identity drift (the tracked id resolves to nothing in the new scan).
// Matching is best-effort, in confidence order: accessibility identifier,
// detail/title leading token, positional index within the owner, geometric
// proximity. Returns the matched snapshot and true, or false when no
// candidate from the same owner is plausible.
func MatchDrifted(tracked TrackedItem, candidates []ItemSnapshot) (ItemSnapshot, bool) {
	var sameOwner []ItemSnapshot
	for _, c := range candidates {
		if c.Owner == tracked.Owner {
			sameOwner = append(sameOwner, c)
		}
	}
	if len(sameOwner) == 0 {
		return ItemSnapshot{}, false
	}

	if tracked.Identifier != "" {
		for _, c := range sameOwner {
			if c.Identifier == tracked.Identifier {
				return c, true
			}
		}
	}

	if tok := leadingToken(tracked.Detail); tok != "" {
		for _, c := range sameOwner {
			if strings.EqualFold(leadingToken(c.Detail), tok) {
				return c, true
			}
		}
	}
	if tok := leadingToken(tracked.Title); tok != "" {
		for _, c := range sameOwner {
			if strings.EqualFold(leadingToken(c.Title), tok) {
				return c, true
			}
		}
	}

	for _, c := range sameOwner {
		if c.Index == tracked.Index {
			return c, true
		}
	}

	trackedMid := tracked.Frame.MidX()
	best := ItemSnapshot{}
	bestDist := math.Inf(1)
	for _, c := range sameOwner {
		if d := math.Abs(c.MidX() - trackedMid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist <= proximityLimit {
		return best, true
	}
	return ItemSnapshot{}, false
}
