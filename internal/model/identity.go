package model

import (
	"fmt"
	"sort"
	"strings"
)

// moduleNames maps known accessibility-identifier fragments to canonical
// short names for widgets whose identifiers are verbose or versioned. First
// match wins in table order.
var moduleNames = []struct {
	fragment string
	name     string
}{
	{"NowPlaying", "now-playing"},
	{"now playing", "now-playing"},
	{"FocusModes", "focus-modes"},
	{"ScreenMirroring", "screen-mirroring"},
}

// BuildID constructs a synthetic identity for an item. Priority order:
// accessibility identifier, known module-name heuristics, leading token of
// detail text, leading token of title text, then an owner+index fallback.
// The result is not guaranteed stable across relayouts or app relaunches;
// reconciliation exists because of that.
func BuildID(s ItemSnapshot) string {
	if id := strings.TrimSpace(s.Identifier); id != "" {
		return id
	}
	for _, m := range moduleNames {
		if containsFold(s.Title, m.fragment) || containsFold(s.Detail, m.fragment) {
			return m.name
		}
	}
	if tok := leadingToken(s.Detail); tok != "" {
		return tok
	}
	if tok := leadingToken(s.Title); tok != "" {
		return tok
	}
	return fmt.Sprintf("%s::statusItem:%d", s.Owner, s.Index)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// leadingToken returns the first whitespace-delimited token of s, stripped
// of trailing punctuation. Detail strings like "Wi-Fi: connected" should
// yield "Wi-Fi", not the whole mutable sentence.
func leadingToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(fields[0], ":,;")
}

// SortItems orders a scan result deterministically: x-position ascending,
// then owner, status-item index, identifier, title, detail as tie-breakers.
func SortItems(items []ItemSnapshot) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Frame.X != b.Frame.X {
			return a.Frame.X < b.Frame.X
		}
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		if a.Identifier != b.Identifier {
			return a.Identifier < b.Identifier
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.Detail < b.Detail
	})
}

// BaseID strips the "#N" uniqueness suffix AssignIDs appends to duplicate
// ids. Ids without a numeric suffix pass through unchanged.
func BaseID(id string) string {
	i := strings.LastIndex(id, "#")
	if i <= 0 || i == len(id)-1 {
		return id
	}
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}
	return id[:i]
}

// SameBaseID reports whether two ids share a base identity, differing at
// most in their uniqueness suffix.
func SameBaseID(a, b string) bool {
	return BaseID(a) == BaseID(b)
}

// AssignIDs sorts items deterministically and assigns final identities,
// appending "#N" to the 2nd and later occurrences of a structurally
// identical id so ids are unique within the scan.
func AssignIDs(items []ItemSnapshot) {
	SortItems(items)
	seen := make(map[string]int, len(items))
	for i := range items {
		base := BuildID(items[i])
		seen[base]++
		if n := seen[base]; n > 1 {
			items[i].ID = fmt.Sprintf("%s#%d", base, n)
		} else {
			items[i].ID = base
		}
	}
}
