package model

import "strings"

// nonHideableTokens match essential system items that must never be moved
// out of the visible bucket: the clock and the Control Center entry point.
// Identifier matching is tried first because AX identifiers are not
// localized; the title/detail fallbacks are fuzzy and known to be fragile on
// non-English systems.
var nonHideableTokens = []string{
	"clock",
	"bentobox", // Control Center's internal module name
	"control center",
	"controlcenter",
}

// NonHideableReason reports whether the item is refused for any non-visible
// placement, and a human-readable reason when it is. This is a guardrail
// against breaking essential system UI, not an error.
func NonHideableReason(s ItemSnapshot) (string, bool) {
	if s.Owner != "com.apple.controlcenter" && s.Owner != "com.apple.systemuiserver" {
		return "", false
	}
	for _, field := range []string{s.Identifier, s.Title, s.Detail} {
		lower := strings.ToLower(field)
		for _, tok := range nonHideableTokens {
			if strings.Contains(lower, tok) {
				return "system item \"" + displayName(s) + "\" cannot be hidden", true
			}
		}
	}
	return "", false
}

func displayName(s ItemSnapshot) string {
	switch {
	case s.Title != "":
		return s.Title
	case s.Identifier != "":
		return s.Identifier
	default:
		return s.Owner
	}
}
