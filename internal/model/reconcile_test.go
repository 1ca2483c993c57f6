package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidybar/tidybar/internal/geometry"
)

func TestMatchDrifted_IdentifierFirst(t *testing.T) {
	tracked := TrackedItem{ID: "old", Owner: "com.a", Identifier: "com.a.widget", Index: 0}
	candidates := []ItemSnapshot{
		{Owner: "com.a", Identifier: "com.a.other", Index: 0},
		{Owner: "com.a", Identifier: "com.a.widget", Index: 5},
	}
	got, ok := MatchDrifted(tracked, candidates)
	assert.True(t, ok)
	assert.Equal(t, "com.a.widget", got.Identifier)
}

func TestMatchDrifted_TitleToken(t *testing.T) {
	tracked := TrackedItem{ID: "old", Owner: "com.a", Title: "Battery 84%"}
	candidates := []ItemSnapshot{
		{Owner: "com.a", Title: "Battery 79%", Index: 2},
		{Owner: "com.a", Title: "Volume", Index: 0},
	}
	got, ok := MatchDrifted(tracked, candidates)
	assert.True(t, ok)
	assert.Equal(t, 2, got.Index)
}

func TestMatchDrifted_IndexThenProximity(t *testing.T) {
	tracked := TrackedItem{
		ID: "old", Owner: "com.a", Index: 7,
		Frame: geometry.Rect{X: 500, Width: 30, Height: 22},
	}
	// No identifier/text evidence and no index match: nearest midpoint wins.
	candidates := []ItemSnapshot{
		{Owner: "com.a", Index: 1, Frame: geometry.Rect{X: 900, Width: 30, Height: 22}},
		{Owner: "com.a", Index: 2, Frame: geometry.Rect{X: 520, Width: 30, Height: 22}},
	}
	got, ok := MatchDrifted(tracked, candidates)
	assert.True(t, ok)
	assert.Equal(t, 2, got.Index)
}

func TestMatchDrifted_NoPlausibleMatch(t *testing.T) {
	tracked := TrackedItem{
		ID: "old", Owner: "com.a", Index: 3,
		Frame: geometry.Rect{X: 100, Width: 30, Height: 22},
	}
	// Different owner entirely.
	_, ok := MatchDrifted(tracked, []ItemSnapshot{
		{Owner: "com.b", Index: 3, Frame: geometry.Rect{X: 100, Width: 30, Height: 22}},
	})
	assert.False(t, ok)

	// Same owner but far beyond the proximity limit with no other evidence.
	_, ok = MatchDrifted(tracked, []ItemSnapshot{
		{Owner: "com.a", Index: 9, Frame: geometry.Rect{X: 2000, Width: 30, Height: 22}},
	})
	assert.False(t, ok)
}
