package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidybar/tidybar/internal/geometry"
)

func item(owner string, x float64, index int) ItemSnapshot {
	return ItemSnapshot{
		Owner: owner,
		Index: index,
		Frame: geometry.Rect{X: x, Y: 0, Width: 30, Height: 22},
	}
}

func TestBuildID_PriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		in   ItemSnapshot
		want string
	}{
		{
			"identifier wins",
			ItemSnapshot{Identifier: "com.vendor.widget", Title: "Widget", Detail: "Widget: on"},
			"com.vendor.widget",
		},
		{
			"module heuristic",
			ItemSnapshot{Title: "NowPlayingWidget v2"},
			"now-playing",
		},
		{
			"detail leading token",
			ItemSnapshot{Detail: "Wi-Fi: connected, 3 bars", Title: "ignored"},
			"Wi-Fi",
		},
		{
			"title leading token",
			ItemSnapshot{Title: "Battery 84%"},
			"Battery",
		},
		{
			"owner index fallback",
			ItemSnapshot{Owner: "com.example.app", Index: 3},
			"com.example.app::statusItem:3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildID(tt.in))
		})
	}
}

func TestAssignIDs_UniqueWithinScan(t *testing.T) {
	items := []ItemSnapshot{
		{Owner: "com.a", Title: "Sync", Frame: geometry.Rect{X: 10, Width: 30, Height: 22}},
		{Owner: "com.a", Title: "Sync", Frame: geometry.Rect{X: 50, Width: 30, Height: 22}, Index: 1},
		{Owner: "com.a", Title: "Sync", Frame: geometry.Rect{X: 90, Width: 30, Height: 22}, Index: 2},
	}
	AssignIDs(items)

	seen := map[string]bool{}
	for _, it := range items {
		assert.False(t, seen[it.ID], "duplicate id %q", it.ID)
		seen[it.ID] = true
	}
	assert.Equal(t, "Sync", items[0].ID)
	assert.Equal(t, "Sync#2", items[1].ID)
	assert.Equal(t, "Sync#3", items[2].ID)
}

func TestAssignIDs_SortsByXThenOwner(t *testing.T) {
	items := []ItemSnapshot{
		item("com.two", 100, 0),
		item("com.one", 50, 0),
	}
	AssignIDs(items)
	assert.Equal(t, "com.one", items[0].Owner)
	assert.Equal(t, "com.two", items[1].Owner)

	// Same x: owner breaks the tie.
	items = []ItemSnapshot{
		item("com.zz", 50, 0),
		item("com.aa", 50, 0),
	}
	AssignIDs(items)
	assert.Equal(t, "com.aa", items[0].Owner)
}

func TestBaseID(t *testing.T) {
	assert.Equal(t, "Sync", BaseID("Sync#2"))
	assert.Equal(t, "Sync", BaseID("Sync"))
	assert.Equal(t, "item#tag", BaseID("item#tag"))
	assert.Equal(t, "#3", BaseID("#3"))
	assert.True(t, SameBaseID("Sync", "Sync#3"))
	assert.False(t, SameBaseID("Sync", "Drive#2"))
}

func TestNonHideableReason(t *testing.T) {
	clock := ItemSnapshot{Owner: "com.apple.controlcenter", Identifier: "com.apple.menuextra.clock", Title: "Clock"}
	reason, blocked := NonHideableReason(clock)
	assert.True(t, blocked)
	assert.Contains(t, reason, "Clock")

	cc := ItemSnapshot{Owner: "com.apple.controlcenter", Identifier: "BentoBox"}
	_, blocked = NonHideableReason(cc)
	assert.True(t, blocked)

	// Third-party item with a clock-ish name is not system-owned.
	thirdParty := ItemSnapshot{Owner: "com.example.worldclock", Title: "Clock"}
	_, blocked = NonHideableReason(thirdParty)
	assert.False(t, blocked)
}
