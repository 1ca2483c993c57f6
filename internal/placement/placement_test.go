package placement

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/model"
)

func item(id string, x float64) model.ItemSnapshot {
	return model.ItemSnapshot{
		ID:    id,
		Frame: geometry.Rect{X: x, Y: 2, Width: 30, Height: 22},
	}
}

func divider(x float64) geometry.Rect {
	return geometry.Rect{X: x, Y: 2, Width: 20, Height: 22}
}

func newResolver() *Resolver { return New(zerolog.Nop()) }

func TestPlace_FailsOpenWithoutDividers(t *testing.T) {
	r := newResolver()
	assert.Equal(t, model.PlacementVisible, r.Place(item("a", 100)))
	assert.Equal(t, model.PlacementVisible, r.Place(item("b", 1800)))
}

func TestPlace_LeftToRightCorridors(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{
		Always: divider(300), AlwaysKnown: true,
		Hidden: divider(500), HiddenKnown: true,
	})

	assert.Equal(t, model.PlacementFloating, r.Place(item("f", 100)))
	assert.Equal(t, model.PlacementHidden, r.Place(item("h", 400)))
	assert.Equal(t, model.PlacementVisible, r.Place(item("v", 700)))

	// An item whose midpoint sits exactly on a divider midpoint lands on the
	// right-hand side of the boundary.
	onAlways := item("edge", 310-15) // midpoint 310 == always divider midpoint
	assert.Equal(t, model.PlacementHidden, r.Place(onAlways))
}

func TestPlace_RightToLeftCorridors(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{
		Hidden: divider(400), HiddenKnown: true,
		Always: divider(800), AlwaysKnown: true,
	})

	assert.Equal(t, model.PlacementFloating, r.Place(item("f", 900)))
	assert.Equal(t, model.PlacementHidden, r.Place(item("h", 600)))
	assert.Equal(t, model.PlacementVisible, r.Place(item("v", 200)))
}

func TestPlace_DirectionRediscoveredPerScan(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{
		Always: divider(300), AlwaysKnown: true,
		Hidden: divider(500), HiddenKnown: true,
	})
	probe := item("p", 400)
	assert.Equal(t, model.PlacementHidden, r.Place(probe))

	// The dividers swap sides; the same position now reads mirrored.
	r.SetDividers(DividerFrames{
		Hidden: divider(300), HiddenKnown: true,
		Always: divider(500), AlwaysKnown: true,
	})
	assert.Equal(t, model.PlacementHidden, r.Place(probe))
	assert.Equal(t, model.PlacementFloating, r.Place(item("f2", 600)))
	assert.Equal(t, model.PlacementVisible, r.Place(item("v2", 200)))
}

func TestPlace_FailsOpenWithOneDividerUnseen(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{Hidden: divider(500), HiddenKnown: true})

	// Only one divider has ever been seen: nothing is hidden against
	// half-known geometry.
	assert.Equal(t, model.PlacementVisible, r.Place(item("h", 100)))
	assert.Equal(t, model.PlacementVisible, r.Place(item("v", 700)))

	// With the always-hidden section disabled the hidden divider splits the
	// bar two ways on its own.
	r.SetAlwaysSection(false)
	assert.Equal(t, model.PlacementHidden, r.Place(item("h", 100)))
	assert.Equal(t, model.PlacementVisible, r.Place(item("v", 700)))

	r.SetAlwaysSection(true)
	assert.Equal(t, model.PlacementVisible, r.Place(item("h", 100)))
}

func TestPlace_LastKnownDividerFallback(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{
		Always: divider(300), AlwaysKnown: true,
		Hidden: divider(500), HiddenKnown: true,
	})
	// Neither divider resolved this scan; the last frames still classify.
	r.SetDividers(DividerFrames{})

	assert.Equal(t, model.PlacementFloating, r.Place(item("f", 100)))
	assert.Equal(t, model.PlacementHidden, r.Place(item("h", 400)))
}

func TestPlace_PendingOverrideWins(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{
		Always: divider(300), AlwaysKnown: true,
		Hidden: divider(500), HiddenKnown: true,
	})
	it := item("a", 700)
	require.Equal(t, model.PlacementVisible, r.Place(it))

	r.SetPending("a", model.PlacementHidden)
	assert.Equal(t, model.PlacementHidden, r.Place(it))

	r.RemapPending("a", "a#2")
	assert.Equal(t, model.PlacementVisible, r.Place(it))
	assert.Equal(t, model.PlacementHidden, r.Place(item("a#2", 700)))

	r.ClearPending("a#2")
	assert.Equal(t, model.PlacementVisible, r.Place(item("a#2", 700)))
}

func TestPlace_AlwaysHiddenPin(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{
		Always: divider(300), AlwaysKnown: true,
		Hidden: divider(500), HiddenKnown: true,
	})
	r.SetAlwaysHidden([]string{"pinned"})

	assert.Equal(t, model.PlacementFloating, r.Place(item("pinned", 700)))

	// A pending relocation beats the pin while it is in flight.
	r.SetPending("pinned", model.PlacementVisible)
	assert.Equal(t, model.PlacementVisible, r.Place(item("pinned", 700)))
}

func TestSetAlwaysSection_DisablesFloatingCorridor(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{
		Always: divider(300), AlwaysKnown: true,
		Hidden: divider(500), HiddenKnown: true,
	})
	require.Equal(t, model.PlacementFloating, r.Place(item("f", 100)))

	r.SetAlwaysSection(false)
	assert.Equal(t, model.PlacementHidden, r.Place(item("f", 100)))
	assert.False(t, r.Effective().AlwaysKnown)

	// Re-enabling restores the remembered frame.
	r.SetAlwaysSection(true)
	assert.Equal(t, model.PlacementFloating, r.Place(item("f", 100)))
}

func TestLanes_BucketsAndMemoizes(t *testing.T) {
	r := newResolver()
	r.SetDividers(DividerFrames{
		Always: divider(300), AlwaysKnown: true,
		Hidden: divider(500), HiddenKnown: true,
	})
	items := []model.ItemSnapshot{
		item("f", 100),
		item("h", 400),
		item("v1", 700),
		item("v2", 900),
	}

	lanes := r.Lanes(items)
	require.Len(t, lanes.Visible, 2)
	require.Len(t, lanes.Hidden, 1)
	require.Len(t, lanes.Floating, 1)
	assert.Equal(t, "h", lanes.Hidden[0].ID)

	// Unchanged input hits the cache and agrees with itself.
	assert.Equal(t, lanes, r.Lanes(items))

	// State changes invalidate the memo.
	r.SetPending("v1", model.PlacementFloating)
	lanes = r.Lanes(items)
	assert.Len(t, lanes.Visible, 1)
	assert.Len(t, lanes.Floating, 2)
}
