package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var twoDisplays = []Display{
	{ID: 1, Frame: Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
	{ID: 2, Frame: Rect{X: 1920, Y: 200, Width: 1440, Height: 900}},
}

func TestDisplayForPoint_ExactContainment(t *testing.T) {
	d, ok := DisplayForPoint(twoDisplays, Point{X: 100, Y: 100})
	assert.True(t, ok)
	assert.Equal(t, 1, d.ID)

	d, ok = DisplayForPoint(twoDisplays, Point{X: 2000, Y: 500})
	assert.True(t, ok)
	assert.Equal(t, 2, d.ID)
}

func TestDisplayForPoint_NearestFallback(t *testing.T) {
	// Dead zone above the second display, far from the first.
	d, ok := DisplayForPoint(twoDisplays, Point{X: 3000, Y: 50})
	assert.True(t, ok)
	assert.Equal(t, 2, d.ID)

	// Just right of the first display's bottom half: display 2 starts at
	// y=200, so a point at y=1050 is closer to display 2's clamped edge.
	d, ok = DisplayForPoint(twoDisplays, Point{X: 1925, Y: 1050})
	assert.True(t, ok)
	assert.Equal(t, 2, d.ID)
}

func TestDisplayForPoint_Empty(t *testing.T) {
	_, ok := DisplayForPoint(nil, Point{})
	assert.False(t, ok)
}

func TestCoordinateRoundTrip(t *testing.T) {
	rects := []Rect{
		{X: 10, Y: 5, Width: 30, Height: 22},
		{X: 1800, Y: 0, Width: 28, Height: 24},
		{X: 2500, Y: 210, Width: 40, Height: 22},
		{X: 3300, Y: 1050, Width: 12, Height: 12},
	}
	for _, r := range rects {
		got := ToTopLeft(twoDisplays, ToBottomLeft(twoDisplays, r))
		assert.True(t, got.ApproxEqual(r, 1e-9), "round trip %+v -> %+v", r, got)
	}
}

func TestToBottomLeft_FlipsAgainstOwningDisplay(t *testing.T) {
	// Menu bar item on the secondary display (frame y=200, height 900).
	r := Rect{X: 2000, Y: 200, Width: 30, Height: 22}
	bl := ToBottomLeft(twoDisplays, r)
	assert.Equal(t, 2000.0, bl.X)
	// y' = frameY + frameMaxY - (y + h) = 200 + 1100 - 222
	assert.InDelta(t, 1078.0, bl.Y, 1e-9)
	assert.Equal(t, r.Width, bl.Width)
	assert.Equal(t, r.Height, bl.Height)
}

func TestIntersection(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	tests := []struct {
		name string
		b    Rect
		want float64
	}{
		{"overlap", Rect{X: 50, Y: 50, Width: 100, Height: 100}, 2500},
		{"contained", Rect{X: 10, Y: 10, Width: 10, Height: 10}, 100},
		{"adjacent", Rect{X: 100, Y: 0, Width: 50, Height: 50}, 0},
		{"disjoint", Rect{X: 500, Y: 500, Width: 10, Height: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, a.Intersection(tt.b).Area(), 1e-9)
		})
	}
}

func TestClampPoint(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	assert.Equal(t, Point{X: 100, Y: 50}, r.ClampPoint(Point{X: 250, Y: 50}))
	assert.Equal(t, Point{X: 0, Y: 0}, r.ClampPoint(Point{X: -10, Y: -10}))
	assert.Equal(t, Point{X: 40, Y: 60}, r.ClampPoint(Point{X: 40, Y: 60}))
}
