// Package geometry provides pure conversions between the two coordinate
// conventions the OS exposes: top-left-origin global space (window server,
// accessibility, event synthesis) and bottom-left-origin per-display space
// (application frameworks). It also locates the display containing a point.
package geometry

import "math"

// Point is a location in screen space.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `yaml:"w" json:"w"`
	Height float64 `yaml:"h" json:"h"`
}

// Rect is an axis-aligned rectangle. The coordinate convention (top-left or
// bottom-left origin) is carried by context, not by the type.
type Rect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"w" json:"w"`
	Height float64 `yaml:"h" json:"h"`
}

// Display describes one physical display. Frame is the display's bounds in
// top-left-origin global space.
type Display struct {
	ID    int
	Frame Rect
}

func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MaxY() float64 { return r.Y + r.Height }
func (r Rect) MidX() float64 { return r.X + r.Width/2 }
func (r Rect) MidY() float64 { return r.Y + r.Height/2 }

// Center returns the rect's midpoint.
func (r Rect) Center() Point { return Point{X: r.MidX(), Y: r.MidY()} }

// IsEmpty reports whether the rect has no area.
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Area returns the rect's area, zero for empty rects.
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Width * r.Height
}

// Contains reports whether p lies inside r. The left and top edges are
// inclusive, the right and bottom exclusive, so adjacent displays never both
// claim a shared edge point.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// Intersection returns the overlapping region of r and o, or an empty rect.
func (r Rect) Intersection(o Rect) Rect {
	x := math.Max(r.X, o.X)
	y := math.Max(r.Y, o.Y)
	mx := math.Min(r.MaxX(), o.MaxX())
	my := math.Min(r.MaxY(), o.MaxY())
	if mx <= x || my <= y {
		return Rect{}
	}
	return Rect{X: x, Y: y, Width: mx - x, Height: my - y}
}

// Inset returns r shrunk by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, Width: r.Width - 2*d, Height: r.Height - 2*d}
}

// ClampPoint returns the nearest point to p that lies within r.
func (r Rect) ClampPoint(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, r.X), r.MaxX()),
		Y: math.Min(math.Max(p.Y, r.Y), r.MaxY()),
	}
}

// DisplayForPoint returns the display whose frame contains p. When no display
// contains p exactly (a point in the dead zone between non-rectangular
// arrangements), the nearest display by clamped distance is returned. ok is
// false only when displays is empty.
func DisplayForPoint(displays []Display, p Point) (Display, bool) {
	for _, d := range displays {
		if d.Frame.Contains(p) {
			return d, true
		}
	}
	if len(displays) == 0 {
		return Display{}, false
	}
	best := displays[0]
	bestDist := math.Inf(1)
	for _, d := range displays {
		c := d.Frame.ClampPoint(p)
		dx, dy := c.X-p.X, c.Y-p.Y
		if dist := dx*dx + dy*dy; dist < bestDist {
			bestDist = dist
			best = d
		}
	}
	return best, true
}

// DisplayForRect returns the display containing r's center, with the same
// nearest-display fallback as DisplayForPoint.
func DisplayForRect(displays []Display, r Rect) (Display, bool) {
	return DisplayForPoint(displays, r.Center())
}

// ToBottomLeft converts a top-left-origin global rect into the
// bottom-left-origin space of the display that contains it. X is preserved;
// Y is flipped against that display's own bounds. When no display is known
// the rect is returned unchanged.
func ToBottomLeft(displays []Display, r Rect) Rect {
	d, ok := DisplayForRect(displays, r)
	if !ok {
		return r
	}
	return flipWithin(d.Frame, r)
}

// ToTopLeft converts a bottom-left-origin rect (as produced by ToBottomLeft)
// back into top-left-origin global space. The flip is its own inverse, so a
// round trip through both conversions is the identity for rects whose center
// stays inside one display.
func ToTopLeft(displays []Display, r Rect) Rect {
	d, ok := DisplayForRect(displays, r)
	if !ok {
		return r
	}
	return flipWithin(d.Frame, r)
}

// flipWithin mirrors r's Y across the vertical extent of frame.
func flipWithin(frame, r Rect) Rect {
	return Rect{
		X:      r.X,
		Y:      frame.Y + frame.MaxY() - (r.Y + r.Height),
		Width:  r.Width,
		Height: r.Height,
	}
}

// ApproxEqual reports whether two rects match within tol on every component.
func (r Rect) ApproxEqual(o Rect, tol float64) bool {
	return math.Abs(r.X-o.X) <= tol &&
		math.Abs(r.Y-o.Y) <= tol &&
		math.Abs(r.Width-o.Width) <= tol &&
		math.Abs(r.Height-o.Height) <= tol
}
