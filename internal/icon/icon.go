// Package icon analyzes and cleans bitmaps captured from status-item
// windows. Whole-window captures routinely pick up menu-bar chrome instead
// of (or in addition to) the item's glyph; Suspicious rejects the former and
// RemoveBackground strips the latter.
package icon

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

const (
	// minBBoxRatio rejects captures whose foreground bounding box is a
	// sliver of the full image in either dimension, usually a separator
	// artifact.
	minBBoxRatio = 0.14
	// minAreaRatio and maxAreaRatio reject near-empty and near-solid
	// captures; a real glyph covers a middling share of its window.
	minAreaRatio = 0.04
	maxAreaRatio = 0.92
	// maxEdgeOpaqueRatio rejects captures whose border is mostly opaque,
	// meaning the window's background strip was captured, not a glyph.
	maxEdgeOpaqueRatio = 0.78

	alphaThreshold = 16
)

// Suspicious reports whether a captured bitmap looks like menu-bar chrome or
// an artifact rather than a status-item glyph.
func Suspicious(img image.Image) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return true
	}

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	foreground := 0
	edgeOpaque, edgeTotal := 0, 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			opaque := a>>8 >= alphaThreshold
			if opaque {
				foreground++
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
			if x == b.Min.X || x == b.Max.X-1 || y == b.Min.Y || y == b.Max.Y-1 {
				edgeTotal++
				if opaque {
					edgeOpaque++
				}
			}
		}
	}

	if foreground == 0 {
		return true
	}

	bboxW := float64(maxX-minX+1) / float64(w)
	bboxH := float64(maxY-minY+1) / float64(h)
	if bboxW < minBBoxRatio || bboxH < minBBoxRatio {
		return true
	}

	areaRatio := float64(foreground) / float64(w*h)
	if areaRatio < minAreaRatio || areaRatio > maxAreaRatio {
		return true
	}

	if edgeTotal > 0 && float64(edgeOpaque)/float64(edgeTotal) > maxEdgeOpaqueRatio {
		return true
	}

	return false
}

// RemoveBackground strips menu-bar background from a raw capture: a flood
// fill inward from the border clears pixels within an adaptively computed
// color distance of the sampled border color, a second pass clears enclosed
// pockets of the same color, and flat near-monochrome top/bottom rows are
// dropped. The input is not modified.
func RemoveBackground(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w == 0 || h == 0 {
		return out
	}

	bg, spread, opaqueRatio := sampleBorder(out)
	// A mostly transparent border means the capture is already clean; the
	// sampled "background color" would be meaningless and dark glyphs would
	// be eaten by the fill.
	if opaqueRatio < 0.5 {
		return out
	}
	// The fill tolerance adapts to how noisy the border is: clean flat
	// backgrounds get a tight threshold, gradients a looser one.
	tolerance := 24.0 + 1.5*spread
	if tolerance > 90 {
		tolerance = 90
	}

	cleared := floodClearBorder(out, bg, tolerance)
	clearEnclosedPockets(out, cleared, bg, tolerance)
	stripFlatRows(out)
	return out
}

// sampleBorder returns the mean border color, the mean color distance of
// border pixels from that mean, and the opaque share of the border.
func sampleBorder(img *image.NRGBA) (color.NRGBA, float64, float64) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	var sumR, sumG, sumB float64
	opaque := 0
	var px []color.NRGBA
	sample := func(x, y int) {
		c := img.NRGBAAt(x, y)
		px = append(px, c)
		if c.A >= alphaThreshold {
			opaque++
		}
		sumR += float64(c.R)
		sumG += float64(c.G)
		sumB += float64(c.B)
	}
	for x := 0; x < w; x++ {
		sample(x, 0)
		if h > 1 {
			sample(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		sample(0, y)
		if w > 1 {
			sample(w-1, y)
		}
	}
	n := float64(len(px))
	if n == 0 {
		return color.NRGBA{}, 0, 0
	}
	mean := color.NRGBA{R: uint8(sumR / n), G: uint8(sumG / n), B: uint8(sumB / n), A: 255}
	var spread float64
	for _, c := range px {
		spread += colorDistance(c, mean)
	}
	return mean, spread / n, float64(opaque) / n
}

func colorDistance(a, b color.NRGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// floodClearBorder clears background-colored pixels reachable from the
// border and returns the cleared mask.
func floodClearBorder(img *image.NRGBA, bg color.NRGBA, tolerance float64) []bool {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	cleared := make([]bool, w*h)
	var stack []int

	push := func(x, y int) {
		idx := y*w + x
		if cleared[idx] {
			return
		}
		c := img.NRGBAAt(x, y)
		if c.A >= alphaThreshold && colorDistance(c, bg) > tolerance {
			return
		}
		cleared[idx] = true
		stack = append(stack, idx)
	}

	for x := 0; x < w; x++ {
		push(x, 0)
		if h > 1 {
			push(x, h-1)
		}
	}
	for y := 0; y < h; y++ {
		push(0, y)
		if w > 1 {
			push(w-1, y)
		}
	}

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := idx%w, idx/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}

	for idx, c := range cleared {
		if c {
			img.SetNRGBA(idx%w, idx/w, color.NRGBA{})
		}
	}
	return cleared
}

// clearEnclosedPockets clears interior pixels of background color that the
// border fill couldn't reach (holes inside ring-shaped glyph chrome).
// A pocket pixel qualifies when it matches the background color and at
// least three 4-neighbors are already cleared or off-image; a few sweeps
// erode small pockets completely.
func clearEnclosedPockets(img *image.NRGBA, cleared []bool, bg color.NRGBA, tolerance float64) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for pass := 0; pass < 4; pass++ {
		changed := false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				if cleared[idx] {
					continue
				}
				c := img.NRGBAAt(x, y)
				if c.A < alphaThreshold || colorDistance(c, bg) > tolerance {
					continue
				}
				open := 0
				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nx, ny := x+d[0], y+d[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h || cleared[ny*w+nx] {
						open++
					}
				}
				if open >= 3 {
					cleared[idx] = true
					img.SetNRGBA(x, y, color.NRGBA{})
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
}

// stripFlatRows clears top and bottom rows that are opaque and near
// monochrome across their full width, the signature of a captured menu-bar
// background strip.
func stripFlatRows(img *image.NRGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	clearRow := func(y int) {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{})
		}
	}
	for y := 0; y < h/4; y++ {
		if !flatRow(img, y) {
			break
		}
		clearRow(y)
	}
	for y := h - 1; y >= h-h/4; y-- {
		if !flatRow(img, y) {
			break
		}
		clearRow(y)
	}
}

func flatRow(img *image.NRGBA, y int) bool {
	w := img.Bounds().Dx()
	if w == 0 {
		return false
	}
	first := img.NRGBAAt(0, y)
	if first.A < alphaThreshold {
		return false
	}
	for x := 1; x < w; x++ {
		c := img.NRGBAAt(x, y)
		if c.A < alphaThreshold || colorDistance(c, first) > 12 {
			return false
		}
	}
	return true
}

// Normalize scales an icon down so its longest side is maxDim, preserving
// aspect ratio. Icons already small enough are returned as NRGBA copies.
func Normalize(img image.Image, maxDim int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		out := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
		return out
	}
	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	out := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Over, nil)
	return out
}
