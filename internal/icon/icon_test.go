package icon

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func circleImage(size int, radius float64, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	cx, cy := float64(size)/2, float64(size)/2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img
}

func TestSuspicious_AllTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 24, 24))
	assert.True(t, Suspicious(img))
}

func TestSuspicious_AllOpaque(t *testing.T) {
	img := solidImage(24, 24, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	assert.True(t, Suspicious(img))
}

func TestSuspicious_ThinStripe(t *testing.T) {
	// 1px-tall horizontal stripe across the middle: bbox height ratio far
	// below the floor.
	img := image.NewNRGBA(image.Rect(0, 0, 24, 24))
	for x := 0; x < 24; x++ {
		img.SetNRGBA(x, 12, color.NRGBA{A: 255})
	}
	assert.True(t, Suspicious(img))
}

func TestSuspicious_CenteredCircleAccepted(t *testing.T) {
	// A centered filled circle covering ~30% of a 24x24 canvas.
	// r=7.4 -> area ~172 of 576 ~= 30%.
	img := circleImage(24, 7.4, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	assert.False(t, Suspicious(img))
}

func TestSuspicious_NilImage(t *testing.T) {
	assert.True(t, Suspicious(nil))
}

func TestRemoveBackground_StripsUniformBackground(t *testing.T) {
	bg := color.NRGBA{R: 230, G: 230, B: 230, A: 255}
	fg := color.NRGBA{R: 10, G: 10, B: 10, A: 255}
	img := solidImage(24, 24, bg)
	// Paint a centered glyph blob.
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			img.SetNRGBA(x, y, fg)
		}
	}

	out := RemoveBackground(img)

	// Background gone at the corners, glyph retained in the middle.
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(23, 23).A)
	assert.Equal(t, fg, out.NRGBAAt(12, 12))
}

func TestRemoveBackground_PreservesGlyphOnTransparent(t *testing.T) {
	fg := color.NRGBA{R: 10, G: 10, B: 10, A: 255}
	img := circleImage(24, 7, fg)
	out := RemoveBackground(img)
	assert.Equal(t, fg, out.NRGBAAt(12, 12))
}

func TestNormalize(t *testing.T) {
	img := solidImage(128, 64, color.NRGBA{A: 255})
	out := Normalize(img, 32)
	assert.Equal(t, 32, out.Bounds().Dx())
	assert.Equal(t, 16, out.Bounds().Dy())

	small := solidImage(16, 16, color.NRGBA{A: 255})
	out = Normalize(small, 32)
	assert.Equal(t, 16, out.Bounds().Dx())
}
