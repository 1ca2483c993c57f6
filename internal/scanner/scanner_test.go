package scanner

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/platform"
	"github.com/tidybar/tidybar/internal/platform/fake"
)

const ownBundle = "com.tidybar.app"

func newScanner(p *fake.Provider) *Scanner {
	return New(p.Provider(ownBundle), zerolog.Nop())
}

func barFrame(x, width float64) geometry.Rect {
	return geometry.Rect{X: x, Y: 2, Width: width, Height: 22}
}

func TestScan_OrdersByAscendingX(t *testing.T) {
	p := fake.New()
	p.AddItem(&fake.Item{Owner: "com.a", PID: 10, Identifier: "a1", Frame: barFrame(100, 30)})
	p.AddItem(&fake.Item{Owner: "com.b", PID: 11, Identifier: "b1", Frame: barFrame(50, 30)})

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 2)
	assert.Equal(t, "b1", items[0].ID)
	assert.Equal(t, "a1", items[1].ID)
	assert.Less(t, items[0].Frame.X, items[1].Frame.X)
}

func TestScan_UniqueIDs(t *testing.T) {
	p := fake.New()
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "Sync", Frame: barFrame(100, 30)})
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "Sync", Frame: barFrame(140, 30)})

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 2)
	assert.Equal(t, "Sync", items[0].ID)
	assert.Equal(t, "Sync#2", items[1].ID)
}

func TestScan_GeometryGates(t *testing.T) {
	p := fake.New()
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "ok", Frame: barFrame(100, 30)})
	// Full-width backdrop, hairline separator, and over-tall overlay are all
	// menu-bar furniture.
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "backdrop", Frame: barFrame(0, 1920)})
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "hairline", Frame: barFrame(200, 2)})
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "overlay", Frame: geometry.Rect{X: 300, Y: 0, Width: 30, Height: 80}})

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 1)
	assert.Equal(t, "ok", items[0].ID)
}

func TestScan_ExcludesOwnControls(t *testing.T) {
	p := fake.New()
	p.AddItem(&fake.Item{Owner: ownBundle, Identifier: "tidybar.divider.hidden", Frame: barFrame(400, 20)})
	p.AddItem(&fake.Item{Owner: ownBundle, Identifier: "tidybar.divider.always", Frame: barFrame(200, 20)})
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "a1", Frame: barFrame(300, 30)})

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 1)
	assert.Equal(t, "a1", items[0].ID)
}

func TestScan_OwnerHints(t *testing.T) {
	p := fake.New()
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "a1", Frame: barFrame(100, 30)})
	p.AddItem(&fake.Item{Owner: "com.b", Identifier: "b1", Frame: barFrame(200, 30)})

	items := newScanner(p).Scan(Options{Owners: []string{"com.b"}})
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].ID)
}

func TestScan_OwnBundleLeftHalfExcluded(t *testing.T) {
	p := fake.New()
	// Left-half entries of our own process are application menus.
	p.AddItem(&fake.Item{Owner: ownBundle, Identifier: "File", Frame: barFrame(120, 40)})
	p.AddItem(&fake.Item{Owner: ownBundle, Identifier: "status", Frame: barFrame(1500, 30)})

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 1)
	assert.Equal(t, "status", items[0].ID)
}

func TestScan_SkipsOwnersWithoutRoot(t *testing.T) {
	p := fake.New()
	p.Apps = append(p.Apps, platform.AppInfo{BundleID: "com.noroot", PID: 99})
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "a1", Frame: barFrame(100, 30)})

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 1)
}

func TestScan_NeverFails(t *testing.T) {
	p := fake.New()
	p.RunningAppsErr = errors.New("workspace unavailable")
	p.WindowsErr = errors.New("window server unavailable")

	items := newScanner(p).Scan(Options{Icons: true})
	assert.Empty(t, items)
}

func TestScan_MatchesBackingWindow(t *testing.T) {
	p := fake.New()
	it := p.AddItem(&fake.Item{Owner: "com.a", Identifier: "a1", Frame: barFrame(100, 30)})
	p.StatusWindowList = []platform.WindowInfo{
		{ID: 7, Owner: "com.a", Layer: platform.StatusWindowLayer, Bounds: it.Frame},
		{ID: 8, Owner: "com.b", Layer: platform.StatusWindowLayer, Bounds: barFrame(500, 30)},
	}

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].WindowID)
	assert.Nil(t, items[0].Icon)
}

func TestScan_NoWindowBelowOverlapFloor(t *testing.T) {
	p := fake.New()
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "a1", Frame: barFrame(100, 30)})
	p.StatusWindowList = []platform.WindowInfo{
		{ID: 7, Layer: platform.StatusWindowLayer, Bounds: barFrame(125, 30)},
	}

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 1)
	assert.Zero(t, items[0].WindowID)
}

// glyphCapture draws a plausible status-item glyph: a centered disc over a
// transparent background.
func glyphCapture(dim int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, dim, dim))
	c := float64(dim) / 2
	r := float64(dim) * 0.31
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, color.NRGBA{A: 255})
			}
		}
	}
	return img
}

// chromeCapture is a solid strip, the signature of capturing the menu-bar
// background instead of a glyph.
func chromeCapture(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 235, G: 235, B: 235, A: 255})
		}
	}
	return img
}

func TestScan_CapturesIcons(t *testing.T) {
	p := fake.New()
	good := p.AddItem(&fake.Item{Owner: "com.a", Identifier: "good", Frame: barFrame(100, 30)})
	bad := p.AddItem(&fake.Item{Owner: "com.b", Identifier: "bad", Frame: barFrame(200, 30)})
	p.StatusWindowList = []platform.WindowInfo{
		{ID: 1, Layer: platform.StatusWindowLayer, Bounds: good.Frame},
		{ID: 2, Layer: platform.StatusWindowLayer, Bounds: bad.Frame},
	}
	p.Captures[1] = glyphCapture(24)
	p.Captures[2] = chromeCapture(30, 22)

	items := newScanner(p).Scan(Options{Icons: true})
	require.Len(t, items, 2)

	byID := map[string]int{items[0].ID: 0, items[1].ID: 1}
	assert.NotNil(t, items[byID["good"]].Icon)
	assert.Nil(t, items[byID["bad"]].Icon)
}

func TestScan_IconPassSkippedWithoutScreenRecording(t *testing.T) {
	p := fake.New()
	p.ScreenGranted = false
	it := p.AddItem(&fake.Item{Owner: "com.a", Identifier: "a1", Frame: barFrame(100, 30)})
	p.StatusWindowList = []platform.WindowInfo{
		{ID: 1, Layer: platform.StatusWindowLayer, Bounds: it.Frame},
	}
	p.Captures[1] = glyphCapture(24)

	items := newScanner(p).Scan(Options{Icons: true})
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].WindowID)
	assert.Nil(t, items[0].Icon)
}

func TestDividers(t *testing.T) {
	p := fake.New()
	p.AddItem(&fake.Item{Owner: ownBundle, Identifier: DividerAlwaysID, Frame: barFrame(600, 20)})
	p.AddItem(&fake.Item{Owner: ownBundle, Identifier: DividerHiddenID, Frame: barFrame(900, 20)})

	d := newScanner(p).Dividers()
	require.True(t, d.HiddenKnown)
	require.True(t, d.AlwaysKnown)
	assert.Equal(t, 900.0, d.Hidden.X)
	assert.Equal(t, 600.0, d.Always.X)

	// One divider mid-relayout reports only the other side.
	p.ItemByIdentifier(DividerAlwaysID).Gone = true
	d = newScanner(p).Dividers()
	assert.True(t, d.HiddenKnown)
	assert.False(t, d.AlwaysKnown)
}

func TestScan_PopulatesSnapshotFields(t *testing.T) {
	p := fake.New()
	p.AddItem(&fake.Item{
		Owner: "com.a", PID: 42, Identifier: "a1",
		Title: "Widget", Detail: "Widget: idle",
		Frame: barFrame(100, 30),
	})

	items := newScanner(p).Scan(Options{})
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "com.a", it.Owner)
	assert.Equal(t, 42, it.OwnerPID)
	assert.Equal(t, "Widget", it.Title)
	assert.Equal(t, "Widget: idle", it.Detail)
	assert.NotNil(t, it.Handle)
	// Bottom-left frame is the top-left frame mirrored within the display.
	assert.InDelta(t, 1080-(2+22), it.FrameBL.Y, 0.001)
}
