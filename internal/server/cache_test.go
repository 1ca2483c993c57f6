package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/manager"
	"github.com/tidybar/tidybar/internal/platform/fake"
	"github.com/tidybar/tidybar/internal/scanner"
)

const ownBundle = "com.tidybar.app"

func newTestManager(t *testing.T) *manager.Manager {
	t.Helper()
	p := fake.New()
	p.AddItem(&fake.Item{Owner: ownBundle, Identifier: scanner.DividerAlwaysID,
		Frame: geometry.Rect{X: 600, Y: 2, Width: 20, Height: 22}})
	p.AddItem(&fake.Item{Owner: ownBundle, Identifier: scanner.DividerHiddenID,
		Frame: geometry.Rect{X: 900, Y: 2, Width: 20, Height: 22}})
	p.AddItem(&fake.Item{Owner: "com.a", Identifier: "a1",
		Frame: geometry.Rect{X: 1200, Y: 2, Width: 30, Height: 22}})

	dir := t.TempDir()
	m, err := manager.New(manager.Config{
		Provider:       p.Provider(ownBundle),
		SettingsPath:   filepath.Join(dir, "settings.yaml"),
		IconCachePath:  filepath.Join(dir, "icons.json"),
		RescanInterval: time.Hour,
		Log:            zerolog.Nop(),
	})
	require.NoError(t, err)
	m.Start()
	t.Cleanup(m.Stop)
	return m
}

func TestScanCache_ServesWithinTTL(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	c := newScanCache(time.Hour)

	st1, err := c.State(ctx, m, false)
	require.NoError(t, err)
	require.NotEmpty(t, st1.Items)

	st2, err := c.State(ctx, m, false)
	require.NoError(t, err)
	assert.Equal(t, st1.UpdatedAt, st2.UpdatedAt)

	c.InvalidateAll()
	st3, err := c.State(ctx, m, false)
	require.NoError(t, err)
	assert.NotEqual(t, st1.UpdatedAt, st3.UpdatedAt)
}

func TestScanCache_ZeroTTLDisablesCaching(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	c := newScanCache(0)

	st1, err := c.State(ctx, m, false)
	require.NoError(t, err)
	st2, err := c.State(ctx, m, false)
	require.NoError(t, err)
	assert.NotEqual(t, st1.UpdatedAt, st2.UpdatedAt)
}

func TestScanCache_IconStateSatisfiesIconFreeRequest(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	c := newScanCache(time.Hour)

	st1, err := c.State(ctx, m, true)
	require.NoError(t, err)
	st2, err := c.State(ctx, m, false)
	require.NoError(t, err)
	assert.Equal(t, st1.UpdatedAt, st2.UpdatedAt)

	// The reverse does not hold: an icon request after an icon-free scan
	// rescans.
	c.InvalidateAll()
	st3, err := c.State(ctx, m, false)
	require.NoError(t, err)
	st4, err := c.State(ctx, m, true)
	require.NoError(t, err)
	assert.NotEqual(t, st3.UpdatedAt, st4.UpdatedAt)
}
