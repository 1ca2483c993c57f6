package iconcache

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: 128, A: 255})
		}
	}
	return img
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "icons.json"), zerolog.Nop())
}

func TestKey_DiscriminatorPriority(t *testing.T) {
	assert.Equal(t, "light/com.foo|id:item-1", Key("com.foo", "item-1", 42, 3, false))
	assert.Equal(t, "dark/com.foo|win:42", Key("com.foo", "", 42, 3, true))
	assert.Equal(t, "light/com.foo|idx:3", Key("com.foo", "", 0, 3, false))
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	key := Key("com.foo", "x", 0, 0, false)
	c.Set(key, testImage(20, 20))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 20, got.Bounds().Dx())

	_, ok = c.Get("light/missing")
	assert.False(t, ok)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.json")
	c := New(path, zerolog.Nop())
	c.Set("light/a", testImage(10, 10))
	c.Set("dark/b", testImage(12, 12))
	require.NoError(t, c.Save())

	c2 := New(path, zerolog.Nop())
	c2.Load()
	assert.Equal(t, 2, c2.Len())
	_, ok := c2.Get("light/a")
	assert.True(t, ok)
	_, ok = c2.Get("dark/b")
	assert.True(t, ok)
}

func TestSave_NoopWhenClean(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Save())
	_, err := os.Stat(c.path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_ExpiredCacheDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.json")
	env := envelope{
		SavedAt: time.Now().Add(-30 * 24 * time.Hour),
		Images:  map[string][]byte{"light/a": {1, 2, 3}},
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c := New(path, zerolog.Nop())
	c.Load()
	assert.Equal(t, 0, c.Len())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_CorruptCacheDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := New(path, zerolog.Nop())
	c.Load()
	assert.Equal(t, 0, c.Len())
}

func TestLoad_MigratesLegacyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.json")
	env := envelope{
		SavedAt: time.Now(),
		Images: map[string][]byte{
			"com.foo|id:x": {1},
			"dark/com.bar": {2},
		},
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c := New(path, zerolog.Nop())
	c.Load()
	assert.Contains(t, c.images, "light/com.foo|id:x")
	assert.Contains(t, c.images, "dark/com.bar")
	assert.NotContains(t, c.images, "com.foo|id:x")
}

func TestRemap(t *testing.T) {
	c := newTestCache(t)
	c.Set("light/old", testImage(8, 8))
	c.Remap("light/old", "light/new")

	_, ok := c.Get("light/old")
	assert.False(t, ok)
	_, ok = c.Get("light/new")
	assert.True(t, ok)

	// An existing entry at the destination wins.
	c.Set("light/a", testImage(8, 8))
	c.Set("light/b", testImage(16, 16))
	c.Remap("light/a", "light/b")
	got, ok := c.Get("light/b")
	require.True(t, ok)
	assert.Equal(t, 16, got.Bounds().Dx())
}

func TestPrune_LargestFirst(t *testing.T) {
	c := newTestCache(t)
	c.images["light/small"] = make([]byte, 1<<10)
	c.images["light/big"] = make([]byte, sizeCap)
	c.images["light/medium"] = make([]byte, 1<<16)
	c.dirty = true
	c.pruneToCap()

	assert.NotContains(t, c.images, "light/big")
	assert.Contains(t, c.images, "light/small")
	assert.Contains(t, c.images, "light/medium")
}
