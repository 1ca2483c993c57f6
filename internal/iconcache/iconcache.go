// Package iconcache persists captured status-item icons to disk so hidden
// items keep an icon after they can no longer be screenshotted. Entries are
// keyed by owner plus the strongest available discriminator (accessibility
// identifier, backing window, or positional index) under a light/dark
// appearance namespace.
package iconcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidybar/tidybar/internal/icon"
)

const (
	// maxAge expires a whole cache that hasn't been saved in this long.
	maxAge = 14 * 24 * time.Hour
	// sizeCap is the target on-disk size; exceeding it prunes the largest
	// entries first until back under.
	sizeCap = 4 << 20
	// hardCeiling on the file size discards the entire cache on load; a
	// file that large is either corrupt or not worth partially trusting.
	hardCeiling = 16 << 20
	// normalizedDim bounds stored icon dimensions.
	normalizedDim = 64
)

// envelope is the on-disk JSON format.
type envelope struct {
	SavedAt time.Time         `json:"saved_at"`
	Images  map[string][]byte `json:"images"`
}

// Key builds the composite cache key for an item. identifier beats windowID
// beats index as the discriminator.
func Key(owner, identifier string, windowID, index int, dark bool) string {
	ns := "light"
	if dark {
		ns = "dark"
	}
	switch {
	case identifier != "":
		return fmt.Sprintf("%s/%s|id:%s", ns, owner, identifier)
	case windowID != 0:
		return fmt.Sprintf("%s/%s|win:%d", ns, owner, windowID)
	default:
		return fmt.Sprintf("%s/%s|idx:%d", ns, owner, index)
	}
}

// Cache is a disk-backed icon store. Not safe for concurrent use; the
// manager owns it from its run loop.
type Cache struct {
	path    string
	log     zerolog.Logger
	images  map[string][]byte
	savedAt time.Time
	dirty   bool
}

// New creates a cache that persists to path. Call Load before first use.
func New(path string, log zerolog.Logger) *Cache {
	return &Cache{
		path:    path,
		log:     log.With().Str("component", "iconcache").Logger(),
		images:  make(map[string][]byte),
		savedAt: time.Now(),
	}
}

// Load reads the cache file. A missing file is an empty cache; an oversized,
// unreadable, or expired file is discarded wholesale.
func (c *Cache) Load() {
	info, err := os.Stat(c.path)
	if err != nil {
		return
	}
	if info.Size() > hardCeiling {
		c.log.Warn().Int64("size", info.Size()).Msg("icon cache exceeds hard ceiling, discarding")
		os.Remove(c.path)
		return
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn().Err(err).Msg("icon cache unreadable, discarding")
		os.Remove(c.path)
		return
	}
	if time.Since(env.SavedAt) > maxAge {
		c.log.Debug().Time("saved_at", env.SavedAt).Msg("icon cache expired")
		os.Remove(c.path)
		return
	}
	c.savedAt = env.SavedAt
	c.images = migrateLegacyKeys(env.Images)
}

// migrateLegacyKeys moves pre-namespace keys (no light/ or dark/ prefix)
// under the light namespace.
func migrateLegacyKeys(images map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(images))
	for k, v := range images {
		if !strings.HasPrefix(k, "light/") && !strings.HasPrefix(k, "dark/") {
			k = "light/" + k
		}
		out[k] = v
	}
	return out
}

// Get decodes the cached icon for key.
func (c *Cache) Get(key string) (image.Image, bool) {
	data, ok := c.images[key]
	if !ok {
		return nil, false
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		delete(c.images, key)
		return nil, false
	}
	return img, true
}

// Set stores an icon under key, normalized to a bounded size.
func (c *Cache) Set(key string, img image.Image) {
	if img == nil {
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, icon.Normalize(img, normalizedDim)); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("icon encode failed")
		return
	}
	c.images[key] = buf.Bytes()
	c.dirty = true
}

// Delete removes an entry.
func (c *Cache) Delete(key string) {
	if _, ok := c.images[key]; ok {
		delete(c.images, key)
		c.dirty = true
	}
}

// Remap moves old's entry to the new key, keeping an existing entry at the
// new key if one is already present.
func (c *Cache) Remap(oldKey, newKey string) {
	data, ok := c.images[oldKey]
	if !ok || oldKey == newKey {
		return
	}
	delete(c.images, oldKey)
	if _, exists := c.images[newKey]; !exists {
		c.images[newKey] = data
	}
	c.dirty = true
}

// Len reports the entry count.
func (c *Cache) Len() int { return len(c.images) }

// Save writes the cache to disk if it changed, pruning the largest entries
// first when the total payload exceeds the size cap.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	c.pruneToCap()
	env := envelope{SavedAt: time.Now(), Images: c.images}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal icon cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create icon cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write icon cache: %w", err)
	}
	c.savedAt = env.SavedAt
	c.dirty = false
	return nil
}

func (c *Cache) pruneToCap() {
	total := 0
	for _, v := range c.images {
		total += len(v)
	}
	if total <= sizeCap {
		return
	}
	type kv struct {
		key  string
		size int
	}
	entries := make([]kv, 0, len(c.images))
	for k, v := range c.images {
		entries = append(entries, kv{k, len(v)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].size > entries[j].size })
	for _, e := range entries {
		if total <= sizeCap {
			break
		}
		delete(c.images, e.key)
		total -= e.size
		c.log.Debug().Str("key", e.key).Int("size", e.size).Msg("pruned icon cache entry")
	}
}
