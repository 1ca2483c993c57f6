// Package config loads and saves the settings blob: which items are pinned
// always-hidden and which of those render on the floating bar.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the settings schema version this build reads and writes.
const CurrentVersion = 1

// ErrVersion is returned for settings files written by an incompatible
// schema version.
var ErrVersion = errors.New("unsupported settings version")

// Settings is the persisted state.
type Settings struct {
	Version int  `yaml:"version"`
	Enabled bool `yaml:"enabled"`
	// AlwaysHidden lists item ids pinned to the always-hidden section.
	AlwaysHidden []string `yaml:"always_hidden,omitempty"`
	// FloatingBar lists the always-hidden ids also rendered on the floating
	// bar. Kept a subset of AlwaysHidden.
	FloatingBar []string `yaml:"floating_bar,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{Version: CurrentVersion, Enabled: true}
}

// DefaultPath returns the standard settings location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, "Library", "Application Support", "tidybar", "settings.yaml"), nil
}

// Load reads settings from path. A missing file yields defaults; an
// unreadable file or unknown version is an error.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if s.Version != CurrentVersion {
		return Settings{}, fmt.Errorf("%w: %d (want %d)", ErrVersion, s.Version, CurrentVersion)
	}
	s.normalize()
	return s, nil
}

// Save writes settings to path, creating parent directories.
func Save(path string, s Settings) error {
	s.Version = CurrentVersion
	s.normalize()
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// normalize dedups the id lists and drops floating-bar ids that are not
// pinned always-hidden.
func (s *Settings) normalize() {
	s.AlwaysHidden = dedup(s.AlwaysHidden)
	pinned := make(map[string]bool, len(s.AlwaysHidden))
	for _, id := range s.AlwaysHidden {
		pinned[id] = true
	}
	var bar []string
	for _, id := range dedup(s.FloatingBar) {
		if pinned[id] {
			bar = append(bar, id)
		}
	}
	s.FloatingBar = bar
}

func dedup(ids []string) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Pin adds an id to the always-hidden set, optionally also to the bar.
func (s *Settings) Pin(id string, bar bool) {
	s.AlwaysHidden = append(s.AlwaysHidden, id)
	if bar {
		s.FloatingBar = append(s.FloatingBar, id)
	}
	s.normalize()
}

// Unpin removes an id from both sets.
func (s *Settings) Unpin(id string) {
	s.AlwaysHidden = remove(s.AlwaysHidden, id)
	s.FloatingBar = remove(s.FloatingBar, id)
}

// RemapID follows an identity change through both sets.
func (s *Settings) RemapID(oldID, newID string) {
	for i, id := range s.AlwaysHidden {
		if id == oldID {
			s.AlwaysHidden[i] = newID
		}
	}
	for i, id := range s.FloatingBar {
		if id == oldID {
			s.FloatingBar[i] = newID
		}
	}
	s.normalize()
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
