package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	assert.True(t, s.Enabled)
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	in := Settings{
		Enabled:      true,
		AlwaysHidden: []string{"a", "b"},
		FloatingBar:  []string{"b"},
	}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, out.Version)
	assert.Equal(t, []string{"a", "b"}, out.AlwaysHidden)
	assert.Equal(t, []string{"b"}, out.FloatingBar)
}

func TestLoad_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 99\nenabled: true\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrVersion)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: [1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalize_FloatingBarSubset(t *testing.T) {
	s := Settings{
		AlwaysHidden: []string{"a", "a", "b"},
		FloatingBar:  []string{"b", "ghost"},
	}
	s.normalize()
	assert.Equal(t, []string{"a", "b"}, s.AlwaysHidden)
	assert.Equal(t, []string{"b"}, s.FloatingBar)
}

func TestPinUnpin(t *testing.T) {
	s := Default()
	s.Pin("a", false)
	s.Pin("b", true)
	assert.Equal(t, []string{"a", "b"}, s.AlwaysHidden)
	assert.Equal(t, []string{"b"}, s.FloatingBar)

	s.Unpin("b")
	assert.Equal(t, []string{"a"}, s.AlwaysHidden)
	assert.Empty(t, s.FloatingBar)
}

func TestRemapID(t *testing.T) {
	s := Default()
	s.Pin("Sync#2", true)
	s.RemapID("Sync#2", "Sync")
	assert.Equal(t, []string{"Sync"}, s.AlwaysHidden)
	assert.Equal(t, []string{"Sync"}, s.FloatingBar)
}
