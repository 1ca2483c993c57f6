// Package output serializes command results to stdout as yaml or json.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tidybar/tidybar/internal/model"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ScanResult is the top-level output of the `scan` command.
type ScanResult struct {
	TS    int64                `yaml:"ts"    json:"ts"`
	Count int                  `yaml:"count" json:"count"`
	Items []model.ItemSnapshot `yaml:"items" json:"items"`
}

// LanesResult is the top-level output of the `lanes` command: the positional
// lanes plus the persisted floating-bar subset.
type LanesResult struct {
	TS           int64                `yaml:"ts"                      json:"ts"`
	Visible      []model.ItemSnapshot `yaml:"visible"                 json:"visible"`
	Hidden       []model.ItemSnapshot `yaml:"hidden"                  json:"hidden"`
	AlwaysHidden []model.ItemSnapshot `yaml:"always_hidden"           json:"always_hidden"`
	FloatingBar  []string             `yaml:"floating_bar,omitempty"  json:"floating_bar,omitempty"`
}

// MoveResult is the top-level output of the `move` command.
type MoveResult struct {
	ID     string `yaml:"id"               json:"id"`
	NewID  string `yaml:"new_id,omitempty" json:"new_id,omitempty"`
	Target string `yaml:"target"           json:"target"`
	Moved  bool   `yaml:"moved"            json:"moved"`
}

// PermissionsResult is the top-level output of the `permissions` command.
type PermissionsResult struct {
	Accessibility   bool `yaml:"accessibility"    json:"accessibility"`
	ScreenRecording bool `yaml:"screen_recording" json:"screen_recording"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(v)
		}
		return PrintJSON(v)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintPrettyJSON serializes v to stdout as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
