package output

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/model"
)

func capture(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	callErr := fn()
	w.Close()
	os.Stdout = old

	if callErr != nil {
		t.Fatal(callErr)
	}
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func sampleScan() ScanResult {
	return ScanResult{
		TS:    1707500000,
		Count: 1,
		Items: []model.ItemSnapshot{
			{
				ID: "wifi", Owner: "com.apple.controlcenter", Identifier: "wifi",
				Frame: geometry.Rect{X: 1200, Y: 2, Width: 30, Height: 22},
			},
		},
	}
}

func TestPrintYAML(t *testing.T) {
	out := capture(t, func() error { return PrintYAML(sampleScan()) })

	if bytes.Count([]byte(out), []byte("\n")) <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", out)
	}

	var decoded ScanResult
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Count != 1 {
		t.Errorf("count: got %d, want 1", decoded.Count)
	}
	if len(decoded.Items) != 1 || decoded.Items[0].ID != "wifi" {
		t.Errorf("items: got %+v", decoded.Items)
	}
}

func TestPrintJSON_SingleLine(t *testing.T) {
	out := capture(t, func() error { return PrintJSON(sampleScan()) })

	// Compact JSON is one line plus the trailing newline.
	if bytes.Count([]byte(out), []byte("\n")) != 1 {
		t.Errorf("compact JSON should be single-line, got:\n%s", out)
	}
	var decoded ScanResult
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Items[0].Owner != "com.apple.controlcenter" {
		t.Errorf("owner: got %q", decoded.Items[0].Owner)
	}
}

func TestPrint_RespectsFormat(t *testing.T) {
	oldFormat, oldPretty := OutputFormat, PrettyOutput
	defer func() { OutputFormat, PrettyOutput = oldFormat, oldPretty }()

	OutputFormat = FormatJSON
	PrettyOutput = true
	out := capture(t, func() error { return Print(sampleScan()) })
	if bytes.Count([]byte(out), []byte("\n")) <= 1 {
		t.Errorf("pretty JSON should be multi-line, got:\n%s", out)
	}

	OutputFormat = Format("csv")
	if err := Print(sampleScan()); err == nil {
		t.Error("unsupported format should error")
	}
}

func TestLanesResult_OmitEmpty(t *testing.T) {
	data, err := yaml.Marshal(LanesResult{TS: 123})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["floating_bar"]; ok {
		t.Error("empty floating_bar should be omitted")
	}
	if _, ok := m["ts"]; !ok {
		t.Error("ts should always be present")
	}
}
