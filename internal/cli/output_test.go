// Package cli provides the command-line interface for the portfolio
// application.
package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func testOutput(buf *bytes.Buffer, jsonMode bool) *Output {
	return &Output{writer: buf, jsonMode: jsonMode, colorEnabled: false}
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	output := testOutput(&buf, false)

	table := NewTable(output, "STOCK", "QTY")
	table.AddRow("MARI", "100")
	table.AddRow("ENGRO", "2,500")
	table.Render()

	got := buf.String()
	for _, want := range []string{"STOCK", "QTY", "MARI", "ENGRO", "2,500"} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered table missing %q:\n%s", want, got)
		}
	}

	// Header and data rows should be padded to the same width; the
	// separator line is drawn with box runes and is skipped.
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines", len(lines))
	}
	width := len(lines[0])
	for _, i := range []int{2, 3} {
		if len(lines[i]) != width {
			t.Errorf("line %d width = %d, want %d:\n%s", i, len(lines[i]), width, got)
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	output := testOutput(&buf, true)

	if err := output.JSON(map[string]string{"stock": "MARI"}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["stock"] != "MARI" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestStripANSI(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{ColorGreen + "up" + ColorReset, "up"},
		{ColorBold + "MARI" + ColorReset + " 100", "MARI 100"},
	}
	for _, tc := range testCases {
		if got := stripANSI(tc.in); got != tc.want {
			t.Errorf("stripANSI(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
