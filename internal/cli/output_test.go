package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"Apple Scab", 20, "Apple Scab"},
		{"Tomato Late Blight", 10, "Tomato ..."},
		{"Rust", 2, "Ru"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatSeverity(t *testing.T) {
	tests := map[string]string{
		"High":           "[H] High",
		"medium":         "[M] Medium",
		"Healthy":        "[+] Healthy",
		"Not Applicable": "[-] N/A",
		"Unknown":        "Unknown",
	}

	for in, want := range tests {
		if got := formatSeverity(in); got != want {
			t.Errorf("formatSeverity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatConfidence(t *testing.T) {
	if got := formatConfidence(0.85); got != "85%" {
		t.Errorf("formatConfidence = %q, want 85%%", got)
	}
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("ID", "DISEASE")
	tbl.writer = &buf
	tbl.AddRow("1", "Apple Scab")
	tbl.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "--") {
		t.Errorf("expected separator line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "Apple Scab") {
		t.Errorf("expected row, got %q", lines[2])
	}
}

func TestWriteOutput(t *testing.T) {
	data := map[string]string{"disease": "Apple Scab"}

	var js bytes.Buffer
	if err := writeOutput(&js, "json", data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `"disease": "Apple Scab"`) {
		t.Errorf("unexpected json: %s", js.String())
	}

	var ym bytes.Buffer
	if err := writeOutput(&ym, "yaml", data); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(ym.String()) != "disease: Apple Scab" {
		t.Errorf("unexpected yaml: %s", ym.String())
	}
}
