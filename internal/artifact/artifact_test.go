// internal/artifact/artifact_test.go
package artifact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"mediagrab/pkg/types"
)

var sampleLinks = []types.VideoLink{
	{Title: "First Clip", URL: "http://videos/1.mp4"},
	{Title: "Second Clip", URL: "http://videos/2.mp4"},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"txt", FormatText, false},
		{"TXT", FormatText, false},
		{"xlsx", FormatXLSX, false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRenderText(t *testing.T) {
	data, err := Render(sampleLinks, FormatText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "First Clip - http://videos/1.mp4\nSecond Clip - http://videos/2.mp4\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, string(data))
	}
}

func TestRenderText_Empty(t *testing.T) {
	data, err := Render(nil, FormatText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty artifact, got %q", string(data))
	}
}

func TestRenderXLSX(t *testing.T) {
	data, err := Render(sampleLinks, FormatXLSX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Links")
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "First Clip" || rows[1][1] != "http://videos/1.mp4" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
}

func TestFileName(t *testing.T) {
	got := FileName("abc123", FormatText)
	if got != "video_links_abc123.txt" {
		t.Errorf("unexpected filename %q", got)
	}
	if !strings.HasSuffix(FileName("abc123", FormatXLSX), ".xlsx") {
		t.Error("expected xlsx extension")
	}
}
