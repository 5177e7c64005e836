package captions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{1.5, "0:00:01.50"},
		{61.27, "0:01:01.27"},
		{3723.999, "1:02:04.00"},
		{-2, "0:00:00.00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.seconds); got != tt.want {
			t.Fatalf("FormatTime(%v): got %q want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestRenderHeaderAndEvents(t *testing.T) {
	cues := []Cue{
		{Text: "First cue.", Start: 0, End: 1.5},
		{Text: "Second cue.", Start: 1.5, End: 3},
	}
	doc := Render(cues, StyleOptions{Width: 1920, Height: 1080, Mode: ModeStatic})
	for _, want := range []string{
		"PlayResX: 1920",
		"PlayResY: 1080",
		"Style: Default,Arial,64,",
		"Dialogue: 0,0:00:00.00,0:00:01.50,Default,,0,0,0,,First cue.",
		"Dialogue: 0,0:00:01.50,0:00:03.00,Default,,0,0,0,,Second cue.",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("missing %q in:\n%s", want, doc)
		}
	}
}

func TestRenderPortraitDynamicStyle(t *testing.T) {
	doc := Render(nil, StyleOptions{Width: 1080, Height: 1920, Mode: ModeDynamic})
	if !strings.Contains(doc, "Style: Default,Arial,120,") {
		t.Fatalf("portrait dynamic font size wrong:\n%s", doc)
	}
	// Dynamic captions center on screen.
	if !strings.Contains(doc, ",1,4,0,5,") {
		t.Fatalf("dynamic outline/alignment wrong:\n%s", doc)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub_001.ass")
	cues := []Cue{{Text: "Hola.", Start: 0, End: 1}}
	if err := WriteFile(path, cues, StyleOptions{Width: 1920, Height: 1080}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Hola.") {
		t.Fatal("cue text missing from written file")
	}
}
