package script

import (
	"errors"
	"testing"

	"storyreel/internal/services"
)

func TestParseLine(t *testing.T) {
	line := ParseLine("A quiet harbor at dawn. || wide shot, fog over water")
	if line.Spoken != "A quiet harbor at dawn." {
		t.Fatalf("spoken: %q", line.Spoken)
	}
	if line.Visual != "wide shot, fog over water" {
		t.Fatalf("visual: %q", line.Visual)
	}

	bare := ParseLine("No prompt here")
	if bare.Spoken != "No prompt here" || bare.Visual != "" {
		t.Fatalf("bare line: %+v", bare)
	}
}

func TestDecideClassifiesKinds(t *testing.T) {
	tests := []struct {
		name       string
		submission string
		resume     bool
		kind       MergeKind
		audioReset bool
	}{
		{"reset", "one || a\ntwo || b", false, MergeReset, false},
		{"resume", "one || a\ntwo || b", true, MergeResume, false},
		{"patch", "3. replaced line || new prompt", true, MergePatch, false},
		{"patch dash", "12- replaced || prompt", false, MergePatch, false},
		{"marker only", "*AUDIO", false, MergeAudioReset, true},
		{"marker with lines", "*AUDIO\none || a", true, MergeResume, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Decide(tt.submission, tt.resume)
			if err != nil {
				t.Fatal(err)
			}
			if req.Kind != tt.kind {
				t.Fatalf("kind: got %q want %q", req.Kind, tt.kind)
			}
			if req.AudioReset != tt.audioReset {
				t.Fatalf("audio reset: got %v", req.AudioReset)
			}
		})
	}
}

func TestDecideEmptySubmission(t *testing.T) {
	_, err := Decide("  \n\n  ", false)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDecidePatchIgnoresUnmarkedLines(t *testing.T) {
	req, err := Decide("just prose\n2. real edit || prompt\nmore prose", false)
	if err != nil {
		t.Fatal(err)
	}
	if req.Kind != MergePatch {
		t.Fatalf("kind: %q", req.Kind)
	}
	if len(req.Edits) != 1 || req.Edits[0].Scene != 2 {
		t.Fatalf("edits: %+v", req.Edits)
	}
	if req.Edits[0].Line.Spoken != "real edit" || req.Edits[0].Line.Visual != "prompt" {
		t.Fatalf("edit line: %+v", req.Edits[0].Line)
	}
}

func TestDecideZeroSceneIsNotAPatch(t *testing.T) {
	req, err := Decide("0 this starts with a zero", false)
	if err != nil {
		t.Fatal(err)
	}
	if req.Kind != MergeReset {
		t.Fatalf("kind: %q", req.Kind)
	}
}
