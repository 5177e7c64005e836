package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrExternalTool, "compose", "ffmpeg", "scene clip", base)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	if !strings.Contains(err.Error(), "compose: ffmpeg: scene clip") {
		t.Fatalf("detail missing from %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected generic detail, got %q", err.Error())
	}
}

func TestFatalToRun(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{Wrap(ErrConfiguration, "script", "merge", "empty submission", nil), true},
		{Wrap(ErrValidation, "scene", "image", "scene has no visual prompt", nil), false},
		{Wrap(ErrExternalTool, "image", "fetch", "upstream 500", nil), false},
		{Wrap(ErrTransient, "", "", "", nil), false},
	}
	for _, tc := range cases {
		if got := FatalToRun(tc.err); got != tc.fatal {
			t.Fatalf("FatalToRun(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}
