package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Captions.MaxChars != 85 {
		t.Fatalf("default max_chars: got %d", cfg.Captions.MaxChars)
	}
	if cfg.Workflow.NetworkConcurrency != 2 || cfg.Workflow.LocalConcurrency != 4 {
		t.Fatalf("default concurrency: got %d/%d", cfg.Workflow.NetworkConcurrency, cfg.Workflow.LocalConcurrency)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
project_dir = "` + filepath.Join(dir, "proj") + `"

[captions]
mode = "DYNAMIC"

[voice]
mode = "local"
api_keys = ["  sk_one ", "", "sk_two"]

[music]
mood = "Tension"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Captions.Mode != "dynamic" {
		t.Fatalf("mode not normalized: %q", cfg.Captions.Mode)
	}
	if len(cfg.Voice.APIKeys) != 2 || cfg.Voice.APIKeys[0] != "sk_one" {
		t.Fatalf("keys not trimmed: %v", cfg.Voice.APIKeys)
	}
	if cfg.Music.Mood != "tension" {
		t.Fatalf("mood not lowered: %q", cfg.Music.Mood)
	}
}

func TestLoadResolvesLogFileAgainstLogDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
log_dir = "` + filepath.Join(dir, "logs") + `"

[logging]
file = "run.log"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "logs", "run.log")
	if cfg.Logging.File != want {
		t.Fatalf("log file: got %q want %q", cfg.Logging.File, want)
	}
}

func TestValidateRejectsBadOrientation(t *testing.T) {
	cfg := Default()
	cfg.Render.Orientation = "4:3"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "render.orientation") {
		t.Fatalf("expected orientation error, got %v", err)
	}
}

func TestCanvas(t *testing.T) {
	cfg := Default()
	if w, h := cfg.Canvas(); w != 1920 || h != 1080 {
		t.Fatalf("16:9 canvas: %dx%d", w, h)
	}
	cfg.Render.Orientation = "9:16"
	if w, h := cfg.Canvas(); w != 1080 || h != 1920 {
		t.Fatalf("9:16 canvas: %dx%d", w, h)
	}
	cfg.Render.DebugScale = true
	if w, h := cfg.Canvas(); w != 720 || h != 1280 {
		t.Fatalf("debug canvas: %dx%d", w, h)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[workflow]") {
		t.Fatal("sample config missing workflow section")
	}
}
