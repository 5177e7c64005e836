package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "storyreel.log")
	logger, err := New(Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("run starting", String("merge", "reset"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"merge":"reset"`) {
		t.Fatalf("log file content: %s", data)
	}
}

func TestPrettyHandlerPullsComponentForward(t *testing.T) {
	var sb strings.Builder
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&sb, lvl))

	logger.Info("scene composed", String(FieldComponent, "scene-worker"), Int(FieldScene, 3))

	line := sb.String()
	if !strings.Contains(line, "scene-worker: scene composed") {
		t.Fatalf("component prefix missing: %q", line)
	}
	if !strings.Contains(line, "scene=3") {
		t.Fatalf("scene attr missing: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var sb strings.Builder
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&sb, lvl))

	logger.Info("merge refused", String("reason", "too few lines"))

	if !strings.Contains(sb.String(), `reason="too few lines"`) {
		t.Fatalf("expected quoted value, got %q", sb.String())
	}
}

func TestWithContextAddsRunAndScene(t *testing.T) {
	var sb strings.Builder
	lvl := new(slog.LevelVar)
	base := slog.New(newPrettyHandler(&sb, lvl))

	ctx := services.WithRunID(context.Background(), "run-42")
	ctx = services.WithScene(ctx, 7)
	WithContext(ctx, base).Info("scene queued")

	line := sb.String()
	if !strings.Contains(line, "run_id=run-42") || !strings.Contains(line, "scene=7") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("noisy"); got != slog.LevelInfo {
		t.Fatalf("parseLevel: got %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("parseLevel: got %v", got)
	}
}
