package align

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/services"
	"storyreel/internal/timing"
)

func outputDirFromArgs(t *testing.T, args []string) string {
	t.Helper()
	for i, arg := range args {
		if arg == "--output_dir" && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("no --output_dir in %v", args)
	return ""
}

func TestAlignWritesNormalizedTimings(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio_001.mp3")
	dest := filepath.Join(dir, "audio_001.json")

	payload := `{"segments":[{"start":0,"end":1.4,"text":"hola mundo","words":[
		{"word":"hola","start":0,"end":0.6},{"word":"mundo","start":0.6,"end":1.4}]}]}`

	svc := New("")
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		if name != WhisperCommand {
			t.Fatalf("command: %s", name)
		}
		if args[0] != audio {
			t.Fatalf("audio arg: %s", args[0])
		}
		out := filepath.Join(outputDirFromArgs(t, args), "audio_001.json")
		return os.WriteFile(out, []byte(payload), 0o644)
	})

	if err := svc.Align(context.Background(), audio, dest); err != nil {
		t.Fatal(err)
	}

	timings, err := timing.Load(dest)
	if err != nil {
		t.Fatal(err)
	}
	if timings.WordCount() != 2 {
		t.Fatalf("word count: %d", timings.WordCount())
	}
	if timings.Segments[0].Words[1].Word != "mundo" {
		t.Fatalf("words: %+v", timings.Segments[0].Words)
	}
}

func TestAlignToolFailure(t *testing.T) {
	dir := t.TempDir()
	svc := New("small")
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("exit status 1")
	})
	err := svc.Align(context.Background(), filepath.Join(dir, "a.mp3"), filepath.Join(dir, "a.json"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestAlignMissingOutput(t *testing.T) {
	dir := t.TempDir()
	svc := New("small")
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil
	})
	err := svc.Align(context.Background(), filepath.Join(dir, "a.mp3"), filepath.Join(dir, "a.json"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
