package assemble

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/services"
	"storyreel/internal/testsupport"
)

type fakeRenderer struct {
	concatClips []string
	mixMaster   string
	mixTrack    string
	mixVolume   float64
	mixFade     float64
	mixCalls    int
}

func (f *fakeRenderer) Concat(ctx context.Context, clips []string, output string) error {
	f.concatClips = append([]string(nil), clips...)
	return os.WriteFile(output, []byte("master"), 0o644)
}

func (f *fakeRenderer) MixMusic(ctx context.Context, master, music, output string, volume, fade float64) error {
	f.mixCalls++
	f.mixMaster = master
	f.mixTrack = music
	f.mixVolume = volume
	f.mixFade = fade
	return os.WriteFile(output, []byte("final"), 0o644)
}

func TestAssembleWithMood(t *testing.T) {
	musicDir := t.TempDir()
	track := filepath.Join(musicDir, "tension", "drums.mp3")
	testsupport.WriteFile(t, track, 64)

	renderer := &fakeRenderer{}
	a := New(renderer, nil)
	projectDir := t.TempDir()

	clips := []string{"/p/scene_001.mp4", "/p/scene_002.mp4"}
	final, err := a.Assemble(context.Background(), clips, projectDir, Options{
		MusicDir: musicDir, Mood: "tension", Volume: 0.12, FadeSeconds: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if final != filepath.Join(projectDir, FinalName) {
		t.Fatalf("final path: %s", final)
	}
	if len(renderer.concatClips) != 2 || renderer.concatClips[0] != clips[0] {
		t.Fatalf("concat clips: %v", renderer.concatClips)
	}
	if renderer.mixTrack != track {
		t.Fatalf("track: %s", renderer.mixTrack)
	}
	if renderer.mixVolume != 0.12 || renderer.mixFade != 3 {
		t.Fatalf("mix params: %v %v", renderer.mixVolume, renderer.mixFade)
	}
	if _, err := os.Stat(filepath.Join(projectDir, "master.mp4")); !os.IsNotExist(err) {
		t.Fatal("master not cleaned up after mix")
	}
}

func TestAssembleMoodFallsBackToNeutral(t *testing.T) {
	musicDir := t.TempDir()
	track := filepath.Join(musicDir, "neutral", "calm.mp3")
	testsupport.WriteFile(t, track, 64)

	renderer := &fakeRenderer{}
	a := New(renderer, nil)
	_, err := a.Assemble(context.Background(), []string{"/p/s1.mp4"}, t.TempDir(), Options{
		MusicDir: musicDir, Mood: "nonexistent-mood",
	})
	if err != nil {
		t.Fatal(err)
	}
	if renderer.mixTrack != track {
		t.Fatalf("track: %s", renderer.mixTrack)
	}
}

func TestAssembleExplicitTrackWins(t *testing.T) {
	musicDir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(musicDir, "neutral", "calm.mp3"), 64)
	explicit := filepath.Join(t.TempDir(), "chosen.mp3")
	testsupport.WriteFile(t, explicit, 64)

	renderer := &fakeRenderer{}
	a := New(renderer, nil)
	_, err := a.Assemble(context.Background(), []string{"/p/s1.mp4"}, t.TempDir(), Options{
		MusicDir: musicDir, Mood: "neutral", Track: explicit,
	})
	if err != nil {
		t.Fatal(err)
	}
	if renderer.mixTrack != explicit {
		t.Fatalf("track: %s", renderer.mixTrack)
	}
}

func TestAssembleNoMusicMovesMaster(t *testing.T) {
	renderer := &fakeRenderer{}
	a := New(renderer, nil)
	projectDir := t.TempDir()

	final, err := a.Assemble(context.Background(), []string{"/p/s1.mp4"}, projectDir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if renderer.mixCalls != 0 {
		t.Fatal("mix must not run without a track")
	}
	if _, err := os.Stat(final); err != nil {
		t.Fatal("final output missing")
	}
}

func TestAssembleNoClips(t *testing.T) {
	a := New(&fakeRenderer{}, nil)
	_, err := a.Assemble(context.Background(), nil, t.TempDir(), Options{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
