package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/services"
)

type call struct {
	name string
	args []string
}

func recordingClient(output string) (*Client, *[]call) {
	c := NewClient()
	var calls []call
	c.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		calls = append(calls, call{name: name, args: args})
		return output, nil
	})
	return c, &calls
}

func argString(c call) string {
	return strings.Join(c.args, " ")
}

func TestComposeSceneBasicFilter(t *testing.T) {
	c, calls := recordingClient("")
	err := c.ComposeScene(context.Background(), ComposeInput{
		Image: "img_001.jpg", Audio: "audio_001.mp3", Output: "scene_001.mp4",
		Width: 1920, Height: 1080,
	})
	if err != nil {
		t.Fatal(err)
	}
	got := (*calls)[0]
	if got.name != FFmpegCommand {
		t.Fatalf("binary: %s", got.name)
	}
	joined := argString(got)
	for _, want := range []string{
		"-loop 1 -i img_001.jpg",
		"-i audio_001.mp3",
		"scale=1920:1080:force_original_aspect_ratio=increase,crop=1920:1080",
		"-shortest",
		"scene_001.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in: %s", want, joined)
		}
	}
	if strings.Contains(joined, "subtitles=") {
		t.Fatal("no subtitle requested")
	}
}

func TestComposeScenePendulumAndTexture(t *testing.T) {
	c, calls := recordingClient("")
	err := c.ComposeScene(context.Background(), ComposeInput{
		Image: "i.jpg", Audio: "a.mp3", Texture: "grain.png", Subtitle: "sub_001.ass",
		Output: "s.mp4", Width: 1080, Height: 1920,
		Pendulum: true, PendulumAmplitude: 4, PendulumSpeed: 1.3, TextureOpacity: 0.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := argString((*calls)[0])
	for _, want := range []string{
		"rotate='(4*PI/180)*sin(1.3*t)'",
		"blend=all_mode=multiply:all_opacity=0.5",
		"subtitles='sub_001.ass'",
		"-i grain.png",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in: %s", want, joined)
		}
	}
}

func TestConcatWritesListAndCopies(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "master.mp4")

	c := NewClient()
	var listContent string
	c.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) {
				data, err := os.ReadFile(args[i+1])
				if err != nil {
					return "", err
				}
				listContent = string(data)
			}
		}
		return "", nil
	})

	clips := []string{"/p/scene_001.mp4", "/p/scene_002.mp4"}
	if err := c.Concat(context.Background(), clips, output); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(listContent, "file '/p/scene_001.mp4'\nfile '/p/scene_002.mp4'\n") {
		t.Fatalf("list content: %q", listContent)
	}
	if _, err := os.Stat(output + ".txt"); !os.IsNotExist(err) {
		t.Fatal("concat list not cleaned up")
	}
}

func TestConcatEmpty(t *testing.T) {
	c, _ := recordingClient("")
	err := c.Concat(context.Background(), nil, "out.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMixMusicFilter(t *testing.T) {
	c := NewClient()
	var ffmpegArgs string
	c.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		if name == FFprobeCommand {
			return "42.5\n", nil
		}
		ffmpegArgs = strings.Join(args, " ")
		return "", nil
	})

	if err := c.MixMusic(context.Background(), "master.mp4", "music.mp3", "final.mp4", 0.12, 3); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"-stream_loop -1 -i music.mp3",
		"volume=0.12",
		"afade=t=out:st=39.5:d=3",
		"amix=inputs=2:duration=first",
		"-c:v copy",
	} {
		if !strings.Contains(ffmpegArgs, want) {
			t.Fatalf("missing %q in: %s", want, ffmpegArgs)
		}
	}
}

func TestDurationParsesProbeOutput(t *testing.T) {
	c, _ := recordingClient(" 17.25 \n")
	seconds, err := c.Duration(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if seconds != 17.25 {
		t.Fatalf("duration: %v", seconds)
	}
}

func TestDurationBadOutput(t *testing.T) {
	c, _ := recordingClient("N/A")
	_, err := c.Duration(context.Background(), "clip.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
