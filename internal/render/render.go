// Package render drives ffmpeg for scene composition, clip concatenation and
// background music mixing. All invocations go through an injectable runner so
// tests can assert the exact argument lists without a real ffmpeg.
package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"storyreel/internal/services"
)

const (
	// FFmpegCommand and FFprobeCommand are the binaries on PATH.
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"
)

// Client wraps the ffmpeg toolchain.
type Client struct {
	ffmpeg  string
	ffprobe string
	runner  func(ctx context.Context, name string, args ...string) (string, error)
}

// NewClient returns a client using the default binaries.
func NewClient() *Client {
	return &Client{ffmpeg: FFmpegCommand, ffprobe: FFprobeCommand}
}

// WithRunner sets a custom command runner (for testing).
func (c *Client) WithRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	c.runner = runner
}

func (c *Client) run(ctx context.Context, name string, args ...string) (string, error) {
	if c.runner != nil {
		return c.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// ComposeInput is everything one scene composition needs.
type ComposeInput struct {
	Image    string
	Audio    string
	Subtitle string
	Texture  string
	Output   string

	Width  int
	Height int

	Pendulum          bool
	PendulumAmplitude float64
	PendulumSpeed     float64
	TextureOpacity    float64
}

// ComposeScene renders one clip from a still image and an audio track. The
// image is scaled to cover the canvas and cropped; an optional pendulum sway,
// texture overlay and subtitle burn-in are applied on top. Clip length follows
// the audio.
func (c *Client) ComposeScene(ctx context.Context, in ComposeInput) error {
	filter := c.buildComposeFilter(in)

	args := []string{"-y", "-loop", "1", "-i", in.Image, "-i", in.Audio}
	if in.Texture != "" {
		args = append(args, "-i", in.Texture)
	}
	args = append(args,
		"-filter_complex", filter,
		"-map", "[vout]", "-map", "1:a",
		"-c:v", "libx264", "-preset", "medium", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "192k",
		"-shortest",
		in.Output,
	)

	if _, err := c.run(ctx, c.ffmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "compose", "scene composition failed", err)
	}
	return nil
}

func (c *Client) buildComposeFilter(in ComposeInput) string {
	// Scale past the canvas so the sway never exposes the frame edge.
	var steps []string
	if in.Pendulum {
		steps = append(steps,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", in.Width*11/10, in.Height*11/10),
			fmt.Sprintf("rotate='(%s*PI/180)*sin(%s*t)':ow=%d:oh=%d:c=none",
				formatFloat(in.PendulumAmplitude), formatFloat(in.PendulumSpeed), in.Width*11/10, in.Height*11/10),
		)
	} else {
		steps = append(steps, fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", in.Width, in.Height))
	}
	steps = append(steps, fmt.Sprintf("crop=%d:%d", in.Width, in.Height))

	filter := "[0:v]" + strings.Join(steps, ",") + "[base]"
	last := "base"

	if in.Texture != "" {
		opacity := in.TextureOpacity
		if opacity <= 0 {
			opacity = 0.6
		}
		filter += fmt.Sprintf(";[2:v]scale=%d:%d,format=gray[tex];[%s][tex]blend=all_mode=multiply:all_opacity=%s[textured]",
			in.Width, in.Height, last, formatFloat(opacity))
		last = "textured"
	}

	if in.Subtitle != "" {
		filter += fmt.Sprintf(";[%s]subtitles=%s[vout]", last, escapeFilterPath(in.Subtitle))
	} else {
		filter += fmt.Sprintf(";[%s]null[vout]", last)
	}
	return filter
}

// Concat joins the clips into one video using the concat demuxer. Inputs share
// a codec configuration, so streams are copied without re-encoding.
func (c *Client) Concat(ctx context.Context, clips []string, output string) error {
	if len(clips) == 0 {
		return services.Wrap(services.ErrValidation, "render", "concat", "no clips to concatenate", nil)
	}

	listPath := output + ".txt"
	var sb strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&sb, "file '%s'\n", clip)
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "render", "concat", "write concat list", err)
	}
	defer os.Remove(listPath)

	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", output}
	if _, err := c.run(ctx, c.ffmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "concat", "concatenation failed", err)
	}
	return nil
}

// MixMusic lays the music track under the master's audio at the given gain,
// looping it when shorter than the master and fading it out over the final
// fadeSeconds.
func (c *Client) MixMusic(ctx context.Context, master, music, output string, volume, fadeSeconds float64) error {
	duration, err := c.Duration(ctx, master)
	if err != nil {
		return err
	}

	fadeStart := duration - fadeSeconds
	if fadeStart < 0 {
		fadeStart = 0
	}
	filter := fmt.Sprintf(
		"[1:a]volume=%s,afade=t=out:st=%s:d=%s[bg];[0:a][bg]amix=inputs=2:duration=first:dropout_transition=0[aout]",
		formatFloat(volume), formatFloat(fadeStart), formatFloat(fadeSeconds))

	args := []string{
		"-y", "-i", master,
		"-stream_loop", "-1", "-i", music,
		"-filter_complex", filter,
		"-map", "0:v", "-map", "[aout]",
		"-c:v", "copy", "-c:a", "aac", "-b:a", "192k",
		"-shortest",
		output,
	}
	if _, err := c.run(ctx, c.ffmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "mix", "music mix failed", err)
	}
	return nil
}

// Duration probes the container duration in seconds.
func (c *Client) Duration(ctx context.Context, path string) (float64, error) {
	output, err := c.run(ctx, c.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "render", "probe", "duration probe failed", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "render", "probe", "unparseable duration "+strings.TrimSpace(output), err)
	}
	return seconds, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escapeFilterPath quotes a path for use inside a filtergraph. Windows drive
// colons and quotes are the usual offenders.
func escapeFilterPath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.ReplaceAll(path, `\`, `\\`)
	path = strings.ReplaceAll(path, ":", `\:`)
	path = strings.ReplaceAll(path, "'", `\'`)
	return "'" + path + "'"
}
