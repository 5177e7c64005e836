// Package assemble concatenates completed scene clips into the final video
// and mixes a background music track underneath the narration.
package assemble

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storyreel/internal/fileutil"
	"storyreel/internal/logging"
	"storyreel/internal/services"
)

// FinalName is the output file written under the project directory.
const FinalName = "final.mp4"

// DefaultMood is the fallback music directory when the configured mood has no
// tracks.
const DefaultMood = "neutral"

// Renderer is the slice of the ffmpeg client the assembler needs.
type Renderer interface {
	Concat(ctx context.Context, clips []string, output string) error
	MixMusic(ctx context.Context, master, music, output string, volume, fadeSeconds float64) error
}

// Options selects the background music behavior.
type Options struct {
	MusicDir    string
	Mood        string
	Track       string
	Volume      float64
	FadeSeconds float64
}

// Assembler builds the final video.
type Assembler struct {
	renderer Renderer
	logger   *slog.Logger
	pick     func(n int) int
}

// New returns an assembler using the given renderer.
func New(renderer Renderer, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{
		renderer: renderer,
		logger:   logger.With(logging.String(logging.FieldComponent, "assemble")),
		pick:     rand.Intn,
	}
}

// Assemble concatenates the clips, in the order given, into projectDir and
// mixes in background music when a track is available. Returns the final video
// path. An empty clip list aborts: nothing was ever composed.
func (a *Assembler) Assemble(ctx context.Context, clips []string, projectDir string, opts Options) (string, error) {
	if len(clips) == 0 {
		return "", services.Wrap(services.ErrValidation, "assemble", "concat", "no completed scenes to assemble", nil)
	}

	master := filepath.Join(projectDir, "master.mp4")
	final := filepath.Join(projectDir, FinalName)

	a.logger.Info("concatenating clips", logging.Int("clips", len(clips)))
	if err := a.renderer.Concat(ctx, clips, master); err != nil {
		return "", err
	}

	track := a.selectTrack(opts)
	if track == "" {
		// No music available; the master is the final output.
		if err := os.Rename(master, final); err != nil {
			return "", services.Wrap(services.ErrTransient, "assemble", "finalize", "move master", err)
		}
		return final, nil
	}

	a.logger.Info("mixing music", logging.String("track", filepath.Base(track)))
	if err := a.renderer.MixMusic(ctx, master, track, final, opts.Volume, opts.FadeSeconds); err != nil {
		return "", err
	}
	_ = fileutil.RemoveIfExists(master)
	return final, nil
}

// selectTrack resolves the background track: an explicit track wins, then a
// random pick from the mood directory, then from the neutral fallback.
func (a *Assembler) selectTrack(opts Options) string {
	if opts.Track != "" {
		if _, err := os.Stat(opts.Track); err == nil {
			return opts.Track
		}
		a.logger.Warn("configured track missing", logging.String("track", opts.Track))
	}
	if opts.MusicDir == "" {
		return ""
	}
	for _, mood := range moodCandidates(opts.Mood) {
		if track := a.pickFrom(filepath.Join(opts.MusicDir, mood)); track != "" {
			return track
		}
	}
	return ""
}

func moodCandidates(mood string) []string {
	mood = strings.ToLower(strings.TrimSpace(mood))
	if mood == "" || mood == DefaultMood {
		return []string{DefaultMood}
	}
	return []string{mood, DefaultMood}
}

func (a *Assembler) pickFrom(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".mp3", ".wav", ".m4a", ".ogg", ".flac":
			tracks = append(tracks, filepath.Join(dir, entry.Name()))
		}
	}
	if len(tracks) == 0 {
		return ""
	}
	sort.Strings(tracks)
	return tracks[a.pick(len(tracks))]
}
