// Package align produces word-level timestamps for a synthesized audio track
// by shelling out to a whisper transcription binary.
package align

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"storyreel/internal/services"
	"storyreel/internal/timing"
)

const (
	// WhisperCommand is the transcription binary.
	WhisperCommand = "whisper"
	// DefaultModel balances alignment quality against local runtime.
	DefaultModel = "small"
)

// Service wraps the whisper CLI.
type Service struct {
	binary        string
	model         string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// New returns an alignment service using the given model.
func New(model string) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{binary: WhisperCommand, model: model}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Align transcribes audioPath with word timestamps and writes the normalized
// timing payload to dest. The whisper output lands in a scratch directory next
// to dest and is reparsed into the canonical segment/word shape.
func (s *Service) Align(ctx context.Context, audioPath, dest string) error {
	if audioPath == "" {
		return services.Wrap(services.ErrValidation, "align", "align", "audio path required", nil)
	}

	outDir, err := os.MkdirTemp(filepath.Dir(dest), "align-*")
	if err != nil {
		return services.Wrap(services.ErrTransient, "align", "align", "create scratch dir", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		audioPath,
		"--model", s.model,
		"--output_format", "json",
		"--word_timestamps", "True",
		"--output_dir", outDir,
	}
	if err := s.run(ctx, s.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "align", "align", "whisper failed", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	produced := filepath.Join(outDir, base+".json")
	timings, err := timing.Load(produced)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "align", "align", "whisper produced no usable output", err)
	}
	return timing.Save(dest, timings)
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
