package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"storyreel/internal/services"
)

// EdgeTTSCommand is the local synthesis binary.
const EdgeTTSCommand = "edge-tts"

// Local shells out to edge-tts for offline synthesis.
type Local struct {
	voice         string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewLocal returns a local generator using the given neural voice name.
func NewLocal(voice string) *Local {
	return &Local{voice: voice}
}

// WithCommandRunner sets a custom command runner (for testing).
func (l *Local) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	l.commandRunner = runner
}

// Synthesize writes the spoken audio for text to dest.
func (l *Local) Synthesize(ctx context.Context, text, dest string) error {
	if text == "" {
		return services.Wrap(services.ErrValidation, "speech", "synthesize", "empty text", nil)
	}
	args := []string{"--voice", l.voice, "--text", text, "--write-media", dest}
	if err := l.run(ctx, EdgeTTSCommand, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "speech", "synthesize", "edge-tts failed", err)
	}
	return nil
}

func (l *Local) run(ctx context.Context, name string, args ...string) error {
	if l.commandRunner != nil {
		return l.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
