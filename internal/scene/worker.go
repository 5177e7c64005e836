// Package scene implements the per-scene unit of work: ensure the image,
// audio, timing and composed clip exist for one script line, generating
// whatever is missing. Workers touch only their own scene's files, so the
// scheduler can run them in parallel without locking.
package scene

import (
	"context"
	"log/slog"

	"storyreel/internal/captions"
	"storyreel/internal/inventory"
	"storyreel/internal/logging"
	"storyreel/internal/render"
	"storyreel/internal/retry"
	"storyreel/internal/script"
	"storyreel/internal/services"
	"storyreel/internal/timing"
)

// ImageGenerator produces a scene image from a visual prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, width, height int, dest string, minBytes int64) error
}

// SpeechGenerator produces the spoken audio track.
type SpeechGenerator interface {
	Synthesize(ctx context.Context, text, dest string) error
}

// Aligner produces word-level timestamps for an audio track.
type Aligner interface {
	Align(ctx context.Context, audioPath, dest string) error
}

// Composer renders the final clip from the scene artifacts.
type Composer interface {
	ComposeScene(ctx context.Context, in render.ComposeInput) error
}

// CaptionOptions selects caption behavior for composed clips.
type CaptionOptions struct {
	Enabled   bool
	Mode      string
	MidScreen bool
	MaxChars  int
}

// RenderOptions carries the visual composition parameters.
type RenderOptions struct {
	Width             int
	Height            int
	Pendulum          bool
	PendulumAmplitude float64
	PendulumSpeed     float64
	TextureFile       string
	TextureOpacity    float64
}

// Worker generates the missing artifacts for single scenes.
type Worker struct {
	images   ImageGenerator
	speech   SpeechGenerator
	aligner  Aligner
	composer Composer

	imageRetry retry.Policy
	captions   CaptionOptions
	render     RenderOptions
	logger     *slog.Logger
}

// NewWorker wires a worker from its collaborators.
func NewWorker(images ImageGenerator, speech SpeechGenerator, aligner Aligner, composer Composer,
	imageRetry retry.Policy, captionOpts CaptionOptions, renderOpts RenderOptions, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		images:     images,
		speech:     speech,
		aligner:    aligner,
		composer:   composer,
		imageRetry: imageRetry,
		captions:   captionOpts,
		render:     renderOpts,
		logger:     logger.With(logging.String(logging.FieldComponent, "scene")),
	}
}

// Process brings one scene to the composed state. status is the inventory
// observation at run start; artifacts already present are left untouched. The
// returned boolean reports whether any generator was invoked, which the
// scheduler uses to decide inter-wave cooldowns. A failure leaves artifacts
// partially present for the next run to pick up.
func (w *Worker) Process(ctx context.Context, line script.Line, status inventory.SceneStatus) (bool, error) {
	ctx = services.WithScene(ctx, status.Paths.Scene)
	log := w.logger.With(logging.Int(logging.FieldScene, status.Paths.Scene))
	paths := status.Paths
	generated := false

	if !status.Image {
		if line.Visual == "" {
			return false, services.Wrap(services.ErrValidation, "scene", "image", "scene has no visual prompt", nil)
		}
		log.Info("generating image")
		err := w.imageRetry.Do(ctx, func(ctx context.Context) error {
			return w.images.Generate(ctx, line.Visual, w.render.Width, w.render.Height, paths.Image, inventory.MinImageBytes)
		})
		if err != nil {
			return generated, services.Wrap(services.ErrTransient, "scene", "image", "image generation exhausted retries", err)
		}
		generated = true
	}

	if !status.Audio {
		if line.Spoken == "" {
			return generated, services.Wrap(services.ErrValidation, "scene", "audio", "scene has no spoken text", nil)
		}
		log.Info("synthesizing speech")
		// No retry here: the generator handles its own credential fallback.
		if err := w.speech.Synthesize(ctx, line.Spoken, paths.Audio); err != nil {
			return generated, err
		}
		generated = true
	}

	if !status.Timing {
		log.Info("aligning audio")
		if err := w.aligner.Align(ctx, paths.Audio, paths.Timing); err != nil {
			return generated, err
		}
	}

	if !status.Clip {
		subtitle := ""
		if w.captions.Enabled {
			path, err := w.writeCaptions(line, paths)
			if err != nil {
				return generated, err
			}
			subtitle = path
		}
		log.Info("composing clip")
		err := w.composer.ComposeScene(ctx, render.ComposeInput{
			Image:             paths.Image,
			Audio:             paths.Audio,
			Subtitle:          subtitle,
			Texture:           w.render.TextureFile,
			Output:            paths.Clip,
			Width:             w.render.Width,
			Height:            w.render.Height,
			Pendulum:          w.render.Pendulum,
			PendulumAmplitude: w.render.PendulumAmplitude,
			PendulumSpeed:     w.render.PendulumSpeed,
			TextureOpacity:    w.render.TextureOpacity,
		})
		if err != nil {
			return generated, err
		}
	}

	return generated, nil
}

func (w *Worker) writeCaptions(line script.Line, paths inventory.ScenePaths) (string, error) {
	timings, err := timing.Load(paths.Timing)
	if err != nil {
		return "", err
	}
	reconciled := timing.Reconcile(timings, line.Spoken)
	cues := captions.NewBucketer(w.captions.Mode, w.captions.MaxChars).Bucket(reconciled)
	if len(cues) == 0 {
		// Alignment produced nothing usable; compose without captions.
		return "", nil
	}
	opts := captions.StyleOptions{
		Width:     w.render.Width,
		Height:    w.render.Height,
		Mode:      w.captions.Mode,
		MidScreen: w.captions.MidScreen,
	}
	if err := captions.WriteFile(paths.Subtitle, cues, opts); err != nil {
		return "", err
	}
	return paths.Subtitle, nil
}
