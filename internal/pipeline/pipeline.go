// Package pipeline orchestrates a full run: merge the submitted script,
// invalidate stale artifacts, diff the inventory against disk, process pending
// scenes in waves, and assemble the final video. Runs are exclusive per
// project; a file lock rejects concurrent invocations.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"storyreel/internal/assemble"
	"storyreel/internal/batch"
	"storyreel/internal/config"
	"storyreel/internal/inventory"
	"storyreel/internal/journal"
	"storyreel/internal/logging"
	"storyreel/internal/scene"
	"storyreel/internal/script"
	"storyreel/internal/services"
)

// LockName is the advisory lock file under the project directory.
const LockName = ".storyreel.lock"

// Worker is the per-scene processor.
type Worker interface {
	Process(ctx context.Context, line script.Line, status inventory.SceneStatus) (bool, error)
}

// Assembler builds the final video from completed clips.
type Assembler interface {
	Assemble(ctx context.Context, clips []string, projectDir string, opts assemble.Options) (string, error)
}

// Journal records run history. May be nil to skip recording.
type Journal interface {
	StartRun(ctx context.Context, id, mergeKind string, sceneCount, pendingCount int) error
	FinishRun(ctx context.Context, id string, completed, failed int, outputPath string, runErr error) error
	RecordScene(ctx context.Context, runID string, scene int, status, detail string) error
}

// Pipeline wires the run orchestration.
type Pipeline struct {
	cfg       *config.Config
	store     *script.Store
	fs        inventory.FS
	worker    Worker
	scheduler *batch.Scheduler
	assembler Assembler
	journal   Journal
	logger    *slog.Logger
}

// New builds a pipeline from its collaborators.
func New(cfg *config.Config, store *script.Store, fs inventory.FS, worker Worker,
	scheduler *batch.Scheduler, assembler Assembler, jnl Journal, logger *slog.Logger) *Pipeline {
	if fs == nil {
		fs = inventory.DiskFS{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		fs:        fs,
		worker:    worker,
		scheduler: scheduler,
		assembler: assembler,
		journal:   jnl,
		logger:    logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID      string
	MergeKind  script.MergeKind
	SceneCount int
	Pending    []int
	Completed  []int
	Failed     map[int]error
	Output     string
}

// Run merges the submission and drives the project to a final video. report
// receives progress records as waves complete; it may be nil.
func (p *Pipeline) Run(ctx context.Context, submission string, resume bool, report batch.ReportFunc) (*RunResult, error) {
	lock := flock.New(lockPath(p.cfg))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock", "acquire project lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock", "another run is already in progress", nil)
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	log := p.logger.With(logging.String(logging.FieldRunID, runID))

	req, err := script.Decide(submission, resume)
	if err != nil {
		return nil, err
	}
	outcome, err := p.store.Apply(req, p.cfg.Workflow.ResumeGuardScenes)
	if err != nil {
		return nil, err
	}
	if err := p.invalidate(outcome); err != nil {
		return nil, err
	}

	snap := inventory.Take(p.fs, p.cfg.SceneDir(), len(outcome.Lines))
	pending := snap.Pending()
	result := &RunResult{
		RunID:      runID,
		MergeKind:  outcome.Kind,
		SceneCount: len(outcome.Lines),
		Pending:    pending,
		Failed:     make(map[int]error),
	}
	log.Info("run starting",
		logging.String("merge", string(outcome.Kind)),
		logging.Int("scenes", len(outcome.Lines)),
		logging.Int("pending", len(pending)))

	if p.journal != nil {
		if err := p.journal.StartRun(ctx, runID, string(outcome.Kind), len(outcome.Lines), len(pending)); err != nil {
			log.Warn("journal start failed", logging.Error(err))
		}
	}

	batchResult, runErr := p.scheduler.Run(ctx, pending, snap.AllLocal(), func(ctx context.Context, idx int) (bool, error) {
		status, ok := snap.Status(idx)
		if !ok {
			return false, services.Wrap(services.ErrValidation, "pipeline", "schedule", "scene index out of range", nil)
		}
		generated, err := p.worker.Process(ctx, outcome.Lines[idx-1], status)
		p.recordScene(ctx, runID, idx, err)
		return generated, err
	}, report)

	result.Completed = batchResult.Completed
	result.Failed = batchResult.Failed
	if runErr != nil {
		p.finishJournal(ctx, runID, result, runErr)
		return result, runErr
	}

	// Re-inspect disk: completed scenes from this run plus pre-existing ones.
	final := inventory.Take(p.fs, p.cfg.SceneDir(), len(outcome.Lines))
	output, err := p.assembler.Assemble(ctx, final.CompletedClips(), p.cfg.Paths.ProjectDir, assemble.Options{
		MusicDir:    p.cfg.Paths.MusicDir,
		Mood:        p.cfg.Music.Mood,
		Track:       p.cfg.Music.Track,
		Volume:      p.cfg.Music.Volume,
		FadeSeconds: p.cfg.Music.FadeSeconds,
	})
	if err != nil {
		p.finishJournal(ctx, runID, result, err)
		return result, err
	}
	result.Output = output

	if report != nil {
		report(batch.Progress{Percent: 100, Message: "final video at " + output, Elapsed: "00:00"})
	}
	p.finishJournal(ctx, runID, result, nil)
	log.Info("run finished", logging.String("output", output),
		logging.Int("failed", len(result.Failed)))
	return result, nil
}

func (p *Pipeline) recordScene(ctx context.Context, runID string, idx int, err error) {
	if p.journal == nil {
		return
	}
	status, detail := journal.SceneCompleted, ""
	if err != nil {
		status, detail = journal.SceneFailed, err.Error()
	}
	if jerr := p.journal.RecordScene(ctx, runID, idx, status, detail); jerr != nil {
		p.logger.Warn("journal scene record failed", logging.Error(jerr))
	}
}

func (p *Pipeline) finishJournal(ctx context.Context, runID string, result *RunResult, runErr error) {
	if p.journal == nil {
		return
	}
	if err := p.journal.FinishRun(ctx, runID, len(result.Completed), len(result.Failed), result.Output, runErr); err != nil {
		p.logger.Warn("journal finish failed", logging.Error(err))
	}
}

// invalidate deletes the artifacts the merge made stale.
func (p *Pipeline) invalidate(outcome script.MergeOutcome) error {
	sceneDir := p.cfg.SceneDir()

	if outcome.ResetArtifacts {
		if err := os.RemoveAll(sceneDir); err != nil {
			return services.Wrap(services.ErrTransient, "pipeline", "invalidate", "clear scene dir", err)
		}
	}
	if err := os.MkdirAll(sceneDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "invalidate", "create scene dir", err)
	}

	if outcome.AudioReset {
		for idx := 1; idx <= len(outcome.Lines); idx++ {
			if err := inventory.InvalidateAudio(inventory.PathsFor(sceneDir, idx)); err != nil {
				return services.Wrap(services.ErrTransient, "pipeline", "invalidate", "audio reset", err)
			}
		}
	}

	for _, idx := range outcome.PatchedScenes {
		if err := inventory.InvalidatePatch(inventory.PathsFor(sceneDir, idx)); err != nil {
			return services.Wrap(services.ErrTransient, "pipeline", "invalidate", "patch", err)
		}
	}
	return nil
}

func lockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.ProjectDir, LockName)
}

// NewDefaultWorker builds the production scene worker from configuration.
// Declared here so the CLI and API share one wiring.
func NewDefaultWorker(cfg *config.Config, images scene.ImageGenerator, speech scene.SpeechGenerator,
	aligner scene.Aligner, composer scene.Composer, logger *slog.Logger) *scene.Worker {
	width, height := cfg.Canvas()
	return scene.NewWorker(images, speech, aligner, composer,
		cfg.ImageRetryPolicy(),
		scene.CaptionOptions{
			Enabled:   cfg.Captions.Enabled,
			Mode:      cfg.Captions.Mode,
			MidScreen: cfg.Captions.MidScreen,
			MaxChars:  cfg.Captions.MaxChars,
		},
		scene.RenderOptions{
			Width:             width,
			Height:            height,
			Pendulum:          cfg.Render.PendulumEnabled,
			PendulumAmplitude: cfg.Render.PendulumAmplitude,
			PendulumSpeed:     cfg.Render.PendulumSpeed,
			TextureFile:       cfg.Render.TextureFile,
			TextureOpacity:    cfg.Render.TextureOpacity,
		},
		logger)
}
