// Package batch partitions pending scenes into concurrency-limited waves and
// runs scene workers in parallel per wave. Wave size is picked once per run:
// high for purely local composition work, low for rate-limited generator
// traffic. A scene failure is absorbed and reported; it never aborts the run
// unless the error indicates a broken configuration no scene can work around.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"storyreel/internal/logging"
	"storyreel/internal/services"
)

// ProcessFunc does the work for one scene and reports whether any generator
// was invoked.
type ProcessFunc func(ctx context.Context, scene int) (bool, error)

// Progress is one status record emitted while a run advances.
type Progress struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
	Elapsed string `json:"elapsedTime"`
}

// ReportFunc receives progress records. May be nil.
type ReportFunc func(Progress)

// Options sizes and paces the scheduler.
type Options struct {
	NetworkConcurrency int
	LocalConcurrency   int
	Cooldown           time.Duration
}

// Result summarizes a completed run.
type Result struct {
	Completed []int
	Failed    map[int]error
	Waves     []int
}

// Scheduler runs pending scenes in waves.
type Scheduler struct {
	opts   Options
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewScheduler returns a scheduler with the given pacing options.
func NewScheduler(opts Options, logger *slog.Logger) *Scheduler {
	if opts.NetworkConcurrency < 1 {
		opts.NetworkConcurrency = 1
	}
	if opts.LocalConcurrency < 1 {
		opts.LocalConcurrency = opts.NetworkConcurrency
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With(logging.String(logging.FieldComponent, "batch")),
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// Concurrency picks the wave size for a run. localOnly means every pending
// scene already has its image and audio, leaving only CPU-bound work.
func (s *Scheduler) Concurrency(localOnly bool) int {
	if localOnly {
		return s.opts.LocalConcurrency
	}
	return s.opts.NetworkConcurrency
}

// Run processes the pending scenes in scene-index order. Per-scene failures
// are collected in the result; only errors fatal to the whole run abort early.
func (s *Scheduler) Run(ctx context.Context, pending []int, localOnly bool, process ProcessFunc, report ReportFunc) (Result, error) {
	result := Result{Failed: make(map[int]error)}
	if len(pending) == 0 {
		return result, nil
	}

	scenes := append([]int(nil), pending...)
	sort.Ints(scenes)
	concurrency := s.Concurrency(localOnly)
	start := s.now()
	processed := 0

	for waveStart := 0; waveStart < len(scenes); waveStart += concurrency {
		waveEnd := waveStart + concurrency
		if waveEnd > len(scenes) {
			waveEnd = len(scenes)
		}
		wave := scenes[waveStart:waveEnd]
		result.Waves = append(result.Waves, len(wave))

		type outcome struct {
			scene     int
			generated bool
			err       error
		}
		outcomes := make([]outcome, len(wave))

		g, waveCtx := errgroup.WithContext(ctx)
		for i, sceneIdx := range wave {
			i, sceneIdx := i, sceneIdx
			g.Go(func() error {
				generated, err := process(waveCtx, sceneIdx)
				outcomes[i] = outcome{scene: sceneIdx, generated: generated, err: err}
				if err != nil && services.FatalToRun(err) {
					return err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}

		generated := false
		for _, o := range outcomes {
			processed++
			if o.generated {
				generated = true
			}
			if o.err != nil {
				s.logger.Warn("scene failed",
					logging.Int(logging.FieldScene, o.scene),
					logging.Error(o.err))
				result.Failed[o.scene] = o.err
				continue
			}
			result.Completed = append(result.Completed, o.scene)
		}

		if report != nil {
			report(Progress{
				Percent: processed * 100 / len(scenes),
				Message: fmt.Sprintf("processed %d of %d scenes", processed, len(scenes)),
				Elapsed: FormatElapsed(s.now().Sub(start)),
			})
		}

		// Rate-limit courtesy pause, but only when this wave actually hit
		// the generators and more work remains.
		if generated && waveEnd < len(scenes) && s.opts.Cooldown > 0 {
			if err := s.sleep(ctx, s.opts.Cooldown); err != nil {
				return result, err
			}
		}
	}

	sort.Ints(result.Completed)
	return result, nil
}

// FormatElapsed renders a duration as MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
