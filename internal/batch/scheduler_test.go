package batch

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"storyreel/internal/services"
)

func testScheduler(opts Options) (*Scheduler, *int) {
	s := NewScheduler(opts, nil)
	sleeps := 0
	s.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	return s, &sleeps
}

func TestRunWaveSizes(t *testing.T) {
	s, _ := testScheduler(Options{NetworkConcurrency: 2, LocalConcurrency: 4})

	var mu sync.Mutex
	var order []int
	result, err := s.Run(context.Background(), []int{1, 2, 3}, false,
		func(ctx context.Context, scene int) (bool, error) {
			mu.Lock()
			order = append(order, scene)
			mu.Unlock()
			return false, nil
		}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(result.Waves, []int{2, 1}) {
		t.Fatalf("waves: %v", result.Waves)
	}
	if !reflect.DeepEqual(result.Completed, []int{1, 2, 3}) {
		t.Fatalf("completed: %v", result.Completed)
	}
	// First wave holds scenes 1 and 2 in some order, second holds 3.
	if order[2] != 3 {
		t.Fatalf("scene 3 not in final wave: %v", order)
	}
}

func TestRunLocalConcurrency(t *testing.T) {
	s, _ := testScheduler(Options{NetworkConcurrency: 2, LocalConcurrency: 4})
	result, err := s.Run(context.Background(), []int{1, 2, 3, 4}, true,
		func(ctx context.Context, scene int) (bool, error) { return false, nil }, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.Waves, []int{4}) {
		t.Fatalf("waves: %v", result.Waves)
	}
}

func TestRunAbsorbsSceneFailures(t *testing.T) {
	s, _ := testScheduler(Options{NetworkConcurrency: 2})
	boom := errors.New("backend down")
	result, err := s.Run(context.Background(), []int{1, 2, 3}, false,
		func(ctx context.Context, scene int) (bool, error) {
			if scene == 2 {
				return false, boom
			}
			return false, nil
		}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.Completed, []int{1, 3}) {
		t.Fatalf("completed: %v", result.Completed)
	}
	if !errors.Is(result.Failed[2], boom) {
		t.Fatalf("failed map: %v", result.Failed)
	}
}

func TestRunValidationErrorAbsorbed(t *testing.T) {
	s, _ := testScheduler(Options{NetworkConcurrency: 2})
	malformed := services.Wrap(services.ErrValidation, "scene", "image", "scene has no visual prompt", nil)
	result, err := s.Run(context.Background(), []int{1, 2, 3}, false,
		func(ctx context.Context, scene int) (bool, error) {
			if scene == 1 {
				return false, malformed
			}
			return false, nil
		}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.Completed, []int{2, 3}) {
		t.Fatalf("completed: %v", result.Completed)
	}
	if !errors.Is(result.Failed[1], services.ErrValidation) {
		t.Fatalf("failed map: %v", result.Failed)
	}
}

func TestRunFatalErrorAborts(t *testing.T) {
	s, _ := testScheduler(Options{NetworkConcurrency: 1})
	fatal := services.Wrap(services.ErrConfiguration, "scene", "image", "bad input", nil)
	calls := 0
	_, err := s.Run(context.Background(), []int{1, 2, 3}, false,
		func(ctx context.Context, scene int) (bool, error) {
			calls++
			return false, fatal
		}, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected fatal abort, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("run continued after fatal error: %d calls", calls)
	}
}

func TestRunCooldownOnlyAfterGeneratingWaves(t *testing.T) {
	s, sleeps := testScheduler(Options{NetworkConcurrency: 1, Cooldown: time.Second})
	_, err := s.Run(context.Background(), []int{1, 2, 3}, false,
		func(ctx context.Context, scene int) (bool, error) {
			// Only scene 1's wave does generator work.
			return scene == 1, nil
		}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if *sleeps != 1 {
		t.Fatalf("cooldowns: %d", *sleeps)
	}
}

func TestRunProgressRecords(t *testing.T) {
	s, _ := testScheduler(Options{NetworkConcurrency: 2})
	var records []Progress
	_, err := s.Run(context.Background(), []int{1, 2, 3}, false,
		func(ctx context.Context, scene int) (bool, error) { return false, nil },
		func(p Progress) { records = append(records, p) })
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records: %+v", records)
	}
	if records[0].Percent != 66 || records[1].Percent != 100 {
		t.Fatalf("percents: %d, %d", records[0].Percent, records[1].Percent)
	}
	if records[0].Elapsed == "" {
		t.Fatal("missing elapsed time")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{61 * time.Second, "01:01"},
		{10*time.Minute + 5*time.Second, "10:05"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Fatalf("FormatElapsed(%v): got %q want %q", tt.d, got, tt.want)
		}
	}
}
