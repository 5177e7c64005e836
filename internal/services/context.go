package services

import "context"

type contextKey string

const (
	sceneContextKey contextKey = "storyreel/scene"
	stageContextKey contextKey = "storyreel/stage"
	runContextKey   contextKey = "storyreel/run"
)

// WithScene returns a context carrying the 1-based scene number.
func WithScene(ctx context.Context, scene int) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sceneContextKey, scene)
}

// SceneFromContext extracts the scene number when present.
func SceneFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	scene, ok := ctx.Value(sceneContextKey).(int)
	return scene, ok
}

// WithStage returns a context carrying a pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, stageContextKey, stage)
}

// StageFromContext extracts the stage name when present.
func StageFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	stage, ok := ctx.Value(stageContextKey).(string)
	if !ok || stage == "" {
		return "", false
	}
	return stage, true
}

// WithRunID returns a context carrying the pipeline run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runContextKey, runID)
}

// RunIDFromContext extracts the run identifier when present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	runID, ok := ctx.Value(runContextKey).(string)
	if !ok || runID == "" {
		return "", false
	}
	return runID, true
}
