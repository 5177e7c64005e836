// Package speech synthesizes scene narration. Two generators exist: a remote
// HTTP service with ordered credential fallback, and a local CLI voice for
// offline work. Both write an MP3 artifact; callers pick one by voice mode.
package speech

import "context"

// Generator produces a speech audio file for one scene's spoken text.
type Generator interface {
	Synthesize(ctx context.Context, text, dest string) error
}

// Voice mode names used in configuration.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)
