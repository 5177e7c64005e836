// Package inventory diffs the per-scene artifacts on disk against the stored
// script. Every snapshot re-checks actual files so manual deletions are picked
// up; nothing is cached between runs. Presence requires the file to exceed a
// small size threshold, guarding against zero-byte writes left by failed
// generator calls.
package inventory

import (
	"os"

	"storyreel/internal/fileutil"
)

// Minimum byte sizes below which an artifact counts as absent.
const (
	MinImageBytes  = 1000
	MinAudioBytes  = 500
	MinTimingBytes = 10
	MinClipBytes   = 1
)

// FS is the capability the inventory needs from the filesystem. The production
// implementation stats real files; tests inject a map.
type FS interface {
	// Size returns the byte size of path, or an error if it does not exist.
	Size(path string) (int64, error)
}

// DiskFS is the os-backed FS.
type DiskFS struct{}

func (DiskFS) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// SceneState is the progression a scene moves through as artifacts appear.
type SceneState string

const (
	StateMissing     SceneState = "missing"
	StateImageReady  SceneState = "image_ready"
	StateAudioReady  SceneState = "audio_ready"
	StateTimingReady SceneState = "timing_ready"
	StateComposed    SceneState = "composed"
)

// SceneStatus is the observed artifact presence for one scene.
type SceneStatus struct {
	Paths  ScenePaths
	Image  bool
	Audio  bool
	Timing bool
	Clip   bool
}

// Complete reports whether the scene needs no further work.
func (s SceneStatus) Complete() bool {
	return s.Image && s.Audio && s.Timing && s.Clip
}

// State collapses artifact presence into the furthest stage reached.
func (s SceneStatus) State() SceneState {
	switch {
	case s.Clip:
		return StateComposed
	case s.Timing:
		return StateTimingReady
	case s.Audio:
		return StateAudioReady
	case s.Image:
		return StateImageReady
	default:
		return StateMissing
	}
}

// Snapshot is the inventory of a whole project at one instant.
type Snapshot struct {
	Scenes []SceneStatus
}

// Take inspects the artifacts for scenes 1..sceneCount under sceneDir.
func Take(fs FS, sceneDir string, sceneCount int) Snapshot {
	snap := Snapshot{Scenes: make([]SceneStatus, 0, sceneCount)}
	for scene := 1; scene <= sceneCount; scene++ {
		paths := PathsFor(sceneDir, scene)
		snap.Scenes = append(snap.Scenes, SceneStatus{
			Paths:  paths,
			Image:  present(fs, paths.Image, MinImageBytes),
			Audio:  present(fs, paths.Audio, MinAudioBytes),
			Timing: present(fs, paths.Timing, MinTimingBytes),
			Clip:   present(fs, paths.Clip, MinClipBytes),
		})
	}
	return snap
}

func present(fs FS, path string, min int64) bool {
	size, err := fs.Size(path)
	return err == nil && size >= min
}

// Pending returns the 1-based indices of scenes that still need work, in
// scene order.
func (s Snapshot) Pending() []int {
	var pending []int
	for _, status := range s.Scenes {
		if !status.Complete() {
			pending = append(pending, status.Paths.Scene)
		}
	}
	return pending
}

// CompletedClips returns the clip paths of complete scenes in scene-index
// order, the order the assembler concatenates them in.
func (s Snapshot) CompletedClips() []string {
	var clips []string
	for _, status := range s.Scenes {
		if status.Complete() {
			clips = append(clips, status.Paths.Clip)
		}
	}
	return clips
}

// Status returns the snapshot entry for a 1-based scene index.
func (s Snapshot) Status(scene int) (SceneStatus, bool) {
	if scene < 1 || scene > len(s.Scenes) {
		return SceneStatus{}, false
	}
	return s.Scenes[scene-1], true
}

// AllLocal reports whether every pending scene already has its image and audio
// on disk, meaning the remaining work is local composition only. The scheduler
// raises concurrency in that case.
func (s Snapshot) AllLocal() bool {
	for _, status := range s.Scenes {
		if status.Complete() {
			continue
		}
		if !status.Image || !status.Audio {
			return false
		}
	}
	return true
}

// InvalidatePatch deletes the artifacts a content patch makes stale. The audio
// track survives, so paid-for speech synthesis is never thrown away by an edit.
func InvalidatePatch(paths ScenePaths) error {
	for _, path := range []string{paths.Image, paths.Timing, paths.Subtitle, paths.Clip} {
		if err := fileutil.RemoveIfExists(path); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateAudio deletes the audio track and everything derived from it. The
// image is kept; only re-synthesis work is forced.
func InvalidateAudio(paths ScenePaths) error {
	for _, path := range []string{paths.Audio, paths.Timing, paths.Subtitle, paths.Clip} {
		if err := fileutil.RemoveIfExists(path); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateAll deletes every artifact of the scene.
func InvalidateAll(paths ScenePaths) error {
	for _, path := range []string{paths.Image, paths.Audio, paths.Timing, paths.Subtitle, paths.Clip} {
		if err := fileutil.RemoveIfExists(path); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateClip deletes only the composed clip, forcing re-composition from
// the surviving inputs.
func InvalidateClip(paths ScenePaths) error {
	if err := fileutil.RemoveIfExists(paths.Subtitle); err != nil {
		return err
	}
	return fileutil.RemoveIfExists(paths.Clip)
}
