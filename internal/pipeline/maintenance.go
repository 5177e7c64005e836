package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"storyreel/internal/inventory"
	"storyreel/internal/script"
	"storyreel/internal/services"
)

// ParseSceneSelection parses a user scene selection like "3", "1,4,7" or
// "10-15" (mixes allowed: "1,3-5,9") into sorted unique 1-based indices.
func ParseSceneSelection(selection string) ([]int, error) {
	seen := make(map[int]bool)
	for _, part := range strings.Split(selection, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, found := strings.Cut(part, "-")
		if !found {
			hi = lo
		}
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "selection", "bad scene number "+part, nil)
		}
		last, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "selection", "bad scene range "+part, nil)
		}
		if first < 1 || last < first {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "selection", "invalid scene range "+part, nil)
		}
		for idx := first; idx <= last; idx++ {
			seen[idx] = true
		}
	}
	if len(seen) == 0 {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "selection", "empty scene selection", nil)
	}
	scenes := make([]int, 0, len(seen))
	for idx := range seen {
		scenes = append(scenes, idx)
	}
	sort.Ints(scenes)
	return scenes, nil
}

// DeleteScenes removes artifacts for the selected scenes so the next run
// regenerates them. keepAudio preserves the synthesized speech tracks.
func (p *Pipeline) DeleteScenes(selection string, keepAudio bool) ([]int, error) {
	scenes, err := ParseSceneSelection(selection)
	if err != nil {
		return nil, err
	}
	lines, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	for _, idx := range scenes {
		if idx > len(lines) {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "delete",
				fmt.Sprintf("scene %d outside project of %d scenes", idx, len(lines)), nil)
		}
	}

	sceneDir := p.cfg.SceneDir()
	for _, idx := range scenes {
		paths := inventory.PathsFor(sceneDir, idx)
		var delErr error
		if keepAudio {
			delErr = inventory.InvalidatePatch(paths)
		} else {
			delErr = inventory.InvalidateAll(paths)
		}
		if delErr != nil {
			return nil, services.Wrap(services.ErrTransient, "pipeline", "delete", "remove scene artifacts", delErr)
		}
	}
	return scenes, nil
}

// ClearRenders deletes every composed clip and subtitle file while keeping
// images, audio and timing, forcing re-composition on the next run. Returns
// the scenes whose clips were cleared.
func (p *Pipeline) ClearRenders() ([]int, error) {
	lines, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	sceneDir := p.cfg.SceneDir()
	var cleared []int
	for idx := 1; idx <= len(lines); idx++ {
		if err := inventory.InvalidateClip(inventory.PathsFor(sceneDir, idx)); err != nil {
			return cleared, services.Wrap(services.ErrTransient, "pipeline", "clear", "remove clip", err)
		}
		cleared = append(cleared, idx)
	}
	return cleared, nil
}

// ProjectStatus is a point-in-time view of the project for status surfaces.
// The Missing lists name the scenes lacking each artifact kind, so a scene
// that already has audio but lost its image shows up in MissingImages.
type ProjectStatus struct {
	SceneCount    int
	Pending       []int
	Scenes        []SceneReport
	MissingImages []int
	MissingAudio  []int
	MissingTiming []int
	MissingClips  []int
}

// SceneReport pairs a scene's text with its artifact state.
type SceneReport struct {
	Scene  int
	Spoken string
	State  inventory.SceneState
}

// Status inspects the store and disk without mutating anything.
func (p *Pipeline) Status() (*ProjectStatus, error) {
	lines, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	snap := inventory.Take(p.fs, p.cfg.SceneDir(), len(lines))
	status := &ProjectStatus{SceneCount: len(lines), Pending: snap.Pending()}
	for i, line := range lines {
		scene := i + 1
		st, _ := snap.Status(scene)
		status.Scenes = append(status.Scenes, SceneReport{
			Scene:  scene,
			Spoken: truncate(line.Spoken, 60),
			State:  st.State(),
		})
		if !st.Image {
			status.MissingImages = append(status.MissingImages, scene)
		}
		if !st.Audio {
			status.MissingAudio = append(status.MissingAudio, scene)
		}
		if !st.Timing {
			status.MissingTiming = append(status.MissingTiming, scene)
		}
		if !st.Clip {
			status.MissingClips = append(status.MissingClips, scene)
		}
	}
	return status, nil
}

// Lines returns the stored script.
func (p *Pipeline) Lines() ([]script.Line, error) {
	return p.store.Load()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
