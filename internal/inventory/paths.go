package inventory

import (
	"fmt"
	"path/filepath"
)

// ScenePaths holds the artifact file paths for one scene. Names carry the
// zero-padded 1-based scene number so a directory listing sorts in scene order.
type ScenePaths struct {
	Scene    int
	Image    string
	Audio    string
	Timing   string
	Subtitle string
	Clip     string
}

// PathsFor returns the artifact paths for a scene under the scenes directory.
func PathsFor(sceneDir string, scene int) ScenePaths {
	return ScenePaths{
		Scene:    scene,
		Image:    filepath.Join(sceneDir, fmt.Sprintf("img_%03d.jpg", scene)),
		Audio:    filepath.Join(sceneDir, fmt.Sprintf("audio_%03d.mp3", scene)),
		Timing:   filepath.Join(sceneDir, fmt.Sprintf("audio_%03d.json", scene)),
		Subtitle: filepath.Join(sceneDir, fmt.Sprintf("sub_%03d.ass", scene)),
		Clip:     filepath.Join(sceneDir, fmt.Sprintf("scene_%03d.mp4", scene)),
	}
}
