package config

import (
	"fmt"
	"strings"
)

// Validate reports configuration values that cannot drive a pipeline run.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		problems = append(problems, "paths.project_dir is required")
	}

	switch c.Render.Orientation {
	case "16:9", "9:16":
	default:
		problems = append(problems, fmt.Sprintf("render.orientation must be 16:9 or 9:16, got %q", c.Render.Orientation))
	}

	switch c.Captions.Mode {
	case "static", "dynamic":
	default:
		problems = append(problems, fmt.Sprintf("captions.mode must be static or dynamic, got %q", c.Captions.Mode))
	}

	switch c.Voice.Mode {
	case "remote", "local":
	default:
		problems = append(problems, fmt.Sprintf("voice.mode must be remote or local, got %q", c.Voice.Mode))
	}

	if c.Render.TextureOpacity < 0 || c.Render.TextureOpacity > 1 {
		problems = append(problems, "render.texture_opacity must be between 0 and 1")
	}
	if c.Music.Volume > 1 {
		problems = append(problems, "music.volume must be at most 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
