package config

import (
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.ProjectDir, &c.Paths.MusicDir, &c.Paths.LogDir} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Render.Orientation = strings.TrimSpace(c.Render.Orientation)
	if c.Render.Orientation == "" {
		c.Render.Orientation = "16:9"
	}
	c.Captions.Mode = strings.ToLower(strings.TrimSpace(c.Captions.Mode))
	if c.Captions.Mode == "" {
		c.Captions.Mode = "static"
	}
	if c.Captions.MaxChars <= 0 {
		c.Captions.MaxChars = 85
	}
	c.Voice.Mode = strings.ToLower(strings.TrimSpace(c.Voice.Mode))
	if c.Voice.Mode == "" {
		c.Voice.Mode = "remote"
	}

	keys := c.Voice.APIKeys[:0]
	for _, key := range c.Voice.APIKeys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	c.Voice.APIKeys = keys

	c.Music.Mood = strings.ToLower(strings.TrimSpace(c.Music.Mood))
	if c.Music.Mood == "" {
		c.Music.Mood = "neutral"
	}
	if c.Music.Volume <= 0 {
		c.Music.Volume = 0.12
	}
	if c.Music.FadeSeconds <= 0 {
		c.Music.FadeSeconds = 3
	}

	if c.Workflow.NetworkConcurrency <= 0 {
		c.Workflow.NetworkConcurrency = 2
	}
	if c.Workflow.LocalConcurrency <= 0 {
		c.Workflow.LocalConcurrency = 4
	}
	if c.Workflow.CooldownSeconds < 0 {
		c.Workflow.CooldownSeconds = 0
	}
	if c.Workflow.ImageAttempts <= 0 {
		c.Workflow.ImageAttempts = 3
	}
	if c.Workflow.ImageRetrySeconds < 0 {
		c.Workflow.ImageRetrySeconds = 0
	}
	if c.Workflow.ResumeGuardScenes <= 0 {
		c.Workflow.ResumeGuardScenes = 5
	}

	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		if strings.HasPrefix(c.Logging.File, "~") {
			expanded, err := expandPath(c.Logging.File)
			if err != nil {
				return err
			}
			c.Logging.File = expanded
		} else if !filepath.IsAbs(c.Logging.File) {
			c.Logging.File = filepath.Join(c.Paths.LogDir, c.Logging.File)
		}
	}

	return nil
}
