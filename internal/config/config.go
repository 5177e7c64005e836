package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"storyreel/internal/retry"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ProjectDir string `toml:"project_dir"`
	MusicDir   string `toml:"music_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Render contains configuration for scene composition and the final canvas.
type Render struct {
	Orientation       string  `toml:"orientation"`
	DebugScale        bool    `toml:"debug_scale"`
	PendulumEnabled   bool    `toml:"pendulum_enabled"`
	PendulumAmplitude float64 `toml:"pendulum_amplitude"`
	PendulumSpeed     float64 `toml:"pendulum_speed"`
	TextureFile       string  `toml:"texture_file"`
	TextureOpacity    float64 `toml:"texture_opacity"`
}

// Captions contains configuration for subtitle generation.
type Captions struct {
	Enabled   bool   `toml:"enabled"`
	Mode      string `toml:"mode"`
	MidScreen bool   `toml:"mid_screen"`
	MaxChars  int    `toml:"max_chars"`
}

// Voice contains configuration for speech synthesis.
type Voice struct {
	Mode       string   `toml:"mode"`
	VoiceID    string   `toml:"voice_id"`
	APIKeys    []string `toml:"api_keys"`
	Endpoint   string   `toml:"endpoint"`
	LocalVoice string   `toml:"local_voice"`
}

// Images contains configuration for the remote image generator.
type Images struct {
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
}

// Music contains configuration for background audio mixing.
type Music struct {
	Mood        string  `toml:"mood"`
	Track       string  `toml:"track"`
	Volume      float64 `toml:"volume"`
	FadeSeconds float64 `toml:"fade_seconds"`
}

// Workflow contains configuration for scheduling and retry behavior.
type Workflow struct {
	NetworkConcurrency int `toml:"network_concurrency"`
	LocalConcurrency   int `toml:"local_concurrency"`
	CooldownSeconds    int `toml:"cooldown_seconds"`
	ImageAttempts      int `toml:"image_attempts"`
	ImageRetrySeconds  int `toml:"image_retry_seconds"`
	ResumeGuardScenes  int `toml:"resume_guard_scenes"`
}

// Logging contains configuration for log output. File is resolved against
// LogDir when relative; empty disables file logging.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for storyreel.
//
// Configuration sections by subsystem:
//   - Paths: project, music, and log directories plus the API bind address
//   - Render: canvas orientation and scene composition effects
//   - Captions: subtitle mode and layout
//   - Voice: speech synthesis mode, voice, and credential list
//   - Images: remote image generator endpoint
//   - Music: background track selection and mix levels
//   - Workflow: wave concurrency, cool-downs, and retry policy
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Render   Render   `toml:"render"`
	Captions Captions `toml:"captions"`
	Voice    Voice    `toml:"voice"`
	Images   Images   `toml:"images"`
	Music    Music    `toml:"music"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storyreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storyreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProjectDir, c.SceneDir(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.MusicDir) != "" {
		// Best-effort so a missing music library never blocks a run.
		_ = os.MkdirAll(c.Paths.MusicDir, 0o755)
	}
	return nil
}

// SceneDir returns the directory holding per-scene artifacts.
func (c *Config) SceneDir() string {
	return filepath.Join(c.Paths.ProjectDir, "scenes")
}

// ImageRetryPolicy returns the bounded retry policy for image generation.
func (c *Config) ImageRetryPolicy() retry.Policy {
	return retry.Policy{
		Attempts: c.Workflow.ImageAttempts,
		Delay:    time.Duration(c.Workflow.ImageRetrySeconds) * time.Second,
	}
}

// Canvas returns the output resolution derived from orientation, halved in
// debug mode for faster test renders.
func (c *Config) Canvas() (width, height int) {
	if c.Render.Orientation == "9:16" {
		width, height = 1080, 1920
	} else {
		width, height = 1920, 1080
	}
	if c.Render.DebugScale {
		if c.Render.Orientation == "9:16" {
			return 720, 1280
		}
		return 1280, 720
	}
	return width, height
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
