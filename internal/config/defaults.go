package config

// Default returns the baseline configuration before file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: "~/storyreel/project",
			MusicDir:   "~/storyreel/music",
			LogDir:     "~/storyreel/logs",
			APIBind:    "127.0.0.1:7878",
		},
		Render: Render{
			Orientation:       "16:9",
			PendulumAmplitude: 4,
			PendulumSpeed:     1.3,
			TextureOpacity:    0.6,
		},
		Captions: Captions{
			Enabled:  true,
			Mode:     "static",
			MaxChars: 85,
		},
		Voice: Voice{
			Mode:       "remote",
			Endpoint:   "https://api.elevenlabs.io",
			LocalVoice: "es-DO-EmilioNeural",
		},
		Images: Images{
			Endpoint: "https://image.pollinations.ai",
			Model:    "flux",
		},
		Music: Music{
			Mood:        "neutral",
			Volume:      0.12,
			FadeSeconds: 3,
		},
		Workflow: Workflow{
			NetworkConcurrency: 2,
			LocalConcurrency:   4,
			CooldownSeconds:    1,
			ImageAttempts:      3,
			ImageRetrySeconds:  5,
			ResumeGuardScenes:  5,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
			File:   "storyreel.log",
		},
	}
}
