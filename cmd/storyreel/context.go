package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"storyreel/internal/assemble"
	"storyreel/internal/batch"
	"storyreel/internal/config"
	"storyreel/internal/inventory"
	"storyreel/internal/journal"
	"storyreel/internal/logging"
	"storyreel/internal/pipeline"
	"storyreel/internal/render"
	"storyreel/internal/scene"
	"storyreel/internal/script"
	"storyreel/internal/services/align"
	"storyreel/internal/services/imagegen"
	"storyreel/internal/services/speech"
)

// ttsKeysEnv supplies comma-separated speech API keys when the config lists
// none, so credentials can stay out of the config file.
const ttsKeysEnv = "STORYREEL_TTS_KEYS"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if len(cfg.Voice.APIKeys) == 0 {
			if env := strings.TrimSpace(os.Getenv(ttsKeysEnv)); env != "" {
				for _, key := range strings.Split(env, ",") {
					if key = strings.TrimSpace(key); key != "" {
						cfg.Voice.APIKeys = append(cfg.Voice.APIKeys, key)
					}
				}
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		opts := logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		}
		if cfg.Logging.File != "" {
			opts.OutputPaths = []string{"stdout", cfg.Logging.File}
		}
		logger, logErr := logging.New(opts)
		if logErr != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger, nil
}

// buildPipeline wires the production pipeline. The caller owns closing the
// returned journal store.
func (c *commandContext) buildPipeline() (*pipeline.Pipeline, *journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	jnl, err := journal.Open(cfg.Paths.LogDir)
	if err != nil {
		return nil, nil, err
	}

	renderer := render.NewClient()
	var synth scene.SpeechGenerator
	if cfg.Voice.Mode == speech.ModeLocal {
		synth = speech.NewLocal(cfg.Voice.LocalVoice)
	} else {
		synth = speech.NewRemote(cfg.Voice.Endpoint, cfg.Voice.VoiceID, cfg.Voice.APIKeys)
	}

	worker := pipeline.NewDefaultWorker(cfg,
		imagegen.New(cfg.Images.Endpoint, cfg.Images.Model),
		synth,
		align.New(""),
		renderer,
		logger)

	scheduler := batch.NewScheduler(batch.Options{
		NetworkConcurrency: cfg.Workflow.NetworkConcurrency,
		LocalConcurrency:   cfg.Workflow.LocalConcurrency,
		Cooldown:           time.Duration(cfg.Workflow.CooldownSeconds) * time.Second,
	}, logger)

	p := pipeline.New(cfg,
		script.NewStore(cfg.Paths.ProjectDir),
		inventory.DiskFS{},
		worker,
		scheduler,
		assemble.New(renderer, logger),
		jnl,
		logger)
	return p, jnl, nil
}
