package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"finshorts/config"
	"finshorts/logging"
)

type commandContext struct {
	configFlag *string
	envFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	logCloser  io.Closer
	logPath    string

	app *app
}

func newCommandContext(configFlag, envFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, envFlag: envFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var explicit string
		if c.configFlag != nil {
			explicit = strings.TrimSpace(*c.configFlag)
		}
		path, err := config.ResolveConfigPath(explicit)
		if err != nil {
			c.configErr = err
			return
		}
		var envPath string
		if c.envFlag != nil {
			envPath = strings.TrimSpace(*c.envFlag)
		}
		cfg, err := config.Load(path, envPath)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger, teeing to data/logs/pipeline.log.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.config
		if cfg == nil {
			c.logger = slog.Default()
			return
		}
		c.logPath = filepath.Join(cfg.Paths.Logs, config.PipelineLogFile)
		logger, closer, err := logging.New(logging.Options{
			Level:    cfg.Logging.Level,
			Format:   cfg.Logging.Format,
			FilePath: c.logPath,
		})
		if err != nil {
			slog.Default().Warn("falling back to default logger", "error", err)
			c.logger = slog.Default()
			return
		}
		slog.SetDefault(logger)
		c.logger, c.logCloser = logger, closer
	})
	return c.logger
}

// ensureApp wires every component from the loaded config.
func (c *commandContext) ensureApp(ctx context.Context) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	a, err := buildApp(ctx, cfg, c.ensureLogger(), c.logPath)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
	if c.logCloser != nil {
		_ = c.logCloser.Close()
	}
}
