package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"createmovie/internal/config"
	"createmovie/internal/history"
	"createmovie/internal/logging"
	"createmovie/internal/services"
)

type commandContext struct {
	configFlag *string
	verbose    *bool
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	logCloser  io.Closer
}

func newCommandContext(configFlag *string, verbose, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
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

// log returns the process logger, falling back to a console logger on
// stderr when the configured outputs cannot be opened.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil || cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		effective := *cfg
		if c.verbose != nil && *c.verbose {
			effective.Logging.Level = "debug"
		}
		logger, closer, err := logging.NewFromConfig(&effective)
		if err == nil {
			c.logCloser = closer
		} else {
			logger, _ = logging.New(logging.Options{Level: effective.Logging.Level, Format: "console", OutputPaths: []string{"stderr"}})
			if logger == nil {
				logger = logging.NewNop()
			}
			logging.WarnWithContext(logger, "log file unavailable; logging to stderr only", "logger_fallback",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.log_dir permissions"),
			)
		}
		c.logger = logger
	})
	return c.logger
}

// close releases the log file opened by log.
func (c *commandContext) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
		c.logCloser = nil
	}
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// openHistory opens the run archive. It returns nil when history is disabled.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(cfg.History.Path)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
