package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/config"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/deps"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// ensureLogger builds the process logger once, from configuration, writing
// to stderr so stdout stays clean for JSON output.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		opts := logging.Options{Writer: os.Stderr}
		if cfg := c.configValue(); cfg != nil {
			opts.Level = cfg.Logging.Level
			opts.Format = cfg.Logging.Format
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			opts.Level = *c.logLevelFlag
		}
		logger, err := logging.New(opts)
		if err != nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		c.logger = logger
	})
	return c.logger
}

// depsOptions maps the configured binary names and probe timeouts onto a
// capability check, so every command gates on the same settings.
func (c *commandContext) depsOptions() deps.Options {
	cfg := c.configValue()
	if cfg == nil {
		return deps.Options{}
	}
	return deps.Options{
		FFmpeg:            cfg.FFmpegBinary(),
		FFprobe:           cfg.FFprobeBinary(),
		VersionTimeout:    time.Duration(cfg.Timeouts.VersionProbe) * time.Second,
		CapabilityTimeout: time.Duration(cfg.Timeouts.CapabilityProbe) * time.Second,
	}
}

func (c *commandContext) introspectTimeout() time.Duration {
	if cfg := c.configValue(); cfg != nil {
		return time.Duration(cfg.Timeouts.Introspect) * time.Second
	}
	return 0
}

func (c *commandContext) convertTimeout() time.Duration {
	if cfg := c.configValue(); cfg != nil {
		return time.Duration(cfg.Timeouts.Convert) * time.Second
	}
	return 0
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
